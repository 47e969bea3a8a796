package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const adminUserColumns = `
	id, email, password_hash, COALESCE(name, ''), is_admin, created_at, last_login_at`

func scanAdminUser(row pgx.Row) (*AdminUser, error) {
	var u AdminUser
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.IsAdmin,
		&u.CreatedAt,
		&u.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateAdminUser creates a back-office operator account
func (r *Repository) CreateAdminUser(ctx context.Context, user *AdminUser) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()

	query := `
	INSERT INTO admin_users (id, email, password_hash, name, is_admin, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.IsAdmin,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return nil
}

// GetAdminUserByEmail retrieves an operator by email. Returns nil when no row exists.
func (r *Repository) GetAdminUserByEmail(ctx context.Context, email string) (*AdminUser, error) {
	query := fmt.Sprintf(`SELECT %s FROM admin_users WHERE email = $1`, adminUserColumns)

	user, err := scanAdminUser(r.db.Pool.QueryRow(ctx, query, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin user by email: %w", err)
	}

	return user, nil
}

// GetAdminUserByID retrieves an operator by ID. Returns nil when no row exists.
func (r *Repository) GetAdminUserByID(ctx context.Context, id string) (*AdminUser, error) {
	query := fmt.Sprintf(`SELECT %s FROM admin_users WHERE id = $1`, adminUserColumns)

	user, err := scanAdminUser(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin user by id: %w", err)
	}

	return user, nil
}

// CountAdminUsers returns the number of operator accounts
func (r *Repository) CountAdminUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admin users: %w", err)
	}
	return count, nil
}

// UpdateAdminPassword replaces an operator's password hash
func (r *Repository) UpdateAdminPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE admin_users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update admin password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("admin user not found: %s", id)
	}
	return nil
}

// UpdateAdminLastLogin records a successful login
func (r *Repository) UpdateAdminLastLogin(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE admin_users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}
