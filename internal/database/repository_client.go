package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const clientColumns = `
	id, COALESCE(company_id::text, ''), name, COALESCE(email, ''),
	COALESCE(phone, ''), COALESCE(notes, ''), created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(
		&c.ID,
		&c.CompanyID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClient creates a new client
func (r *Repository) CreateClient(ctx context.Context, client *Client) error {
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt

	query := `
	INSERT INTO clients (id, company_id, name, email, phone, notes, created_at, updated_at)
	VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		client.ID,
		client.CompanyID,
		client.Name,
		client.Email,
		client.Phone,
		client.Notes,
		client.CreatedAt,
		client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// GetClientByID retrieves a client by ID. Returns nil when no row exists.
func (r *Repository) GetClientByID(ctx context.Context, id string) (*Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE id = $1`, clientColumns)

	client, err := scanClient(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by id: %w", err)
	}

	return client, nil
}

// ListClients retrieves clients, optionally filtered by company
func (r *Repository) ListClients(ctx context.Context, companyID string, limit, offset int) ([]Client, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if companyID != "" {
		whereClause += fmt.Sprintf(" AND company_id = $%d", argNum)
		args = append(args, companyID)
		argNum++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM clients %s", whereClause)
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM clients %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		clientColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *client)
	}

	return clients, total, rows.Err()
}

// UpdateClient updates a client
func (r *Repository) UpdateClient(ctx context.Context, client *Client) error {
	client.UpdatedAt = time.Now()

	query := `
	UPDATE clients
	SET company_id = NULLIF($2, '')::uuid, name = $3, email = $4, phone = $5,
	    notes = $6, updated_at = $7
	WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		client.ID,
		client.CompanyID,
		client.Name,
		client.Email,
		client.Phone,
		client.Notes,
		client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	return nil
}

// DeleteClient deletes a client
func (r *Repository) DeleteClient(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	return err
}
