package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const companyColumns = `
	id, name, COALESCE(vat_number, ''), COALESCE(email, ''),
	COALESCE(wallet_balance::text, '0'), created_at, updated_at`

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.VATNumber,
		&c.Email,
		&c.WalletBalance,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCompany creates a new company
func (r *Repository) CreateCompany(ctx context.Context, company *Company) error {
	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	if company.WalletBalance == "" {
		company.WalletBalance = "0.00"
	}
	company.CreatedAt = time.Now()
	company.UpdatedAt = company.CreatedAt

	query := `
	INSERT INTO companies (id, name, vat_number, email, wallet_balance, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		company.ID,
		company.Name,
		company.VATNumber,
		company.Email,
		company.WalletBalance,
		company.CreatedAt,
		company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}

	return nil
}

// GetCompanyByID retrieves a company by ID. Returns nil when no row exists.
func (r *Repository) GetCompanyByID(ctx context.Context, id string) (*Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE id = $1`, companyColumns)

	company, err := scanCompany(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company by id: %w", err)
	}

	return company, nil
}

// ListCompanies retrieves all companies
func (r *Repository) ListCompanies(ctx context.Context, limit, offset int) ([]Company, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count companies: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM companies ORDER BY name LIMIT $1 OFFSET $2`, companyColumns)

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, *company)
	}

	return companies, total, rows.Err()
}

// UpdateCompany updates a company
func (r *Repository) UpdateCompany(ctx context.Context, company *Company) error {
	company.UpdatedAt = time.Now()

	query := `
	UPDATE companies
	SET name = $2, vat_number = $3, email = $4, updated_at = $5
	WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		company.ID,
		company.Name,
		company.VATNumber,
		company.Email,
		company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}

	return nil
}

// CreditCompanyWallet atomically adds the given decimal amount to a
// company's wallet balance and returns the new balance. A negative amount
// debits the wallet; the balance is never allowed below zero.
func (r *Repository) CreditCompanyWallet(ctx context.Context, id string, amount string) (string, error) {
	query := `
	UPDATE companies
	SET wallet_balance = wallet_balance + $2::numeric, updated_at = NOW()
	WHERE id = $1 AND wallet_balance + $2::numeric >= 0
	RETURNING wallet_balance::text
	`

	var balance string
	err := r.db.Pool.QueryRow(ctx, query, id, amount).Scan(&balance)
	if err == pgx.ErrNoRows {
		return "", fmt.Errorf("wallet credit rejected: company missing or insufficient balance")
	}
	if err != nil {
		return "", fmt.Errorf("failed to credit company wallet: %w", err)
	}

	return balance, nil
}

// DeleteCompany deletes a company
func (r *Repository) DeleteCompany(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	return err
}
