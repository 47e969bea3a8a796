package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `
	id, COALESCE(license_id::text, ''), COALESCE(client_id::text, ''),
	COALESCE(company_id::text, ''), type,
	COALESCE(amount::text, '0'), COALESCE(discount::text, '0'),
	COALESCE(final_amount::text, '0'), status, COALESCE(notes, ''), created_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID,
		&t.LicenseID,
		&t.ClientID,
		&t.CompanyID,
		&t.Type,
		&t.Amount,
		&t.Discount,
		&t.FinalAmount,
		&t.Status,
		&t.Notes,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTransaction creates a billing transaction
func (r *Repository) CreateTransaction(ctx context.Context, tx *Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.CreatedAt = time.Now()

	query := `
	INSERT INTO transactions (id, license_id, client_id, company_id, type, amount, discount,
	                          final_amount, status, notes, created_at)
	VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, NULLIF($4, '')::uuid, $5,
	        $6::numeric, $7::numeric, $8::numeric, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		tx.ID,
		tx.LicenseID,
		tx.ClientID,
		tx.CompanyID,
		tx.Type,
		tx.Amount,
		tx.Discount,
		tx.FinalAmount,
		tx.Status,
		tx.Notes,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetTransactionByID retrieves a transaction by ID. Returns nil when no row exists.
func (r *Repository) GetTransactionByID(ctx context.Context, id string) (*Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, transactionColumns)

	tx, err := scanTransaction(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by id: %w", err)
	}

	return tx, nil
}

// ListTransactions retrieves transactions with optional filtering
func (r *Repository) ListTransactions(ctx context.Context, licenseID, clientID, status string, limit, offset int) ([]Transaction, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if licenseID != "" {
		whereClause += fmt.Sprintf(" AND license_id = $%d", argNum)
		args = append(args, licenseID)
		argNum++
	}
	if clientID != "" {
		whereClause += fmt.Sprintf(" AND client_id = $%d", argNum)
		args = append(args, clientID)
		argNum++
	}
	if status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, status)
		argNum++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", whereClause)
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}

	return transactions, total, rows.Err()
}

// UpdateTransactionStatus updates the settlement status of a transaction.
// This is the only mutation transactions ever receive.
func (r *Repository) UpdateTransactionStatus(ctx context.Context, id, status string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE transactions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}
