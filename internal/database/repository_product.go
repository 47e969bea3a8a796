package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const productColumns = `
	id, code, name, COALESCE(description, ''),
	COALESCE(price::text, '0'), created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct creates a new product
func (r *Repository) CreateProduct(ctx context.Context, product *Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Price == "" {
		product.Price = "0.00"
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt

	query := `
	INSERT INTO products (id, code, name, description, price, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		product.ID,
		product.Code,
		product.Name,
		product.Description,
		product.Price,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// GetProductByID retrieves a product by ID. Returns nil when no row exists.
func (r *Repository) GetProductByID(ctx context.Context, id string) (*Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	product, err := scanProduct(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}

	return product, nil
}

// ListProducts retrieves all products
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY code`, productColumns)

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *product)
	}

	return products, rows.Err()
}

// UpdateProduct updates a product
func (r *Repository) UpdateProduct(ctx context.Context, product *Product) error {
	product.UpdatedAt = time.Now()

	query := `
	UPDATE products
	SET code = $2, name = $3, description = $4, price = $5::numeric, updated_at = $6
	WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		product.ID,
		product.Code,
		product.Name,
		product.Description,
		product.Price,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// DeleteProduct deletes a product
func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}
