package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const licenseColumns = `
	id, key, license_type, status,
	COALESCE(client_id::text, ''), COALESCE(product_id::text, ''),
	expiry_date, renewal_enabled, trial_days,
	COALESCE(price::text, '0'), COALESCE(discount::text, '0'),
	COALESCE(notes, ''), activated_at, created_at, updated_at`

func scanLicense(row pgx.Row) (*License, error) {
	var l License
	err := row.Scan(
		&l.ID,
		&l.Key,
		&l.LicenseType,
		&l.Status,
		&l.ClientID,
		&l.ProductID,
		&l.ExpiryDate,
		&l.RenewalEnabled,
		&l.TrialDays,
		&l.Price,
		&l.Discount,
		&l.Notes,
		&l.ActivatedAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLicense creates a new license
func (r *Repository) CreateLicense(ctx context.Context, license *License) error {
	if license.ID == "" {
		license.ID = uuid.New().String()
	}
	license.CreatedAt = time.Now()
	license.UpdatedAt = license.CreatedAt

	query := `
	INSERT INTO licenses (id, key, license_type, status, client_id, product_id, expiry_date,
	                      renewal_enabled, trial_days, price, discount, notes, activated_at,
	                      created_at, updated_at)
	VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, NULLIF($6, '')::uuid, $7, $8, $9,
	        $10::numeric, $11::numeric, $12, $13, $14, $15)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		license.ID,
		license.Key,
		license.LicenseType,
		license.Status,
		license.ClientID,
		license.ProductID,
		license.ExpiryDate,
		license.RenewalEnabled,
		license.TrialDays,
		license.Price,
		license.Discount,
		license.Notes,
		license.ActivatedAt,
		license.CreatedAt,
		license.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create license: %w", err)
	}

	return nil
}

// GetLicenseByID retrieves a license by ID
func (r *Repository) GetLicenseByID(ctx context.Context, id string) (*License, error) {
	query := fmt.Sprintf(`SELECT %s FROM licenses WHERE id = $1`, licenseColumns)

	license, err := scanLicense(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license by id: %w", err)
	}

	return license, nil
}

// GetLicenseByKey retrieves a license by its key
func (r *Repository) GetLicenseByKey(ctx context.Context, key string) (*License, error) {
	query := fmt.Sprintf(`SELECT %s FROM licenses WHERE key = $1`, licenseColumns)

	license, err := scanLicense(r.db.Pool.QueryRow(ctx, query, key))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license by key: %w", err)
	}

	return license, nil
}

// ListLicenses retrieves every license. The renewal scheduler filters
// candidates in memory, so this is a deliberate full scan.
func (r *Repository) ListLicenses(ctx context.Context) ([]License, error) {
	query := fmt.Sprintf(`SELECT %s FROM licenses ORDER BY created_at`, licenseColumns)

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}
	defer rows.Close()

	var licenses []License
	for rows.Next() {
		license, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan license: %w", err)
		}
		licenses = append(licenses, *license)
	}

	return licenses, rows.Err()
}

// ListLicensesFiltered retrieves licenses with optional filtering for the admin API
func (r *Repository) ListLicensesFiltered(ctx context.Context, licenseType, status, clientID string, limit, offset int) ([]License, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if licenseType != "" {
		whereClause += fmt.Sprintf(" AND license_type = $%d", argNum)
		args = append(args, licenseType)
		argNum++
	}
	if status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, status)
		argNum++
	}
	if clientID != "" {
		whereClause += fmt.Sprintf(" AND client_id = $%d", argNum)
		args = append(args, clientID)
		argNum++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM licenses %s", whereClause)
	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count licenses: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM licenses %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		licenseColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list licenses: %w", err)
	}
	defer rows.Close()

	var licenses []License
	for rows.Next() {
		license, err := scanLicense(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan license: %w", err)
		}
		licenses = append(licenses, *license)
	}

	return licenses, total, rows.Err()
}

// UpdateLicense updates the admin-editable fields of a license
func (r *Repository) UpdateLicense(ctx context.Context, license *License) error {
	license.UpdatedAt = time.Now()

	query := `
	UPDATE licenses
	SET license_type = $2, status = $3, client_id = NULLIF($4, '')::uuid,
	    product_id = NULLIF($5, '')::uuid, expiry_date = $6, renewal_enabled = $7,
	    trial_days = $8, price = $9::numeric, discount = $10::numeric, notes = $11,
	    updated_at = $12
	WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		license.ID,
		license.LicenseType,
		license.Status,
		license.ClientID,
		license.ProductID,
		license.ExpiryDate,
		license.RenewalEnabled,
		license.TrialDays,
		license.Price,
		license.Discount,
		license.Notes,
		license.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update license: %w", err)
	}

	return nil
}

// UpdateLicenseRenewal persists the outcome of a renewal: the advanced expiry
// date, the appended notes and the re-asserted status. Nothing else on the
// row is touched.
func (r *Repository) UpdateLicenseRenewal(ctx context.Context, id string, expiryDate *time.Time, notes, status string) error {
	query := `
	UPDATE licenses
	SET expiry_date = $2, notes = $3, status = $4, updated_at = NOW()
	WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, id, expiryDate, notes, status)
	if err != nil {
		return fmt.Errorf("failed to update license renewal: %w", err)
	}

	return nil
}

// ActivateLicense marks a license as activated and active
func (r *Repository) ActivateLicense(ctx context.Context, id string, expiryDate *time.Time, status string) error {
	now := time.Now()
	query := `
	UPDATE licenses
	SET status = $2, expiry_date = $3, activated_at = $4, updated_at = $4
	WHERE id = $1
	`
	_, err := r.db.Pool.Exec(ctx, query, id, status, expiryDate, now)
	if err != nil {
		return fmt.Errorf("failed to activate license: %w", err)
	}
	return nil
}

// DeleteLicense deletes a license
func (r *Repository) DeleteLicense(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM licenses WHERE id = $1`, id)
	return err
}

// GetLicenseStats returns license statistics for the admin dashboard
func (r *Repository) GetLicenseStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	query := `
	SELECT license_type, COUNT(*) as count,
	       SUM(CASE WHEN status = 'attiva' THEN 1 ELSE 0 END) as active_count
	FROM licenses
	GROUP BY license_type
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get license stats by type: %w", err)
	}
	defer rows.Close()

	byType := make(map[string]map[string]int)
	for rows.Next() {
		var licenseType string
		var count, activeCount int
		if err := rows.Scan(&licenseType, &count, &activeCount); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		byType[licenseType] = map[string]int{
			"total":  count,
			"active": activeCount,
		}
	}
	stats["by_type"] = byType

	var totalActive int
	err = r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM licenses WHERE status = 'attiva'`).Scan(&totalActive)
	if err != nil {
		return nil, fmt.Errorf("failed to get total active: %w", err)
	}
	stats["total_active"] = totalActive

	var total int
	err = r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM licenses`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to get total: %w", err)
	}
	stats["total"] = total

	var expiringSoon int
	err = r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM licenses WHERE status = 'attiva' AND expiry_date IS NOT NULL AND expiry_date < NOW() + INTERVAL '7 days'`,
	).Scan(&expiringSoon)
	if err != nil {
		return nil, fmt.Errorf("failed to get expiring soon: %w", err)
	}
	stats["expiring_within_7_days"] = expiringSoon

	return stats, nil
}
