package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const deviceColumns = `
	id, COALESCE(license_id::text, ''), COALESCE(name, ''), fingerprint,
	COALESCE(ip, ''), COALESCE(user_agent, ''), registered_at, last_seen_at`

func scanDevice(row pgx.Row) (*Device, error) {
	var d Device
	err := row.Scan(
		&d.ID,
		&d.LicenseID,
		&d.Name,
		&d.Fingerprint,
		&d.IP,
		&d.UserAgent,
		&d.RegisteredAt,
		&d.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// RegisterDevice registers a device against a license. Registering the same
// fingerprint again refreshes the last-seen data instead of creating a row.
func (r *Repository) RegisterDevice(ctx context.Context, device *Device) error {
	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	now := time.Now()
	device.RegisteredAt = now
	device.LastSeenAt = now

	query := `
	INSERT INTO devices (id, license_id, name, fingerprint, ip, user_agent, registered_at, last_seen_at)
	VALUES ($1, $2::uuid, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (license_id, fingerprint)
	DO UPDATE SET name = EXCLUDED.name, ip = EXCLUDED.ip,
	              user_agent = EXCLUDED.user_agent, last_seen_at = EXCLUDED.last_seen_at
	`

	_, err := r.db.Pool.Exec(ctx, query,
		device.ID,
		device.LicenseID,
		device.Name,
		device.Fingerprint,
		device.IP,
		device.UserAgent,
		device.RegisteredAt,
		device.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}

	return nil
}

// ListDevicesByLicense retrieves all devices registered against a license
func (r *Repository) ListDevicesByLicense(ctx context.Context, licenseID string) ([]Device, error) {
	query := fmt.Sprintf(`SELECT %s FROM devices WHERE license_id = $1 ORDER BY registered_at`, deviceColumns)

	rows, err := r.db.Pool.Query(ctx, query, licenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, *device)
	}

	return devices, rows.Err()
}

// TouchDevice updates the last-seen timestamp and IP for a device
func (r *Repository) TouchDevice(ctx context.Context, id, ip string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE devices SET last_seen_at = NOW(), ip = $2 WHERE id = $1`, id, ip)
	return err
}

// DeleteDevice removes a device registration
func (r *Repository) DeleteDevice(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)
	return err
}
