package renewal

import (
	"context"
	"time"

	"license-backoffice/internal/database"
)

// Store is the persistence surface the renewal scheduler needs. It is
// implemented by *database.Repository; tests swap in a fake.
type Store interface {
	// ListLicenses returns every license so the scheduler can select
	// renewal candidates itself.
	ListLicenses(ctx context.Context) ([]database.License, error)

	// GetClientByID returns nil without error when the client does not exist.
	GetClientByID(ctx context.Context, id string) (*database.Client, error)

	// CreateTransaction records the billing transaction for one renewal.
	CreateTransaction(ctx context.Context, tx *database.Transaction) error

	// UpdateLicenseRenewal persists the renewal outcome for one license:
	// new expiry date, appended notes, and status.
	UpdateLicenseRenewal(ctx context.Context, id string, expiryDate *time.Time, notes, status string) error
}
