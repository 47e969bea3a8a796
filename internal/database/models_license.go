package database

import (
	"time"
)

// License represents a software license in the database.
// Price and Discount are exact decimal strings (NUMERIC columns scanned as
// text); arithmetic on them happens only in the renewal and activation paths.
type License struct {
	ID             string     `json:"id" db:"id"`
	Key            string     `json:"key" db:"key"`
	LicenseType    string     `json:"license_type" db:"license_type"` // permanente, trial, abbonamento_mensile, abbonamento_annuale (+ legacy mensile, annuale)
	Status         string     `json:"status" db:"status"`             // attiva, demo, scaduta, in_attesa_convalida, sospesa
	ClientID       string     `json:"client_id" db:"client_id"`
	ProductID      string     `json:"product_id" db:"product_id"`
	ExpiryDate     *time.Time `json:"expiry_date" db:"expiry_date"` // nil = no expiry (permanent) or not yet computed
	RenewalEnabled bool       `json:"renewal_enabled" db:"renewal_enabled"`
	TrialDays      int        `json:"trial_days" db:"trial_days"`
	Price          string     `json:"price" db:"price"`
	Discount       string     `json:"discount" db:"discount"`
	Notes          string     `json:"notes" db:"notes"` // append-only audit log; renewal adds timestamped lines
	ActivatedAt    *time.Time `json:"activated_at" db:"activated_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Transaction represents a billing transaction. Rows are created by license
// activation and by the automatic renewal scheduler, and are never mutated
// except for settlement status updates from the admin console.
type Transaction struct {
	ID          string    `json:"id" db:"id"`
	LicenseID   string    `json:"license_id" db:"license_id"`
	ClientID    string    `json:"client_id" db:"client_id"`
	CompanyID   string    `json:"company_id" db:"company_id"` // denormalized from the client at creation time
	Type        string    `json:"type" db:"type"`             // rinnovo, attivazione
	Amount      string    `json:"amount" db:"amount"`
	Discount    string    `json:"discount" db:"discount"`
	FinalAmount string    `json:"final_amount" db:"final_amount"`
	Status      string    `json:"status" db:"status"` // in_attesa, pagata, annullata
	Notes       string    `json:"notes" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
