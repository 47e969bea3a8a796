package database

import (
	"time"
)

// Company represents a customer company in the back office
type Company struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	VATNumber     string    `json:"vat_number" db:"vat_number"`
	Email         string    `json:"email" db:"email"`
	WalletBalance string    `json:"wallet_balance" db:"wallet_balance"` // decimal string
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Client represents an end client belonging to a company
type Client struct {
	ID        string    `json:"id" db:"id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Product represents a sellable software product
type Product struct {
	ID          string    `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       string    `json:"price" db:"price"` // decimal string
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Device represents a device registered against a license key
type Device struct {
	ID           string    `json:"id" db:"id"`
	LicenseID    string    `json:"license_id" db:"license_id"`
	Name         string    `json:"name" db:"name"`
	Fingerprint  string    `json:"fingerprint" db:"fingerprint"`
	IP           string    `json:"ip" db:"ip"`
	UserAgent    string    `json:"user_agent" db:"user_agent"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	LastSeenAt   time.Time `json:"last_seen_at" db:"last_seen_at"`
}

// AdminUser represents a back-office operator account
type AdminUser struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Name         string     `json:"name" db:"name"`
	IsAdmin      bool       `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`
}
