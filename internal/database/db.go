package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"license-backoffice/internal/logging"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewDB creates a new database connection
func NewDB(cfg Config) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	logging.WithComponent("database").Info("Connected to PostgreSQL database", "database", cfg.Database)

	return &DB{Pool: pool}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		logging.WithComponent("database").Info("Database connection closed")
	}
}

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	logging.WithComponent("database").Info("Running database migrations")

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			vat_number VARCHAR(32),
			email VARCHAR(255),
			wallet_balance NUMERIC(12, 2) NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name)`,

		`CREATE TABLE IF NOT EXISTS clients (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			company_id UUID REFERENCES companies(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			phone VARCHAR(32),
			notes TEXT,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_company ON clients(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_email ON clients(email)`,

		`CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			code VARCHAR(64) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			price NUMERIC(10, 2) NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS licenses (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			key VARCHAR(20) UNIQUE NOT NULL,
			license_type VARCHAR(32) NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'in_attesa_convalida',
			client_id UUID REFERENCES clients(id) ON DELETE SET NULL,
			product_id UUID REFERENCES products(id) ON DELETE SET NULL,
			expiry_date TIMESTAMP,
			renewal_enabled BOOLEAN NOT NULL DEFAULT false,
			trial_days INTEGER NOT NULL DEFAULT 30,
			price NUMERIC(10, 2) NOT NULL DEFAULT 0,
			discount NUMERIC(10, 2) NOT NULL DEFAULT 0,
			notes TEXT,
			activated_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_licenses_key ON licenses(key)`,
		`CREATE INDEX IF NOT EXISTS idx_licenses_client ON licenses(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_licenses_status ON licenses(status)`,
		`CREATE INDEX IF NOT EXISTS idx_licenses_type ON licenses(license_type)`,
		`CREATE INDEX IF NOT EXISTS idx_licenses_expiry ON licenses(expiry_date)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			license_id UUID REFERENCES licenses(id) ON DELETE SET NULL,
			client_id UUID REFERENCES clients(id) ON DELETE SET NULL,
			company_id UUID REFERENCES companies(id) ON DELETE SET NULL,
			type VARCHAR(32) NOT NULL,
			amount NUMERIC(10, 2) NOT NULL DEFAULT 0,
			discount NUMERIC(10, 2) NOT NULL DEFAULT 0,
			final_amount NUMERIC(10, 2) NOT NULL DEFAULT 0,
			status VARCHAR(32) NOT NULL DEFAULT 'in_attesa',
			notes TEXT,
			created_at TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_license ON transactions(license_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_client ON transactions(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions(created_at)`,

		`CREATE TABLE IF NOT EXISTS devices (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			license_id UUID REFERENCES licenses(id) ON DELETE CASCADE,
			name VARCHAR(255),
			fingerprint VARCHAR(128) NOT NULL,
			ip VARCHAR(45),
			user_agent TEXT,
			registered_at TIMESTAMP DEFAULT NOW(),
			last_seen_at TIMESTAMP DEFAULT NOW(),
			UNIQUE (license_id, fingerprint)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_devices_license ON devices(license_id)`,

		`CREATE TABLE IF NOT EXISTS admin_users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255),
			is_admin BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP DEFAULT NOW(),
			last_login_at TIMESTAMP
		)`,
	}

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	logging.WithComponent("database").Info("Database migrations completed", "count", len(migrations))
	return nil
}
