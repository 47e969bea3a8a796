package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config is the top-level application configuration.
type Config struct {
	ServerConfig   ServerConfig   `json:"server"`
	DatabaseConfig DatabaseConfig `json:"database"`
	RedisConfig    RedisConfig    `json:"redis"`
	VaultConfig    VaultConfig    `json:"vault"`
	AuthConfig     AuthConfig     `json:"auth"`
	RenewalConfig  RenewalConfig  `json:"renewal"`
	LoggingConfig  LoggingConfig  `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string   `json:"host"`
	Port            int      `json:"port"`
	ProductionMode  bool     `json:"production_mode"`
	StaticFilesPath string   `json:"static_files_path"` // Path to built React admin console
	AllowedOrigins  []string `json:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

// RedisConfig holds Redis configuration. Redis is optional; when disabled the
// renewal run lock degrades to an in-process guard.
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// VaultConfig holds HashiCorp Vault configuration for application secrets
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	Mount      string `json:"mount"`       // KV v2 mount, e.g. "secret"
	SecretPath string `json:"secret_path"` // path holding db_password / jwt_secret
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

// AuthConfig holds JWT authentication configuration
type AuthConfig struct {
	Enabled            bool   `json:"enabled"`
	JWTSecret          string `json:"jwt_secret"`
	AccessTokenMinutes int    `json:"access_token_minutes"`
	SeedAdminEmail     string `json:"seed_admin_email"`
	SeedAdminPassword  string `json:"seed_admin_password"`
	MinPasswordLength  int    `json:"min_password_length"`
	BcryptCost         int    `json:"bcrypt_cost"`
}

// RenewalConfig holds the automatic renewal scheduler tunables.
// The trigger fires once daily at run_hour:run_minute local wall-clock
// time in the configured timezone (midnight by default).
type RenewalConfig struct {
	Enabled   bool   `json:"enabled"`
	Timezone  string `json:"timezone"` // IANA zone, e.g. "Europe/Rome"
	RunHour   int    `json:"run_hour"`
	RunMinute int    `json:"run_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `json:"level"`        // DEBUG, INFO, WARN, ERROR
	Output      string `json:"output"`       // stdout, stderr, or file path
	JSONFormat  bool   `json:"json_format"`  // Output as JSON
	IncludeFile bool   `json:"include_file"` // Include file and line number
}

// Default returns a configuration with development defaults.
func Default() *Config {
	return &Config{
		ServerConfig: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8090,
			ProductionMode:  false,
			StaticFilesPath: "./web/dist",
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:8090"},
		},
		DatabaseConfig: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "license_office",
			Password: "license_office",
			Database: "license_office",
			SSLMode:  "disable",
		},
		RedisConfig: RedisConfig{
			Enabled: false,
			Address: "localhost:6379",
		},
		VaultConfig: VaultConfig{
			Enabled:    false,
			Mount:      "secret",
			SecretPath: "license-backoffice/app",
		},
		AuthConfig: AuthConfig{
			Enabled:            true,
			AccessTokenMinutes: 60 * 12,
			SeedAdminEmail:     "admin@localhost",
			MinPasswordLength:  8,
			BcryptCost:         12,
		},
		RenewalConfig: RenewalConfig{
			Enabled:   true,
			Timezone:  "Europe/Rome",
			RunHour:   0,
			RunMinute: 0,
		},
		LoggingConfig: LoggingConfig{
			Level:      "INFO",
			Output:     "stdout",
			JSONFormat: true,
		},
	}
}

// Load reads configuration from CONFIG_PATH (default config.json when present)
// and applies environment variable overrides on top.
func Load() (*Config, error) {
	cfg := Default()

	path := getEnv("CONFIG_PATH", "config.json")
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if cfg.RenewalConfig.Timezone == "" {
		cfg.RenewalConfig.Timezone = "Europe/Rome"
	}
	if cfg.RenewalConfig.RunHour < 0 || cfg.RenewalConfig.RunHour > 23 {
		return nil, fmt.Errorf("invalid renewal run_hour: %d", cfg.RenewalConfig.RunHour)
	}
	if cfg.RenewalConfig.RunMinute < 0 || cfg.RenewalConfig.RunMinute > 59 {
		return nil, fmt.Errorf("invalid renewal run_minute: %d", cfg.RenewalConfig.RunMinute)
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.ServerConfig.Host = getEnv("WEB_HOST", c.ServerConfig.Host)
	c.ServerConfig.Port = getEnvInt("WEB_PORT", c.ServerConfig.Port)

	c.DatabaseConfig.Host = getEnv("DB_HOST", c.DatabaseConfig.Host)
	c.DatabaseConfig.Port = getEnvInt("DB_PORT", c.DatabaseConfig.Port)
	c.DatabaseConfig.User = getEnv("DB_USER", c.DatabaseConfig.User)
	c.DatabaseConfig.Password = getEnv("DB_PASSWORD", c.DatabaseConfig.Password)
	c.DatabaseConfig.Database = getEnv("DB_NAME", c.DatabaseConfig.Database)
	c.DatabaseConfig.SSLMode = getEnv("DB_SSLMODE", c.DatabaseConfig.SSLMode)

	c.RedisConfig.Address = getEnv("REDIS_ADDR", c.RedisConfig.Address)
	c.RedisConfig.Password = getEnv("REDIS_PASSWORD", c.RedisConfig.Password)
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		c.RedisConfig.Enabled = v == "true" || v == "1"
	}

	c.VaultConfig.Address = getEnv("VAULT_ADDR", c.VaultConfig.Address)
	c.VaultConfig.Token = getEnv("VAULT_TOKEN", c.VaultConfig.Token)
	if v := os.Getenv("VAULT_ENABLED"); v != "" {
		c.VaultConfig.Enabled = v == "true" || v == "1"
	}

	c.AuthConfig.JWTSecret = getEnv("JWT_SECRET", c.AuthConfig.JWTSecret)
	c.AuthConfig.SeedAdminEmail = getEnv("ADMIN_EMAIL", c.AuthConfig.SeedAdminEmail)
	c.AuthConfig.SeedAdminPassword = getEnv("ADMIN_PASSWORD", c.AuthConfig.SeedAdminPassword)

	c.RenewalConfig.Timezone = getEnv("RENEWAL_TIMEZONE", c.RenewalConfig.Timezone)
	c.RenewalConfig.RunHour = getEnvInt("RENEWAL_RUN_HOUR", c.RenewalConfig.RunHour)
	c.RenewalConfig.RunMinute = getEnvInt("RENEWAL_RUN_MINUTE", c.RenewalConfig.RunMinute)

	c.LoggingConfig.Level = getEnv("LOG_LEVEL", c.LoggingConfig.Level)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
