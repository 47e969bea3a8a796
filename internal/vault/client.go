// Package vault loads application secrets from HashiCorp Vault.
//
// A single KV v2 secret holds the sensitive parts of the configuration
// (database password, JWT signing secret). When Vault is disabled the
// configuration file values are used as-is.
package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"

	"license-backoffice/config"
)

// AppSecrets are the secrets the back office reads at startup
type AppSecrets struct {
	DBPassword    string `json:"db_password"`
	JWTSecret     string `json:"jwt_secret"`
	RedisPassword string `json:"redis_password"`
}

// Client wraps the HashiCorp Vault client
type Client struct {
	client *api.Client
	config config.VaultConfig

	mu     sync.RWMutex
	cached *AppSecrets
}

// NewClient creates a new Vault client
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{config: cfg}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{
			CACert: cfg.CACert,
		}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{
		client: client,
		config: cfg,
	}, nil
}

// IsEnabled returns whether Vault is enabled
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// LoadAppSecrets reads the application secret from the configured KV v2 path.
// The result is cached for the lifetime of the process.
func (c *Client) LoadAppSecrets(ctx context.Context) (*AppSecrets, error) {
	if !c.config.Enabled {
		return &AppSecrets{}, nil
	}

	c.mu.RLock()
	if c.cached != nil {
		cached := *c.cached
		c.mu.RUnlock()
		return &cached, nil
	}
	c.mu.RUnlock()

	path := fmt.Sprintf("%s/data/%s", c.config.Mount, c.config.SecretPath)

	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read app secrets from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("app secrets not found at %s", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format at %s", path)
	}

	secrets := &AppSecrets{
		DBPassword:    getString(data, "db_password"),
		JWTSecret:     getString(data, "jwt_secret"),
		RedisPassword: getString(data, "redis_password"),
	}

	c.mu.Lock()
	c.cached = secrets
	c.mu.Unlock()

	return secrets, nil
}

// StoreAppSecrets writes the application secret, used by provisioning tooling
func (c *Client) StoreAppSecrets(ctx context.Context, secrets AppSecrets) error {
	if !c.config.Enabled {
		return fmt.Errorf("vault is disabled")
	}

	path := fmt.Sprintf("%s/data/%s", c.config.Mount, c.config.SecretPath)

	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"db_password":    secrets.DBPassword,
			"jwt_secret":     secrets.JWTSecret,
			"redis_password": secrets.RedisPassword,
		},
	}

	if _, err := c.client.Logical().WriteWithContext(ctx, path, payload); err != nil {
		return fmt.Errorf("failed to store app secrets in vault: %w", err)
	}

	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()

	return nil
}

// Health checks the Vault connection
func (c *Client) Health(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}

	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
