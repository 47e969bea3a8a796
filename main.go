package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"license-backoffice/config"
	"license-backoffice/internal/api"
	"license-backoffice/internal/auth"
	"license-backoffice/internal/database"
	"license-backoffice/internal/events"
	"license-backoffice/internal/logging"
	"license-backoffice/internal/renewal"
	"license-backoffice/internal/vault"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(&logging.Config{
		Level:       cfg.LoggingConfig.Level,
		Output:      cfg.LoggingConfig.Output,
		JSONFormat:  cfg.LoggingConfig.JSONFormat,
		IncludeFile: cfg.LoggingConfig.IncludeFile,
		Component:   "main",
	})
	logging.SetDefault(logger)
	logger.Info("Structured logging initialized")

	ctx := context.Background()

	// Load secrets from Vault when enabled; config values stay authoritative
	// otherwise.
	vaultClient, err := vault.NewClient(cfg.VaultConfig)
	if err != nil {
		log.Fatalf("Failed to create vault client: %v", err)
	}
	if vaultClient.IsEnabled() {
		secrets, err := vaultClient.LoadAppSecrets(ctx)
		if err != nil {
			log.Fatalf("Failed to load secrets from vault: %v", err)
		}
		if secrets.DBPassword != "" {
			cfg.DatabaseConfig.Password = secrets.DBPassword
		}
		if secrets.JWTSecret != "" {
			cfg.AuthConfig.JWTSecret = secrets.JWTSecret
		}
		if secrets.RedisPassword != "" {
			cfg.RedisConfig.Password = secrets.RedisPassword
		}
		logger.Info("Application secrets loaded from vault")
	}

	// Initialize event bus
	eventBus := events.NewEventBus()
	logger.Info("Event bus initialized")

	// Initialize database
	db, err := database.NewDB(database.Config{
		Host:     cfg.DatabaseConfig.Host,
		Port:     cfg.DatabaseConfig.Port,
		User:     cfg.DatabaseConfig.User,
		Password: cfg.DatabaseConfig.Password,
		Database: cfg.DatabaseConfig.Database,
		SSLMode:  cfg.DatabaseConfig.SSLMode,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	repo := database.NewRepository(db)

	// Authentication
	var authService *auth.Service
	if cfg.AuthConfig.Enabled {
		if cfg.AuthConfig.JWTSecret == "" {
			log.Fatalf("Auth is enabled but no JWT secret is configured")
		}

		authService = auth.NewService(repo, auth.Config{
			JWTSecret:           cfg.AuthConfig.JWTSecret,
			AccessTokenDuration: time.Duration(cfg.AuthConfig.AccessTokenMinutes) * time.Minute,
			MinPasswordLength:   cfg.AuthConfig.MinPasswordLength,
			BcryptCost:          cfg.AuthConfig.BcryptCost,
		})

		if err := auth.SeedAdminUser(ctx, repo,
			cfg.AuthConfig.SeedAdminEmail, cfg.AuthConfig.SeedAdminPassword,
			cfg.AuthConfig.BcryptCost); err != nil {
			log.Fatalf("Failed to seed admin user: %v", err)
		}
	} else {
		logger.Warn("Authentication is disabled, the admin API is open")
	}

	// Renewal run lock, Redis backed when available
	var redisClient = redisClientFromConfig(cfg)
	runLock := database.NewRunLock(redisClient)

	// Renewal scheduler
	scheduler := renewal.NewScheduler(repo, runLock, eventBus, renewal.Config{
		Timezone:  cfg.RenewalConfig.Timezone,
		RunHour:   cfg.RenewalConfig.RunHour,
		RunMinute: cfg.RenewalConfig.RunMinute,
	})
	if cfg.RenewalConfig.Enabled {
		if err := scheduler.Start(); err != nil {
			log.Fatalf("Failed to start renewal scheduler: %v", err)
		}
	} else {
		logger.Warn("Automatic renewals are disabled, runs must be triggered manually")
	}

	// HTTP server
	server := api.NewServer(api.ServerConfig{
		Port:            cfg.ServerConfig.Port,
		Host:            cfg.ServerConfig.Host,
		ProductionMode:  cfg.ServerConfig.ProductionMode,
		StaticFilesPath: cfg.ServerConfig.StaticFilesPath,
		AllowedOrigins:  cfg.ServerConfig.AllowedOrigins,
	}, repo, eventBus, authService, vaultClient, scheduler)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start web server: %v", err)
		}
	}()

	logger.Info("License back office started",
		"addr", cfg.ServerConfig.Host,
		"port", cfg.ServerConfig.Port,
		"renewals_enabled", cfg.RenewalConfig.Enabled,
		"timezone", cfg.RenewalConfig.Timezone)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down web server", "error", err)
	}

	if err := scheduler.Stop(); err != nil {
		logger.Error("Error stopping renewal scheduler", "error", err)
	}

	logger.Info("Shutdown complete")
}

// redisClientFromConfig builds the optional Redis client for the run lock
func redisClientFromConfig(cfg *config.Config) *redis.Client {
	if !cfg.RedisConfig.Enabled {
		return nil
	}
	return database.NewRedisClient(cfg.RedisConfig.Address, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
}
