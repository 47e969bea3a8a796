package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"license-backoffice/internal/database"
	"license-backoffice/internal/logging"
)

// SeedAdminUser ensures a first operator account exists so a fresh install
// is reachable. It creates the account when missing and realigns the
// password when it no longer matches the configured one. A blank password
// disables seeding entirely.
func SeedAdminUser(ctx context.Context, repo *database.Repository, email, password string, bcryptCost int) error {
	log := logging.WithComponent("auth")

	if email == "" || password == "" {
		log.Info("Admin seeding disabled, no seed credentials configured")
		return nil
	}
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = DefaultBcryptCost
	}

	user, err := repo.GetAdminUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	if user == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}

		admin := &database.AdminUser{
			Email:        email,
			PasswordHash: string(hash),
			Name:         "Administrator",
			IsAdmin:      true,
		}
		if err := repo.CreateAdminUser(ctx, admin); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Info("Admin user created", "email", email, "id", admin.ID)
		return nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		if err := repo.UpdateAdminPassword(ctx, user.ID, string(hash)); err != nil {
			return fmt.Errorf("failed to update admin password: %w", err)
		}
		log.Info("Admin password realigned with configuration", "email", email)
	}

	return nil
}
