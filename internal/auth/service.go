package auth

import (
	"context"
	"fmt"

	"license-backoffice/internal/database"
	"license-backoffice/internal/logging"
)

// Service implements operator authentication for the admin console
type Service struct {
	repo      *database.Repository
	jwt       *JWTManager
	passwords *PasswordManager
	log       *logging.Logger
}

// NewService creates a new authentication service
func NewService(repo *database.Repository, cfg Config) *Service {
	return &Service{
		repo:      repo,
		jwt:       NewJWTManager(cfg.JWTSecret, cfg.AccessTokenDuration),
		passwords: NewPasswordManager(cfg.BcryptCost, cfg.MinPasswordLength),
		log:       logging.WithComponent("auth"),
	}
}

// JWT exposes the token manager for middleware wiring
func (s *Service) JWT() *JWTManager {
	return s.jwt
}

// Login authenticates an operator and issues an access token
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.GetAdminUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up operator: %w", err)
	}
	if user == nil {
		// Hash anyway to keep timing comparable with the found case.
		s.passwords.VerifyPassword(req.Password, "$2a$12$000000000000000000000uGyUvPeVkCngJQNHsMDYsgVZm9WJG6Ga")
		return nil, ErrInvalidCredentials
	}

	if !s.passwords.VerifyPassword(req.Password, user.PasswordHash) {
		s.log.Warn("Failed login attempt", "email", req.Email)
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateAccessToken(UserClaims{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.repo.UpdateAdminLastLogin(ctx, user.ID); err != nil {
		s.log.Warn("Failed to record last login", "error", err)
	}

	s.log.Info("Operator logged in", "email", user.Email)

	return &LoginResponse{
		User:        toUserResponse(user),
		AccessToken: token,
		ExpiresIn:   s.jwt.GetAccessTokenDuration(),
		TokenType:   "Bearer",
	}, nil
}

// GetUser returns the operator for the given ID
func (s *Service) GetUser(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.repo.GetAdminUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up operator: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ChangePassword updates an operator's password after verifying the current one
func (s *Service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	user, err := s.repo.GetAdminUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to look up operator: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if !s.passwords.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	if err := s.passwords.ValidatePasswordStrength(req.NewPassword); err != nil {
		return ErrWeakPassword
	}

	hash, err := s.passwords.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdateAdminPassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.log.Info("Operator changed password", "user_id", userID)
	return nil
}

func toUserResponse(user *database.AdminUser) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		IsAdmin:     user.IsAdmin,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}
