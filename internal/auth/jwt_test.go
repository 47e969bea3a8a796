package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret-at-least-32-bytes-long!", time.Hour)

	token, err := manager.GenerateAccessToken(UserClaims{
		UserID:  "user-1",
		Email:   "admin@example.com",
		IsAdmin: true,
	})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("Expected user-1, got %s", claims.UserID)
	}
	if claims.Email != "admin@example.com" {
		t.Errorf("Expected admin@example.com, got %s", claims.Email)
	}
	if !claims.IsAdmin {
		t.Error("Expected admin claim to survive the round trip")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	manager := NewJWTManager("test-secret-at-least-32-bytes-long!", -time.Minute)

	token, err := manager.GenerateAccessToken(UserClaims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := manager.ValidateAccessToken(token); err != ErrTokenExpired {
		t.Errorf("Expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenSignedWithWrongSecretRejected(t *testing.T) {
	manager := NewJWTManager("test-secret-at-least-32-bytes-long!", time.Hour)
	other := NewJWTManager("a-completely-different-signing-key!!", time.Hour)

	token, err := other.GenerateAccessToken(UserClaims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := manager.ValidateAccessToken(token); err == nil {
		t.Error("Expected validation to fail for a foreign signature")
	}
}

func TestPasswordStrength(t *testing.T) {
	pm := NewPasswordManager(DefaultBcryptCost, MinPasswordLength)

	cases := []struct {
		password string
		ok       bool
	}{
		{"Str0ng!pass", true},
		{"short", false},
		{"alllowercaseonly", false},
		{"NoDigitsHere", false},
	}

	for _, tc := range cases {
		err := pm.ValidatePasswordStrength(tc.password)
		if tc.ok && err != nil {
			t.Errorf("Expected %q to pass, got %v", tc.password, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("Expected %q to fail", tc.password)
		}
	}
}
