package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"precinct/internal/config"
)

func newTestService(expiration time.Duration) *Service {
	return NewService(&config.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "precinct",
		Expiration: expiration,
	})
}

func TestHashPassword(t *testing.T) {
	svc := newTestService(time.Hour)

	password := "testpassword123"
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if hash == "" {
		t.Error("Hash should not be empty")
	}

	if hash == password {
		t.Error("Hash should not equal the original password")
	}
}

func TestVerifyPassword(t *testing.T) {
	svc := newTestService(time.Hour)

	hash, err := svc.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if err := svc.VerifyPassword(hash, "testpassword123"); err != nil {
		t.Errorf("Should verify correct password, got error: %v", err)
	}

	if err := svc.VerifyPassword(hash, "wrongpassword"); err == nil {
		t.Error("Should not verify incorrect password")
	}
}

func TestValidateToken(t *testing.T) {
	svc := newTestService(time.Hour)

	token, expiresAt, err := svc.GenerateToken(42, "sgt.pepper")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Errorf("Expiry %v should be in the future", expiresAt)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("Expected user ID 42, got %d", claims.UserID)
	}
	if claims.Username != "sgt.pepper" {
		t.Errorf("Expected username sgt.pepper, got %s", claims.Username)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService(-1 * time.Hour)

	token, _, err := svc.GenerateToken(1, "cadet")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _, err := newTestService(time.Hour).GenerateToken(1, "cadet")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	other := NewService(&config.JWTConfig{Secret: "other-secret", Issuer: "precinct", Expiration: time.Hour})
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("Should reject token signed with another secret")
	}
}

func TestValidateTokenRejectsNoneAlgorithm(t *testing.T) {
	claims := JWTClaims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{Issuer: "precinct"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Failed to build unsigned token: %v", err)
	}

	if _, err := newTestService(time.Hour).ValidateToken(token); err == nil {
		t.Error("Should reject unsigned token")
	}
}

func TestGenerateRandomToken(t *testing.T) {
	token1, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("Failed to generate random token: %v", err)
	}

	token2, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("Failed to generate second random token: %v", err)
	}

	if token1 == "" || token1 == token2 {
		t.Error("Random tokens should be non-empty and different")
	}
}
