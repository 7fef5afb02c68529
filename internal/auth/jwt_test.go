package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/taskflow-dev/taskflow/internal/models"
	"gorm.io/gorm"
)

func initSecret(t *testing.T, secret string) {
	t.Helper()
	t.Setenv("JWT_SECRET", secret)
	if err := InitJWTSecret(); err != nil {
		t.Fatalf("init JWT secret: %v", err)
	}
}

func TestGenerateAndVerifyJWT(t *testing.T) {
	initSecret(t, strings.Repeat("s", 32))

	user := models.User{
		Model: gorm.Model{ID: 7},
		Email: "carol@example.com",
		Role:  models.RoleReadOnly,
	}

	token, err := GenerateJWT(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if claims.UserID != 7 {
		t.Errorf("UserID = %d, want 7", claims.UserID)
	}
	if claims.Email != "carol@example.com" {
		t.Errorf("Email = %q, want carol@example.com", claims.Email)
	}
	if claims.Role != models.RoleReadOnly {
		t.Errorf("Role = %q, want %q", claims.Role, models.RoleReadOnly)
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining > TokenTTL || remaining < TokenTTL-time.Minute {
		t.Errorf("token lifetime = %v, want about %v", remaining, TokenTTL)
	}
}

func TestVerifyJWTRejectsWrongSecret(t *testing.T) {
	initSecret(t, strings.Repeat("a", 32))

	token, err := GenerateJWT(models.User{Model: gorm.Model{ID: 1}, Email: "x@example.com", Role: models.RoleEditor})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	initSecret(t, strings.Repeat("b", 32))

	if _, err := VerifyJWT(token); err == nil {
		t.Fatal("expected verification to fail under a different secret")
	}
}

func TestInitJWTSecretRequiresEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if err := InitJWTSecret(); err == nil {
		t.Fatal("expected an error when JWT_SECRET is unset")
	}
}
