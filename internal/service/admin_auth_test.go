package service

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(t *testing.T) *AdminAuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt hash: %v", err)
	}
	jwtSvc := NewJWTService("test-secret", time.Minute, time.Hour)
	return NewAdminAuthService(zap.NewNop(), "Admin@Example.com", string(hash), jwtSvc)
}

func TestAdminAuthLogin(t *testing.T) {
	svc := newTestAuthService(t)

	t.Run("success", func(t *testing.T) {
		pair, err := svc.Login("admin@example.com", "s3cret-pass")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if pair.AccessToken == "" || pair.RefreshToken == "" {
			t.Fatalf("expected tokens on successful login")
		}
	})

	t.Run("email is case insensitive", func(t *testing.T) {
		if _, err := svc.Login("ADMIN@EXAMPLE.COM", "s3cret-pass"); err != nil {
			t.Fatalf("expected normalized email to match: %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := svc.Login("admin@example.com", "nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("wrong email", func(t *testing.T) {
		if _, err := svc.Login("other@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("empty credentials", func(t *testing.T) {
		if _, err := svc.Login("", ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAdminAuthLogin_NotConfigured(t *testing.T) {
	svc := NewAdminAuthService(zap.NewNop(), "", "", NewJWTService("test-secret", time.Minute, time.Hour))
	if _, err := svc.Login("admin@example.com", "s3cret-pass"); !errors.Is(err, ErrAuthNotConfigured) {
		t.Fatalf("expected ErrAuthNotConfigured, got %v", err)
	}
}

func TestAdminAuthRefreshAndLogout(t *testing.T) {
	svc := newTestAuthService(t)
	pair, err := svc.Login("admin@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	rotated, err := svc.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := svc.Logout(rotated.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(rotated.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected refresh after logout to fail, got %v", err)
	}
}
