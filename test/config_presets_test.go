package test

import (
	"strings"
	"testing"
	"time"

	portalauth "github.com/exagonbr/portal-auth"
)

func TestDefaultConfigBaseline(t *testing.T) {
	cfg := portalauth.DefaultConfig()

	if cfg.ValidationMode != portalauth.ModeStrict {
		t.Fatalf("expected ModeStrict, got %v", cfg.ValidationMode)
	}
	if cfg.JWT.SigningMethod != "ed25519" {
		t.Fatalf("expected ed25519 signing, got %q", cfg.JWT.SigningMethod)
	}
	if cfg.JWT.AccessTTL != time.Hour || cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("unexpected token TTLs: access=%s refresh=%s", cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	}
	if !cfg.Security.EnableIPThrottle || cfg.Security.MaxLoginAttempts != 5 {
		t.Fatal("expected login throttling enabled in baseline")
	}
	if !cfg.Password.UpgradeOnLogin {
		t.Fatal("expected transparent hash upgrade enabled in baseline")
	}
}

func TestDefaultConfigRequiresSigningKeys(t *testing.T) {
	cfg := portalauth.DefaultConfig()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation to fail without signing keys")
	}
	if !strings.Contains(err.Error(), "PrivateKey") {
		t.Fatalf("expected key error, got %v", err)
	}
}

func TestDefaultConfigValidatesWithSharedSecret(t *testing.T) {
	cfg := portalauth.DefaultConfig()
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected baseline with shared secret to validate, got %v", err)
	}
}
