//go:build integration
// +build integration

package test

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"

	"github.com/exagonbr/portal-auth/jwt"
)

func TestJWTIntegrationHardeningChecks(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	manager, err := jwt.NewManager(jwt.Config{
		AccessTTL:     time.Minute,
		SigningMethod: jwt.MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "portal-auth",
		Audience:      "portal-api",
		Leeway:        30 * time.Second,
		KeyID:         "k1",
		VerifyKeys:    map[string][]byte{"k1": pub},
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	access, err := manager.CreateAccess("u1", "aluno@portal.test", "inst-1", "STUDENT", []string{"courses:read"}, "s1")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	if _, err := manager.ParseAccess(access); err != nil {
		t.Fatalf("ParseAccess valid token failed: %v", err)
	}

	badClaims := jwt.AccessClaims{
		UID: "u1",
		SID: "s1",
		RegisteredClaims: gjwt.RegisteredClaims{
			Issuer:    "portal-auth",
			Audience:  gjwt.ClaimStrings{"portal-api"},
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  gjwt.NewNumericDate(time.Now()),
		},
	}

	badToken := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, badClaims)
	badToken.Header["kid"] = "unknown"
	signedBad, err := badToken.SignedString(priv)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := manager.ParseAccess(signedBad); err == nil {
		t.Fatal("expected unknown kid token to fail")
	}
}
