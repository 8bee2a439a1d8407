//go:build integration
// +build integration

package test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/exagonbr/portal-auth/permission"
	"github.com/exagonbr/portal-auth/session"
)

func newIntegrationStore(t *testing.T) (*session.Store, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStore(rdb, "ps")

	return store, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func makeSession(institutionID, userID, sessionID string) *session.Session {
	now := time.Now()

	return &session.Session{
		SessionID:      sessionID,
		UserID:         userID,
		InstitutionID:  institutionID,
		Email:          userID + "@portal.test",
		Role:           "STUDENT",
		Mask:           permission.Mask64(1),
		CreatedAt:      now.Unix(),
		LastActivityAt: now.Unix(),
		ExpiresAt:      now.Add(time.Hour).Unix(),
	}
}

func makeRefreshRecord(sess *session.Session) *session.RefreshRecord {
	return &session.RefreshRecord{
		SessionID:     sess.SessionID,
		UserID:        sess.UserID,
		InstitutionID: sess.InstitutionID,
		IssuedAt:      time.Now().Unix(),
	}
}

func hashByte(b byte) [32]byte {
	var out [32]byte
	for i := 0; i < len(out); i++ {
		out[i] = b
	}
	return out
}
