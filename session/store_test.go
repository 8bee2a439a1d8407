package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/exagonbr/portal-auth/permission"
)

func newSessionStoreTest(t *testing.T) (*Store, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "ps")
	return store, rdb, func() {
		rdb.Close()
		mr.Close()
	}
}

func testSession() *Session {
	now := time.Now()
	return &Session{
		SessionID:      "sid-1",
		UserID:         "u-1",
		InstitutionID:  "inst-1",
		Email:          "aluno@portal.test",
		Role:           "STUDENT",
		Mask:           permission.Mask64(0b1010),
		IP:             "203.0.113.7",
		UserAgent:      "Mozilla/5.0",
		CreatedAt:      now.Unix(),
		LastActivityAt: now.Unix(),
		ExpiresAt:      now.Add(time.Hour).Unix(),
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()
	sess := testSession()

	if err := store.Create(ctx, sess, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, sess.InstitutionID, sess.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != sess.UserID || got.Email != sess.Email || got.Role != sess.Role {
		t.Fatalf("decoded session mismatch: %+v", got)
	}
	if got.Mask != sess.Mask {
		t.Fatalf("mask mismatch: got %x want %x", got.Mask.Raw(), sess.Mask.Raw())
	}
	if got.IP != sess.IP || got.UserAgent != sess.UserAgent {
		t.Fatalf("client metadata mismatch: %+v", got)
	}
}

func TestCreateRejectsDuplicateSessionID(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()
	sess := testSession()

	if err := store.Create(ctx, sess, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, sess, time.Hour); !errors.Is(err, ErrDuplicateSessionID) {
		t.Fatalf("expected ErrDuplicateSessionID, got %v", err)
	}
}

func TestDeleteSessionIdempotentCounterAndIndex(t *testing.T) {
	store, rdb, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()
	sess := testSession()

	if err := store.Create(ctx, sess, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, sess.InstitutionID, sess.SessionID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, sess.InstitutionID, sess.SessionID); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	count, err := store.InstitutionSessionCount(ctx, sess.InstitutionID)
	if err != nil {
		t.Fatalf("institution count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected institution count 0, got %d", count)
	}

	members, err := rdb.SMembers(ctx, store.userKey(sess.InstitutionID, sess.UserID)).Result()
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected no user index members, got %v", members)
	}
}

func TestGetEvictsPastAbsoluteExpiry(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	sess := testSession()
	sess.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	if err := store.Create(ctx, sess, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.Get(ctx, sess.InstitutionID, sess.SessionID); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil for expired session, got %v", err)
	}

	ids, err := store.ActiveSessionIDs(ctx, sess.InstitutionID, sess.UserID)
	if err != nil {
		t.Fatalf("active ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expired session should be evicted from index, got %v", ids)
	}
}

func TestTouchKeepsTTLAndUpdatesActivity(t *testing.T) {
	store, rdb, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()
	sess := testSession()

	if err := store.Create(ctx, sess, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}

	later := time.Now().Add(10 * time.Minute)
	if err := store.Touch(ctx, sess.InstitutionID, sess.SessionID, later); err != nil {
		t.Fatalf("touch: %v", err)
	}

	got, err := store.Get(ctx, sess.InstitutionID, sess.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LastActivityAt != later.Unix() {
		t.Fatalf("last activity not updated: got %d want %d", got.LastActivityAt, later.Unix())
	}

	ttl, err := rdb.TTL(ctx, store.key(sess.InstitutionID, sess.SessionID)).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Fatalf("touch must not extend TTL, got %v", ttl)
	}
}

func TestDeleteAllForUser(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, sid := range []string{"sid-a", "sid-b", "sid-c"} {
		sess := testSession()
		sess.SessionID = sid
		if err := store.Create(ctx, sess, time.Hour); err != nil {
			t.Fatalf("create %s: %v", sid, err)
		}
	}

	if err := store.DeleteAllForUser(ctx, "inst-1", "u-1"); err != nil {
		t.Fatalf("delete all: %v", err)
	}

	sessions, err := store.ListByUser(ctx, "inst-1", "u-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions))
	}

	count, err := store.InstitutionSessionCount(ctx, "inst-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected count 0, got %d", count)
	}
}

func TestConsumeRefreshSingleUse(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	owner := testSession()
	if err := store.Create(ctx, owner, time.Hour); err != nil {
		t.Fatalf("create session: %v", err)
	}

	hash := sha256.Sum256([]byte("refresh-token"))
	rec := &RefreshRecord{SessionID: owner.SessionID, UserID: owner.UserID, InstitutionID: owner.InstitutionID, IssuedAt: time.Now().Unix()}

	if err := store.SaveRefresh(ctx, hash, rec, time.Hour); err != nil {
		t.Fatalf("save refresh: %v", err)
	}

	got, sess, status, err := store.ConsumeRefresh(ctx, hash, time.Hour)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if status != ConsumeRotated {
		t.Fatalf("expected rotated status, got %d", status)
	}
	if got.SessionID != rec.SessionID || got.UserID != rec.UserID {
		t.Fatalf("record mismatch: %+v", got)
	}
	if sess == nil {
		t.Fatal("expected session alongside rotated record")
	}
	if sess.SessionID != owner.SessionID || sess.Email != owner.Email {
		t.Fatalf("session mismatch: %+v", sess)
	}

	replay, _, status, err := store.ConsumeRefresh(ctx, hash, time.Hour)
	if err != nil {
		t.Fatalf("replay consume: %v", err)
	}
	if status != ConsumeReplayed {
		t.Fatalf("expected replay status, got %d", status)
	}
	if replay.SessionID != rec.SessionID {
		t.Fatalf("replay record should identify original session, got %+v", replay)
	}
}

func TestConsumeRefreshDeadSessionReturnsNil(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	hash := sha256.Sum256([]byte("orphan-token"))
	rec := &RefreshRecord{SessionID: "sid-gone", UserID: "u-1", InstitutionID: "inst-1", IssuedAt: time.Now().Unix()}
	if err := store.SaveRefresh(ctx, hash, rec, time.Hour); err != nil {
		t.Fatalf("save refresh: %v", err)
	}

	got, sess, status, err := store.ConsumeRefresh(ctx, hash, time.Hour)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if status != ConsumeRotated || got == nil {
		t.Fatalf("expected rotated record, got %d %+v", status, got)
	}
	if sess != nil {
		t.Fatalf("expected nil session for revoked owner, got %+v", sess)
	}
}

func TestConsumeRefreshUnknownToken(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()

	hash := sha256.Sum256([]byte("never-issued"))
	rec, _, status, err := store.ConsumeRefresh(context.Background(), hash, time.Hour)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if status != ConsumeUnknown || rec != nil {
		t.Fatalf("expected unknown status with nil record, got %d %+v", status, rec)
	}
}

func TestConsumeRefreshConcurrentSingleWinner(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	hash := sha256.Sum256([]byte("contested-token"))
	rec := &RefreshRecord{SessionID: "sid-1", UserID: "u-1", InstitutionID: "inst-1"}
	if err := store.SaveRefresh(ctx, hash, rec, time.Hour); err != nil {
		t.Fatalf("save refresh: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	statuses := make([]ConsumeStatus, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, statuses[i], errs[i] = store.ConsumeRefresh(ctx, hash, time.Hour)
		}(i)
	}
	wg.Wait()

	var winners, replays int
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		switch statuses[i] {
		case ConsumeRotated:
			winners++
		case ConsumeReplayed:
			replays++
		default:
			t.Fatalf("worker %d: unexpected status %d", i, statuses[i])
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
	if replays != workers-1 {
		t.Fatalf("expected %d replays, got %d", workers-1, replays)
	}
}

func TestBlacklistToken(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	hash := sha256.Sum256([]byte("revoked-access-token"))

	listed, err := store.IsBlacklisted(ctx, hash)
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if listed {
		t.Fatal("fresh token must not be blacklisted")
	}

	if err := store.BlacklistToken(ctx, hash, time.Minute); err != nil {
		t.Fatalf("blacklist: %v", err)
	}

	listed, err = store.IsBlacklisted(ctx, hash)
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if !listed {
		t.Fatal("revoked token must be blacklisted")
	}

	// Already-expired tokens need no marker at all.
	other := sha256.Sum256([]byte("already-expired"))
	if err := store.BlacklistToken(ctx, other, -time.Second); err != nil {
		t.Fatalf("blacklist expired: %v", err)
	}
	listed, err = store.IsBlacklisted(ctx, other)
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if listed {
		t.Fatal("expired token should not produce a marker")
	}
}

func TestCodecRejectsCorruptBlob(t *testing.T) {
	if _, err := Decode([]byte{}); err == nil {
		t.Fatal("empty blob must fail")
	}
	if _, err := Decode([]byte{99, 0, 0}); err == nil {
		t.Fatal("unknown version must fail")
	}

	data, err := Encode(testSession())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(data[:len(data)-4]); err == nil {
		t.Fatal("truncated blob must fail")
	}
}
