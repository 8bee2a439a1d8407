//go:build integration
// +build integration

package test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/exagonbr/portal-auth/session"
)

func TestRefreshRaceSingleWinner(t *testing.T) {
	ctx := context.Background()
	store, _, cleanup := newIntegrationStore(t)
	defer cleanup()

	sess := makeSession("inst-1", "u1", "sid-race")
	if err := store.Create(ctx, sess, time.Hour); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	current := hashByte(1)
	if err := store.SaveRefresh(ctx, current, makeRefreshRecord(sess), time.Hour); err != nil {
		t.Fatalf("SaveRefresh failed: %v", err)
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	results := make(chan session.ConsumeStatus, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, _, status, err := store.ConsumeRefresh(ctx, current, time.Hour)
			if err != nil {
				t.Errorf("unexpected consume error: %v", err)
				return
			}
			results <- status
		}()
	}

	close(start)
	wg.Wait()
	close(results)

	rotated, replayed := 0, 0
	for status := range results {
		switch status {
		case session.ConsumeRotated:
			rotated++
		case session.ConsumeReplayed:
			replayed++
		default:
			t.Fatalf("unexpected consume status: %d", status)
		}
	}

	if rotated != 1 {
		t.Fatalf("expected exactly one winner, got %d", rotated)
	}
	if replayed != workers-1 {
		t.Fatalf("expected %d replays, got %d", workers-1, replayed)
	}
}

func TestRefreshRaceWinnerGetsSession(t *testing.T) {
	ctx := context.Background()
	store, _, cleanup := newIntegrationStore(t)
	defer cleanup()

	sess := makeSession("inst-1", "u2", "sid-race-sess")
	if err := store.Create(ctx, sess, time.Hour); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	current := hashByte(3)
	if err := store.SaveRefresh(ctx, current, makeRefreshRecord(sess), time.Hour); err != nil {
		t.Fatalf("SaveRefresh failed: %v", err)
	}

	rec, got, status, err := store.ConsumeRefresh(ctx, current, time.Hour)
	if err != nil {
		t.Fatalf("ConsumeRefresh failed: %v", err)
	}
	if status != session.ConsumeRotated {
		t.Fatalf("expected rotated status, got %d", status)
	}
	if rec == nil || rec.SessionID != "sid-race-sess" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if got == nil || got.SessionID != "sid-race-sess" || got.UserID != "u2" {
		t.Fatalf("winner should receive the session atomically, got %+v", got)
	}
}
