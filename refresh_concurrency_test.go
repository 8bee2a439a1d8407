package portalauth

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// Two concurrent refreshes with the same token must produce exactly one
// winner; every loser observes the reuse error.
func TestConcurrentRefreshSingleWinner(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Security.EnableRefreshThrottle = false
	engine, _ := newTestEngine(t, cfg)
	ctx := context.Background()

	login, err := engine.Login(ctx, "aluno@portal.test", "student123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	const workers = 16

	var wg sync.WaitGroup
	results := make([]error, workers)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, results[i] = engine.Refresh(ctx, login.RefreshToken)
		}(i)
	}
	wg.Wait()

	var wins, reuses int
	for i, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrRefreshReuse):
			reuses++
		default:
			t.Fatalf("worker %d: unexpected error %v", i, err)
		}
	}

	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
	if reuses != workers-1 {
		t.Fatalf("reuse errors = %d, want %d", reuses, workers-1)
	}
}

// Sequential reuse after a successful rotation must revoke the session,
// cutting off the rotated credentials as well.
func TestRefreshReuseRevokesRotatedCredentials(t *testing.T) {
	engine, _ := newTestEngine(t, testEngineConfig())
	ctx := context.Background()

	login, err := engine.Login(ctx, "aluno@portal.test", "student123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	rotated, err := engine.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if _, err := engine.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrRefreshReuse) {
		t.Fatalf("reuse: err = %v", err)
	}

	// The rotated refresh token points at the revoked session.
	if _, err := engine.Refresh(ctx, rotated.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("rotated refresh after reuse: err = %v", err)
	}
}
