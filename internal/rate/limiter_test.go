package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, cfg), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestLoginLimitExhaustion(t *testing.T) {
	limiter, _, done := newLimiterTest(t, Config{
		MaxLoginAttempts:      3,
		LoginCooldownDuration: time.Minute,
	})
	defer done()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := limiter.CheckLogin(ctx, "aluno@portal.test", ""); err != nil {
			t.Fatalf("attempt %d should be allowed: %v", i, err)
		}
		if err := limiter.IncrementLogin(ctx, "aluno@portal.test", ""); err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
	}
	if err := limiter.IncrementLogin(ctx, "aluno@portal.test", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := limiter.CheckLogin(ctx, "aluno@portal.test", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on check, got %v", err)
	}

	// A different identifier is unaffected.
	if err := limiter.CheckLogin(ctx, "outro@portal.test", ""); err != nil {
		t.Fatalf("other identifier should be allowed: %v", err)
	}
}

func TestResetLoginClearsBudget(t *testing.T) {
	limiter, _, done := newLimiterTest(t, Config{
		MaxLoginAttempts:      1,
		LoginCooldownDuration: time.Minute,
	})
	defer done()
	ctx := context.Background()

	if err := limiter.IncrementLogin(ctx, "aluno@portal.test", ""); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := limiter.IncrementLogin(ctx, "aluno@portal.test", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	if err := limiter.ResetLogin(ctx, "aluno@portal.test", ""); err != nil {
		t.Fatalf("reset: %v", err)
	}
	attempts, err := limiter.LoginAttempts(ctx, "aluno@portal.test")
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if attempts != 0 {
		t.Fatalf("expected 0 attempts after reset, got %d", attempts)
	}
}

func TestLoginWindowExpires(t *testing.T) {
	limiter, mr, done := newLimiterTest(t, Config{
		MaxLoginAttempts:      1,
		LoginCooldownDuration: time.Minute,
	})
	defer done()
	ctx := context.Background()

	if err := limiter.IncrementLogin(ctx, "aluno@portal.test", ""); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := limiter.IncrementLogin(ctx, "aluno@portal.test", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := limiter.CheckLogin(ctx, "aluno@portal.test", ""); err != nil {
		t.Fatalf("window expiry should clear budget: %v", err)
	}
}

func TestIPThrottleIndependentOfIdentifier(t *testing.T) {
	limiter, _, done := newLimiterTest(t, Config{
		EnableIPThrottle:      true,
		MaxLoginAttempts:      2,
		LoginCooldownDuration: time.Minute,
	})
	defer done()
	ctx := context.Background()

	for _, id := range []string{"a@portal.test", "b@portal.test", "c@portal.test"} {
		_ = limiter.IncrementLogin(ctx, id, "203.0.113.7")
	}

	// Fresh identifier, exhausted IP.
	if err := limiter.CheckLogin(ctx, "d@portal.test", "203.0.113.7"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP throttle, got %v", err)
	}
	if err := limiter.CheckLogin(ctx, "d@portal.test", "198.51.100.1"); err != nil {
		t.Fatalf("different IP should be allowed: %v", err)
	}
}

func TestRefreshThrottle(t *testing.T) {
	limiter, _, done := newLimiterTest(t, Config{
		EnableRefreshThrottle:   true,
		MaxRefreshAttempts:      2,
		RefreshCooldownDuration: time.Minute,
	})
	defer done()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := limiter.CheckRefresh(ctx, "sid-1"); err != nil {
			t.Fatalf("refresh %d should be allowed: %v", i, err)
		}
	}
	if err := limiter.CheckRefresh(ctx, "sid-1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	disabled, _, doneDisabled := newLimiterTest(t, Config{})
	defer doneDisabled()
	for i := 0; i < 10; i++ {
		if err := disabled.CheckRefresh(ctx, "sid-1"); err != nil {
			t.Fatalf("disabled throttle must never limit: %v", err)
		}
	}
}
