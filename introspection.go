package portalauth

import (
	"context"
	"time"
)

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	RedisAvailable bool
	RedisLatency   time.Duration
}

// ActiveSessionCount returns the number of live sessions tracked for a
// user within an institution.
func (e *Engine) ActiveSessionCount(ctx context.Context, institutionID, userID string) (int, error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}
	if userID == "" {
		return 0, ErrUserNotFound
	}

	ids, err := e.sessionStore.ActiveSessionIDs(ctx, institutionID, userID)
	if err != nil {
		return 0, ErrStoreUnavailable
	}
	return len(ids), nil
}

// InstitutionSessionCount returns the institution-wide session counter,
// used for capacity dashboards. The counter is an estimate: expired
// sessions are decremented lazily.
func (e *Engine) InstitutionSessionCount(ctx context.Context, institutionID string) (int, error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}

	count, err := e.sessionStore.InstitutionSessionCount(ctx, institutionID)
	if err != nil {
		return 0, ErrStoreUnavailable
	}
	return count, nil
}

// Health reports Redis availability and round-trip latency.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil || e.sessionStore == nil {
		return HealthStatus{}
	}

	latency, err := e.sessionStore.Ping(ctx)
	return HealthStatus{
		RedisAvailable: err == nil,
		RedisLatency:   latency,
	}
}

// LoginAttempts returns the current fixed-window failure count for an
// identifier, for support tooling.
func (e *Engine) LoginAttempts(ctx context.Context, identifier string) (int, error) {
	if e == nil || e.rateLimiter == nil {
		return 0, ErrEngineNotReady
	}
	if identifier == "" {
		return 0, nil
	}

	return e.rateLimiter.LoginAttempts(ctx, identifier)
}
