package middleware

import (
	"net/http"

	portalauth "github.com/exagonbr/portal-auth"
)

// RequireJWTOnly verifies signature and expiry only, with no Redis round
// trip, for routes that tolerate stale sessions.
func RequireJWTOnly(engine *portalauth.Engine) func(http.Handler) http.Handler {
	return Guard(engine, portalauth.ModeJWTOnly)
}

// RequireStrict verifies the full chain including session existence.
func RequireStrict(engine *portalauth.Engine) func(http.Handler) http.Handler {
	return Guard(engine, portalauth.ModeStrict)
}

// RequirePermission rejects authenticated callers lacking perm with 403.
func RequirePermission(engine *portalauth.Engine, perm string) func(http.Handler) http.Handler {
	return GuardWith(engine, GuardConfig{RequirePermission: perm})
}

// RequireRole rejects authenticated callers whose role differs with 403.
func RequireRole(engine *portalauth.Engine, role string) func(http.Handler) http.Handler {
	return GuardWith(engine, GuardConfig{RequireRole: role})
}
