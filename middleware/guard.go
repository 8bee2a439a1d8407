package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	portalauth "github.com/exagonbr/portal-auth"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the validation result a guard stored on the
// request context, if any.
func AuthResultFromContext(ctx context.Context) (*portalauth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*portalauth.AuthResult)
	return res, ok
}

// GuardConfig tunes a single guard instance. The zero value inherits the
// engine's validation mode and enforces no role or permission.
type GuardConfig struct {
	// Mode overrides the engine's validation mode for the wrapped routes.
	Mode portalauth.RouteMode

	// RequireRole rejects callers whose resolved role differs. Empty means
	// any role.
	RequireRole string

	// RequirePermission rejects callers whose permission mask lacks the
	// named permission. Empty means no permission check.
	RequirePermission string

	// AllowExpiredGrace accepts tokens expired by up to this duration,
	// for logout-style routes that must work with stale clients.
	AllowExpiredGrace time.Duration
}

// GuardWith returns middleware that validates the bearer token on every
// request per cfg and injects the result into the request context.
func GuardWith(engine *portalauth.Engine, cfg GuardConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := engine.Validate(r.Context(), token, portalauth.ValidateOptions{
				Mode:         cfg.Mode,
				ExpiredGrace: cfg.AllowExpiredGrace,
			})
			if err != nil {
				if errors.Is(err, portalauth.ErrStoreUnavailable) {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if cfg.RequireRole != "" && res.Role != cfg.RequireRole {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			if cfg.RequirePermission != "" && !engine.HasPermission(res.Mask, cfg.RequirePermission) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Guard validates with an explicit mode and no role or permission checks.
func Guard(engine *portalauth.Engine, routeMode portalauth.RouteMode) func(http.Handler) http.Handler {
	return GuardWith(engine, GuardConfig{Mode: routeMode})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
