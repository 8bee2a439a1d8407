package httpapi

import (
	"errors"
	"net/http"
	"time"

	portalauth "github.com/exagonbr/portal-auth"
)

const defaultValidateTimeout = 300 * time.Millisecond

// Config configures the HTTP layer.
type Config struct {
	// Engine performs all authentication decisions; the handlers only
	// translate HTTP.
	Engine *portalauth.Engine

	// ProductionMode marks auth cookies Secure.
	ProductionMode bool

	// AllowedOrigins is the CORS allowlist. "*" allows any origin.
	AllowedOrigins []string

	// ValidateTimeout bounds the store round trips behind POST
	// /auth/validate. Zero means 300ms.
	ValidateTimeout time.Duration

	// CookieTTL is the lifetime of the refresh_token and session_id
	// cookies. Zero means 7 days, matching the default refresh TTL.
	CookieTTL time.Duration
}

// API is the HTTP layer over an auth engine.
type API struct {
	engine          *portalauth.Engine
	mux             *http.ServeMux
	metrics         *httpMetrics
	production      bool
	allowedOrigins  []string
	validateTimeout time.Duration
	cookieTTL       time.Duration
}

// New creates an [API] serving the /auth endpoints plus health and
// Prometheus metrics.
func New(cfg Config) (*API, error) {
	if cfg.Engine == nil {
		return nil, errors.New("httpapi: Engine is required")
	}
	timeout := cfg.ValidateTimeout
	if timeout <= 0 {
		timeout = defaultValidateTimeout
	}
	cookieTTL := cfg.CookieTTL
	if cookieTTL <= 0 {
		cookieTTL = 7 * 24 * time.Hour
	}

	a := &API{
		engine:          cfg.Engine,
		mux:             http.NewServeMux(),
		metrics:         newHTTPMetrics(),
		production:      cfg.ProductionMode,
		allowedOrigins:  cfg.AllowedOrigins,
		validateTimeout: timeout,
		cookieTTL:       cookieTTL,
	}

	a.mux.HandleFunc("/auth/login", a.handleLogin)
	a.mux.HandleFunc("/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/auth/validate", a.handleValidate)

	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.Handle("/metrics", a.metrics.handler())

	return a, nil
}

// Handler returns the full middleware chain: request metrics, CORS, then
// the route mux.
func (a *API) Handler() http.Handler {
	return a.metrics.instrument(a.withCORS(a.mux))
}

func (a *API) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "portal-auth",
	})
}
