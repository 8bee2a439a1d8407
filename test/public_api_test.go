package test

import (
	"context"
	"net/http"
	"testing"

	portalauth "github.com/exagonbr/portal-auth"
	"github.com/exagonbr/portal-auth/middleware"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = portalauth.New

	var _ *portalauth.Engine
	var _ portalauth.Config
	var _ portalauth.AuthResult
	var _ portalauth.LoginResult
	var _ portalauth.ValidateOptions
	var _ portalauth.UserProvider
	var _ portalauth.AuditSink

	var _ error = portalauth.ErrInvalidCredentials
	var _ error = portalauth.ErrSessionNotFound
	var _ error = portalauth.ErrTokenExpired
	var _ error = portalauth.ErrTokenRevoked
	var _ error = portalauth.ErrRefreshInvalid
	var _ error = portalauth.ErrRefreshReuse
	var _ error = portalauth.ErrStoreUnavailable

	var _ func(*portalauth.Engine, portalauth.RouteMode) func(http.Handler) http.Handler = middleware.Guard
	var _ func(*portalauth.Engine) func(http.Handler) http.Handler = middleware.RequireJWTOnly
	var _ func(*portalauth.Engine) func(http.Handler) http.Handler = middleware.RequireStrict
	var _ func(*portalauth.Engine, string) func(http.Handler) http.Handler = middleware.RequirePermission
	var _ func(*portalauth.Engine, string) func(http.Handler) http.Handler = middleware.RequireRole

	var _ func(*portalauth.Engine, context.Context, string, string) (*portalauth.LoginResult, error) = (*portalauth.Engine).Login
	var _ func(*portalauth.Engine, context.Context, string) (*portalauth.LoginResult, error) = (*portalauth.Engine).Refresh
	var _ func(*portalauth.Engine, context.Context, string, portalauth.ValidateOptions) (*portalauth.AuthResult, error) = (*portalauth.Engine).Validate
	var _ func(*portalauth.Engine, context.Context, string) (*portalauth.AuthResult, error) = (*portalauth.Engine).ValidateAccess
	var _ func(*portalauth.Engine, context.Context, string) error = (*portalauth.Engine).LogoutByAccessToken
	var _ func(*portalauth.Engine, context.Context, string, string) error = (*portalauth.Engine).LogoutAll
}
