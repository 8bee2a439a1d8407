package portalauth

import "errors"

var (
	// ErrUnauthorized covers missing or malformed credentials at the
	// engine boundary.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned for unknown users, inactive
	// accounts, and password mismatches alike, so login failures never
	// reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned by account operations that take a user
	// id directly, where enumeration is not a concern.
	ErrUserNotFound = errors.New("user not found")
	// ErrLoginRateLimited signals the per-identifier or per-IP login
	// window is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRefreshRateLimited signals the per-session refresh window is
	// exhausted.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrAccountDisabled is returned by operations addressed to a known
	// but inactive account.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrSessionNotFound means the token verified but its session no
	// longer exists in the store.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenInvalid covers bad signatures and malformed tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired means the access token's exp has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked means the access token was blacklisted before its
	// natural expiry.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrRefreshInvalid covers unknown, expired, and malformed refresh
	// tokens.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshReuse means an already-consumed refresh token was
	// presented again; the session it belonged to has been invalidated.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrPermissionDenied means the caller authenticated but lacks the
	// required permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrStoreUnavailable means Redis could not be reached within the
	// caller's deadline. Distinct from token errors so transient outages
	// do not masquerade as auth failures.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrPasswordPolicy is returned when a new password fails policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is returned when the new password equals the
	// current one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrSessionInvalidationFailed is joined onto store errors when
	// logout-all after a password change did not complete.
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")
	// ErrEngineNotReady is returned when the engine was not built
	// through the builder.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidRouteMode is returned for route modes outside the
	// defined set.
	ErrInvalidRouteMode = errors.New("invalid route validation mode")
)
