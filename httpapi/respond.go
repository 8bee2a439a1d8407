package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	portalauth "github.com/exagonbr/portal-auth"
)

// envelope is the JSON shape every endpoint responds with.
type envelope struct {
	Success bool   `json:"success"`
	Valid   *bool  `json:"valid,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, envelope{Success: false, Message: message, Code: code})
}

// writeAuthError maps an engine error onto the HTTP taxonomy. Stack detail
// never reaches the client.
func writeAuthError(w http.ResponseWriter, err error) {
	status, message, code := statusForError(err)
	writeError(w, status, message, code)
}

func statusForError(err error) (int, string, string) {
	switch {
	case errors.Is(err, portalauth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials", "INVALID_CREDENTIALS"
	case errors.Is(err, portalauth.ErrAccountDisabled):
		return http.StatusUnauthorized, "invalid credentials", "INVALID_CREDENTIALS"
	case errors.Is(err, portalauth.ErrLoginRateLimited),
		errors.Is(err, portalauth.ErrRefreshRateLimited):
		return http.StatusTooManyRequests, "too many attempts", "RATE_LIMITED"
	case errors.Is(err, portalauth.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired", "TOKEN_EXPIRED"
	case errors.Is(err, portalauth.ErrTokenRevoked):
		return http.StatusUnauthorized, "token revoked", "TOKEN_REVOKED"
	case errors.Is(err, portalauth.ErrSessionNotFound):
		return http.StatusUnauthorized, "session not found", "SESSION_NOT_FOUND"
	case errors.Is(err, portalauth.ErrRefreshReuse),
		errors.Is(err, portalauth.ErrRefreshInvalid):
		return http.StatusUnauthorized, "refresh token invalid", "REFRESH_INVALID"
	case errors.Is(err, portalauth.ErrTokenInvalid),
		errors.Is(err, portalauth.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"
	case errors.Is(err, portalauth.ErrPermissionDenied):
		return http.StatusForbidden, "forbidden", "FORBIDDEN"
	case errors.Is(err, portalauth.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "service unavailable", "SERVICE_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "internal error", "INTERNAL"
	}
}

// decodeJSON decodes a bounded request body. An empty body decodes to the
// zero value so endpoints with optional bodies (logout) stay lenient.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errors.New("malformed JSON body")
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED")
}
