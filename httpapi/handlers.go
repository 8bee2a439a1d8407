package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"

	portalauth "github.com/exagonbr/portal-auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	LogoutAll bool `json:"logoutAll"`
}

type validateRequest struct {
	Token string `json:"token"`
}

type userPayload struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	InstitutionID string   `json:"institutionId"`
	Role          string   `json:"role"`
	Permissions   []string `json:"permissions,omitempty"`
}

type loginData struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"`
	User         userPayload `json:"user"`
}

type refreshData struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type sessionPayload struct {
	SessionID     string `json:"sessionId"`
	InstitutionID string `json:"institutionId"`
}

type validateData struct {
	User    userPayload    `json:"user"`
	Token   string         `json:"token"`
	Session sessionPayload `json:"session"`
}

func userFromResult(res portalauth.AuthResult) userPayload {
	return userPayload{
		ID:            res.UserID,
		Email:         res.Email,
		InstitutionID: res.InstitutionID,
		Role:          res.Role,
		Permissions:   res.Permissions,
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required", "BAD_REQUEST")
		return
	}

	res, err := a.engine.Login(a.requestContext(r), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	a.setAuthCookies(w, res)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: loginData{
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
		User:         userFromResult(res.User),
	}})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	}
	token := req.RefreshToken
	if token == "" {
		token = cookieValue(r, refreshCookieName)
	}
	if token == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required", "BAD_REQUEST")
		return
	}

	res, err := a.engine.Refresh(a.requestContext(r), token)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	a.setAuthCookies(w, res)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: refreshData{
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
	}})
}

// handleLogout is deliberately forgiving: cleanup is best-effort and the
// response is always 200 so the client clears its local state regardless
// of what the store did.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req logoutRequest
	_ = decodeJSON(w, r, &req)

	ctx := a.requestContext(r)
	token := bearerOrCookie(r)
	if token != "" {
		if req.LogoutAll {
			// Identity comes from the token alone so logout-all still works
			// when the presented token's own session is already gone.
			if res, err := a.engine.Validate(ctx, token, portalauth.ValidateOptions{
				Mode:         portalauth.ModeJWTOnly,
				ExpiredGrace: a.cookieTTL,
			}); err == nil {
				_ = a.engine.LogoutAll(ctx, res.InstitutionID, res.UserID)
			}
		}
		_ = a.engine.LogoutByAccessToken(ctx, token)
	}

	a.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "logged out"})
}

func (a *API) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	}
	token := req.Token
	if token == "" {
		token = bearerOrCookie(r)
	}
	if token == "" {
		writeInvalid(w, http.StatusUnauthorized, "missing token", "UNAUTHENTICATED")
		return
	}

	ctx, cancel := context.WithTimeout(a.requestContext(r), a.validateTimeout)
	defer cancel()

	res, err := a.engine.ValidateAccess(ctx, token)
	if err != nil {
		status, message, code := statusForError(err)
		if status == http.StatusServiceUnavailable {
			writeError(w, status, message, code)
			return
		}
		writeInvalid(w, status, message, code)
		return
	}

	valid := true
	writeJSON(w, http.StatusOK, envelope{Success: true, Valid: &valid, Data: validateData{
		User:    userFromResult(*res),
		Token:   token,
		Session: sessionPayload{SessionID: res.SessionID, InstitutionID: res.InstitutionID},
	}})
}

func writeInvalid(w http.ResponseWriter, status int, message, code string) {
	valid := false
	writeJSON(w, status, envelope{Success: false, Valid: &valid, Message: message, Code: code})
}

// requestContext attaches client metadata the engine records on sessions
// and audit events.
func (a *API) requestContext(r *http.Request) context.Context {
	ctx := portalauth.WithClientIP(r.Context(), clientIP(r))
	if ua := r.UserAgent(); ua != "" {
		ctx = portalauth.WithUserAgent(ctx, ua)
	}
	return ctx
}

func bearerOrCookie(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return cookieValue(r, authCookieName)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
