package httpapi

import (
	"net/http"
	"time"

	portalauth "github.com/exagonbr/portal-auth"
)

const (
	authCookieName    = "auth_token"
	refreshCookieName = "refresh_token"
	sessionCookieName = "session_id"
)

// setAuthCookies mirrors the issued tokens into cookies for browser
// clients that cannot hold bearer headers.
func (a *API) setAuthCookies(w http.ResponseWriter, res *portalauth.LoginResult) {
	http.SetCookie(w, a.authCookie(authCookieName, res.AccessToken, time.Duration(res.ExpiresIn)*time.Second))
	http.SetCookie(w, a.authCookie(refreshCookieName, res.RefreshToken, a.cookieTTL))
	http.SetCookie(w, a.authCookie(sessionCookieName, res.SessionID, a.cookieTTL))
}

// clearAuthCookies expires every auth cookie with MaxAge 0 and an epoch
// Expires date so all cookie-jar implementations drop them.
func (a *API) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{authCookieName, refreshCookieName, sessionCookieName} {
		c := a.authCookie(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func (a *API) authCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.production,
		SameSite: http.SameSiteLaxMode,
	}
}
