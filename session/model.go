package session

import "github.com/exagonbr/portal-auth/permission"

// Session is the server-side state behind one authenticated login.
// The access token carries a copy of the identity fields; the session is
// the revocable source of truth.
type Session struct {
	SessionID     string
	UserID        string
	InstitutionID string
	Email         string

	Role string
	Mask permission.Mask64

	IP        string
	UserAgent string

	CreatedAt      int64
	LastActivityAt int64
	ExpiresAt      int64
}

// RefreshRecord is the standalone state stored per refresh token, keyed by
// the SHA-256 of the opaque token value. Consuming the record is the
// single-use gate of the rotation protocol.
type RefreshRecord struct {
	SessionID     string `json:"sid"`
	UserID        string `json:"uid"`
	InstitutionID string `json:"inst"`
	IssuedAt      int64  `json:"iat"`
}
