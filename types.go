package portalauth

import (
	"io"
	"log/slog"
	"time"

	internalaudit "github.com/exagonbr/portal-auth/internal/audit"
	"github.com/exagonbr/portal-auth/permission"
)

// UserProvider is the interface callers implement to integrate the engine
// with their user persistence. The engine only reads user rows, except for
// password hash updates (change-password and upgrade-on-login).
type UserProvider interface {
	// GetUserByEmail looks up a user by email. The engine lowercases and
	// trims the email before calling; implementations should match
	// case-insensitively regardless.
	GetUserByEmail(email string) (UserRecord, error)
	GetUserByID(userID string) (UserRecord, error)
	UpdatePasswordHash(userID string, newHash string) error
}

// UserRecord is the account row returned by [UserProvider].
type UserRecord struct {
	UserID        string
	Email         string
	InstitutionID string
	PasswordHash  string
	Role          string
	Active        bool
}

// AuthResult is the resolved identity attached to a request after
// [Engine.Validate] succeeds.
type AuthResult struct {
	UserID        string
	InstitutionID string
	Email         string
	SessionID     string

	Role string

	Mask permission.Mask64

	Permissions []string
}

// LoginResult is returned by [Engine.Login] and [Engine.Refresh].
// ExpiresIn is the access token lifetime in seconds.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	SessionID    string
	User         AuthResult
}

// SessionInfo is one entry of the active-sessions listing returned by
// [Engine.Sessions], used for "active devices" screens.
type SessionInfo struct {
	SessionID      string
	IP             string
	UserAgent      string
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit
// dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink is an [AuditSink] that emits events through a [slog.Logger].
type SlogSink = internalaudit.SlogSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink creates a [SlogSink] backed by logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
