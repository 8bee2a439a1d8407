package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
)

const (
	refreshSecretSize   = 32
	refreshTokenRawSize = 16 + refreshSecretSize
)

// NewSessionID returns a random UUIDv4 session identifier.
func NewSessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewRefreshSecret returns the random half of an opaque refresh token.
func NewRefreshSecret() ([refreshSecretSize]byte, error) {
	var secret [refreshSecretSize]byte
	_, err := rand.Read(secret[:])
	return secret, err
}

// EncodeRefreshToken packs the session UUID and secret into the opaque
// token handed to clients: base64url(uuid-bytes || secret), no padding.
func EncodeRefreshToken(sessionID string, secret [refreshSecretSize]byte) (string, error) {
	sid, err := uuid.Parse(sessionID)
	if err != nil {
		return "", err
	}

	var raw [refreshTokenRawSize]byte
	copy(raw[:16], sid[:])
	copy(raw[16:], secret[:])

	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// DecodeRefreshToken is the inverse of [EncodeRefreshToken]. It returns the
// embedded session ID; the secret half never leaves this function because
// lookups key on the hash of the whole token.
func DecodeRefreshToken(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	if len(raw) != refreshTokenRawSize {
		return "", errors.New("invalid refresh token size")
	}

	var sid uuid.UUID
	copy(sid[:], raw[:16])
	return sid.String(), nil
}

// HashToken returns the SHA-256 of an opaque token. Used as the Redis key
// for refresh records and blacklist markers so raw tokens are never stored.
func HashToken(token string) [32]byte {
	return sha256.Sum256([]byte(token))
}
