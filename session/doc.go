// Package session implements the Redis-backed session store for the portal
// authentication service.
//
// Sessions are stored as compact binary blobs under per-institution keys,
// with a per-user Redis SET acting as a secondary index for listing and
// bulk revocation. Refresh tokens are stored as standalone records keyed
// by the SHA-256 of the opaque token, consumed atomically by a Lua script
// so that concurrent refresh attempts produce exactly one winner and
// replay of an already-consumed token is detectable.
//
// The store also tracks short-lived blacklist markers for access tokens
// revoked before their natural expiry.
package session
