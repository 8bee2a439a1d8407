// Package portalauth is the authentication, session, and RBAC core of the
// educational portal. It verifies credentials against an injected user
// provider, issues JWT access tokens and single-use refresh tokens, keeps
// sessions and a revocation blacklist in Redis, and resolves role-based
// permissions from a fixed catalog.
//
// Build an engine through the builder:
//
//	engine, err := portalauth.New().
//		WithRedis(client).
//		WithUserProvider(provider).
//		WithConfig(cfg).
//		Build()
//
// The engine never owns the Redis connection; open and close it in the
// host process. All engine methods are safe for concurrent use.
package portalauth
