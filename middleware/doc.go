// Package middleware adapts engine validation into net/http middleware.
//
// [GuardWith] is the single parameterized guard: it reads the
// Authorization header, calls Engine.Validate with the configured mode,
// optionally enforces a role or permission, and injects the result into
// the request context for [AuthResultFromContext]. [RequireJWTOnly],
// [RequireStrict], [RequireRole] and [RequirePermission] are thin
// pre-configured wrappers over it.
//
// All authentication decisions live in the engine; this package only
// translates them into 401/403/503 responses.
package middleware
