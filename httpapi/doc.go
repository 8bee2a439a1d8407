// Package httpapi is the HTTP surface over the auth engine: POST
// /auth/login, /auth/refresh, /auth/logout and /auth/validate, plus
// health and Prometheus metrics endpoints.
//
// Handlers translate HTTP into engine calls and engine errors into the
// {success, message, code} envelope: 401 for authentication failures, 403
// for permission failures, 429 for rate limits and 503 when the session
// store is unreachable. Tokens travel as bearer headers or as httpOnly
// cookies; both are accepted everywhere a token is read.
package httpapi
