// Package rate implements fixed-window Redis rate limiting for login and
// refresh attempts. Limits apply per credential identifier and, optionally,
// per client IP.
package rate
