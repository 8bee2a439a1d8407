package portalauth

import "context"

type clientIPContextKey struct{}
type institutionIDContextKey struct{}
type userAgentContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it
// for per-IP rate limiting, audit events, and session metadata.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithInstitutionID attaches an institution identifier to ctx for
// per-institution session isolation. When absent, sessions fall under the
// default institution "0".
func WithInstitutionID(ctx context.Context, institutionID string) context.Context {
	return context.WithValue(ctx, institutionIDContextKey{}, institutionID)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx. Stored on the
// session for the active-devices listing.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}

func institutionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return "0"
	}

	institutionID, _ := ctx.Value(institutionIDContextKey{}).(string)
	if institutionID == "" {
		return "0"
	}

	return institutionID
}
