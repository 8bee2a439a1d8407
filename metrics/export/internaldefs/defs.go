package internaldefs

import (
	portalauth "github.com/exagonbr/portal-auth"
)

// CounterDef maps an engine counter ID to its exported metric name.
type CounterDef struct {
	ID   portalauth.MetricID
	Name string
	Help string
}

// HistogramDef maps an engine histogram ID to its exported metric name.
type HistogramDef struct {
	ID   portalauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter the engine tracks, in export order.
var CounterDefs = []CounterDef{
	{ID: portalauth.MetricLoginSuccess, Name: "portalauth_login_success_total", Help: "Successful login attempts."},
	{ID: portalauth.MetricLoginFailure, Name: "portalauth_login_failure_total", Help: "Failed login attempts."},
	{ID: portalauth.MetricLoginRateLimited, Name: "portalauth_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: portalauth.MetricRefreshSuccess, Name: "portalauth_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: portalauth.MetricRefreshFailure, Name: "portalauth_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: portalauth.MetricRefreshReuseDetected, Name: "portalauth_refresh_reuse_detected_total", Help: "Refresh tokens presented after consumption."},
	{ID: portalauth.MetricRefreshRateLimited, Name: "portalauth_refresh_rate_limited_total", Help: "Rate-limited refresh attempts."},
	{ID: portalauth.MetricValidateSuccess, Name: "portalauth_validate_success_total", Help: "Access tokens accepted by validation."},
	{ID: portalauth.MetricValidateFailure, Name: "portalauth_validate_failure_total", Help: "Access tokens rejected by validation."},
	{ID: portalauth.MetricTokenRevoked, Name: "portalauth_token_revoked_total", Help: "Blacklisted access tokens presented."},
	{ID: portalauth.MetricRateLimitHit, Name: "portalauth_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
	{ID: portalauth.MetricSessionCreated, Name: "portalauth_session_created_total", Help: "Created sessions."},
	{ID: portalauth.MetricSessionInvalidated, Name: "portalauth_session_invalidated_total", Help: "Invalidated sessions."},
	{ID: portalauth.MetricLogout, Name: "portalauth_logout_total", Help: "Single-session logout operations."},
	{ID: portalauth.MetricLogoutAll, Name: "portalauth_logout_all_total", Help: "Logout-all operations."},
	{ID: portalauth.MetricPasswordChangeSuccess, Name: "portalauth_password_change_success_total", Help: "Successful password changes."},
	{ID: portalauth.MetricPasswordChangeInvalidOld, Name: "portalauth_password_change_invalid_old_total", Help: "Password change attempts with a wrong current password."},
	{ID: portalauth.MetricPasswordChangeReuseRejected, Name: "portalauth_password_change_reuse_rejected_total", Help: "Password change attempts rejected for reuse."},
	{ID: portalauth.MetricPasswordUpgraded, Name: "portalauth_password_upgraded_total", Help: "Legacy password hashes upgraded on login."},
}

// HistogramDefs lists every histogram the engine tracks.
var HistogramDefs = []HistogramDef{
	{ID: portalauth.MetricValidateLatency, Name: "portalauth_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds holds the upper bucket bounds in seconds, matching the
// engine's millisecond buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix holds name-safe bound suffixes for exporters that
// cannot carry labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies a raw snapshot slice into the fixed bucket array,
// tolerating short slices from older snapshots.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
