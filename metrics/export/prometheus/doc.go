// Package prometheus renders engine metrics for Prometheus scrapes.
//
// [NewExporter] accepts a [portalauth.Engine] and exposes an [http.Handler]
// that renders all counters and histograms in Prometheus text exposition
// format. Counter names are prefixed portalauth_*_total; the single
// histogram is portalauth_validate_latency_seconds.
//
// Nothing is registered in a global Prometheus registry; callers mount the
// Handler themselves.
package prometheus
