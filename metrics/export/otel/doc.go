// Package otel provides OpenTelemetry bindings for engine counters and
// histograms.
//
// [NewExporter] registers Int64ObservableCounter instruments for each
// counter and Int64ObservableGauge per histogram bucket. A single callback
// reads [portalauth.Engine.MetricsSnapshot] on each collection cycle.
//
// The MeterProvider is owned by the caller; this package only holds a
// callback registration, released by Close.
package otel
