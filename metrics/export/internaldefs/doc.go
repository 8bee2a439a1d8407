// Package internaldefs holds the metric name and bucket definitions shared
// by exporter implementations.
//
// Counter and histogram definitions live here so the Prometheus and OTel
// exporters emit identical metric names and bucket boundaries. Changes to
// definitions in this package affect all exporters simultaneously.
package internaldefs
