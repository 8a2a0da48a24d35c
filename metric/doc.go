// Package metric provides the Prometheus metrics infrastructure for the
// framework: a registry wrapper that namespaces service metrics, rejects
// duplicates, and carries the core framework metrics (stub dispatch
// counters, router connection gauges).
//
// Services register their own collectors through the MetricsRegistrar
// interface; the sbrouter binary exposes the registry over HTTP via
// promhttp.
package metric
