// Package observability provides an OpenTelemetry-based metrics extension
// for Vigil. The MetricsExtension implements lifecycle hooks to record
// system-wide counters and histograms for dead letter routing, replays,
// stuck-record sweeps, quota alerts, and sweep failures.
//
// For per-invocation tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
