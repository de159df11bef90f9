// Package instrumentation provides Prometheus metrics and OpenTelemetry
// tracing for the k8s-pilot server.
//
// Metrics cover the dispatch pipeline (operation counts, durations,
// read-only denials, in-flight gauge) and the per-context client pool
// (hits, misses, construction outcomes, pool size). Labels stay on
// operation names and outcome classes; context names and namespaces are
// kept out of metric labels to bound cardinality, and belong in traces
// and logs instead.
//
// Tracing is off by default. When enabled it installs a global tracer
// provider that writes spans to stderr, which is enough to follow a
// dispatch through resolve, authorize, acquire and invoke.
package instrumentation
