// Package server assembles the MCP surface of k8s-pilot.
//
// ServerContext owns the long-lived pieces: the context registry, the
// per-context client pool, the policy gate and the dispatcher. The bridge
// turns every registered operation into one MCP tool, so the tool surface
// is derived from the operation table rather than maintained by hand. A
// read-only resource at k8s://contexts exposes the known contexts to
// clients that prefer resources over tool calls.
//
// Health endpoints follow the usual Kubernetes probe split: liveness only
// confirms the process responds, readiness flips off during shutdown.
package server
