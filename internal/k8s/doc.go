// Package k8s constructs and caches live Kubernetes client bundles, one per
// cluster context.
//
// The Pool is the only mutable shared structure in the server. It guarantees
// at most one ClientSet per context name: concurrent first requests for the
// same context collapse into a single construction via singleflight, and the
// winning handle is shared by every caller. Construction failures are never
// cached, so an unreachable cluster is retried on the next request instead of
// poisoning its context permanently.
//
// ClientSets are retained for the life of the process. The underlying
// client-go clients are safe for concurrent use, so in-flight operations on
// the same context never serialize on the pool.
package k8s
