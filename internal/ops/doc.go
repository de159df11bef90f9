// Package ops defines the resource operation table: every exposed operation,
// its explicit read/write classification and its handler.
//
// Each resource kind lives in its own file and contributes a slice of
// operation descriptors; All assembles the complete table for the dispatcher.
// Handlers are thin wrappers over the typed clientset; the routing, policy
// and error semantics live in the dispatch package.
package ops
