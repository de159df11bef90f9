// Package dispatch is the central entry point for every tool-call operation.
//
// A Dispatcher executes one operation in a strict sequence: operation lookup,
// context resolution, policy check, client acquisition, handler invocation,
// result normalization. The ordering carries the failure semantics: a typo in
// the operation name surfaces before any context work, and a write denied by
// the read-only gate never touches the client pool or any cluster.
//
// The operation table is a closed registry built once at startup from the ops
// package. Every entry carries an explicit mutation class; the dispatcher
// never derives a class from an operation's name.
package dispatch
