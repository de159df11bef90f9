// Package policy implements the process-wide read-only gate.
//
// The gate classifies nothing itself: every operation carries an explicit
// mutation class assigned at registration time, and the gate is a pure
// function of that class and the mode the server was started with. Adding a
// new write operation anywhere in the operation table inherits the block
// without any change here.
package policy

import (
	"errors"
	"fmt"
)

// Mode is the process-wide policy switch. It is fixed at startup from the
// --readonly flag and never changes for the life of the process, so it needs
// no synchronization.
type Mode int

const (
	// ModeNormal permits every registered operation.
	ModeNormal Mode = iota

	// ModeReadOnly permits only read-class operations.
	ModeReadOnly
)

// String returns the flag-facing name of the mode.
func (m Mode) String() string {
	if m == ModeReadOnly {
		return "readonly"
	}
	return "normal"
}

// MutationClass is the read/write classification of one operation. Every
// operation must be assigned exactly one class explicitly; the dispatcher
// never guesses a class from the operation name.
type MutationClass int

const (
	// ClassRead marks operations with no cluster side effects
	// (list, get, describe, logs).
	ClassRead MutationClass = iota

	// ClassWrite marks operations that mutate cluster or kubeconfig state
	// (create, update, delete, patch, scale, cordon).
	ClassWrite
)

// String returns the class name used in logs and metrics labels.
func (c MutationClass) String() string {
	if c == ClassWrite {
		return "write"
	}
	return "read"
}

// ErrReadOnlyViolation indicates a write-class operation was attempted while
// the server runs in read-only mode.
var ErrReadOnlyViolation = errors.New("operation not allowed in readonly mode")

// ReadOnlyViolationError names the denied operation. The denial happens
// before any client acquisition, so a denied write has zero cluster side
// effects.
type ReadOnlyViolationError struct {
	Operation string
}

// Error implements the error interface.
func (e *ReadOnlyViolationError) Error() string {
	return fmt.Sprintf("operation %q is not allowed in readonly mode: only read operations are permitted", e.Operation)
}

// Is allows matching against ErrReadOnlyViolation with errors.Is.
func (e *ReadOnlyViolationError) Is(target error) bool {
	return target == ErrReadOnlyViolation
}

// Gate enforces the mode against operation classes. The zero value is a gate
// in normal mode.
type Gate struct {
	mode Mode
}

// NewGate returns a gate fixed to the given mode.
func NewGate(mode Mode) *Gate {
	return &Gate{mode: mode}
}

// Mode returns the mode the gate was constructed with.
func (g *Gate) Mode() Mode {
	return g.mode
}

// Authorize permits or denies one operation. It is a pure function of the
// gate's mode and the operation's class; it performs no I/O.
func (g *Gate) Authorize(operation string, class MutationClass) error {
	if g.mode == ModeReadOnly && class == ClassWrite {
		return &ReadOnlyViolationError{Operation: operation}
	}
	return nil
}
