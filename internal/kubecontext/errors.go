package kubecontext

import (
	"errors"
	"fmt"
)

// Sentinel errors for context registry failures. Callers use errors.Is to
// distinguish a bad context name from a broken credential source.
var (
	// ErrUnknownContext indicates that a requested context name has no
	// matching descriptor in the registry.
	ErrUnknownContext = errors.New("unknown context")

	// ErrNoContexts indicates that the credential source was readable but
	// contained no usable contexts.
	ErrNoContexts = errors.New("no contexts available")
)

// UnknownContextError reports a lookup for a context name that is not in the
// registry.
type UnknownContextError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownContextError) Error() string {
	return fmt.Sprintf("unknown context %q", e.Name)
}

// Is allows matching against ErrUnknownContext with errors.Is.
func (e *UnknownContextError) Is(target error) bool {
	return target == ErrUnknownContext
}

// LoadError reports a fatal failure to load the context registry at startup.
// The process must not start serving when Load returns this error.
type LoadError struct {
	Source string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("loading contexts from %s failed: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("loading contexts from %s failed: %s", e.Source, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}
