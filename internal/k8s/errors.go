package k8s

import (
	"errors"
	"fmt"
)

// ErrClientConstruction indicates that a client bundle could not be built or
// validated for a context. The failure is transient from the pool's point of
// view: the next request for the same context retries construction.
var ErrClientConstruction = errors.New("client construction failed")

// ConstructionError carries the context name that triggered a failed client
// construction together with the underlying cause.
type ConstructionError struct {
	Context string
	Err     error
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	return fmt.Sprintf("constructing client for context %q failed: %v", e.Context, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// Is allows matching against ErrClientConstruction with errors.Is.
func (e *ConstructionError) Is(target error) bool {
	return target == ErrClientConstruction
}
