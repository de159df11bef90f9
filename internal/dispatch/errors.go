package dispatch

import (
	"context"
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Sentinel errors for dispatch failures, matched with errors.Is.
var (
	// ErrUnknownOperation indicates a requested operation name is not in
	// the operation table.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidArgument indicates a handler rejected the operation
	// arguments before issuing any cluster call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstream indicates the underlying cluster call failed.
	ErrUpstream = errors.New("upstream call failed")
)

// UnknownOperationError reports a lookup for an operation name that is not
// registered.
type UnknownOperationError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Name)
}

// Is allows matching against ErrUnknownOperation with errors.Is.
func (e *UnknownOperationError) Is(target error) bool {
	return target == ErrUnknownOperation
}

// InvalidArgumentError reports a missing or malformed operation argument.
type InvalidArgumentError struct {
	Param  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid argument %q: %s", e.Param, e.Reason)
	}
	return fmt.Sprintf("argument %q is required", e.Param)
}

// Is allows matching against ErrInvalidArgument with errors.Is.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// UpstreamError wraps a failed cluster call, preserving the Kubernetes status
// reason and code. The dispatcher never reinterprets or retries the failure.
type UpstreamError struct {
	Operation string
	Context   string
	Status    string
	Code      int32
	Timeout   bool
	Err       error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("operation %q on context %q timed out: %v", e.Operation, e.Context, e.Err)
	}
	if e.Status != "" {
		return fmt.Sprintf("operation %q on context %q failed (%s): %v", e.Operation, e.Context, e.Status, e.Err)
	}
	return fmt.Sprintf("operation %q on context %q failed: %v", e.Operation, e.Context, e.Err)
}

// Unwrap returns the original upstream error.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is allows matching against ErrUpstream with errors.Is.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// wrapUpstream classifies a handler failure, extracting the API status when
// the error originated from the Kubernetes API machinery.
func wrapUpstream(operation, contextName string, err error) *UpstreamError {
	ue := &UpstreamError{
		Operation: operation,
		Context:   contextName,
		Err:       err,
	}

	if status := apierrors.APIStatus(nil); errors.As(err, &status) {
		ue.Status = string(status.Status().Reason)
		ue.Code = status.Status().Code
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		apierrors.IsTimeout(err) ||
		apierrors.IsServerTimeout(err) {
		ue.Timeout = true
	}

	return ue
}
