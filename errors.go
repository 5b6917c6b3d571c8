package pagelift

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error kind constants for classification and matching
const (
	// ErrorKindUsage indicates a caller mistake (bad flag, malformed
	// confirmation condition). Reported immediately; no cleanup is needed
	// because no resources were acquired yet.
	ErrorKindUsage = "usage"

	// ErrorKindEnvironment indicates a missing precondition in the
	// surrounding environment (absent tool, not a repository, unreachable
	// remote). Fatal; triggers guarded cleanup.
	ErrorKindEnvironment = "environment"

	// ErrorKindTransient indicates an operation that may succeed on a
	// retry (dependency install, remote push). The only retryable kind.
	ErrorKindTransient = "transient"

	// ErrorKindData indicates inputs that cannot succeed without change
	// (empty build output, corrupt archive). Fatal, never retried.
	ErrorKindData = "data"

	// ErrorKindTeardown indicates a best-effort failure during cleanup.
	// Logged, never escalated; the process is already unwinding.
	ErrorKindTeardown = "teardown"
)

// PipelineError is a structured error with a taxonomy kind. It supports
// Go's error wrapping patterns with Unwrap().
type PipelineError struct {
	Kind    string `json:"kind"`
	Cause   string `json:"cause"`
	Wrapped error  `json:"-"`
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
}

// Unwrap implements the error unwrapping interface for errors.Is and errors.As
func (e *PipelineError) Unwrap() error {
	return e.Wrapped
}

// NewUsageError creates a usage-kind PipelineError.
func NewUsageError(format string, args ...any) *PipelineError {
	return &PipelineError{Kind: ErrorKindUsage, Cause: fmt.Sprintf(format, args...)}
}

// NewEnvironmentError creates an environment-kind PipelineError.
func NewEnvironmentError(format string, args ...any) *PipelineError {
	return &PipelineError{Kind: ErrorKindEnvironment, Cause: fmt.Sprintf(format, args...)}
}

// NewTransientError wraps err as a transient, retryable failure.
func NewTransientError(err error) *PipelineError {
	return &PipelineError{Kind: ErrorKindTransient, Cause: err.Error(), Wrapped: err}
}

// NewDataError creates a data-kind PipelineError.
func NewDataError(format string, args ...any) *PipelineError {
	return &PipelineError{Kind: ErrorKindData, Cause: fmt.Sprintf(format, args...)}
}

// NewTeardownError wraps a cleanup failure. Teardown errors are logged
// by the release path and never escalated.
func NewTeardownError(err error) *PipelineError {
	return &PipelineError{Kind: ErrorKindTeardown, Cause: err.Error(), Wrapped: err}
}

// ClassifyError attempts to classify a regular error into a PipelineError.
// Unknown errors default to the environment kind: they are fatal and must
// not be retried unless something explicitly marked them transient.
func ClassifyError(err error) *PipelineError {
	var pipelineError *PipelineError
	if errors.As(err, &pipelineError) {
		return pipelineError
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return &PipelineError{
			Kind:    ErrorKindTransient,
			Cause:   err.Error(),
			Wrapped: err,
		}
	}
	return &PipelineError{
		Kind:    ErrorKindEnvironment,
		Cause:   err.Error(),
		Wrapped: err,
	}
}

// MatchesErrorKind checks if an error classifies as the given kind.
func MatchesErrorKind(err error, kind string) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).Kind == kind
}

// IsRetryable reports whether the error classifies as transient.
// Cancellation is intentional and never retryable.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return MatchesErrorKind(err, ErrorKindTransient)
}
