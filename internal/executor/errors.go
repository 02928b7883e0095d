package executor

import (
	"context"
	"errors"
	"fmt"
)

// TransportError represents a network-level failure or a retried 5xx that
// persisted after the retry budget was exhausted. It is captured into a
// TestResult; it never aborts the run.
type TransportError struct {
	Operation  string // category/name of the operation
	Attempts   int    // total attempts made, including the first
	StatusCode int    // last observed status, 0 when no response arrived
	Err        error  // underlying transport error, nil for 5xx exhaustion
}

// Error implements the error interface for TransportError.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: server error %d after %d attempt(s)", e.Operation, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("%s: request failed after %d attempt(s): %v", e.Operation, e.Attempts, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a deadline expiry rather than a
// reachability problem.
func (e *TransportError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// HealthCheckError indicates the target server never became healthy within
// the polling budget. This is infrastructure failure: the run aborts before
// any test executes.
type HealthCheckError struct {
	URL      string
	Attempts int
	LastErr  error
}

// Error implements the error interface for HealthCheckError.
func (e *HealthCheckError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("server at %s not healthy after %d attempt(s): %v", e.URL, e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("server at %s not healthy after %d attempt(s)", e.URL, e.Attempts)
}

// Unwrap returns the last polling error.
func (e *HealthCheckError) Unwrap() error {
	return e.LastErr
}

// IsTransportError checks if the error is or wraps a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsHealthCheckError checks if the error is or wraps a HealthCheckError.
func IsHealthCheckError(err error) bool {
	var he *HealthCheckError
	return errors.As(err, &he)
}
