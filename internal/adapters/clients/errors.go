// Package clients provides the instrumented HTTP client used for outbound calls.
package clients

import (
	"errors"
	"fmt"
)

// Infrastructure failures. Callers translate these into domain errors.
var (
	// ErrCircuitOpen is returned while the circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt is spent.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// StatusError reports a non-retryable HTTP error status.
type StatusError struct {
	Service    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.Service, e.StatusCode)
}
