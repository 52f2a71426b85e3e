// Package clients provides HTTP client adapters for downstream services.
package clients

import (
	"errors"
	"fmt"
	"net/http"
)

// Client errors are infrastructure failures. Callers translate them to domain
// errors at the anti-corruption layer.
var (
	// ErrCircuitOpen is returned while the circuit breaker rejects requests.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last error once every attempt has failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// StatusError is a response the client treated as a failure.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
