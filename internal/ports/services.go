// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrStorage, ErrUnavailable, etc.)
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"context"

	"github.com/jsamuelsen/quotegen/internal/domain"
)

// KeyValueStore is string-keyed storage for string values.
// The durable store survives restarts; the ephemeral store lives for the process.
//
// Implementations must make Set an atomic single-key overwrite.
type KeyValueStore interface {
	// Get returns the value stored under key.
	// The boolean is false when the key has never been written.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// QuoteSource is the remote collection quotes are synchronized from.
type QuoteSource interface {
	// FetchQuotes retrieves a bounded batch of candidate quotes.
	// Returns domain.ErrUnavailable on transport failure or a non-success response.
	FetchQuotes(ctx context.Context) ([]domain.Quote, error)
}
