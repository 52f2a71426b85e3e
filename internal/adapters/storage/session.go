package storage

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// SessionStore is the per-session key-value store. An entry expires ttl after
// its last write and the least recently used entry is evicted once maxEntries
// is reached, so clients that never reuse their session id cannot grow it
// without limit.
type SessionStore struct {
	entries *expirable.LRU[string, string]
}

// NewSessionStore creates a store holding at most maxEntries keys for ttl each.
func NewSessionStore(maxEntries int, ttl time.Duration) *SessionStore {
	if maxEntries <= 0 {
		panic("storage: SessionStore requires a positive maxEntries")
	}

	return &SessionStore{entries: expirable.NewLRU[string, string](maxEntries, nil, ttl)}
}

// Get implements ports.KeyValueStore.
func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	v, ok := s.entries.Get(key)

	return v, ok, nil
}

// Set implements ports.KeyValueStore. Writing a key restarts its ttl.
func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.entries.Add(key, value)

	return nil
}

// Len returns the number of live entries.
func (s *SessionStore) Len() int {
	return s.entries.Len()
}
