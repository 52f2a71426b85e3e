package storage

import (
	"context"
	"sync"
)

// MemoryStore is a process-lifetime key-value store.
// It backs per-session state and serves as durable storage in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get implements ports.KeyValueStore.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]

	return v, ok, nil
}

// Set implements ports.KeyValueStore.
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()

	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

// Name implements ports.HealthChecker.
func (s *MemoryStore) Name() string { return "storage-memory" }

// Check implements ports.HealthChecker. Memory is always available.
func (s *MemoryStore) Check(context.Context) error { return nil }

// Close implements io.Closer.
func (s *MemoryStore) Close() error { return nil }
