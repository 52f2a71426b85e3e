package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	fileStoreDirPerm  = 0o755
	fileStoreFilePerm = 0o644
)

// FileStore persists every key in one JSON object on disk.
// Writes go to a temporary file that is renamed over the target, so a crash
// never leaves a half-written document behind.
type FileStore struct {
	path string

	mu   sync.RWMutex
	data map[string]string
}

// NewFileStore opens the document at path, creating its directory as needed.
// A missing file is an empty store. A file that is not a JSON object of
// strings is an error.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), fileStoreDirPerm); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	s := &FileStore{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if len(raw) == 0 {
		return s, nil
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	if s.data == nil {
		s.data = make(map[string]string)
	}

	return s, nil
}

// Get implements ports.KeyValueStore.
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]

	return v, ok, nil
}

// Set implements ports.KeyValueStore. The in-memory map is only updated when
// the document was written.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.data)+1)
	for k, v := range s.data {
		next[k] = v
	}

	next[key] = value

	if err := s.write(next); err != nil {
		return err
	}

	s.data = next

	return nil
}

func (s *FileStore) write(data map[string]string) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpName, fileStoreFilePerm); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}

	return nil
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

// Name implements ports.HealthChecker.
func (s *FileStore) Name() string { return "storage-file" }

// Check implements ports.HealthChecker by confirming the directory is still writable.
func (s *FileStore) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("storage directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("storage directory %s is not a directory", filepath.Dir(s.path))
	}

	probe, err := os.CreateTemp(filepath.Dir(s.path), ".health-*")
	if err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}

	name := probe.Name()
	_ = probe.Close()

	return os.Remove(name)
}

// Close implements io.Closer.
func (s *FileStore) Close() error { return nil }
