// Package filesystem implements kvstorage.KVStore using the local filesystem.
// Each key is stored as a JSON file in a named table directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"setbridge/internal/atomicfile"
	"setbridge/internal/kvstorage"
)

// Store implements kvstorage.KVStore using filesystem-backed JSON files.
// Each table is a directory, and each key is a .json file within it.
type Store struct {
	dir string // absolute path to the table directory

	// mu makes the existence check and the write of Set one step for
	// callers sharing this Store.
	mu sync.Mutex
}

// New creates a new filesystem KV store for the given table.
// root is the setbridge home directory; table is the table name.
func New(root, table string) (*Store, error) {
	if err := kvstorage.ValidateTableName(table); err != nil {
		return nil, err
	}
	return &Store{dir: filepath.Join(root, table)}, nil
}

// Dir returns the table directory.
func (s *Store) Dir() string { return s.dir }

// Init creates the table directory if it doesn't exist.
func (s *Store) Init(ctx context.Context) error {
	return os.MkdirAll(s.dir, 0o755)
}

// Set stores a value for the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte, opts kvstorage.SetOptions) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.keyPath(key)
	_, statErr := os.Stat(path)
	exists := statErr == nil
	switch opts.Exists {
	case kvstorage.FailIfExists:
		if exists {
			return fmt.Errorf("key %q: %w", key, kvstorage.ErrAlreadyExists)
		}
	case kvstorage.FailIfNotExists:
		if !exists {
			return fmt.Errorf("key %q: %w", key, kvstorage.ErrKeyNotFound)
		}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return atomicfile.WriteFile(path, value, 0o644)
}

// Get retrieves the value for the given key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("key %q: %w", key, kvstorage.ErrKeyNotFound)
		}
		return nil, err
	}
	return data, nil
}

// Delete removes a key and its value.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.keyPath(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("key %q: %w", key, kvstorage.ErrKeyNotFound)
		}
		return err
	}
	return nil
}

// List returns all keys in the table.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

// keyPath returns the filesystem path for a key.
func (s *Store) keyPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// validateKey checks that a key is a non-empty, visible, single path element.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty: %w", kvstorage.ErrInvalidKey)
	}
	if strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("key %q contains path separator: %w", key, kvstorage.ErrInvalidKey)
	}
	if strings.HasPrefix(key, ".") {
		return fmt.Errorf("key %q starts with a dot: %w", key, kvstorage.ErrInvalidKey)
	}
	return nil
}

var _ kvstorage.KVStore = (*Store)(nil)
