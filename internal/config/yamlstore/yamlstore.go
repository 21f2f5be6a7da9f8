// Package yamlstore implements config.Store backed by a flat YAML file.
//
// The file format is flat key-value pairs where dotted keys (e.g.
// "log.level") are literal strings, not nested paths.
// yaml.Marshal on map[string]string produces alphabetical key ordering,
// making the output deterministic and diff-friendly.
package yamlstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"setbridge/internal/atomicfile"
	"setbridge/internal/config"
)

// YAMLStore implements config.Store using a YAML file on disk.
type YAMLStore struct {
	path string

	mu        sync.RWMutex
	data      map[string]string
	overrides map[string]string // SetInMemory values, never written
}

// New creates a YAMLStore that reads from and writes to path.
// If the file exists it is loaded; if it does not exist the store
// starts empty and the file is created on the first Set call.
func New(path string) (*YAMLStore, error) {
	s := &YAMLStore{
		path:      path,
		overrides: make(map[string]string),
	}
	if err := s.readFromDisk(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the config file path.
func (s *YAMLStore) Path() string { return s.path }

// Get returns the value for key and whether it was found. In-memory
// overrides shadow persisted values.
func (s *YAMLStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.overrides[key]; ok {
		return v, true
	}
	v, ok := s.data[key]
	return v, ok
}

// Set writes key=value and persists to disk. It drops any in-memory
// override of key.
func (s *YAMLStore) Set(key, value string) error {
	return s.withLock(func() {
		s.data[key] = value
		delete(s.overrides, key)
	})
}

// SetInMemory writes key=value to the in-memory store without persisting.
func (s *YAMLStore) SetInMemory(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[key] = value
}

// Unset removes key and persists to disk.
func (s *YAMLStore) Unset(key string) error {
	return s.withLock(func() {
		delete(s.data, key)
		delete(s.overrides, key)
	})
}

// All returns a copy of all key-value pairs, overrides included.
func (s *YAMLStore) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.data)+len(s.overrides))
	for k, v := range s.data {
		out[k] = v
	}
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}

// Persisted returns a copy of the values stored in the file only.
func (s *YAMLStore) Persisted() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// lockPath returns the path to the lock file used to coordinate writers.
func (s *YAMLStore) lockPath() string {
	return s.path + ".lock"
}

// withLock acquires an exclusive file lock, re-reads the config from disk
// (picking up writes from other processes), calls fn to mutate s.data,
// then atomically writes s.data back to disk.
func (s *YAMLStore) withLock(fn func()) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("opening config lock: %w", err)
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		return fmt.Errorf("acquiring config lock: %w", err)
	}
	defer unlockFile(f)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-read from disk to pick up changes from other processes.
	if err := s.readLocked(); err != nil {
		return err
	}

	fn()

	raw, err := yaml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.WriteFile(s.path, raw, 0o644)
}

func (s *YAMLStore) readFromDisk() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

// readLocked reloads s.data from the config file on disk.
func (s *YAMLStore) readLocked() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.data = make(map[string]string)
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	fresh := make(map[string]string)
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &fresh); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	}
	if fresh == nil {
		fresh = make(map[string]string)
	}
	s.data = fresh
	return nil
}

// Compile-time check that YAMLStore implements config.Store.
var _ config.Store = (*YAMLStore)(nil)
