package winreg

import (
	"fmt"
	"strings"
	"sync"
)

// Memory is an in-process Store. Key and value names are case-insensitive
// as on Windows. Views are ignored: all views share one tree.
type Memory struct {
	mu   sync.RWMutex
	keys map[string]map[string]Value
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{keys: make(map[string]map[string]Value)}
}

func memKey(k Key) string {
	return strings.ToLower(string(k.Root) + `\` + strings.Trim(k.Path, `\`))
}

// CreateKey makes key exist without adding values.
func (m *Memory) CreateKey(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[memKey(key)]; !ok {
		m.keys[memKey(key)] = make(map[string]Value)
	}
}

// KeyExists implements Store.
func (m *Memory) KeyExists(key Key) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[memKey(key)]
	return ok, nil
}

// GetValue implements Store.
func (m *Memory) GetValue(key Key, name string) (Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values, ok := m.keys[memKey(key)]
	if !ok {
		return Value{}, fmt.Errorf("%s: %w", key, ErrKeyNotFound)
	}
	v, ok := values[strings.ToLower(name)]
	if !ok {
		return Value{}, fmt.Errorf(`%s\%s: %w`, key, name, ErrValueNotFound)
	}
	return v, nil
}

// SetValue implements Store.
func (m *Memory) SetValue(key Key, name string, v Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	values, ok := m.keys[memKey(key)]
	if !ok {
		values = make(map[string]Value)
		m.keys[memKey(key)] = values
	}
	values[strings.ToLower(name)] = v
	return nil
}

// DeleteValue implements Store.
func (m *Memory) DeleteValue(key Key, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	values, ok := m.keys[memKey(key)]
	if !ok {
		return fmt.Errorf("%s: %w", key, ErrKeyNotFound)
	}
	delete(values, strings.ToLower(name))
	return nil
}

var _ Store = (*Memory)(nil)
