package syssettings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"setbridge/internal/settings"
)

// ErrNotFound is returned by Lookup for unknown setting ids.
var ErrNotFound = errors.New("system setting not found")

// Item is one native system setting.
type Item interface {
	// IsEnabled reports whether the setting can currently be read and written.
	IsEnabled() (bool, error)
	GetValue() (any, error)
	SetValue(v any) error
}

// Provider finds native settings by id. Lookups may be expensive.
type Provider interface {
	Lookup(ctx context.Context, id string) (Item, error)
}

// Unsupported returns a Provider that fails every lookup with
// settings.ErrUnsupported.
func Unsupported() Provider { return unsupported{} }

type unsupported struct{}

func (unsupported) Lookup(context.Context, string) (Item, error) {
	return nil, fmt.Errorf("system settings: %w", settings.ErrUnsupported)
}

// MemoryItem is an in-process Item. It becomes enabled after EnableAfter
// calls to IsEnabled, or never when EnableAfter is negative.
type MemoryItem struct {
	mu          sync.Mutex
	value       any
	enableAfter int
	checks      int
}

// NewMemoryItem returns an enabled item holding value.
func NewMemoryItem(value any) *MemoryItem {
	return &MemoryItem{value: value}
}

// EnableAfter makes the item report disabled for the next n checks.
func (m *MemoryItem) EnableAfter(n int) *MemoryItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enableAfter = n
	m.checks = 0
	return m
}

// IsEnabled implements Item.
func (m *MemoryItem) IsEnabled() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enableAfter < 0 {
		return false, nil
	}
	m.checks++
	return m.checks > m.enableAfter, nil
}

// GetValue implements Item.
func (m *MemoryItem) GetValue() (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

// SetValue implements Item.
func (m *MemoryItem) SetValue(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
	return nil
}

// Memory is an in-process Provider that counts lookups.
type Memory struct {
	mu      sync.Mutex
	items   map[string]*MemoryItem
	lookups int
}

// NewMemory returns an empty Memory provider.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]*MemoryItem)}
}

// Add registers item under id.
func (m *Memory) Add(id string, item *MemoryItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = item
}

// Lookups returns how many times Lookup was called.
func (m *Memory) Lookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

// Lookup implements Provider.
func (m *Memory) Lookup(ctx context.Context, id string) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	item, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return item, nil
}

var _ Provider = (*Memory)(nil)
