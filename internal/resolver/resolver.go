// Package resolver evaluates ${name:value?default} expressions embedded in
// configuration strings.
//
// An expression names a Resolver registered in a Registry, an optional value
// passed to it, and an optional default used when the resolver has no answer.
// Defaults may contain nested expressions and balanced braces:
//
//	${env:APPDATA}
//	${reg:HKEY_CURRENT_USER\Software\X\Y?fallback}
//	${env:MISSING?${folder:UserProfile}}
//
// Text outside expressions passes through unchanged, and an expression naming
// an unregistered resolver is left verbatim.
package resolver

import (
	"sort"
	"sync"
)

// Names of the built-in resolvers registered by NewDefault.
const (
	Env    = "env"
	Folder = "folder"
	Reg    = "reg"
)

// Resolver maps a value name to its current value. ok is false when the
// resolver has no value for name; err is reserved for genuine failures and
// is propagated to the caller of Registry.Resolve.
type Resolver interface {
	ResolveValue(name string) (value string, ok bool, err error)
}

// Func adapts a function to the Resolver interface.
type Func func(name string) (string, bool, error)

// ResolveValue calls f(name).
func (f Func) ResolveValue(name string) (string, bool, error) {
	return f(name)
}

// Map is a mutable, map-backed Resolver.
type Map struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMap returns a Map seeded with a copy of values.
func NewMap(values map[string]string) *Map {
	m := &Map{values: make(map[string]string, len(values))}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// Set stores value under name.
func (m *Map) Set(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
}

// Delete removes name.
func (m *Map) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
}

// Names returns the stored names, sorted.
func (m *Map) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.values))
	for k := range m.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ResolveValue implements Resolver.
func (m *Map) ResolveValue(name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	return v, ok, nil
}
