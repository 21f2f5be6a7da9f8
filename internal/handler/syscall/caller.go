package syscall

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownFunction is returned for functions a Caller does not provide.
	ErrUnknownFunction = errors.New("unknown system call")

	// ErrNotFound is returned for setting names a function does not know.
	ErrNotFound = errors.New("system call setting not found")
)

// FunctionSystemParametersInfo is the function served by the native Caller
// on Windows.
const FunctionSystemParametersInfo = "SystemParametersInfo"

// Caller reads and writes settings through fixed system functions.
type Caller interface {
	Get(ctx context.Context, function, name string) (any, error)
	Set(ctx context.Context, function, name string, value any) error
}

// Memory is an in-process Caller. Functions must be registered before use.
type Memory struct {
	mu        sync.RWMutex
	functions map[string]map[string]any
}

// NewMemory returns a Memory caller without functions.
func NewMemory() *Memory {
	return &Memory{functions: make(map[string]map[string]any)}
}

// Register adds function with the given initial settings.
func (m *Memory) Register(function string, values map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := make(map[string]any, len(values))
	for k, v := range values {
		f[k] = v
	}
	m.functions[function] = f
}

func (m *Memory) function(name string) (map[string]any, error) {
	f, ok := m.functions[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownFunction)
	}
	return f, nil
}

// Get implements Caller.
func (m *Memory) Get(ctx context.Context, function, name string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, err := m.function(function)
	if err != nil {
		return nil, err
	}
	v, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", function, name, ErrNotFound)
	}
	return v, nil
}

// Set implements Caller. Only known names can be written.
func (m *Memory) Set(ctx context.Context, function, name string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := m.function(function)
	if err != nil {
		return err
	}
	if _, ok := f[name]; !ok {
		return fmt.Errorf("%s %s: %w", function, name, ErrNotFound)
	}
	f[name] = value
	return nil
}

var _ Caller = (*Memory)(nil)
