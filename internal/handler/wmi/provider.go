package wmi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"setbridge/internal/settings"
)

var (
	// ErrNamespace is returned when the namespace or class cannot be reached.
	ErrNamespace = errors.New("wmi namespace not found")

	// ErrNotFound is returned when the instance or property does not exist.
	ErrNotFound = errors.New("wmi property not found")
)

// Object addresses one management object.
type Object struct {
	Namespace string
	Class     string
	Instance  string // key filter, e.g. `Name="Default"`; empty for singletons
}

func (o Object) String() string {
	s := o.Namespace + ":" + o.Class
	if o.Instance != "" {
		s += "." + o.Instance
	}
	return s
}

// Provider reads and writes properties of management objects.
type Provider interface {
	Get(ctx context.Context, obj Object, property string) (any, error)
	Set(ctx context.Context, obj Object, property string, value any) error
}

// Unsupported returns a Provider that fails every call with
// settings.ErrUnsupported.
func Unsupported() Provider { return unsupported{} }

type unsupported struct{}

func (unsupported) Get(context.Context, Object, string) (any, error) {
	return nil, fmt.Errorf("wmi: %w", settings.ErrUnsupported)
}

func (unsupported) Set(context.Context, Object, string, any) error {
	return fmt.Errorf("wmi: %w", settings.ErrUnsupported)
}

// Memory is an in-process Provider. Namespace and class names are
// case-insensitive. Objects must be created with Put before they can be read.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]map[string]map[string]any // namespace:class -> instance -> property
}

// NewMemory returns an empty Memory provider.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]map[string]map[string]any)}
}

func classKey(o Object) string {
	return strings.ToLower(o.Namespace + ":" + o.Class)
}

// Put creates the object if needed and sets its properties.
func (m *Memory) Put(obj Object, props map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	instances, ok := m.objects[classKey(obj)]
	if !ok {
		instances = make(map[string]map[string]any)
		m.objects[classKey(obj)] = instances
	}
	p, ok := instances[obj.Instance]
	if !ok {
		p = make(map[string]any)
		instances[obj.Instance] = p
	}
	for k, v := range props {
		p[k] = v
	}
}

func (m *Memory) lookup(obj Object) (map[string]any, error) {
	instances, ok := m.objects[classKey(obj)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", obj, ErrNamespace)
	}
	props, ok := instances[obj.Instance]
	if !ok {
		return nil, fmt.Errorf("%s: %w", obj, ErrNotFound)
	}
	return props, nil
}

// Get implements Provider.
func (m *Memory) Get(ctx context.Context, obj Object, property string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	props, err := m.lookup(obj)
	if err != nil {
		return nil, err
	}
	v, ok := props[property]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", obj, property, ErrNotFound)
	}
	return v, nil
}

// Set implements Provider. Only existing properties can be written.
func (m *Memory) Set(ctx context.Context, obj Object, property string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	props, err := m.lookup(obj)
	if err != nil {
		return err
	}
	if _, ok := props[property]; !ok {
		return fmt.Errorf("%s.%s: %w", obj, property, ErrNotFound)
	}
	props[property] = value
	return nil
}

var _ Provider = (*Memory)(nil)
