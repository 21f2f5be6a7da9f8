package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"setbridge/internal/winreg"
)

var (
	// ErrDuplicate is returned when a name is already registered.
	ErrDuplicate = errors.New("resolver already registered")

	// ErrNotRegistered is returned when removing a name that is not registered.
	ErrNotRegistered = errors.New("resolver not registered")

	// ErrInvalidName is returned for names the expression grammar cannot address.
	ErrInvalidName = errors.New("invalid resolver name")
)

// Registry maps resolver names to Resolvers and evaluates expressions
// against them. Registration is guarded by a mutex, but two callers that
// register the same name concurrently still race for it; use Scope or With
// to keep a temporary registration bounded.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]Resolver
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{resolvers: make(map[string]Resolver)}
}

type defaultOptions struct {
	regStore winreg.Store
	folders  *FolderResolver
	lookup   func(string) (string, bool)
}

// Option configures the built-in resolvers created by NewDefault.
type Option func(*defaultOptions)

// WithRegistryStore sets the registry backing the reg resolver.
func WithRegistryStore(s winreg.Store) Option {
	return func(o *defaultOptions) { o.regStore = s }
}

// WithFolders sets the folder resolver instance, so callers can add extra
// named paths to it later.
func WithFolders(f *FolderResolver) Option {
	return func(o *defaultOptions) { o.folders = f }
}

// WithEnvLookup replaces os.LookupEnv for the env resolver.
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(o *defaultOptions) { o.lookup = lookup }
}

// NewDefault returns a Registry with the env, folder and reg resolvers
// registered.
func NewDefault(opts ...Option) *Registry {
	o := defaultOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.regStore == nil {
		o.regStore = winreg.Native()
	}
	if o.folders == nil {
		o.folders = NewFolderResolver()
	}

	r := New()
	r.resolvers[Env] = &EnvResolver{Lookup: o.lookup}
	r.resolvers[Folder] = o.folders
	r.resolvers[Reg] = &RegistryResolver{Store: o.regStore}
	return r
}

func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, ":}?")
}

// Add registers r under name.
func (r *Registry) Add(name string, res Resolver) error {
	if !validName(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if res == nil {
		return fmt.Errorf("resolver %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.resolvers[name]; exists {
		return fmt.Errorf("%q: %w", name, ErrDuplicate)
	}
	r.resolvers[name] = res
	return nil
}

// Remove unregisters name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.resolvers[name]; !exists {
		return fmt.Errorf("%q: %w", name, ErrNotRegistered)
	}
	delete(r.resolvers, name)
	return nil
}

// Lookup returns the resolver registered under name.
func (r *Registry) Lookup(name string) (Resolver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resolvers[name]
	return res, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.resolvers))
	for name := range r.resolvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent Registry with the same registrations.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := New()
	for name, res := range r.resolvers {
		c.resolvers[name] = res
	}
	return c
}

// Scope registers res under name and returns a release function that
// unregisters it. Calling release more than once is harmless.
func (r *Registry) Scope(name string, res Resolver) (release func(), err error) {
	if err := r.Add(name, res); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.resolvers, name)
		})
	}, nil
}

// With registers res under name for the duration of fn.
func (r *Registry) With(name string, res Resolver, fn func() error) error {
	release, err := r.Scope(name, res)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
