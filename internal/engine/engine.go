// Package engine routes settings groups to the handler for their backend
// and runs capture and apply across whole solutions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"setbridge/internal/handler/inifile"
	"setbridge/internal/handler/jsonfile"
	"setbridge/internal/handler/regkey"
	"setbridge/internal/handler/syscall"
	"setbridge/internal/handler/syssettings"
	"setbridge/internal/handler/wmi"
	"setbridge/internal/handler/xmlfile"
	"setbridge/internal/logger"
	"setbridge/internal/resolver"
	"setbridge/internal/settings"
	"setbridge/internal/winreg"
)

// ErrUnknownBackend is returned for a group without a known backend.
var ErrUnknownBackend = errors.New("unknown backend")

// DefaultConcurrency bounds how many groups run at once in solution-wide
// operations.
const DefaultConcurrency = 4

type options struct {
	resolver    *resolver.Registry
	resOpts     []resolver.Option
	regStore    winreg.Store
	wmi         wmi.Provider
	sys         syssettings.Provider
	sysOpts     []syssettings.Option
	calls       syscall.Caller
	log         *slog.Logger
	concurrency int
}

// Option configures an Engine.
type Option func(*options)

// WithResolver sets the registry used to evaluate backend fields. The
// default is resolver.NewDefault over the engine's registry store.
func WithResolver(r *resolver.Registry) Option {
	return func(o *options) { o.resolver = r }
}

// WithResolverOptions adds options for the default registry. They are
// ignored when WithResolver is given.
func WithResolverOptions(opts ...resolver.Option) Option {
	return func(o *options) { o.resOpts = append(o.resOpts, opts...) }
}

// WithRegistryStore sets the registry backing Registry groups and the reg
// resolver. The default is the native registry.
func WithRegistryStore(s winreg.Store) Option {
	return func(o *options) { o.regStore = s }
}

// WithWMI sets the WMI provider. Without one, WMI groups are unsupported.
func WithWMI(p wmi.Provider) Option {
	return func(o *options) { o.wmi = p }
}

// WithSystemSettings sets the native system settings provider. Without one,
// SystemSettings groups are unsupported.
func WithSystemSettings(p syssettings.Provider, opts ...syssettings.Option) Option {
	return func(o *options) {
		o.sys = p
		o.sysOpts = append(o.sysOpts, opts...)
	}
}

// WithSystemSettingsWait sets how long system settings items are given to
// become enabled.
func WithSystemSettingsWait(d time.Duration) Option {
	return func(o *options) { o.sysOpts = append(o.sysOpts, syssettings.WithWait(d)) }
}

// WithCaller sets the system call Caller. The default is syscall.Native.
func WithCaller(c syscall.Caller) Option {
	return func(o *options) { o.calls = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithConcurrency sets how many groups run at once. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// Engine captures and applies settings.
type Engine struct {
	resolver    *resolver.Registry
	log         *slog.Logger
	concurrency int

	ini   *inifile.Handler
	reg   *regkey.Handler
	xml   *xmlfile.Handler
	json  *jsonfile.Handler
	wmi   *wmi.Handler
	sys   *syssettings.Handler
	calls *syscall.Handler

	locks keyedMutex
}

// New returns an Engine with one handler per backend kind.
func New(opts ...Option) *Engine {
	o := options{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	if o.regStore == nil {
		o.regStore = winreg.Native()
	}
	if o.resolver == nil {
		o.resolver = resolver.NewDefault(append([]resolver.Option{resolver.WithRegistryStore(o.regStore)}, o.resOpts...)...)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	log := logger.Or(o.log)

	return &Engine{
		resolver:    o.resolver,
		log:         log,
		concurrency: o.concurrency,
		ini:         inifile.New(o.resolver, log),
		reg:         regkey.New(o.resolver, o.regStore, log),
		xml:         xmlfile.New(o.resolver, log),
		json:        jsonfile.New(o.resolver, log),
		wmi:         wmi.New(o.wmi, log),
		sys:         syssettings.New(o.sys, append([]syssettings.Option{syssettings.WithLogger(log)}, o.sysOpts...)...),
		calls:       syscall.New(o.calls, log),
	}
}

// Resolver returns the registry used for backend fields.
func (e *Engine) Resolver() *resolver.Registry { return e.resolver }

// Handler returns the handler for backend b.
func (e *Engine) Handler(b settings.Backend) (settings.Handler, error) {
	switch b.(type) {
	case *settings.IniBackend:
		return e.ini, nil
	case *settings.RegistryBackend:
		return e.reg, nil
	case *settings.XMLBackend:
		return e.xml, nil
	case *settings.JSONBackend:
		return e.json, nil
	case *settings.WMIBackend:
		return e.wmi, nil
	case *settings.SystemSettingsBackend:
		return e.sys, nil
	case *settings.SystemCallBackend:
		return e.calls, nil
	}
	return nil, fmt.Errorf("%T: %w", b, ErrUnknownBackend)
}

// resource names the backing store of g, so that groups sharing a file or
// registry key are not written at the same time. Groups without a shared
// resource return "".
func (e *Engine) resource(g *settings.Group) string {
	var kind string
	var raw resolver.String
	switch b := g.Backend.(type) {
	case *settings.IniBackend:
		kind, raw = "file", b.Path
	case *settings.XMLBackend:
		kind, raw = "file", b.Path
	case *settings.JSONBackend:
		kind, raw = "file", b.Path
	case *settings.RegistryBackend:
		kind, raw = "reg", b.Key
	default:
		return ""
	}
	s, err := raw.Resolve(e.resolver)
	if err != nil || s == "" {
		return ""
	}
	if kind == "file" {
		if abs, err := filepath.Abs(s); err == nil {
			s = abs
		}
	}
	return kind + ":" + strings.ToLower(s)
}

// Capture reads settings of g. With no settings given, every setting of
// the group is captured. Whole-group failures are returned as
// *settings.GroupError.
func (e *Engine) Capture(ctx context.Context, g *settings.Group, list ...*settings.Setting) (*settings.Values, error) {
	if len(list) == 0 {
		list = g.Settings
	}
	for _, s := range list {
		if s.Group != g {
			return nil, &settings.GroupError{Group: g.Name, Op: "capture", Err: fmt.Errorf("setting %s: %w", s.ID(), settings.ErrNotFound)}
		}
	}

	values, err := e.capture(ctx, g, list)
	if err != nil {
		e.log.Warn("capture.group.failed", "group", g.Name, "backend", kindOf(g), "error", err)
		return nil, &settings.GroupError{Group: g.Name, Op: "capture", Err: err}
	}
	// every requested setting gets an entry
	for _, s := range list {
		if _, ok := values.Get(s); !ok {
			values.SetMissing(s)
		}
	}
	e.log.Debug("capture.group.done", "group", g.Name, "count", values.Len())
	return values, nil
}

func (e *Engine) capture(ctx context.Context, g *settings.Group, list []*settings.Setting) (*settings.Values, error) {
	h, err := e.Handler(g.Backend)
	if err != nil {
		return nil, err
	}
	return h.Capture(ctx, g, list)
}

// Apply writes the entries of values that belong to g. It reports false
// when some settings could not be written; whole-group failures are
// returned as *settings.GroupError.
func (e *Engine) Apply(ctx context.Context, g *settings.Group, values *settings.Values) (bool, error) {
	mine := values.Filter(g)
	if mine.Len() == 0 {
		return true, nil
	}
	h, err := e.Handler(g.Backend)
	if err == nil {
		unlock := e.locks.lock(e.resource(g))
		var ok bool
		ok, err = h.Apply(ctx, g, mine)
		unlock()
		if err == nil {
			if !ok {
				e.log.Warn("apply.group.partial", "group", g.Name, "backend", kindOf(g))
			}
			e.log.Debug("apply.group.done", "group", g.Name, "count", mine.Len(), "ok", ok)
			return ok, nil
		}
	}
	e.log.Warn("apply.group.failed", "group", g.Name, "backend", kindOf(g), "error", err)
	return false, &settings.GroupError{Group: g.Name, Op: "apply", Err: err}
}

func kindOf(g *settings.Group) string {
	if g.Backend == nil {
		return ""
	}
	return string(g.Backend.Kind())
}

// selectGroups returns the named groups, or all groups when names is empty.
func selectGroups(sol *settings.Solution, names []string) ([]*settings.Group, []error) {
	if len(names) == 0 {
		return sol.Groups, nil
	}
	var groups []*settings.Group
	var errs []error
	for _, name := range names {
		g := sol.Group(name)
		if g == nil {
			errs = append(errs, fmt.Errorf("group %s: %w", name, settings.ErrNotFound))
			continue
		}
		groups = append(groups, g)
	}
	return groups, errs
}

// CaptureSolution captures the given groups of sol, or all of them,
// concurrently. Values are merged in group declaration order. A group that
// fails is reported in the returned errors and leaves no entries; the other
// groups are unaffected.
func (e *Engine) CaptureSolution(ctx context.Context, sol *settings.Solution, groups ...string) (*settings.Values, []error) {
	selected, errs := selectGroups(sol, groups)
	results := make([]*settings.Values, len(selected))
	groupErrs := make([]error, len(selected))

	var eg errgroup.Group
	eg.SetLimit(e.concurrency)
	for i, g := range selected {
		i, g := i, g
		eg.Go(func() error {
			results[i], groupErrs[i] = e.Capture(ctx, g)
			return nil
		})
	}
	eg.Wait()

	all := settings.NewValues()
	for i := range selected {
		if groupErrs[i] != nil {
			errs = append(errs, groupErrs[i])
			continue
		}
		all.Merge(results[i])
	}
	return all, errs
}

// ApplySolution applies values to every group of sol that has entries in
// it, concurrently. Groups sharing a file or registry key are written one
// at a time. The result maps each applied group to whether all of its
// settings were written.
func (e *Engine) ApplySolution(ctx context.Context, sol *settings.Solution, values *settings.Values) (map[string]bool, []error) {
	var selected []*settings.Group
	for _, g := range sol.Groups {
		if values.Filter(g).Len() > 0 {
			selected = append(selected, g)
		}
	}

	oks := make([]bool, len(selected))
	groupErrs := make([]error, len(selected))

	var eg errgroup.Group
	eg.SetLimit(e.concurrency)
	for i, g := range selected {
		i, g := i, g
		eg.Go(func() error {
			oks[i], groupErrs[i] = e.Apply(ctx, g, values)
			return nil
		})
	}
	eg.Wait()

	results := make(map[string]bool, len(selected))
	var errs []error
	for i, g := range selected {
		results[g.Name] = oks[i]
		if groupErrs[i] != nil {
			errs = append(errs, groupErrs[i])
		}
	}
	return results, errs
}

// keyedMutex hands out one mutex per non-empty key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	if key == "" {
		return func() {}
	}
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
