// Package syssettings stores settings through native system settings. Each
// setting name is the id of a native item. Items are looked up once and
// cached for the lifetime of the Handler.
package syssettings

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"setbridge/internal/logger"
	"setbridge/internal/settings"
)

const (
	// DefaultWait bounds how long WaitForEnabled polls.
	DefaultWait = time.Second
	// DefaultPoll is the interval between IsEnabled checks.
	DefaultPoll = 100 * time.Millisecond
)

// Handler implements settings.Handler for settings.SystemSettingsBackend
// groups.
type Handler struct {
	provider Provider
	log      *slog.Logger
	wait     time.Duration
	poll     time.Duration

	mu    sync.Mutex
	cache map[string]Item
}

// Option configures a Handler.
type Option func(*Handler)

// WithWait sets the longest time WaitForEnabled polls.
func WithWait(d time.Duration) Option {
	return func(h *Handler) { h.wait = d }
}

// WithPoll sets the interval between enabled checks.
func WithPoll(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.poll = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.log = logger.Or(l) }
}

// New returns a Handler over provider. A nil provider is unsupported.
func New(provider Provider, opts ...Option) *Handler {
	if provider == nil {
		provider = Unsupported()
	}
	h := &Handler{
		provider: provider,
		log:      logger.L(),
		wait:     DefaultWait,
		poll:     DefaultPoll,
		cache:    make(map[string]Item),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// item returns the cached item for id, looking it up on first use. Failed
// lookups are not cached.
func (h *Handler) item(ctx context.Context, id string) (Item, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if it, ok := h.cache[id]; ok {
		return it, nil
	}
	it, err := h.provider.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	h.cache[id] = it
	return it, nil
}

// WaitForEnabled checks item every poll interval until it reports enabled,
// the wait is used up or ctx is done. It reports whether the item became
// enabled. A zero wait checks once.
func (h *Handler) WaitForEnabled(ctx context.Context, item Item) bool {
	for waited := time.Duration(0); ; waited += h.poll {
		if enabled, err := item.IsEnabled(); err == nil && enabled {
			return true
		}
		if waited >= h.wait {
			return false
		}
		t := time.NewTimer(h.poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}
}

// ready returns the item for s once it is enabled.
func (h *Handler) ready(ctx context.Context, g *settings.Group, s *settings.Setting) (Item, error) {
	it, err := h.item(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	if !h.WaitForEnabled(ctx, it) {
		h.log.Warn("syssettings.wait.timeout", "group", g.Name, "setting", s.Name, "wait", h.wait)
		return nil, errDisabled
	}
	return it, nil
}

var errDisabled = errors.New("system setting not enabled")

// Capture reads each item after waiting for it to become enabled. Items that
// are unknown, stay disabled or fail to read are recorded as missing.
func (h *Handler) Capture(ctx context.Context, g *settings.Group, list []*settings.Setting) (*settings.Values, error) {
	if _, err := settings.BackendOf[*settings.SystemSettingsBackend](g); err != nil {
		return nil, err
	}
	values := settings.NewValues()
	for _, s := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		it, err := h.ready(ctx, g, s)
		if errors.Is(err, settings.ErrUnsupported) {
			return nil, err
		}
		var v any
		if err == nil {
			v, err = it.GetValue()
		}
		if err != nil {
			if !errors.Is(err, ErrNotFound) && !errors.Is(err, errDisabled) {
				h.log.Warn("syssettings.read.failed", "group", g.Name, "setting", s.Name, "error", err)
			}
			values.SetMissing(s)
			continue
		}
		values.SetFound(s, v)
	}
	return values, nil
}

// Apply writes each value after waiting for its item to become enabled.
// Native settings cannot be removed, so nil values fail their setting.
func (h *Handler) Apply(ctx context.Context, g *settings.Group, values *settings.Values) (bool, error) {
	if _, err := settings.BackendOf[*settings.SystemSettingsBackend](g); err != nil {
		return false, err
	}
	ok := true
	for _, e := range values.Entries() {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		s := e.Setting
		if e.Value == nil {
			h.log.Warn("syssettings.setting.skipped", "group", g.Name, "setting", s.Name, "error", "cannot remove a system setting")
			ok = false
			continue
		}
		it, err := h.ready(ctx, g, s)
		if errors.Is(err, settings.ErrUnsupported) {
			return false, err
		}
		if err == nil {
			var v any
			if v, err = settings.Convert(s.Kind, e.Value); err == nil {
				err = it.SetValue(v)
			}
		}
		if err != nil {
			h.log.Warn("syssettings.write.failed", "group", g.Name, "setting", s.Name, "error", err)
			ok = false
		}
	}
	return ok, nil
}

var _ settings.Handler = (*Handler)(nil)
