// Package wmi stores settings as properties of a management object. Each
// setting name is a property name of the object selected by the group.
package wmi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"setbridge/internal/logger"
	"setbridge/internal/settings"
)

// Handler implements settings.Handler for settings.WMIBackend groups.
type Handler struct {
	provider Provider
	log      *slog.Logger
}

// New returns a Handler over provider. A nil provider is unsupported.
func New(provider Provider, log *slog.Logger) *Handler {
	if provider == nil {
		provider = Unsupported()
	}
	return &Handler{provider: provider, log: logger.Or(log)}
}

func object(g *settings.Group) (Object, error) {
	b, err := settings.BackendOf[*settings.WMIBackend](g)
	if err != nil {
		return Object{}, err
	}
	if b.Class == "" {
		return Object{}, fmt.Errorf("group %s: missing class: %w", g.Name, ErrNamespace)
	}
	ns := b.Namespace
	if ns == "" {
		ns = `root\cimv2`
	}
	return Object{Namespace: ns, Class: b.Class, Instance: b.Instance}, nil
}

// groupFailure reports errors that mean the object itself is unreachable.
func groupFailure(err error) bool {
	return errors.Is(err, ErrNamespace) || errors.Is(err, settings.ErrUnsupported)
}

// Capture reads each property. An unreachable namespace or class fails the
// group; a missing property is recorded as missing.
func (h *Handler) Capture(ctx context.Context, g *settings.Group, list []*settings.Setting) (*settings.Values, error) {
	obj, err := object(g)
	if err != nil {
		return nil, err
	}
	values := settings.NewValues()
	for _, s := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := h.provider.Get(ctx, obj, s.Name)
		if err != nil {
			if groupFailure(err) {
				return nil, err
			}
			if !errors.Is(err, ErrNotFound) {
				h.log.Warn("wmi.read.failed", "group", g.Name, "setting", s.Name, "error", err)
			}
			values.SetMissing(s)
			continue
		}
		values.SetFound(s, v)
	}
	return values, nil
}

// Apply writes each property converted to the setting's kind. Properties
// cannot be removed, so nil values fail their setting.
func (h *Handler) Apply(ctx context.Context, g *settings.Group, values *settings.Values) (bool, error) {
	obj, err := object(g)
	if err != nil {
		return false, err
	}
	ok := true
	for _, e := range values.Entries() {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		name := e.Setting.Name
		if e.Value == nil {
			h.log.Warn("wmi.setting.skipped", "group", g.Name, "setting", name, "error", "properties cannot be removed")
			ok = false
			continue
		}
		v, err := settings.Convert(e.Setting.Kind, e.Value)
		if err == nil {
			err = h.provider.Set(ctx, obj, name, v)
		}
		if err != nil {
			if groupFailure(err) {
				return false, err
			}
			h.log.Warn("wmi.write.failed", "group", g.Name, "setting", name, "error", err)
			ok = false
		}
	}
	return ok, nil
}

var _ settings.Handler = (*Handler)(nil)
