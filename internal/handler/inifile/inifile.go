// Package inifile stores settings in INI files. A setting name is the dotted
// key of the value, e.g. "window.size" for key "size" in section [window].
package inifile

import (
	"context"
	"fmt"
	"log/slog"

	"setbridge/internal/ini"
	"setbridge/internal/logger"
	"setbridge/internal/resolver"
	"setbridge/internal/settings"
)

// Handler implements settings.Handler for settings.IniBackend groups.
type Handler struct {
	resolver *resolver.Registry
	log      *slog.Logger
}

// New returns a Handler resolving file paths with reg.
func New(reg *resolver.Registry, log *slog.Logger) *Handler {
	if reg == nil {
		reg = resolver.New()
	}
	return &Handler{resolver: reg, log: logger.Or(log)}
}

func (h *Handler) path(g *settings.Group) (string, error) {
	b, err := settings.BackendOf[*settings.IniBackend](g)
	if err != nil {
		return "", err
	}
	p, err := b.Path.Resolve(h.resolver)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", b.Path.Raw(), err)
	}
	if p == "" {
		return "", fmt.Errorf("empty path %q", b.Path.Raw())
	}
	return p, nil
}

// Capture reads the file once and looks every setting up in it. A missing
// or unreadable file fails the group.
func (h *Handler) Capture(ctx context.Context, g *settings.Group, list []*settings.Setting) (*settings.Values, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := h.path(g)
	if err != nil {
		return nil, err
	}
	f, err := ini.ReadFile(path)
	if err != nil {
		return nil, err
	}

	values := settings.NewValues()
	for _, s := range list {
		raw, ok := f.Get(s.Name)
		if !ok {
			h.log.Debug("ini.setting.missing", "group", g.Name, "setting", s.Name, "path", path)
			values.SetMissing(s)
			continue
		}
		values.SetFound(s, raw)
	}
	return values, nil
}

// Apply rewrites the file with the given values, keeping the formatting of
// everything else. A nil value deletes the key. Values that cannot be
// formatted for their kind are skipped and make the result false.
func (h *Handler) Apply(ctx context.Context, g *settings.Group, values *settings.Values) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := h.path(g)
	if err != nil {
		return false, err
	}

	ok := true
	err = ini.UpdateFile(path, func(current map[string]string) error {
		for _, e := range values.Entries() {
			name := e.Setting.Name
			if e.Value == nil {
				delete(current, name)
				continue
			}
			text, err := settings.Format(e.Setting.Kind, e.Value)
			if err != nil {
				h.log.Warn("ini.setting.skipped", "group", g.Name, "setting", name, "error", err)
				ok = false
				continue
			}
			current[name] = text
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	h.log.Debug("ini.write", "group", g.Name, "path", path, "count", values.Len())
	return ok, nil
}

var _ settings.Handler = (*Handler)(nil)
