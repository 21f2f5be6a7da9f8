// Package jsonfile stores settings in a JSON document. A setting name is a
// gjson path such as "editor.fontSize" or "plugins.0.name". Writes go
// through sjson, so members that are not touched keep their formatting.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"setbridge/internal/atomicfile"
	"setbridge/internal/logger"
	"setbridge/internal/resolver"
	"setbridge/internal/settings"
)

// ErrInvalidDocument is returned when the file is not valid JSON.
var ErrInvalidDocument = errors.New("invalid json document")

// Handler implements settings.Handler for settings.JSONBackend groups.
type Handler struct {
	resolver *resolver.Registry
	log      *slog.Logger
}

// New returns a Handler resolving document paths with reg.
func New(reg *resolver.Registry, log *slog.Logger) *Handler {
	if reg == nil {
		reg = resolver.New()
	}
	return &Handler{resolver: reg, log: logger.Or(log)}
}

func (h *Handler) read(g *settings.Group) (string, string, error) {
	b, err := settings.BackendOf[*settings.JSONBackend](g)
	if err != nil {
		return "", "", err
	}
	path, err := b.Path.Resolve(h.resolver)
	if err != nil {
		return "", "", fmt.Errorf("resolving path %q: %w", b.Path.Raw(), err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading json file: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return "", "", fmt.Errorf("%s: %w", path, ErrInvalidDocument)
	}
	return path, string(raw), nil
}

// Capture looks every setting up in the document. A null member counts as
// missing.
func (h *Handler) Capture(ctx context.Context, g *settings.Group, list []*settings.Setting) (*settings.Values, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, doc, err := h.read(g)
	if err != nil {
		return nil, err
	}

	values := settings.NewValues()
	for _, s := range list {
		r := gjson.Get(doc, s.Name)
		if !r.Exists() || r.Type == gjson.Null {
			values.SetMissing(s)
			continue
		}
		values.SetFound(s, decode(r))
	}
	return values, nil
}

// decode returns the member as bool, json.Number or string. Objects and
// arrays come back as their raw text.
func decode(r gjson.Result) any {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return json.Number(r.Raw)
	case gjson.String:
		return r.Str
	default:
		return r.Raw
	}
}

// Apply sets every value, creating intermediate objects as needed. A nil
// value deletes the member.
func (h *Handler) Apply(ctx context.Context, g *settings.Group, values *settings.Values) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, doc, err := h.read(g)
	if err != nil {
		return false, err
	}

	original := doc
	ok := true
	for _, e := range values.Entries() {
		name := e.Setting.Name
		var next string
		if e.Value == nil {
			next, err = sjson.Delete(doc, name)
		} else {
			var v any
			if v, err = settings.Convert(e.Setting.Kind, e.Value); err == nil {
				next, err = sjson.Set(doc, name, v)
			}
		}
		if err != nil {
			h.log.Warn("json.setting.skipped", "group", g.Name, "setting", name, "error", err)
			ok = false
			continue
		}
		doc = next
	}

	if doc == original {
		return ok, nil
	}
	if err := atomicfile.Replace(path, []byte(doc), 0644); err != nil {
		return false, err
	}
	h.log.Debug("json.write", "group", g.Name, "path", path, "count", values.Len())
	return ok, nil
}

var _ settings.Handler = (*Handler)(nil)
