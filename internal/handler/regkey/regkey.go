// Package regkey stores settings as values of a registry key. Each setting
// name is a value name under the group's key.
package regkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"setbridge/internal/logger"
	"setbridge/internal/resolver"
	"setbridge/internal/settings"
	"setbridge/internal/winreg"
)

// Handler implements settings.Handler for settings.RegistryBackend groups.
type Handler struct {
	resolver *resolver.Registry
	store    winreg.Store
	log      *slog.Logger
}

// New returns a Handler over store. A nil store uses the native registry.
func New(reg *resolver.Registry, store winreg.Store, log *slog.Logger) *Handler {
	if reg == nil {
		reg = resolver.New()
	}
	if store == nil {
		store = winreg.Native()
	}
	return &Handler{resolver: reg, store: store, log: logger.Or(log)}
}

func (h *Handler) key(g *settings.Group) (winreg.Key, *settings.RegistryBackend, error) {
	b, err := settings.BackendOf[*settings.RegistryBackend](g)
	if err != nil {
		return winreg.Key{}, nil, err
	}
	raw, err := b.Key.Resolve(h.resolver)
	if err != nil {
		return winreg.Key{}, nil, fmt.Errorf("resolving key %q: %w", b.Key.Raw(), err)
	}
	key, err := winreg.ParseKey(raw)
	if err != nil {
		return winreg.Key{}, nil, err
	}
	if b.View != winreg.ViewDefault {
		key.View = b.View
	}
	return key, b, nil
}

// storeError marks platform errors so callers can match settings.ErrUnsupported.
func storeError(err error) error {
	if errors.Is(err, winreg.ErrUnsupported) {
		return fmt.Errorf("%w: %w", settings.ErrUnsupported, err)
	}
	return err
}

// Capture reads each setting's value. A missing key fails the group; a
// missing value is recorded as missing.
func (h *Handler) Capture(ctx context.Context, g *settings.Group, list []*settings.Setting) (*settings.Values, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, _, err := h.key(g)
	if err != nil {
		return nil, err
	}
	exists, err := h.store.KeyExists(key)
	if err != nil {
		return nil, storeError(err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", key, winreg.ErrKeyNotFound)
	}

	values := settings.NewValues()
	for _, s := range list {
		v, err := h.store.GetValue(key, s.Name)
		if err != nil {
			if !errors.Is(err, winreg.ErrValueNotFound) {
				h.log.Warn("registry.read.failed", "group", g.Name, "setting", s.Name, "error", err)
			}
			values.SetMissing(s)
			continue
		}
		values.SetFound(s, captured(v))
	}
	return values, nil
}

// captured returns the data handed to settings conversion for v.
func captured(v winreg.Value) any {
	if v.Type == winreg.TypeBinary {
		return v.String()
	}
	return v.Data
}

// Apply writes each value, creating the key when needed. A nil value
// deletes the registry value.
func (h *Handler) Apply(ctx context.Context, g *settings.Group, values *settings.Values) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key, b, err := h.key(g)
	if err != nil {
		return false, err
	}

	ok := true
	for _, e := range values.Entries() {
		name := e.Setting.Name
		if e.Value == nil {
			err := h.store.DeleteValue(key, name)
			if err != nil && !errors.Is(err, winreg.ErrKeyNotFound) {
				if errors.Is(err, winreg.ErrUnsupported) {
					return false, storeError(err)
				}
				h.log.Warn("registry.delete.failed", "group", g.Name, "setting", name, "error", err)
				ok = false
			}
			continue
		}

		v, err := Encode(e.Setting.Kind, b.ValueType, e.Value)
		if err != nil {
			h.log.Warn("registry.setting.skipped", "group", g.Name, "setting", name, "error", err)
			ok = false
			continue
		}
		if err := h.store.SetValue(key, name, v); err != nil {
			if errors.Is(err, winreg.ErrUnsupported) {
				return false, storeError(err)
			}
			h.log.Warn("registry.write.failed", "group", g.Name, "setting", name, "error", err)
			ok = false
		}
	}
	return ok, nil
}

// Encode converts a setting value to registry data of type typ. TypeNone
// picks the type from the kind: DWORD (or QWORD when it does not fit) for
// booleans and integers, SZ otherwise. Negative integers have no mapping.
func Encode(kind settings.Kind, typ winreg.ValueType, v any) (winreg.Value, error) {
	if v == nil {
		return winreg.Value{}, fmt.Errorf("nil value: %w", settings.ErrConversion)
	}
	if typ == winreg.TypeNone {
		typ = winreg.TypeString
		if kind == settings.KindBoolean || kind == settings.KindInteger {
			typ = winreg.TypeDWord
			if n, err := settings.Convert(settings.KindInteger, v); err == nil && n.(int64) > math.MaxUint32 {
				typ = winreg.TypeQWord
			}
		}
	}

	switch typ {
	case winreg.TypeDWord, winreg.TypeQWord:
		c, err := settings.Convert(settings.KindInteger, v)
		if err != nil {
			return winreg.Value{}, err
		}
		n := c.(int64)
		if n < 0 {
			return winreg.Value{}, fmt.Errorf("negative %s %d: %w", typ, n, settings.ErrConversion)
		}
		if typ == winreg.TypeQWord {
			return winreg.QWordValue(uint64(n)), nil
		}
		if n > math.MaxUint32 {
			return winreg.Value{}, fmt.Errorf("%d does not fit a DWORD: %w", n, settings.ErrConversion)
		}
		return winreg.DWordValue(uint32(n)), nil
	case winreg.TypeString, winreg.TypeExpandString:
		s, err := settings.Format(kind, v)
		if err != nil {
			return winreg.Value{}, err
		}
		return winreg.Value{Type: typ, Data: s}, nil
	case winreg.TypeMultiString:
		s, err := settings.Format(kind, v)
		if err != nil {
			return winreg.Value{}, err
		}
		return winreg.Value{Type: typ, Data: strings.Split(s, "\n")}, nil
	case winreg.TypeBinary:
		if b, ok := v.([]byte); ok {
			return winreg.Value{Type: typ, Data: b}, nil
		}
	}
	return winreg.Value{}, fmt.Errorf("%s value from %T: %w", typ, v, settings.ErrConversion)
}

var _ settings.Handler = (*Handler)(nil)
