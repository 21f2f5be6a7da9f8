// Package syscall stores settings through fixed system functions, such as
// SystemParametersInfo on Windows. The group names the function; each
// setting name selects one parameter of it.
package syscall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"setbridge/internal/logger"
	"setbridge/internal/settings"
)

// Handler implements settings.Handler for settings.SystemCallBackend groups.
type Handler struct {
	caller Caller
	log    *slog.Logger
}

// New returns a Handler over caller. A nil caller uses Native.
func New(caller Caller, log *slog.Logger) *Handler {
	if caller == nil {
		caller = Native()
	}
	return &Handler{caller: caller, log: logger.Or(log)}
}

func function(g *settings.Group) (string, error) {
	b, err := settings.BackendOf[*settings.SystemCallBackend](g)
	if err != nil {
		return "", err
	}
	if b.Function == "" {
		return "", fmt.Errorf("group %s: %w", g.Name, ErrUnknownFunction)
	}
	return b.Function, nil
}

func groupFailure(err error) bool {
	return errors.Is(err, ErrUnknownFunction) || errors.Is(err, settings.ErrUnsupported)
}

// Capture calls the function once per setting.
func (h *Handler) Capture(ctx context.Context, g *settings.Group, list []*settings.Setting) (*settings.Values, error) {
	fn, err := function(g)
	if err != nil {
		return nil, err
	}
	values := settings.NewValues()
	for _, s := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := h.caller.Get(ctx, fn, s.Name)
		if err != nil {
			if groupFailure(err) {
				return nil, err
			}
			if !errors.Is(err, ErrNotFound) {
				h.log.Warn("syscall.read.failed", "group", g.Name, "function", fn, "setting", s.Name, "error", err)
			}
			values.SetMissing(s)
			continue
		}
		values.SetFound(s, v)
	}
	return values, nil
}

// Apply calls the function once per value. Nil values have no meaning for a
// system call and fail their setting.
func (h *Handler) Apply(ctx context.Context, g *settings.Group, values *settings.Values) (bool, error) {
	fn, err := function(g)
	if err != nil {
		return false, err
	}
	ok := true
	for _, e := range values.Entries() {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		s := e.Setting
		var v any
		err := fmt.Errorf("cannot remove %s: %w", s.Name, settings.ErrConversion)
		if e.Value != nil {
			if v, err = settings.Convert(s.Kind, e.Value); err == nil {
				err = h.caller.Set(ctx, fn, s.Name, v)
			}
		}
		if err != nil {
			if groupFailure(err) {
				return false, err
			}
			h.log.Warn("syscall.write.failed", "group", g.Name, "function", fn, "setting", s.Name, "error", err)
			ok = false
		}
	}
	return ok, nil
}

var _ settings.Handler = (*Handler)(nil)
