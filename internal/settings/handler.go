package settings

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupported is returned when a backend cannot be reached on this
// platform or has no provider configured.
var ErrUnsupported = errors.New("backend not supported")

// ErrBackendMismatch is returned when a handler is given a group whose
// backend is of another kind.
var ErrBackendMismatch = errors.New("group backend does not match handler")

// Handler reads and writes the settings of one backend kind.
//
// Capture returns an entry for every requested setting. A setting the
// backend does not hold is recorded with SetMissing rather than failing the
// call; an error means the whole group could not be read.
//
// Apply writes every entry of values, which all belong to group. A nil
// value removes the setting from the backend. ok is false when at least one
// setting could not be written; an error means the group was not reachable.
type Handler interface {
	Capture(ctx context.Context, group *Group, settings []*Setting) (*Values, error)
	Apply(ctx context.Context, group *Group, values *Values) (ok bool, err error)
}

// GroupError reports a failure that aborted capture or apply of a whole group.
type GroupError struct {
	Group string
	Op    string // "capture" or "apply"
	Err   error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Group, e.Err)
}

func (e *GroupError) Unwrap() error { return e.Err }

// BackendOf returns the group's backend as type B, or ErrBackendMismatch.
func BackendOf[B Backend](g *Group) (B, error) {
	var zero B
	if g.Backend == nil {
		return zero, fmt.Errorf("group %s has no backend: %w", g.Name, ErrBackendMismatch)
	}
	b, ok := g.Backend.(B)
	if !ok {
		return zero, fmt.Errorf("group %s is %s: %w", g.Name, g.Backend.Kind(), ErrBackendMismatch)
	}
	return b, nil
}
