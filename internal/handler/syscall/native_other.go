//go:build !windows

package syscall

import (
	"context"
	"fmt"

	"setbridge/internal/settings"
)

type native struct{}

// Native returns the platform Caller. Outside Windows every call fails with
// settings.ErrUnsupported.
func Native() Caller { return native{} }

func (native) Get(_ context.Context, function, _ string) (any, error) {
	return nil, fmt.Errorf("%s: %w", function, settings.ErrUnsupported)
}

func (native) Set(_ context.Context, function, _ string, _ any) error {
	return fmt.Errorf("%s: %w", function, settings.ErrUnsupported)
}
