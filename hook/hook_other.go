//go:build !linux && !windows

package hook

import (
	"fmt"
	"log/slog"

	"github.com/goGhostKeys/gate"
)

// otherInterceptor is used where no keyboard hook is available.
type otherInterceptor struct {
	log *slog.Logger
}

func newPlatformInterceptor(_ Config, log *slog.Logger) Interceptor {
	return &otherInterceptor{log: log}
}

func (o *otherInterceptor) Start(*gate.Gate) error {
	return fmt.Errorf("%w: %w", ErrHookInstall, ErrUnsupported)
}

func (o *otherInterceptor) Stop() error { return nil }

func (o *otherInterceptor) IsRunning() bool { return false }
