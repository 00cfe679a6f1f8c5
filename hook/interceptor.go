// Package hook intercepts keystrokes system-wide and rewrites them through
// the ABNT2 mapper.
//
// Platform support:
//   - Windows: WH_KEYBOARD_LL hook, SendInput with KEYEVENTF_UNICODE
//   - Linux: grabs /dev/input keyboards, re-emits through a uinput keyboard
//     (development stand-in; needs the input group or root)
//   - Others: Start fails with ErrUnsupported
//
// Every adapter feeds the same Engine, which is the whole per-keystroke
// decision and carries no OS dependency.
package hook

import (
	"errors"
	"log/slog"
	"time"

	"github.com/goGhostKeys/gate"
)

// Interceptor is a platform keyboard hook.
type Interceptor interface {
	// Start installs the hook and creates the mapper that lives on the hook
	// thread. Starting a running interceptor is an error.
	Start(g *gate.Gate) error

	// Stop releases the hook and discards the mapper. Stopping a stopped
	// interceptor succeeds. A release error still leaves it stopped.
	Stop() error

	// IsRunning reports whether the hook is installed.
	IsRunning() bool
}

var (
	// ErrHookInstall is returned when the hook cannot be installed.
	ErrHookInstall = errors.New("failed to install keyboard hook")

	// ErrHookRelease is returned when the OS refuses to release the hook.
	ErrHookRelease = errors.New("failed to release keyboard hook")

	// ErrAlreadyRunning is returned when Start is called while running.
	ErrAlreadyRunning = errors.New("interceptor already running")

	// ErrKeyInjection is returned when a replacement character cannot be injected.
	ErrKeyInjection = errors.New("failed to inject key")

	// ErrUnsupported is returned on platforms without an adapter.
	ErrUnsupported = errors.New("keyboard interception not supported on this platform")
)

// Config configures the platform adapters. Linux-only fields are ignored
// elsewhere.
type Config struct {
	// TickInterval is how often a pending accent is checked for timeout.
	TickInterval time.Duration

	// UinputPath is the uinput device node (Linux).
	UinputPath string

	// VirtualName names the uinput keyboard, and is never grabbed (Linux).
	VirtualName string

	// Devices restricts grabbing to these device names. Empty means every
	// keyboard (Linux).
	Devices []string

	// WatchDevices grabs keyboards plugged in while running (Linux).
	WatchDevices bool
}

// DefaultConfig returns the adapter defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: 50 * time.Millisecond,
		UinputPath:   "/dev/uinput",
		VirtualName:  "ghostkeys-virtual-keyboard",
		WatchDevices: true,
	}
}

// New creates the Interceptor for the current platform.
func New(cfg Config, log *slog.Logger) Interceptor {
	if log == nil {
		log = slog.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	return newPlatformInterceptor(cfg, log.With("component", "hook"))
}
