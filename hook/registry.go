package hook

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// The process holds at most one installed hook. Its release function lives
// here, outside the hook thread, so a crash handler can still free the
// keyboard. Whoever takes it first (Stop or ReleaseActive) releases it.
var active struct {
	mu      sync.Mutex
	owner   any
	release func() error
}

var errHookActive = errors.New("another keyboard hook is already installed in this process")

// setActive records the release function of a freshly installed hook.
func setActive(owner any, release func() error) error {
	active.mu.Lock()
	defer active.mu.Unlock()
	if active.owner != nil && active.owner != owner {
		return errHookActive
	}
	active.owner = owner
	active.release = release
	return nil
}

// takeActive clears and returns owner's release function, or nil if it was
// already taken.
func takeActive(owner any) func() error {
	active.mu.Lock()
	defer active.mu.Unlock()
	if active.owner != owner {
		return nil
	}
	release := active.release
	active.owner = nil
	active.release = nil
	return release
}

// ReleaseActive releases the installed hook, if any. It is meant for panic
// and signal paths; the owning interceptor's Stop then finds nothing left to
// release.
func ReleaseActive() error {
	active.mu.Lock()
	release := active.release
	active.owner = nil
	active.release = nil
	active.mu.Unlock()

	if release == nil {
		return nil
	}
	return release()
}

// releaseOwner releases owner's hook if nobody has done so yet.
func releaseOwner(owner any) error {
	if release := takeActive(owner); release != nil {
		return release()
	}
	return nil
}

// ReleaseOnPanic frees the keyboard when the calling goroutine panics, then
// lets the panic continue. Use it as defer hook.ReleaseOnPanic(log) at the
// top of every goroutine that can run while a hook is installed.
func ReleaseOnPanic(log *slog.Logger) {
	r := recover()
	if r == nil {
		return
	}
	log.Error("panic, releasing keyboard", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
	if err := ReleaseActive(); err != nil {
		log.Error("failed to release keyboard", "error", err)
	}
	panic(r)
}
