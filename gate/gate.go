// Package gate holds the operation mode shared between the control side of
// the process and the keyboard hook.
//
// The hook only calls Paused and Pauses, each a single atomic load. Mode
// changes are serialized behind a mutex. A panic inside a transition leaves
// the gate poisoned: every later mode call reports ErrStateLockPoisoned and
// the last published mode stays in effect.
package gate

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Mode is the operation mode.
type Mode int32

const (
	// Active remaps keystrokes.
	Active Mode = iota
	// Passthrough lets every keystroke through unmodified.
	Passthrough
)

func (m Mode) String() string {
	switch m {
	case Active:
		return "active"
	case Passthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("Mode(%d)", int32(m))
	}
}

// ErrStateLockPoisoned is returned once a mode transition has panicked.
var ErrStateLockPoisoned = errors.New("mode gate poisoned by an earlier panic")

// Gate is the shared mode cell plus an exit signal. The zero value is not
// usable; call New.
type Gate struct {
	mu       sync.Mutex
	mode     atomic.Int32
	poisoned atomic.Bool
	pauses   atomic.Uint64

	exitOnce sync.Once
	exit     chan struct{}
	exited   atomic.Bool
}

// New returns a gate in Active mode.
func New() *Gate {
	return &Gate{exit: make(chan struct{})}
}

// Paused reports whether the gate is in Passthrough. It never blocks.
func (g *Gate) Paused() bool {
	return Mode(g.mode.Load()) == Passthrough
}

// Mode returns the current mode.
func (g *Gate) Mode() (Mode, error) {
	if g.poisoned.Load() {
		return 0, ErrStateLockPoisoned
	}
	return Mode(g.mode.Load()), nil
}

// SetMode sets the mode.
func (g *Gate) SetMode(m Mode) error {
	_, err := g.Update(func(Mode) Mode { return m })
	return err
}

// Toggle flips Active and Passthrough and returns the new mode.
func (g *Gate) Toggle() (Mode, error) {
	return g.Update(func(cur Mode) Mode {
		if cur == Active {
			return Passthrough
		}
		return Active
	})
}

// Update runs fn on the current mode under the writer lock and publishes the
// result. A panic in fn poisons the gate and is re-raised.
func (g *Gate) Update(fn func(Mode) Mode) (Mode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.poisoned.Load() {
		return 0, ErrStateLockPoisoned
	}

	completed := false
	defer func() {
		if !completed {
			g.poisoned.Store(true)
		}
	}()

	cur := Mode(g.mode.Load())
	next := fn(cur)
	if next != Active && next != Passthrough {
		completed = true
		return 0, fmt.Errorf("invalid mode %d", int32(next))
	}
	if cur == Active && next == Passthrough {
		g.pauses.Add(1)
	}
	g.mode.Store(int32(next))
	completed = true
	return next, nil
}

// Pauses counts transitions from Active to Passthrough. A hook that sees the
// count change knows a pause happened even if the gate is Active again.
func (g *Gate) Pauses() uint64 {
	return g.pauses.Load()
}

// SignalExit asks the process to shut down. Safe to call more than once.
func (g *Gate) SignalExit() {
	g.exitOnce.Do(func() {
		g.exited.Store(true)
		close(g.exit)
	})
}

// ShouldExit reports whether SignalExit has been called.
func (g *Gate) ShouldExit() bool {
	return g.exited.Load()
}

// Done is closed by SignalExit.
func (g *Gate) Done() <-chan struct{} {
	return g.exit
}
