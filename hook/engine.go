package hook

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/goGhostKeys/gate"
	"github.com/goGhostKeys/keymaps"
)

// RawEvent is one keyboard event as the OS delivered it.
type RawEvent struct {
	// Code is the native key code (evdev code or Windows VK).
	Code uint16
	// Down is true for key-down and auto-repeat.
	Down bool
	// Injected is set for synthetic events, including our own.
	Injected bool
}

// Decision is what the adapter does with the event.
type Decision struct {
	// Forward passes the original event on unmodified.
	Forward bool
	// Inject lists the characters to inject, in order, in place of the
	// original event. Ignored when Forward is set.
	Inject []rune
}

var forward = Decision{Forward: true}

// Engine is the hot path shared by every adapter. It owns the Mapper and
// must only be used from the hook thread.
type Engine struct {
	gate      *gate.Gate
	mapper    *keymaps.Mapper
	translate keymaps.KeyCodeTable
	stats     *Stats
	log       *slog.Logger
	pauses    uint64
}

// NewEngine creates an Engine with a fresh Idle mapper.
func NewEngine(g *gate.Gate, table keymaps.KeyCodeTable, stats *Stats, log *slog.Logger, opts ...keymaps.MapperOption) *Engine {
	if stats == nil {
		stats = &Stats{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		gate:      g,
		mapper:    keymaps.NewMapper(opts...),
		translate: table,
		stats:     stats,
		log:       log,
		pauses:    g.Pauses(),
	}
}

// Handle decides what to do with one event. shift is only queried for keys
// the mapper handles. Handle never panics.
func (e *Engine) Handle(ev RawEvent, shift func() bool) (d Decision) {
	e.syncPauses()
	if e.gate.Paused() {
		return forward
	}

	defer func() {
		if r := recover(); r != nil {
			e.stats.panics.Add(1)
			e.mapper.Reset()
			e.log.Error("recovered panic in keyboard callback", "panic", fmt.Sprint(r))
			d = forward
		}
	}()

	e.stats.events.Add(1)
	if ev.Injected {
		e.stats.injected.Add(1)
		return forward
	}
	if !ev.Down {
		return forward
	}

	key := e.translate.Lookup(ev.Code)
	if key.Kind == keymaps.KindOther {
		return forward
	}

	start := time.Now()
	action := e.mapper.ProcessKey(key, shift())
	e.stats.mapperCalls.Add(1)
	e.stats.recordLatency(time.Since(start))

	switch action.Kind {
	case keymaps.ActionSuppress:
		e.stats.suppressed.Add(1)
		return Decision{}
	case keymaps.ActionReplace:
		e.stats.replaced.Add(1)
		return Decision{Inject: action.Chars}
	default:
		return forward
	}
}

// Tick releases a timed-out accent. It reports false when there is nothing
// to inject.
func (e *Engine) Tick() (Decision, bool) {
	e.syncPauses()
	if e.gate.Paused() {
		return Decision{}, false
	}

	action, ok := e.mapper.CheckTimeout()
	if !ok {
		return Decision{}, false
	}
	e.stats.timeouts.Add(1)
	return Decision{Inject: action.Chars}, true
}

// Reset drops any pending accent.
func (e *Engine) Reset() {
	e.mapper.Reset()
}

// State returns the mapper state.
func (e *Engine) State() keymaps.MapperState {
	return e.mapper.State()
}

// syncPauses resets the mapper once for every pause the gate went through
// since the last event, so an accent typed before a pause cannot complete
// after it. A pause and resume that both land between two events still
// count.
func (e *Engine) syncPauses() {
	if n := e.gate.Pauses(); n != e.pauses {
		e.pauses = n
		e.mapper.Reset()
	}
}

// injectAll injects rs in order and stops at the first failure.
func injectAll(rs []rune, inject func(rune) error) error {
	for _, r := range rs {
		if err := inject(r); err != nil {
			return fmt.Errorf("%w %q: %w", ErrKeyInjection, r, err)
		}
	}
	return nil
}
