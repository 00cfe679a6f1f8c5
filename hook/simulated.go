package hook

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/goGhostKeys/gate"
	"github.com/goGhostKeys/keymaps"
)

// vkPacket is the virtual key Windows reports for KEYEVENTF_UNICODE input.
const vkPacket = 0xE7

// SimulatedInterceptor is an Interceptor for tests that doesn't hook the
// real keyboard. Characters it injects are fed straight back into the hook
// as injected events, the way the OS delivers them.
type SimulatedInterceptor struct {
	table keymaps.KeyCodeTable
	log   *slog.Logger
	opts  []keymaps.MapperOption
	stats *Stats

	running atomic.Bool

	mu        sync.Mutex
	engine    *Engine
	shift     bool
	typed     []rune
	forwarded []RawEvent
	releases  int

	// InjectErr makes every injection fail when set.
	InjectErr error
}

// NewSimulated creates a simulated interceptor translating codes with table.
func NewSimulated(table keymaps.KeyCodeTable, log *slog.Logger, opts ...keymaps.MapperOption) *SimulatedInterceptor {
	if log == nil {
		log = slog.Default()
	}
	return &SimulatedInterceptor{
		table: table,
		log:   log,
		opts:  opts,
		stats: &Stats{},
	}
}

// Start installs the simulated hook.
func (s *SimulatedInterceptor) Start(g *gate.Gate) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %w", ErrHookInstall, ErrAlreadyRunning)
	}
	if err := setActive(s, s.release); err != nil {
		s.running.Store(false)
		return fmt.Errorf("%w: %w", ErrHookInstall, err)
	}

	s.mu.Lock()
	s.engine = NewEngine(g, s.table, s.stats, s.log, s.opts...)
	s.mu.Unlock()
	return nil
}

// Stop releases the simulated hook.
func (s *SimulatedInterceptor) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.mu.Lock()
	if s.engine != nil {
		s.engine.Reset()
		s.engine = nil
	}
	s.mu.Unlock()

	if release := takeActive(s); release != nil {
		if err := release(); err != nil {
			return fmt.Errorf("%w: %w", ErrHookRelease, err)
		}
	}
	return nil
}

// IsRunning reports whether the simulated hook is installed.
func (s *SimulatedInterceptor) IsRunning() bool {
	return s.running.Load()
}

func (s *SimulatedInterceptor) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases++
	return nil
}

// SetShift sets the simulated shift key state.
func (s *SimulatedInterceptor) SetShift(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shift = down
}

// Feed delivers one event to the hook, as the OS would on the hook thread.
func (s *SimulatedInterceptor) Feed(ev RawEvent) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deliver(ev)
}

// Press feeds a key-down and key-up pair for code.
func (s *SimulatedInterceptor) Press(code uint16) {
	s.Feed(RawEvent{Code: code, Down: true})
	s.Feed(RawEvent{Code: code})
}

// Tick drives the accent timeout the way the adapters' timers do.
func (s *SimulatedInterceptor) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return
	}
	if d, ok := s.engine.Tick(); ok {
		s.apply(d)
	}
}

func (s *SimulatedInterceptor) deliver(ev RawEvent) Decision {
	if s.engine == nil {
		s.record(ev)
		return forward
	}
	d := s.engine.Handle(ev, func() bool { return s.shift })
	if d.Forward {
		s.record(ev)
		return d
	}
	s.apply(d)
	return d
}

func (s *SimulatedInterceptor) apply(d Decision) {
	if err := injectAll(d.Inject, s.inject); err != nil {
		s.stats.injectFailures.Add(1)
		s.log.Warn("dropping keystroke", "error", err)
	}
}

// inject re-enters the hook with the synthetic events the OS would generate.
func (s *SimulatedInterceptor) inject(r rune) error {
	if s.InjectErr != nil {
		return s.InjectErr
	}
	if d := s.deliver(RawEvent{Code: vkPacket, Down: true, Injected: true}); d.Forward {
		s.typed = append(s.typed, r)
	}
	s.deliver(RawEvent{Code: vkPacket, Injected: true})
	return nil
}

func (s *SimulatedInterceptor) record(ev RawEvent) {
	if ev.Injected {
		return
	}
	s.forwarded = append(s.forwarded, ev)
}

// Typed returns the characters that reached applications through injection.
func (s *SimulatedInterceptor) Typed() []rune {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]rune(nil), s.typed...)
}

// Forwarded returns the physical events passed through unmodified.
func (s *SimulatedInterceptor) Forwarded() []RawEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RawEvent(nil), s.forwarded...)
}

// Releases returns how many times the hook resource was released.
func (s *SimulatedInterceptor) Releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases
}

// Stats returns the hook counters.
func (s *SimulatedInterceptor) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// State returns the mapper state, or Idle when stopped.
func (s *SimulatedInterceptor) State() keymaps.MapperState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return keymaps.Idle
	}
	return s.engine.State()
}
