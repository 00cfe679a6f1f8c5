package keymaps

import (
	"time"
	"unicode"
)

// AccentTimeout is how long a dead key waits for its second keystroke.
const AccentTimeout = 500 * time.Millisecond

// Mapper is the ABNT2 position mapper and dead-key state machine.
//
// A Mapper is not safe for concurrent use. Each hook thread owns exactly one.
type Mapper struct {
	state     MapperState
	pendingAt time.Time
	layout    *layout
	now       func() time.Time
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MapperOption {
	return func(m *Mapper) { m.now = now }
}

// NewMapper creates a Mapper with the ABNT2 tables in the Idle state.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{
		layout: newABNT2Layout(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ProcessKey advances the state machine by one key-down and returns what to
// do with the keystroke.
func (m *Mapper) ProcessKey(key VirtualKey, shift bool) KeyAction {
	if m.state.Pending {
		return m.processPending(m.state.Accent, key, shift)
	}
	return m.processIdle(key, shift)
}

func (m *Mapper) processIdle(key VirtualKey, shift bool) KeyAction {
	pk := positionKey{key, shift}
	if accent, ok := m.layout.deadKeys[pk]; ok {
		m.state = PendingAccent(accent)
		m.pendingAt = m.now()
		return Suppress()
	}
	if out, ok := m.layout.positions[pk]; ok {
		return Replace(out)
	}
	return Pass()
}

func (m *Mapper) processPending(accent AccentType, key VirtualKey, shift bool) KeyAction {
	m.Reset()

	switch key.Kind {
	case KindSpace:
		return Replace(accent.Glyph())
	case KindChar:
		base := unicode.ToLower(key.Char)
		if shift {
			base = unicode.ToUpper(key.Char)
		}
		if combined, ok := m.layout.combinations[comboKey{accent, base}]; ok {
			return Replace(combined)
		}
		return ReplaceMultiple(accent.Glyph(), base)
	default:
		// The accent is released alone and the key itself is dropped, the
		// same way a physical dead key behaves.
		return Replace(accent.Glyph())
	}
}

// CheckTimeout releases a pending accent that has waited AccentTimeout or
// longer. It reports false and leaves the state alone otherwise.
func (m *Mapper) CheckTimeout() (KeyAction, bool) {
	if !m.state.Pending {
		return KeyAction{}, false
	}
	if m.now().Sub(m.pendingAt) < AccentTimeout {
		return KeyAction{}, false
	}
	glyph := m.state.Accent.Glyph()
	m.Reset()
	return Replace(glyph), true
}

// Reset drops any pending accent.
func (m *Mapper) Reset() {
	m.state = Idle
	m.pendingAt = time.Time{}
}

// State returns the current state.
func (m *Mapper) State() MapperState {
	return m.state
}

// PendingSince returns when the current accent was entered, or the zero time
// when Idle.
func (m *Mapper) PendingSince() time.Time {
	return m.pendingAt
}
