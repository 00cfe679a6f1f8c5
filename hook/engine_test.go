package hook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goGhostKeys/gate"
	"github.com/goGhostKeys/keymaps"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(t *testing.T) (*Engine, *gate.Gate, *testClock) {
	t.Helper()
	g := gate.New()
	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	e := NewEngine(g, keymaps.GetEvdevTable(), nil, nil, keymaps.WithClock(clock.now))
	return e, g, clock
}

const keyE = 18

func keyDown(code uint16) RawEvent { return RawEvent{Code: code, Down: true} }

func noShift() bool { return false }

func TestEngineDirectMapping(t *testing.T) {
	e, _, _ := newTestEngine(t)

	assert.Equal(t, Decision{Inject: []rune{'ç'}}, e.Handle(keyDown(keymaps.KeySemicolon), noShift))
	assert.Equal(t, Decision{Inject: []rune{'Ç'}}, e.Handle(keyDown(keymaps.KeySemicolon), func() bool { return true }))
	assert.Equal(t, forward, e.Handle(keyDown(keymaps.KeyA), noShift))
}

func TestEngineDeadKeySequence(t *testing.T) {
	e, _, _ := newTestEngine(t)

	assert.Equal(t, Decision{}, e.Handle(keyDown(keymaps.KeyApostrophe), noShift))
	assert.Equal(t, keymaps.PendingAccent(keymaps.Tilde), e.State())
	assert.Equal(t, Decision{Inject: []rune{'ã'}}, e.Handle(keyDown(keymaps.KeyA), noShift))
	assert.Equal(t, keymaps.Idle, e.State())
}

func TestEngineForwardsWithoutMapper(t *testing.T) {
	tests := []struct {
		name string
		ev   RawEvent
	}{
		{"key up", RawEvent{Code: keymaps.KeySemicolon}},
		{"injected", RawEvent{Code: keymaps.KeySemicolon, Down: true, Injected: true}},
		{"unmapped key", keyDown(keymaps.KeyEnter)},
		{"unknown code", keyDown(0xFFF)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := newTestEngine(t)
			queried := false
			d := e.Handle(tt.ev, func() bool { queried = true; return false })
			assert.Equal(t, forward, d)
			assert.False(t, queried, "shift queried for a key the mapper never sees")
			assert.Zero(t, e.stats.Snapshot().MapperCalls)
		})
	}
}

func TestEngineInjectedDoesNotDisturbPendingAccent(t *testing.T) {
	e, _, _ := newTestEngine(t)

	e.Handle(keyDown(keymaps.KeyLeftBrace), noShift)
	assert.Equal(t, forward, e.Handle(RawEvent{Code: vkPacket, Down: true, Injected: true}, noShift))
	assert.Equal(t, keymaps.PendingAccent(keymaps.Acute), e.State())
	assert.Equal(t, Decision{Inject: []rune{'é'}}, e.Handle(keyDown(keyE), noShift))
}

func TestEnginePassthrough(t *testing.T) {
	e, g, _ := newTestEngine(t)

	e.Handle(keyDown(keymaps.KeyApostrophe), noShift)
	require.Equal(t, keymaps.PendingAccent(keymaps.Tilde), e.State())

	_, err := g.Toggle()
	require.NoError(t, err)

	assert.Equal(t, forward, e.Handle(keyDown(keymaps.KeySemicolon), noShift))
	assert.Equal(t, keymaps.Idle, e.State(), "pending accent dropped on pause")
	_, ok := e.Tick()
	assert.False(t, ok)

	_, err = g.Toggle()
	require.NoError(t, err)

	assert.Equal(t, forward, e.Handle(keyDown(keymaps.KeyA), noShift))
	assert.Equal(t, Decision{Inject: []rune{'ç'}}, e.Handle(keyDown(keymaps.KeySemicolon), noShift))
}

func TestEnginePauseBetweenEventsDropsAccent(t *testing.T) {
	e, g, _ := newTestEngine(t)

	e.Handle(keyDown(keymaps.KeyApostrophe), noShift)
	require.Equal(t, keymaps.PendingAccent(keymaps.Tilde), e.State())

	// Paused and resumed before the next keystroke reached the hook.
	require.NoError(t, g.SetMode(gate.Passthrough))
	require.NoError(t, g.SetMode(gate.Active))

	assert.Equal(t, forward, e.Handle(keyDown(keymaps.KeyA), noShift), "no ã after a pause")
	assert.Equal(t, keymaps.Idle, e.State())
}

func TestEnginePauseBetweenTicksDropsAccent(t *testing.T) {
	e, g, clock := newTestEngine(t)

	e.Handle(keyDown(keymaps.KeyApostrophe), noShift)
	_, err := g.Toggle()
	require.NoError(t, err)
	_, err = g.Toggle()
	require.NoError(t, err)

	clock.advance(keymaps.AccentTimeout)
	_, ok := e.Tick()
	assert.False(t, ok, "accent from before the pause is not flushed")
	assert.Equal(t, keymaps.Idle, e.State())
}

func TestEngineKeepsAccentWithoutPause(t *testing.T) {
	g := gate.New()
	require.NoError(t, g.SetMode(gate.Passthrough))
	require.NoError(t, g.SetMode(gate.Active))
	e := NewEngine(g, keymaps.GetEvdevTable(), nil, nil)

	// Pauses from before the engine existed don't count.
	e.Handle(keyDown(keymaps.KeyApostrophe), noShift)
	assert.Equal(t, Decision{Inject: []rune{'ã'}}, e.Handle(keyDown(keymaps.KeyA), noShift))

	// Redundant Active writes aren't pauses either.
	e.Handle(keyDown(keymaps.KeyApostrophe), noShift)
	require.NoError(t, g.SetMode(gate.Active))
	assert.Equal(t, Decision{Inject: []rune{'ã'}}, e.Handle(keyDown(keymaps.KeyA), noShift))
}

func TestEngineRecoversPanics(t *testing.T) {
	e, _, _ := newTestEngine(t)

	e.Handle(keyDown(keymaps.KeyApostrophe), noShift)
	d := e.Handle(keyDown(keymaps.KeyA), func() bool { panic("shift state unavailable") })

	assert.Equal(t, forward, d)
	assert.Equal(t, keymaps.Idle, e.State())
	assert.Equal(t, uint64(1), e.stats.Snapshot().Panics)

	assert.Equal(t, Decision{Inject: []rune{'ç'}}, e.Handle(keyDown(keymaps.KeySemicolon), noShift))
}

func TestEngineTick(t *testing.T) {
	e, _, clock := newTestEngine(t)

	_, ok := e.Tick()
	assert.False(t, ok)

	e.Handle(keyDown(keymaps.KeyApostrophe), func() bool { return true })
	clock.advance(keymaps.AccentTimeout - time.Millisecond)
	_, ok = e.Tick()
	assert.False(t, ok)

	clock.advance(time.Millisecond)
	d, ok := e.Tick()
	require.True(t, ok)
	assert.Equal(t, Decision{Inject: []rune{'^'}}, d)
	assert.Equal(t, keymaps.Idle, e.State())

	_, ok = e.Tick()
	assert.False(t, ok)
	assert.Equal(t, uint64(1), e.stats.Snapshot().Timeouts)
}

func TestInjectAllStopsAtFirstFailure(t *testing.T) {
	var got []rune
	err := injectAll([]rune{'~', 'x', 'y'}, func(r rune) error {
		if r == 'x' {
			return assert.AnError
		}
		got = append(got, r)
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyInjection)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []rune{'~'}, got)
}
