package hook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goGhostKeys/gate"
	"github.com/goGhostKeys/keymaps"
)

func startSimulated(t *testing.T) (*SimulatedInterceptor, *gate.Gate, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewSimulated(keymaps.GetEvdevTable(), nil, keymaps.WithClock(clock.now))
	g := gate.New()
	require.NoError(t, s.Start(g))
	t.Cleanup(func() { _ = s.Stop() })
	return s, g, clock
}

func TestSimulatedLifecycle(t *testing.T) {
	s := NewSimulated(keymaps.GetEvdevTable(), nil)
	g := gate.New()

	assert.False(t, s.IsRunning())
	require.NoError(t, s.Start(g))
	assert.True(t, s.IsRunning())

	err := s.Start(g)
	assert.ErrorIs(t, err, ErrHookInstall)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.Equal(t, 1, s.Releases())

	require.NoError(t, s.Stop())
	assert.Equal(t, 1, s.Releases(), "second Stop is a no-op")

	require.NoError(t, s.Start(g))
	require.NoError(t, s.Stop())
	assert.Equal(t, 2, s.Releases())
}

func TestOnlyOneHookPerProcess(t *testing.T) {
	first, _, _ := startSimulated(t)
	second := NewSimulated(keymaps.GetEvdevTable(), nil)

	err := second.Start(gate.New())
	assert.ErrorIs(t, err, ErrHookInstall)
	assert.False(t, second.IsRunning())
	assert.True(t, first.IsRunning())
}

func TestReleaseActiveBeforeStop(t *testing.T) {
	s, _, _ := startSimulated(t)

	require.NoError(t, ReleaseActive())
	assert.Equal(t, 1, s.Releases())
	require.NoError(t, ReleaseActive())

	require.NoError(t, s.Stop())
	assert.Equal(t, 1, s.Releases(), "released exactly once")
}

func TestSimulatedTyping(t *testing.T) {
	s, _, _ := startSimulated(t)

	s.Press(keymaps.KeyApostrophe)
	s.Press(keymaps.KeyA)
	s.Press(keymaps.KeyLeftBrace)
	s.Press(keyE)
	s.Press(keymaps.KeySemicolon)
	s.Press(keymaps.KeyApostrophe)
	s.Press(keymaps.KeySpace)

	assert.Equal(t, []rune("ãéç~"), s.Typed())
}

// Injected characters come back through the hook. They must reach the
// application without touching the mapper a second time.
func TestInjectionIsNotRemapped(t *testing.T) {
	s, _, _ := startSimulated(t)

	s.Press(keymaps.KeySemicolon)

	assert.Equal(t, []rune{'ç'}, s.Typed())
	stats := s.Stats()
	assert.Equal(t, uint64(1), stats.MapperCalls)
	assert.Equal(t, uint64(2), stats.Injected)
	assert.Equal(t, keymaps.Idle, s.State())
}

func TestSimulatedFallbackPair(t *testing.T) {
	s, _, _ := startSimulated(t)

	s.SetShift(true)
	s.Press(keymaps.KeyApostrophe)
	s.SetShift(false)
	s.Press(keymaps.KeyZ)

	assert.Equal(t, []rune("^z"), s.Typed())
}

func TestSimulatedTimeout(t *testing.T) {
	s, _, clock := startSimulated(t)

	s.Press(keymaps.KeyLeftBrace)
	s.Tick()
	assert.Empty(t, s.Typed())

	clock.advance(keymaps.AccentTimeout)
	s.Tick()
	s.Tick()
	assert.Equal(t, []rune{'´'}, s.Typed())
}

func TestSimulatedPassthrough(t *testing.T) {
	s, g, _ := startSimulated(t)

	require.NoError(t, g.SetMode(gate.Passthrough))
	s.Press(keymaps.KeySemicolon)

	assert.Empty(t, s.Typed())
	assert.Equal(t, []RawEvent{
		{Code: keymaps.KeySemicolon, Down: true},
		{Code: keymaps.KeySemicolon},
	}, s.Forwarded())
}

func TestSimulatedInjectFailure(t *testing.T) {
	s, _, _ := startSimulated(t)
	s.InjectErr = assert.AnError

	d := s.Feed(RawEvent{Code: keymaps.KeySemicolon, Down: true})

	assert.False(t, d.Forward, "original keystroke still suppressed")
	assert.Empty(t, s.Typed())
	assert.Equal(t, uint64(1), s.Stats().InjectFailures)
	assert.Equal(t, keymaps.Idle, s.State())
}

func TestSimulatedStoppedForwardsEverything(t *testing.T) {
	s := NewSimulated(keymaps.GetEvdevTable(), nil)

	d := s.Feed(RawEvent{Code: keymaps.KeySemicolon, Down: true})

	assert.True(t, d.Forward)
	assert.Empty(t, s.Typed())
}
