package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goGhostKeys/gate"
)

type signalRecorder struct {
	releases int
	exits    []int
}

func newTestHandler(g *gate.Gate, rec *signalRecorder, releaseErr error) *signalHandler {
	return &signalHandler{
		g:   g,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		release: func() error {
			rec.releases++
			return releaseErr
		},
		exit: func(code int) { rec.exits = append(rec.exits, code) },
	}
}

func TestFirstSignalRequestsShutdown(t *testing.T) {
	g := gate.New()
	rec := &signalRecorder{}
	h := newTestHandler(g, rec, nil)

	h.handle(os.Interrupt)

	assert.True(t, g.ShouldExit())
	assert.Zero(t, rec.releases, "orderly shutdown releases through Stop")
	assert.Empty(t, rec.exits)
}

func TestSecondSignalReleasesKeyboard(t *testing.T) {
	for _, releaseErr := range []error{nil, errors.New("ungrab failed")} {
		g := gate.New()
		rec := &signalRecorder{}
		h := newTestHandler(g, rec, releaseErr)

		h.handle(syscall.SIGTERM)
		h.handle(os.Interrupt)

		assert.Equal(t, 1, rec.releases)
		assert.Equal(t, []int{1}, rec.exits)
	}
}

func TestToggleSignalsDoNotExit(t *testing.T) {
	if len(toggleSignals) == 0 {
		t.Skip("no toggle signal on this platform")
	}
	g := gate.New()
	rec := &signalRecorder{}
	h := newTestHandler(g, rec, nil)

	h.handle(toggleSignals[0])
	assert.True(t, g.Paused())
	h.handle(toggleSignals[0])
	assert.False(t, g.Paused())

	assert.False(t, g.ShouldExit())
	assert.Zero(t, rec.releases)
}

func TestSignalLoopKeepsRunningAfterExit(t *testing.T) {
	g := gate.New()
	rec := &signalRecorder{}
	h := newTestHandler(g, rec, nil)

	sigs := make(chan os.Signal)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		h.loop(sigs, stop)
		close(done)
	}()

	sigs <- os.Interrupt
	<-g.Done()
	sigs <- os.Interrupt
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("signal loop did not stop")
	}
	require.Equal(t, 1, rec.releases)
	assert.Equal(t, []int{1}, rec.exits)
}
