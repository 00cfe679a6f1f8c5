package main

import (
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/goGhostKeys/gate"
	"github.com/goGhostKeys/hook"
)

// signalHandler turns termination signals into a gate exit and toggle
// signals into a mode flip. A second termination signal means the orderly
// shutdown is stuck: the keyboard is released on the spot and the process
// exits.
type signalHandler struct {
	g       *gate.Gate
	log     *slog.Logger
	release func() error
	exit    func(code int)
}

func (h *signalHandler) handle(s os.Signal) {
	if slices.Contains(toggleSignals, s) {
		toggleMode(h.g, h.log)
		return
	}
	if !h.g.ShouldExit() {
		h.log.Info("received signal", "signal", s.String())
		h.g.SignalExit()
		return
	}
	h.log.Warn("received signal during shutdown, releasing keyboard", "signal", s.String())
	if err := h.release(); err != nil {
		h.log.Error("failed to release keyboard", "error", err)
	}
	h.exit(1)
}

func (h *signalHandler) loop(sigs <-chan os.Signal, stop <-chan struct{}) {
	for {
		select {
		case s := <-sigs:
			h.handle(s)
		case <-stop:
			return
		}
	}
}

// handleSignals installs the signal handler. The returned func stops signal
// delivery.
func handleSignals(g *gate.Gate, log *slog.Logger) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, append([]os.Signal{os.Interrupt, syscall.SIGTERM}, toggleSignals...)...)

	h := &signalHandler{g: g, log: log, release: hook.ReleaseActive, exit: os.Exit}
	stop := make(chan struct{})
	go h.loop(sigs, stop)

	return func() {
		signal.Stop(sigs)
		close(stop)
	}
}

func toggleMode(g *gate.Gate, log *slog.Logger) {
	mode, err := g.Toggle()
	if err != nil {
		log.Error("failed to toggle mode", "error", err)
		return
	}
	if mode == gate.Passthrough {
		log.Info("paused, keystrokes pass through unchanged")
	} else {
		log.Info("resumed, remapping keystrokes")
	}
}
