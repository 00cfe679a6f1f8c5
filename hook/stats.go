package hook

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Stats counts what the hook did. All methods are safe for concurrent use;
// the hook thread writes and anyone may read.
type Stats struct {
	events         atomic.Uint64
	injected       atomic.Uint64
	mapperCalls    atomic.Uint64
	suppressed     atomic.Uint64
	replaced       atomic.Uint64
	timeouts       atomic.Uint64
	injectFailures atomic.Uint64
	panics         atomic.Uint64

	peakLatency atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Events         uint64
	Injected       uint64
	MapperCalls    uint64
	Suppressed     uint64
	Replaced       uint64
	Timeouts       uint64
	InjectFailures uint64
	Panics         uint64
	PeakLatency    time.Duration
}

func (s *Stats) recordLatency(d time.Duration) {
	ns := d.Nanoseconds()
	for {
		cur := s.peakLatency.Load()
		if ns <= cur {
			return
		}
		if s.peakLatency.CompareAndSwap(cur, ns) {
			return
		}
	}
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Events:         s.events.Load(),
		Injected:       s.injected.Load(),
		MapperCalls:    s.mapperCalls.Load(),
		Suppressed:     s.suppressed.Load(),
		Replaced:       s.replaced.Load(),
		Timeouts:       s.timeouts.Load(),
		InjectFailures: s.injectFailures.Load(),
		Panics:         s.panics.Load(),
		PeakLatency:    time.Duration(s.peakLatency.Load()),
	}
}

// LogValue implements slog.LogValuer.
func (s StatsSnapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("events", s.Events),
		slog.Uint64("injected_skipped", s.Injected),
		slog.Uint64("mapped", s.MapperCalls),
		slog.Uint64("suppressed", s.Suppressed),
		slog.Uint64("replaced", s.Replaced),
		slog.Uint64("timeouts", s.Timeouts),
		slog.Uint64("inject_failures", s.InjectFailures),
		slog.Uint64("panics", s.Panics),
		slog.Duration("peak_latency", s.PeakLatency),
	)
}
