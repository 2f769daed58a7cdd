// SPDX-License-Identifier: MPL-2.0

// Package monitor runs the change-detection loop that keeps the generated
// layer enum in sync with the host's slot table.
//
// A Monitor starts Idle with the fingerprint of the table as it was at
// construction. Each poll samples the table again; when the fingerprint
// differs from the baseline the snapshot is emitted and the new fingerprint
// becomes the baseline, whether or not the emission succeeded. A failing
// emission is logged and retried only after the table changes again.
//
// Polls are triggered by the clock every Interval and by Nudge, which callers
// wire to a genuine change notification when the host offers one. Polls never
// overlap.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/layergen/layergen/internal/clock"
	"github.com/layergen/layergen/internal/enumgen"
	"github.com/layergen/layergen/internal/slot"

	"github.com/charmbracelet/log"
)

// DefaultInterval is the poll interval used when Config.Interval is not positive.
const DefaultInterval = time.Second

type (
	// Emitter writes the artifact for a snapshot. *enumgen.Emitter implements it.
	Emitter interface {
		Emit(ctx context.Context, s slot.Snapshot) (enumgen.Result, error)
	}

	// Config holds the parameters for a Monitor.
	Config struct {
		// Namer is the host query capability sampled on every poll.
		Namer slot.Namer
		// Emitter regenerates the artifact when the table changes.
		Emitter Emitter
		// Interval is the fallback poll period. Zero or negative values fall
		// back to DefaultInterval.
		Interval time.Duration
		// Clock drives the poll timer. nil uses the system clock.
		Clock clock.Clock
		// Logger receives poll diagnostics. nil discards them.
		Logger *log.Logger
	}

	// Monitor owns the baseline fingerprint and the poll loop. Run must be
	// called at most once.
	Monitor struct {
		namer    slot.Namer
		emitter  Emitter
		interval time.Duration
		clock    clock.Clock
		logger   *log.Logger

		// cycle serializes polls; baseline is only touched while it is held.
		cycle    sync.Mutex
		baseline slot.Fingerprint

		state   atomic.Int32
		started atomic.Bool
		nudge   chan struct{}

		polls        atomic.Uint64
		emissions    atomic.Uint64
		emitFailures atomic.Uint64
		readFailures atomic.Uint64
	}
)

// New creates a Monitor and establishes its baseline from the current slot
// table. It fails when the initial host query fails.
func New(cfg Config) (*Monitor, error) {
	if cfg.Namer == nil {
		return nil, errors.New("monitor: namer is required")
	}
	if cfg.Emitter == nil {
		return nil, errors.New("monitor: emitter is required")
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	initial, err := slot.ReadSnapshot(cfg.Namer)
	if err != nil {
		return nil, fmt.Errorf("monitor: read initial slot table: %w", err)
	}

	m := &Monitor{
		namer:    cfg.Namer,
		emitter:  cfg.Emitter,
		interval: interval,
		clock:    clk,
		logger:   logger,
		baseline: initial.Fingerprint(),
		nudge:    make(chan struct{}, 1),
	}
	m.state.Store(int32(StateIdle))
	return m, nil
}

// Step is the pure transition of the monitor: it returns the fingerprint to
// adopt as baseline and whether s differs from the current baseline.
func Step(baseline slot.Fingerprint, s slot.Snapshot) (next slot.Fingerprint, changed bool) {
	f := s.Fingerprint()
	return f, f != baseline
}

// PollOnce runs one sample-compare-emit cycle. The returned error is the read
// or emit failure, already logged; callers in a loop may ignore it.
func (m *Monitor) PollOnce(ctx context.Context) (Outcome, error) {
	m.cycle.Lock()
	defer m.cycle.Unlock()
	defer m.state.Store(int32(StateIdle))

	m.polls.Add(1)
	m.state.Store(int32(StateSampling))

	s, err := slot.ReadSnapshot(m.namer)
	if err != nil {
		m.readFailures.Add(1)
		m.logger.Warn("read slot table", "error", err)
		return OutcomeReadFailed, err
	}

	next, changed := Step(m.baseline, s)
	if !changed {
		return OutcomeUnchanged, nil
	}

	m.state.Store(int32(StateEmitting))
	res, err := m.emitter.Emit(ctx, s)
	// Advance even on failure so a persistent error is not retried every tick.
	m.baseline = next
	if err != nil {
		m.emitFailures.Add(1)
		m.logEmitError(err)
		return OutcomeEmitFailed, err
	}

	m.emissions.Add(1)
	m.logger.Info("layers enum updated due to layer changes", "path", res.Path, "members", len(res.Members))
	return OutcomeEmitted, nil
}

// Regenerate emits the current table unconditionally and adopts its
// fingerprint as the baseline.
func (m *Monitor) Regenerate(ctx context.Context) (enumgen.Result, error) {
	m.cycle.Lock()
	defer m.cycle.Unlock()
	defer m.state.Store(int32(StateIdle))

	m.state.Store(int32(StateSampling))
	s, err := slot.ReadSnapshot(m.namer)
	if err != nil {
		m.readFailures.Add(1)
		return enumgen.Result{}, err
	}

	m.state.Store(int32(StateEmitting))
	res, err := m.emitter.Emit(ctx, s)
	m.baseline = s.Fingerprint()
	if err != nil {
		m.emitFailures.Add(1)
		return res, err
	}
	m.emissions.Add(1)
	return res, nil
}

// Run polls until ctx is cancelled and returns nil. Emit and read failures
// never end the loop. A second call returns an error immediately.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return errors.New("monitor: Run called more than once")
	}

	m.logger.Debug("monitoring slot table", "interval", m.interval)
	// One timer is pending at a time. A nudge polls without re-arming it.
	tick := m.clock.After(m.interval)
	for {
		fired := false
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			fired = true
		case <-m.nudge:
		}
		if ctx.Err() != nil {
			return nil
		}
		_, _ = m.PollOnce(ctx) // failures are logged by PollOnce
		if fired {
			tick = m.clock.After(m.interval)
		}
	}
}

// Nudge requests a poll without waiting for the interval. Nudges made while a
// poll is already pending are coalesced.
func (m *Monitor) Nudge() {
	select {
	case m.nudge <- struct{}{}:
	default:
	}
}

// State returns the current cycle state. Safe to call from any goroutine.
func (m *Monitor) State() State {
	return State(m.state.Load())
}

// Baseline returns the fingerprint the next poll compares against.
func (m *Monitor) Baseline() slot.Fingerprint {
	m.cycle.Lock()
	defer m.cycle.Unlock()
	return m.baseline
}

// Stats returns the poll counters.
func (m *Monitor) Stats() Stats {
	return Stats{
		Polls:        m.polls.Load(),
		Emissions:    m.emissions.Load(),
		EmitFailures: m.emitFailures.Load(),
		ReadFailures: m.readFailures.Load(),
	}
}

func (m *Monitor) logEmitError(err error) {
	var emitErr *enumgen.EmitError
	if errors.As(err, &emitErr) {
		m.logger.Error("generate layers enum", "kind", emitErr.Kind, "path", emitErr.Path, "error", emitErr.Err)
		return
	}
	m.logger.Error("generate layers enum", "error", err)
}
