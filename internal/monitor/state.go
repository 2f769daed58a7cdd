// SPDX-License-Identifier: MPL-2.0

package monitor

const (
	// StateIdle means the monitor holds a baseline and waits for the next poll.
	StateIdle State = iota
	// StateSampling means the monitor is reading and fingerprinting the slot table.
	StateSampling
	// StateEmitting means the fingerprint diverged and the artifact is being written.
	StateEmitting
)

const (
	// OutcomeUnchanged means the fingerprint matched the baseline.
	OutcomeUnchanged Outcome = iota
	// OutcomeEmitted means the table changed and the artifact was regenerated.
	OutcomeEmitted
	// OutcomeEmitFailed means the table changed but emission failed. The
	// baseline still advanced.
	OutcomeEmitFailed
	// OutcomeReadFailed means the host query failed. The baseline is unchanged.
	OutcomeReadFailed
)

type (
	// State is the monitor's position in its poll-compare-emit cycle.
	State int32

	// Outcome is the result of one poll.
	Outcome int

	// Stats counts poll outcomes since the monitor was created.
	Stats struct {
		Polls        uint64
		Emissions    uint64
		EmitFailures uint64
		ReadFailures uint64
	}
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSampling:
		return "sampling"
	case StateEmitting:
		return "emitting"
	default:
		return "unknown"
	}
}

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeEmitted:
		return "emitted"
	case OutcomeEmitFailed:
		return "emit-failed"
	case OutcomeReadFailed:
		return "read-failed"
	default:
		return "unknown"
	}
}
