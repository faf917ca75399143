package model

import "fmt"

// Phase is the match lifecycle stage.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseLive       Phase = "live"
	PhasePaused     Phase = "paused"
	PhaseHalfTime   Phase = "half_time"
	PhaseEnded      Phase = "ended"
)

// transitions lists the phases reachable from each phase.
// Ended has no outbound edge; only a reset leaves it.
var transitions = map[Phase][]Phase{
	PhaseNotStarted: {PhaseLive},
	PhaseLive:       {PhasePaused, PhaseHalfTime, PhaseEnded},
	PhasePaused:     {PhaseLive, PhaseHalfTime, PhaseEnded},
	PhaseHalfTime:   {PhaseLive, PhaseEnded},
	PhaseEnded:      {},
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := transitions[p]
	return ok
}

// CanTransitionTo reports whether the state machine allows p -> target.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range transitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

// Ticking reports whether the clock advances in this phase.
func (p Phase) Ticking() bool {
	return p == PhaseLive
}

// ParsePhase converts a stored phase name.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPhase, s)
	}
	return p, nil
}

func (p Phase) String() string { return string(p) }
