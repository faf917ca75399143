package model

import (
	"fmt"
	"math"
)

// MaxExtraTimeMinutes caps a single extra time request.
const MaxExtraTimeMinutes = 60

// Configure selects the two teams and starts a fresh match between them.
// The admin flag survives; everything else is reset.
func (s State) Configure(teamA, teamB string) (State, error) {
	if teamA == "" || teamB == "" || teamA == teamB {
		return s, fmt.Errorf("%w: %q vs %q", ErrInvalidTeams, teamA, teamB)
	}
	next := Default()
	next.Authenticated = s.Authenticated
	next.TeamA = teamA
	next.TeamB = teamB
	next.Statistics[teamA] = NewTeamStats()
	next.Statistics[teamB] = NewTeamStats()
	return next, nil
}

// Reset returns the default state. Used by "New Game".
func (s State) Reset() State {
	return Default()
}

// Authenticate marks that an admin signed in.
func (s State) Authenticate() State {
	next := s.Clone()
	next.Authenticated = true
	return next
}

// Start kicks off the match.
func (s State) Start() (State, error) { return s.moveTo(PhaseLive, PhaseNotStarted) }

// Pause suspends the clock during play.
func (s State) Pause() (State, error) { return s.moveTo(PhasePaused, PhaseLive) }

// Resume restarts the clock after a pause or for the second half.
func (s State) Resume() (State, error) { return s.moveTo(PhaseLive, PhasePaused, PhaseHalfTime) }

// SetHalfTime stops the clock for the interval. It is refused once the clock
// has reached latest seconds; latest <= 0 means no limit.
func (s State) SetHalfTime(latest int) (State, error) {
	if latest > 0 && s.ElapsedSeconds >= latest {
		return s, fmt.Errorf("%w: half time after %d seconds", ErrInvalidTransition, latest)
	}
	return s.moveTo(PhaseHalfTime, PhaseLive, PhasePaused)
}

// End finishes the match. Only Reset leaves Ended.
func (s State) End() (State, error) {
	return s.moveTo(PhaseEnded, PhaseLive, PhasePaused, PhaseHalfTime)
}

// AddExtraTime pushes the clock forward by whole minutes without changing phase.
func (s State) AddExtraTime(minutes int) (State, error) {
	if minutes < 0 || minutes > MaxExtraTimeMinutes {
		return s, fmt.Errorf("%w: %d", ErrInvalidExtraTime, minutes)
	}
	if s.Phase != PhaseLive && s.Phase != PhasePaused {
		return s, fmt.Errorf("%w: extra time during %s", ErrInvalidTransition, s.Phase)
	}
	if s.ElapsedSeconds > math.MaxInt-minutes*60 {
		return s, fmt.Errorf("%w: clock would overflow", ErrInvalidExtraTime)
	}
	next := s.Clone()
	next.ElapsedSeconds += minutes * 60
	return next, nil
}

// Tick advances the clock by one second. Only a live match ticks.
func (s State) Tick() (State, error) {
	if !s.Phase.Ticking() {
		return s, fmt.Errorf("%w: tick during %s", ErrInvalidTransition, s.Phase)
	}
	next := s.Clone()
	next.ElapsedSeconds++
	return next, nil
}

// moveTo switches to target when the current phase is one of from.
func (s State) moveTo(target Phase, from ...Phase) (State, error) {
	allowed := false
	for _, p := range from {
		if s.Phase == p {
			allowed = true
			break
		}
	}
	if !allowed || !s.Phase.CanTransitionTo(target) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Phase, target)
	}
	next := s.Clone()
	next.Phase = target
	return next, nil
}
