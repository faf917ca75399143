package model

import "errors"

// Sentinel errors returned by state transitions. A refused transition leaves the state unchanged.
var (
	ErrEditingLocked     = errors.New("statistics can only be edited while the match is live")
	ErrInvalidTransition = errors.New("phase transition not allowed")
	ErrInvalidTeams      = errors.New("two distinct teams are required")
	ErrUnknownTeam       = errors.New("team is not part of this match")
	ErrUnknownCounter    = errors.New("unknown counter")
	ErrUnknownCardKind   = errors.New("unknown card kind")
	ErrUnknownPhase      = errors.New("unknown phase")
	ErrGoalNotFound      = errors.New("goal not found")
	ErrDuplicateEventID  = errors.New("event id already recorded")
	ErrInvalidExtraTime  = errors.New("extra time must be between 0 and 60 minutes")
	ErrCounterOverflow   = errors.New("counter value out of range")
	ErrInvalidState      = errors.New("invalid match state")
)
