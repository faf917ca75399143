package model

import (
	"fmt"
	"math"
)

// CardKind distinguishes bookings.
type CardKind string

const (
	CardYellow CardKind = "yellow"
	CardRed    CardKind = "red"
)

// ParseCardKind validates a card kind name.
func ParseCardKind(s string) (CardKind, error) {
	switch k := CardKind(s); k {
	case CardYellow, CardRed:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCardKind, s)
}

// Counter names a plain per-team tally.
type Counter string

const (
	CounterShots Counter = "shots"
	CounterSaves Counter = "saves"
	CounterFouls Counter = "fouls"
)

// ParseCounter validates a counter name.
func ParseCounter(s string) (Counter, error) {
	switch c := Counter(s); c {
	case CounterShots, CounterSaves, CounterFouls:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCounter, s)
}

// NewGoal builds a goal stamped at the current elapsed time.
func (s State) NewGoal(id, scorer, assist string, penalty bool) GoalEvent {
	return GoalEvent{ID: id, Scorer: scorer, Assist: assist, Penalty: penalty, Time: s.ElapsedSeconds}
}

// NewCard builds a card stamped at the current elapsed time.
func (s State) NewCard(id, player string) CardEvent {
	return CardEvent{ID: id, Player: player, Time: s.ElapsedSeconds}
}

// RecordGoal appends goal to the team's ledger.
func (s State) RecordGoal(team string, goal GoalEvent) (State, error) {
	stats, err := s.editable(team)
	if err != nil {
		return s, err
	}
	for _, g := range stats.Goals {
		if g.ID == goal.ID {
			return s, fmt.Errorf("%w: goal %s", ErrDuplicateEventID, goal.ID)
		}
	}
	stats.Goals = append(stats.Goals, goal)
	return s.withTeam(team, stats), nil
}

// DeleteGoal removes the goal with the given id, keeping the order of the rest.
func (s State) DeleteGoal(team, goalID string) (State, error) {
	stats, err := s.editable(team)
	if err != nil {
		return s, err
	}
	kept := make([]GoalEvent, 0, len(stats.Goals))
	for _, g := range stats.Goals {
		if g.ID != goalID {
			kept = append(kept, g)
		}
	}
	if len(kept) == len(stats.Goals) {
		return s, fmt.Errorf("%w: %s", ErrGoalNotFound, goalID)
	}
	stats.Goals = kept
	return s.withTeam(team, stats), nil
}

// RecordCard appends a booking of the given kind.
func (s State) RecordCard(team string, kind CardKind, card CardEvent) (State, error) {
	stats, err := s.editable(team)
	if err != nil {
		return s, err
	}
	var cards *[]CardEvent
	switch kind {
	case CardYellow:
		cards = &stats.YellowCards
	case CardRed:
		cards = &stats.RedCards
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownCardKind, kind)
	}
	for _, c := range *cards {
		if c.ID == card.ID {
			return s, fmt.Errorf("%w: card %s", ErrDuplicateEventID, card.ID)
		}
	}
	*cards = append(*cards, card)
	return s.withTeam(team, stats), nil
}

// AdjustCounter adds delta to a counter, clamping at zero. An increment that
// would overflow is refused.
func (s State) AdjustCounter(team string, counter Counter, delta int) (State, error) {
	stats, err := s.editable(team)
	if err != nil {
		return s, err
	}
	var v *int
	switch counter {
	case CounterShots:
		v = &stats.Shots
	case CounterSaves:
		v = &stats.Saves
	case CounterFouls:
		v = &stats.Fouls
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownCounter, counter)
	}
	if delta > 0 && *v > math.MaxInt-delta {
		return s, fmt.Errorf("%w: %s %d%+d", ErrCounterOverflow, counter, *v, delta)
	}
	*v = max(0, *v+delta)
	return s.withTeam(team, stats), nil
}

// editable returns a private copy of the team's ledger if editing is allowed.
func (s State) editable(team string) (TeamStats, error) {
	if !s.EditingAllowed() {
		return TeamStats{}, fmt.Errorf("%w: phase is %s", ErrEditingLocked, s.Phase)
	}
	stats, err := s.Team(team)
	if err != nil {
		return TeamStats{}, err
	}
	return stats.clone(), nil
}

func (s State) withTeam(team string, stats TeamStats) State {
	next := s.Clone()
	next.Statistics[team] = stats
	return next
}
