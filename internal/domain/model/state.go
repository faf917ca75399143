// Package model contains the match state and the pure rules that move it forward.
//
// Every operation is a value method on State returning the next State. The
// receiver is never modified, so a published State can be shared freely.
package model

import (
	"errors"
	"fmt"
)

// GoalEvent is one recorded goal. Immutable once created.
type GoalEvent struct {
	ID      string `json:"id"`
	Scorer  string `json:"scorer"`
	Assist  string `json:"assist,omitempty"`
	Time    int    `json:"time"` // elapsed seconds at recording
	Penalty bool   `json:"penalty"`
}

// CardEvent is one booking. Immutable once created.
type CardEvent struct {
	ID     string `json:"id"`
	Player string `json:"player"`
	Time   int    `json:"time"`
}

// TeamStats is the per-team ledger.
type TeamStats struct {
	Goals       []GoalEvent `json:"goals"`
	RedCards    []CardEvent `json:"red_cards"`
	YellowCards []CardEvent `json:"yellow_cards"`
	Shots       int         `json:"shots"`
	Saves       int         `json:"saves"`
	Fouls       int         `json:"fouls"`
}

// NewTeamStats returns an empty ledger.
func NewTeamStats() TeamStats {
	return TeamStats{
		Goals:       []GoalEvent{},
		RedCards:    []CardEvent{},
		YellowCards: []CardEvent{},
	}
}

func (t TeamStats) clone() TeamStats {
	out := t
	out.Goals = append(make([]GoalEvent, 0, len(t.Goals)+1), t.Goals...)
	out.RedCards = append(make([]CardEvent, 0, len(t.RedCards)+1), t.RedCards...)
	out.YellowCards = append(make([]CardEvent, 0, len(t.YellowCards)+1), t.YellowCards...)
	return out
}

// Score is the number of goals recorded.
func (t TeamStats) Score() int { return len(t.Goals) }

// State is the whole match.
type State struct {
	Phase          Phase                `json:"phase"`
	ElapsedSeconds int                  `json:"elapsed_seconds"`
	TeamA          string               `json:"team_a"`
	TeamB          string               `json:"team_b"`
	Statistics     map[string]TeamStats `json:"statistics"`
	Authenticated  bool                 `json:"is_authenticated"`
}

// Default returns the state of a brand new game.
func Default() State {
	return State{
		Phase:      PhaseNotStarted,
		Statistics: map[string]TeamStats{},
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Statistics = make(map[string]TeamStats, len(s.Statistics))
	for name, stats := range s.Statistics {
		out.Statistics[name] = stats.clone()
	}
	return out
}

// Configured reports whether both teams are selected.
func (s State) Configured() bool {
	return s.TeamA != "" && s.TeamB != ""
}

// EditingAllowed reports whether the ledger may be mutated.
func (s State) EditingAllowed() bool {
	return s.Phase == PhaseLive
}

// Team returns the ledger of a team playing in this match.
func (s State) Team(name string) (TeamStats, error) {
	if name == "" || (name != s.TeamA && name != s.TeamB) {
		return TeamStats{}, fmt.Errorf("%w: %q", ErrUnknownTeam, name)
	}
	stats, ok := s.Statistics[name]
	if !ok {
		return NewTeamStats(), nil
	}
	return stats, nil
}

// Validate checks a state read from outside the process.
func (s State) Validate() error {
	if !s.Phase.Valid() {
		return fmt.Errorf("%w: phase %q", ErrInvalidState, s.Phase)
	}
	if s.ElapsedSeconds < 0 {
		return fmt.Errorf("%w: negative elapsed seconds", ErrInvalidState)
	}
	if s.TeamA != "" && s.TeamA == s.TeamB {
		return fmt.Errorf("%w: identical teams %q", ErrInvalidState, s.TeamA)
	}
	for name, stats := range s.Statistics {
		if stats.Shots < 0 || stats.Saves < 0 || stats.Fouls < 0 {
			return fmt.Errorf("%w: negative counter for %q", ErrInvalidState, name)
		}
		if err := uniqueGoals(stats.Goals); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidState, name, err)
		}
		if err := uniqueCards(stats.RedCards); err != nil {
			return fmt.Errorf("%w: %q red cards: %w", ErrInvalidState, name, err)
		}
		if err := uniqueCards(stats.YellowCards); err != nil {
			return fmt.Errorf("%w: %q yellow cards: %w", ErrInvalidState, name, err)
		}
	}
	return nil
}

// Normalize fills the gaps a decoded snapshot may have: a nil statistics map,
// nil event slices and missing ledgers for selected teams.
func (s State) Normalize() State {
	out := s.Clone()
	for _, name := range []string{out.TeamA, out.TeamB} {
		if name == "" {
			continue
		}
		if _, ok := out.Statistics[name]; !ok {
			out.Statistics[name] = NewTeamStats()
		}
	}
	for name, stats := range out.Statistics {
		if stats.Goals == nil {
			stats.Goals = []GoalEvent{}
		}
		if stats.RedCards == nil {
			stats.RedCards = []CardEvent{}
		}
		if stats.YellowCards == nil {
			stats.YellowCards = []CardEvent{}
		}
		out.Statistics[name] = stats
	}
	return out
}

func uniqueGoals(goals []GoalEvent) error {
	seen := make(map[string]struct{}, len(goals))
	for _, g := range goals {
		if g.ID == "" {
			return errors.New("goal without id")
		}
		if _, dup := seen[g.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateEventID, g.ID)
		}
		seen[g.ID] = struct{}{}
	}
	return nil
}

func uniqueCards(cards []CardEvent) error {
	seen := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		if c.ID == "" {
			return errors.New("card without id")
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateEventID, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}
