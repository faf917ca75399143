// Package scoreboard derives the spectator view from the match state.
// Nothing here is stored; every value is recomputed from model.State.
package scoreboard

import (
	"fmt"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/types"
)

const (
	defaultHalfLengthMinutes = 45
	evenShare                = 50
)

// Option configures a Scoreboard.
type Option func(*Scoreboard)

// WithHalfLength sets the minute at which the first half ends.
func WithHalfLength(minutes int) Option {
	return func(b *Scoreboard) {
		if minutes > 0 {
			b.halfLengthSeconds = minutes * 60
		}
	}
}

// WithCatalog sets the team list used for colours.
func WithCatalog(c model.Catalog) Option {
	return func(b *Scoreboard) {
		if len(c) > 0 {
			b.catalog = c
		}
	}
}

// Scoreboard turns match states into Boards.
type Scoreboard struct {
	halfLengthSeconds int
	catalog           model.Catalog
}

// New creates a Scoreboard.
func New(opts ...Option) *Scoreboard {
	b := &Scoreboard{
		halfLengthSeconds: defaultHalfLengthMinutes * 60,
		catalog:           model.DefaultCatalog,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Board renders s. Until both teams are chosen the board is not in progress.
func (b *Scoreboard) Board(s model.State) types.Board {
	board := types.Board{
		InProgress:     s.Configured(),
		Phase:          s.Phase.String(),
		PhaseText:      PhaseText(s.Phase, s.ElapsedSeconds, b.halfLengthSeconds),
		Clock:          ClockLabel(s.Phase, s.ElapsedSeconds),
		ElapsedSeconds: s.ElapsedSeconds,
		Stats:          []types.StatLine{},
	}
	if !board.InProgress {
		return board
	}

	home := s.Statistics[s.TeamA]
	away := s.Statistics[s.TeamB]
	board.Home = b.panel(s.TeamA, home)
	board.Away = b.panel(s.TeamB, away)
	board.Stats = []types.StatLine{
		statLine("Shots", home.Shots, away.Shots),
		statLine("Saves", home.Saves, away.Saves),
		statLine("Fouls", home.Fouls, away.Fouls),
		statLine("Yellow Cards", len(home.YellowCards), len(away.YellowCards)),
		statLine("Red Cards", len(home.RedCards), len(away.RedCards)),
	}
	return board
}

func (b *Scoreboard) panel(name string, stats model.TeamStats) types.TeamPanel {
	p := types.TeamPanel{
		Name:      name,
		Color:     "#6b7280",
		TextColor: "#ffffff",
		Score:     stats.Score(),
		Goals:     make([]types.GoalLine, 0, len(stats.Goals)),
	}
	if team, ok := b.catalog.Lookup(name); ok {
		p.Color = team.Color
		p.TextColor = team.TextColor
	}
	for _, g := range stats.Goals {
		p.Goals = append(p.Goals, GoalLine(g))
	}
	return p
}

func statLine(label string, home, away int) types.StatLine {
	return types.StatLine{Label: label, Home: home, Away: away, HomeShare: StatShare(home, away)}
}

// FormatClock renders seconds as mm:ss; minutes keep at least two digits.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// ClockLabel is "HT" at half time, "FT" after the final whistle, else FormatClock.
func ClockLabel(phase model.Phase, seconds int) string {
	switch phase {
	case model.PhaseHalfTime:
		return "HT"
	case model.PhaseEnded:
		return "FT"
	default:
		return FormatClock(seconds)
	}
}

// PhaseText is the status line shown above the clock.
func PhaseText(phase model.Phase, seconds, halfLengthSeconds int) string {
	switch phase {
	case model.PhaseNotStarted:
		return "Game Not Started"
	case model.PhasePaused:
		return "Paused"
	case model.PhaseHalfTime:
		return "Half Time"
	case model.PhaseEnded:
		return "Game Ended"
	}
	if seconds < halfLengthSeconds {
		return "First Half"
	}
	return "Second Half"
}

// GoalMinute renders the minute a goal was scored in, e.g. "12'".
func GoalMinute(seconds int) string {
	return fmt.Sprintf("%d'", seconds/60)
}

// GoalLine formats a goal for display.
func GoalLine(g model.GoalEvent) types.GoalLine {
	text := g.Scorer
	if g.Assist != "" {
		text += " (" + g.Assist + ")"
	}
	text += " " + GoalMinute(g.Time)
	if g.Penalty {
		text += " (P)"
	}
	return types.GoalLine{
		ID:      g.ID,
		Scorer:  g.Scorer,
		Assist:  g.Assist,
		Minute:  GoalMinute(g.Time),
		Penalty: g.Penalty,
		Text:    text,
	}
}

// StatShare is the home percentage of a comparison bar. An empty stat splits evenly.
func StatShare(home, away int) float64 {
	total := home + away
	if total == 0 {
		return evenShare
	}
	return float64(home) / float64(total) * 100
}
