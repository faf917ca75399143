package simulator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/types"
	"github.com/okian/matchday/pkg/logger"
)

// ErrMismatch is returned when the server disagrees with the script.
var ErrMismatch = errors.New("recorded match does not match the script")

// verifyMatch compares the admin view and the public board with the tallies.
func verifyMatch(ctx context.Context, client *Client, config *Config, stats *Stats) error {
	var st model.State
	if _, err := client.Do(ctx, http.MethodGet, "/api/match", nil, nil, &st); err != nil {
		return err
	}
	if st.Phase != model.PhaseEnded {
		return fmt.Errorf("%w: phase %q", ErrMismatch, st.Phase)
	}
	for team, want := range stats.Expected {
		got, ok := st.Statistics[team]
		if !ok {
			return fmt.Errorf("%w: no statistics for %s", ErrMismatch, team)
		}
		if err := compareTally(team, want, got); err != nil {
			return err
		}
	}

	var board types.Board
	if _, err := client.Do(ctx, http.MethodGet, "/api/board", nil, nil, &board); err != nil {
		return err
	}
	if board.Home.Name != config.TeamA || board.Away.Name != config.TeamB {
		return fmt.Errorf("%w: board shows %s v %s", ErrMismatch, board.Home.Name, board.Away.Name)
	}
	if board.Home.Score != stats.Expected[config.TeamA].Goals || board.Away.Score != stats.Expected[config.TeamB].Goals {
		return fmt.Errorf("%w: board score %d-%d", ErrMismatch, board.Home.Score, board.Away.Score)
	}

	logger.Get().Info(ctx, "match verified",
		logger.String("score", fmt.Sprintf("%d-%d", board.Home.Score, board.Away.Score)),
		logger.String("clock", board.Clock))
	return nil
}

func compareTally(team string, want *Tally, got model.TeamStats) error {
	checks := []struct {
		name      string
		want, got int
	}{
		{"goals", want.Goals, len(got.Goals)},
		{"yellow cards", want.YellowCards, len(got.YellowCards)},
		{"red cards", want.RedCards, len(got.RedCards)},
		{"shots", want.Shots, got.Shots},
		{"saves", want.Saves, got.Saves},
		{"fouls", want.Fouls, got.Fouls},
	}
	for _, c := range checks {
		if c.want != c.got {
			return fmt.Errorf("%w: %s %s: want %d, got %d", ErrMismatch, team, c.name, c.want, c.got)
		}
	}
	return nil
}
