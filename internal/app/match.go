package service

import (
	"context"
	"fmt"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/metrics"
)

// ConfigureMatch selects two catalog teams and starts a fresh match between them.
func (s *Service) ConfigureMatch(ctx context.Context, teamA, teamB string) (model.State, error) {
	for _, name := range []string{teamA, teamB} {
		if name != "" && !s.catalog.Contains(name) {
			metrics.RecordMutation("configure_match", false)
			return s.Snapshot(), fmt.Errorf("%w: %q is not in the league", model.ErrUnknownTeam, name)
		}
	}
	next, err := s.apply(ctx, "configure_match", func(st model.State) (model.State, error) {
		return st.Configure(teamA, teamB)
	})
	return next.Clone(), err
}

// ResetAll returns every field to its default. Used by "New Game".
func (s *Service) ResetAll(ctx context.Context) model.State {
	next, _ := s.apply(ctx, "reset", func(st model.State) (model.State, error) {
		return st.Reset(), nil
	})
	return next.Clone()
}

// StartMatch kicks off the match clock.
func (s *Service) StartMatch(ctx context.Context) (model.State, error) {
	return s.transition(ctx, "start", model.State.Start)
}

// PauseMatch suspends the clock.
func (s *Service) PauseMatch(ctx context.Context) (model.State, error) {
	return s.transition(ctx, "pause", model.State.Pause)
}

// ResumeMatch restarts the clock after a pause or half time.
func (s *Service) ResumeMatch(ctx context.Context) (model.State, error) {
	return s.transition(ctx, "resume", model.State.Resume)
}

// SetHalfTime stops the clock for the interval. Once both halves have been
// played only the final whistle is left.
func (s *Service) SetHalfTime(ctx context.Context) (model.State, error) {
	return s.transition(ctx, "half_time", func(st model.State) (model.State, error) {
		return st.SetHalfTime(2 * s.halfLength * 60)
	})
}

// EndMatch blows the final whistle.
func (s *Service) EndMatch(ctx context.Context) (model.State, error) {
	return s.transition(ctx, "end", model.State.End)
}

// AddExtraTime moves the clock forward by whole minutes.
func (s *Service) AddExtraTime(ctx context.Context, minutes int) (model.State, error) {
	return s.transition(ctx, "extra_time", func(st model.State) (model.State, error) {
		return st.AddExtraTime(minutes)
	})
}

func (s *Service) transition(ctx context.Context, op string, fn func(model.State) (model.State, error)) (model.State, error) {
	next, err := s.apply(ctx, op, fn)
	return next.Clone(), err
}

// RecordGoal appends a goal stamped with the current match time.
func (s *Service) RecordGoal(ctx context.Context, team, scorer, assist string, penalty bool) (model.GoalEvent, error) {
	var goal model.GoalEvent
	_, err := s.apply(ctx, "record_goal", func(st model.State) (model.State, error) {
		goal = st.NewGoal(s.newID(), scorer, assist, penalty)
		return st.RecordGoal(team, goal)
	})
	if err != nil {
		return model.GoalEvent{}, err
	}
	metrics.RecordLedgerEvent("goal")
	return goal, nil
}

// DeleteGoal removes a goal by id.
func (s *Service) DeleteGoal(ctx context.Context, team, goalID string) error {
	_, err := s.apply(ctx, "delete_goal", func(st model.State) (model.State, error) {
		return st.DeleteGoal(team, goalID)
	})
	return err
}

// RecordCard books a player.
func (s *Service) RecordCard(ctx context.Context, team string, kind model.CardKind, player string) (model.CardEvent, error) {
	var card model.CardEvent
	_, err := s.apply(ctx, "record_card", func(st model.State) (model.State, error) {
		card = st.NewCard(s.newID(), player)
		return st.RecordCard(team, kind, card)
	})
	if err != nil {
		return model.CardEvent{}, err
	}
	metrics.RecordLedgerEvent(string(kind) + "_card")
	return card, nil
}

// AdjustCounter changes shots, saves or fouls by delta, never going below zero.
// It returns the team's ledger after the change.
func (s *Service) AdjustCounter(ctx context.Context, team string, counter model.Counter, delta int) (model.TeamStats, error) {
	next, err := s.apply(ctx, "adjust_counter", func(st model.State) (model.State, error) {
		return st.AdjustCounter(team, counter, delta)
	})
	if err != nil {
		return model.TeamStats{}, err
	}
	stats, err := next.Clone().Team(team)
	return stats, err
}

// Idempotent runs fn at most once per key. A repeated key replays the first
// result. An empty key always runs fn. A failed fn forgets the key so the
// request can be retried.
func (s *Service) Idempotent(ctx context.Context, key string, fn func() (any, error)) (result any, replayed bool, err error) {
	if key == "" {
		result, err = fn()
		return result, false, err
	}
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordDuplicateRequest()
		if res, ok := s.deduper.Result(ctx, key); ok {
			return res, true, nil
		}
		return nil, true, ErrRequestInFlight
	}
	result, err = fn()
	if err != nil {
		s.deduper.Unrecord(ctx, key)
		return nil, false, err
	}
	s.deduper.Complete(ctx, key, result)
	return result, false, nil
}
