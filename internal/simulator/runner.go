package simulator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/matchday/pkg/logger"
)

// Run plays one scripted match against the service and verifies the result.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
		Expected: map[string]*Tally{
			config.TeamA: {},
			config.TeamB: {},
		},
	}

	logger.Get().Info(ctx, "starting matchday simulation",
		logger.String("baseURL", config.BaseURL),
		logger.String("teamA", config.TeamA),
		logger.String("teamB", config.TeamB),
		logger.Int("actions", config.Actions),
		logger.Duration("step", config.Step),
		logger.Duration("timeout", config.Timeout))

	client := NewClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Log in and start from a clean match
	if err := prepareMatch(ctx, client, config); err != nil {
		return stats, fmt.Errorf("match setup failed: %w", err)
	}

	// Step 3: First half
	if err := clock(ctx, client, "start"); err != nil {
		return stats, err
	}
	if err := playHalf(ctx, client, config, stats); err != nil {
		return stats, fmt.Errorf("first half failed: %w", err)
	}
	if _, err := client.Do(ctx, http.MethodPost, "/api/match/clock/extra-time", map[string]int{"minutes": ExtraTimeMinutes}, nil, nil); err != nil {
		return stats, fmt.Errorf("extra time failed: %w", err)
	}
	if err := clock(ctx, client, "half-time"); err != nil {
		return stats, err
	}

	// Step 4: Second half
	if err := clock(ctx, client, "resume"); err != nil {
		return stats, err
	}
	if err := playHalf(ctx, client, config, stats); err != nil {
		return stats, fmt.Errorf("second half failed: %w", err)
	}
	if err := clock(ctx, client, "end"); err != nil {
		return stats, err
	}

	// Step 5: Verify what the server recorded
	if err := verifyMatch(ctx, client, config, stats); err != nil {
		return stats, fmt.Errorf("verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStatistics(ctx, stats)
	return stats, nil
}

// checkServiceHealth verifies the service is responding.
func checkServiceHealth(ctx context.Context, client *Client) error {
	var health struct {
		Status string `json:"status"`
	}
	if _, err := client.Do(ctx, http.MethodGet, "/healthz", nil, nil, &health); err != nil {
		return err
	}
	if health.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", health.Status)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// prepareMatch resets the match and selects the teams. A reset signs the
// admin out, so the session is opened again afterwards.
func prepareMatch(ctx context.Context, client *Client, config *Config) error {
	if err := client.Login(ctx, config.Password); err != nil {
		return err
	}
	if _, err := client.Do(ctx, http.MethodPost, "/api/match/reset", map[string]string{"password": config.Password}, nil, nil); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := client.Login(ctx, config.Password); err != nil {
		return err
	}
	teams := map[string]string{"team_a": config.TeamA, "team_b": config.TeamB}
	if _, err := client.Do(ctx, http.MethodPut, "/api/match/teams", teams, nil, nil); err != nil {
		return fmt.Errorf("select teams: %w", err)
	}
	logger.Get().Info(ctx, "match prepared", logger.String("teamA", config.TeamA), logger.String("teamB", config.TeamB))
	return nil
}

func clock(ctx context.Context, client *Client, action string) error {
	if _, err := client.Do(ctx, http.MethodPost, "/api/match/clock/"+action, nil, nil, nil); err != nil {
		return fmt.Errorf("clock %s: %w", action, err)
	}
	logger.Get().Info(ctx, "clock changed", logger.String("action", action))
	return nil
}

// playHalf posts a fresh batch of scripted actions, one per step.
func playHalf(ctx context.Context, client *Client, config *Config, stats *Stats) error {
	actions := generateActions(ctx, config, config.Actions, stats)
	for i, a := range actions {
		if i > 0 && config.Step > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(config.Step):
			}
		}
		if err := postAction(ctx, client, a, stats); err != nil {
			stats.Failed++
			return err
		}
		stats.ActionsPosted++
		stats.Expected[a.Team].add(a)
		if config.Verbose {
			logger.Get().Info(ctx, "action posted",
				logger.String("kind", string(a.Kind)),
				logger.String("team", a.Team),
				logger.String("player", a.Player))
		}
	}
	return nil
}

// postAction sends one action. Goals and cards carry an Idempotency-Key and
// are sometimes sent twice; the second send must be a replay.
func postAction(ctx context.Context, client *Client, a Action, stats *Stats) error {
	base := "/api/match/teams/" + url.PathEscape(a.Team)
	var (
		path string
		body any
	)
	switch a.Kind {
	case KindGoal:
		path = base + "/goals"
		body = map[string]any{"scorer": a.Player, "assist": a.Assist, "penalty": a.Penalty}
	case KindCard:
		path = base + "/cards"
		body = map[string]string{"kind": a.Card, "player": a.Player}
	case KindCounter:
		_, err := client.Do(ctx, http.MethodPost, base+"/counters/"+a.Counter, map[string]int{"delta": a.Delta}, nil, nil)
		return err
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}

	headers := map[string]string{"Idempotency-Key": a.Key}
	code, err := client.Do(ctx, http.MethodPost, path, body, headers, nil)
	if err != nil {
		return err
	}
	if code != StatusCreated {
		return fmt.Errorf("%s: expected status %d, got %d", path, StatusCreated, code)
	}
	if !a.Retry {
		return nil
	}
	code, err = client.Do(ctx, http.MethodPost, path, body, headers, nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusConflict {
			return fmt.Errorf("retry of %s still in flight: %w", a.Key, err)
		}
		return err
	}
	if code != StatusOK {
		return fmt.Errorf("%s: retry was not replayed, got status %d", path, code)
	}
	stats.Replays++
	return nil
}

func (t *Tally) add(a Action) {
	switch a.Kind {
	case KindGoal:
		t.Goals++
	case KindCard:
		if a.Card == "red" {
			t.RedCards++
		} else {
			t.YellowCards++
		}
	case KindCounter:
		switch a.Counter {
		case "shots":
			t.Shots += a.Delta
		case "saves":
			t.Saves += a.Delta
		case "fouls":
			t.Fouls += a.Delta
		}
	}
}

// logFinalStatistics logs the final simulation statistics.
func logFinalStatistics(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "=== FINAL STATISTICS ===")
	logger.Get().Info(ctx, "simulation summary",
		logger.String("duration", stats.Duration.String()),
		logger.Int("actionsGenerated", stats.ActionsGenerated),
		logger.Int("actionsPosted", stats.ActionsPosted),
		logger.Int("replays", stats.Replays),
		logger.Int("failed", stats.Failed))
	for team, t := range stats.Expected {
		logger.Get().Info(ctx, "team totals",
			logger.String("team", team),
			logger.Int("goals", t.Goals),
			logger.Int("yellowCards", t.YellowCards),
			logger.Int("redCards", t.RedCards),
			logger.Int("shots", t.Shots),
			logger.Int("saves", t.Saves),
			logger.Int("fouls", t.Fouls))
	}
}
