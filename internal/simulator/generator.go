package simulator

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"

	"github.com/okian/matchday/pkg/logger"
)

// Weights for picking an action kind, out of actionWeightTotal.
const (
	goalWeight        = 2
	cardWeight        = 2
	actionWeightTotal = 10
	redCardOdds       = 6 // one red card in redCardOdds cards
	assistOdds        = 2
	penaltyOdds       = 8
	retryOdds         = 4
	squadSize         = 11
)

var counters = []string{"shots", "saves", "fouls"}

var surnames = []string{
	"Andersen", "Barros", "Costa", "Dembele", "Eriksen", "Fofana",
	"Gomez", "Haaland", "Iwobi", "Jansen", "Kane", "Lukaku",
	"Mendes", "Nkunku", "Okafor", "Pavard", "Quaresma", "Rashford",
}

// randIntn returns a random int in [0, n) using crypto/rand.
func randIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func oneIn(n int) bool {
	return randIntn(n) == 0
}

// squad builds a roster of shirt names for team.
func squad(team string) []string {
	players := make([]string, squadSize)
	for i := range players {
		players[i] = surnames[randIntn(len(surnames))] + " (" + team + ")"
	}
	return players
}

// generateActions scripts count ledger actions split across both teams.
func generateActions(ctx context.Context, config *Config, count int, stats *Stats) []Action {
	rosters := map[string][]string{
		config.TeamA: squad(config.TeamA),
		config.TeamB: squad(config.TeamB),
	}
	teams := []string{config.TeamA, config.TeamB}

	actions := make([]Action, 0, count)
	for range count {
		team := teams[randIntn(len(teams))]
		roster := rosters[team]
		player := roster[randIntn(len(roster))]

		var a Action
		switch roll := randIntn(actionWeightTotal); {
		case roll < goalWeight:
			a = Action{Kind: KindGoal, Team: team, Player: player, Penalty: oneIn(penaltyOdds)}
			if oneIn(assistOdds) {
				a.Assist = roster[randIntn(len(roster))]
			}
		case roll < goalWeight+cardWeight:
			a = Action{Kind: KindCard, Team: team, Player: player, Card: "yellow"}
			if oneIn(redCardOdds) {
				a.Card = "red"
			}
		default:
			a = Action{Kind: KindCounter, Team: team, Counter: counters[randIntn(len(counters))], Delta: 1}
		}
		if a.Kind != KindCounter {
			a.Key = uuid.NewString()
			a.Retry = oneIn(retryOdds)
		}
		actions = append(actions, a)
	}

	stats.ActionsGenerated += len(actions)
	if config.Verbose {
		logger.Get().Debug(ctx, "generated actions", logger.Int("count", len(actions)))
	}
	return actions
}
