package simulator

import "time"

// Config holds configuration for a simulated match.
type Config struct {
	BaseURL  string        // Base URL of the service
	Password string        // Admin password
	TeamA    string        // Home team
	TeamB    string        // Away team
	Actions  int           // Ledger actions per half
	Step     time.Duration // Pause between actions
	Timeout  time.Duration // HTTP request timeout
	LogFile  string        // Log file for simulator output
	Verbose  bool          // Log every action
}

// Kind is the type of a scripted action.
type Kind string

// Scripted action kinds.
const (
	KindGoal    Kind = "goal"
	KindCard    Kind = "card"
	KindCounter Kind = "counter"
)

// Action is one scripted ledger call.
type Action struct {
	Kind    Kind
	Team    string
	Player  string
	Assist  string
	Penalty bool
	Card    string // yellow or red
	Counter string // shots, saves or fouls
	Delta   int
	Key     string // Idempotency-Key for goals and cards
	Retry   bool   // send the same request twice
}

// Tally is what the simulator expects the board to show for one team.
type Tally struct {
	Goals       int
	YellowCards int
	RedCards    int
	Shots       int
	Saves       int
	Fouls       int
}

// Stats holds simulator statistics.
type Stats struct {
	ActionsGenerated int
	ActionsPosted    int
	Replays          int
	Failed           int
	Expected         map[string]*Tally
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
