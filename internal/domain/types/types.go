// Package types contains the read-only views served to spectators.
package types

// Board is the public scoreboard. It is derived from the match state and never stored.
type Board struct {
	InProgress     bool       `json:"in_progress"`
	Phase          string     `json:"phase"`
	PhaseText      string     `json:"phase_text"`
	Clock          string     `json:"clock"`
	ElapsedSeconds int        `json:"elapsed_seconds"`
	Home           TeamPanel  `json:"home"`
	Away           TeamPanel  `json:"away"`
	Stats          []StatLine `json:"stats"`
}

// TeamPanel is one side of the board.
type TeamPanel struct {
	Name      string     `json:"name"`
	Color     string     `json:"color"`
	TextColor string     `json:"text_color"`
	Score     int        `json:"score"`
	Goals     []GoalLine `json:"goals"`
}

// GoalLine is a goal as shown under the score, e.g. "Erik (Olaf) 12'".
type GoalLine struct {
	ID      string `json:"id"`
	Scorer  string `json:"scorer"`
	Assist  string `json:"assist,omitempty"`
	Minute  string `json:"minute"`
	Penalty bool   `json:"penalty"`
	Text    string `json:"text"`
}

// StatLine compares one statistic between the two teams.
// HomeShare is the home percentage of the bar; the away side takes the rest.
type StatLine struct {
	Label     string  `json:"label"`
	Home      int     `json:"home"`
	Away      int     `json:"away"`
	HomeShare float64 `json:"home_share"`
}
