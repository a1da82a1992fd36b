package stats

import "time"

// StreakType marks whether a player's current streak is wins or losses.
type StreakType string

const (
	StreakWin  StreakType = "WIN"
	StreakLoss StreakType = "LOSS"
	StreakNone StreakType = ""
)

// RecentFormSize is the number of result letters kept per player, oldest
// dropped first.
const RecentFormSize = 5

// PlayerStats is one player's running record.
type PlayerStats struct {
	PlayerName       string     `json:"player_name"`
	ExternalID       string     `json:"external_id,omitempty"`
	DisplayName      string     `json:"display_name"`
	TotalMatches     int        `json:"total_matches"`
	Wins             int        `json:"wins"`
	Losses           int        `json:"losses"`
	WinRate          float64    `json:"win_rate"`
	RecentForm       string     `json:"recent_form"`
	CurrentStreak    int        `json:"current_streak"`
	StreakType       StreakType `json:"streak_type"`
	LongestWinStreak int        `json:"longest_win_streak"`
	LastPlayed       time.Time  `json:"last_played"`
}

// Name returns the display name, falling back to the canonical player name
// when the stored display name is empty or the literal "None".
func (p *PlayerStats) Name() string {
	if p.DisplayName == "" || p.DisplayName == "None" {
		return p.PlayerName
	}
	return p.DisplayName
}

// Metric selects the leaderboard ordering column.
type Metric string

const (
	MetricTotalMatches Metric = "total_matches"
	MetricWins         Metric = "wins"
	MetricLosses       Metric = "losses"
	MetricWinRate      Metric = "win_rate"
)

// ParseMetric maps a caller-supplied metric name to a known column, falling
// back to total matches for anything unrecognized.
func ParseMetric(s string) Metric {
	switch Metric(s) {
	case MetricWins, MetricLosses, MetricWinRate, MetricTotalMatches:
		return Metric(s)
	default:
		return MetricTotalMatches
	}
}
