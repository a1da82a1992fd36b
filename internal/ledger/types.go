package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Side identifies the winning team of a match.
type Side string

const (
	SideUnset Side = ""
	SideTeam1 Side = "team1"
	SideTeam2 Side = "team2"
)

// ParseSide normalizes a caller-supplied side. Both the stored form
// (team1/team2) and the user-facing form (teama/teamb) are accepted.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "team1", "teama", "a":
		return SideTeam1, nil
	case "team2", "teamb", "b":
		return SideTeam2, nil
	default:
		return SideUnset, fmt.Errorf("invalid side %q", s)
	}
}

// Match is a persisted pairing of two team rosters with an eventual outcome.
// External identities pair with roster names positionally: Team1ExternalIDs[i]
// belongs to Team1Players[i], with an empty string for players who joined
// without one.
type Match struct {
	MatchID          string    `json:"match_id"`
	Team1Name        string    `json:"team1_name"`
	Team2Name        string    `json:"team2_name"`
	Team1Players     []string  `json:"team1_players"`
	Team2Players     []string  `json:"team2_players"`
	Team1ExternalIDs []string  `json:"team1_external_ids"`
	Team2ExternalIDs []string  `json:"team2_external_ids"`
	Winner           Side      `json:"winner,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedBy        string    `json:"updated_by,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`
}

// WinnerName returns the display name of the winning team, or "" if unset.
func (m *Match) WinnerName() string {
	switch m.Winner {
	case SideTeam1:
		return m.Team1Name
	case SideTeam2:
		return m.Team2Name
	default:
		return ""
	}
}

// HeadToHeadMatch is one past encounter between two players on opposing rosters.
type HeadToHeadMatch struct {
	MatchID string    `json:"match_id"`
	Date    time.Time `json:"date"`
	Winner  string    `json:"winner"`
}

// HeadToHead summarizes completed matches where two players faced each other.
type HeadToHead struct {
	Player1       string            `json:"player1"`
	Player2       string            `json:"player2"`
	TotalMatches  int               `json:"total_matches"`
	Player1Wins   int               `json:"player1_wins"`
	Player2Wins   int               `json:"player2_wins"`
	RecentMatches []HeadToHeadMatch `json:"recent_matches"`
}

// TeammateCount is how often another player shared a roster with the queried one.
type TeammateCount struct {
	Name    string `json:"name"`
	Matches int    `json:"matches"`
}

// DailyStats is the activity summary for the current day.
type DailyStats struct {
	MatchesToday   int `json:"matches_today"`
	CompletedToday int `json:"completed_today"`
	TotalPlayers   int `json:"total_players"`
	TotalMatches   int `json:"total_matches"`
}

// PartialApplyError reports a ten-player statistics batch that did not
// complete for every player. The match row itself was updated; the named
// identities were not.
type PartialApplyError struct {
	MatchID string
	Failed  []string
}

func (e *PartialApplyError) Error() string {
	return fmt.Sprintf("match %s: stats update incomplete for %d player(s): %s",
		e.MatchID, len(e.Failed), strings.Join(e.Failed, ", "))
}
