package ledger

// MatchLedger creates match records and applies reported outcomes to the
// statistics aggregator.
type MatchLedger interface {
	// CreateMatch persists a new match with no winner and returns it. The
	// external ID slices pair positionally with the player slices and may be
	// shorter (missing entries mean no identity).
	CreateMatch(team1Name string, team1Players, team1IDs []string, team2Name string, team2Players, team2IDs []string) (*Match, error)

	// GetMatch retrieves a match by its 6-character ID.
	GetMatch(matchID string) (*Match, error)

	// ReportResult records a winner. On the first report the outcome is
	// applied forward to every player. If a winner was already set, the
	// previous outcome is undone for every player before the new one is
	// applied, even when the winner is unchanged.
	ReportResult(matchID string, winner Side, moderator string) (*Match, error)

	// EditResult is ReportResult restricted to matches that already have a
	// winner; it fails with ErrNoResultToEdit otherwise.
	EditResult(matchID string, winner Side, moderator string) (*Match, error)

	// AllMatches returns every match, newest first.
	AllMatches() ([]*Match, error)

	// HeadToHead scans completed matches for the two players appearing on
	// opposing rosters.
	HeadToHead(player1, player2 string) (*HeadToHead, error)

	// MostPlayedWith counts same-roster co-occurrence across all matches and
	// returns the top teammates, most frequent first.
	MostPlayedWith(player string) ([]TeammateCount, error)

	// DailyStats summarizes today's activity.
	DailyStats() (*DailyStats, error)

	// ClearMatch removes a single match record.
	ClearMatch(matchID string) error

	// Clear removes every match record.
	Clear() error
}
