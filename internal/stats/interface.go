package stats

// Aggregator maintains the per-player running records. Apply and Undo are the
// forward and inverse operations driven by the match ledger; everything else
// is read-side or administrative.
type Aggregator interface {
	// Apply records one outcome for a player, creating the record on first
	// contact. The player is keyed by external identity when one is given,
	// falling back to the name.
	Apply(name, externalID string, won bool) error

	// Undo reverses one previously applied outcome. A missing record is a
	// no-op. Streak fields are not rewound; only counters and the last
	// recent-form letter are.
	Undo(name, externalID string, wasWin bool) error

	// Get looks a player up by external identity, then by name, then by
	// display name. Returns ErrPlayerNotFound when nothing matches.
	Get(query string) (*PlayerStats, error)

	// Leaderboard returns players ordered descending by the metric, skipping
	// players below minGames. limit <= 0 means no limit.
	Leaderboard(metric Metric, minGames, limit int) ([]PlayerStats, error)

	// CountPlayers returns the number of tracked player records.
	CountPlayers() (int, error)

	// Merge folds oldName's record into newName's: totals are summed, the
	// longest win streak is the max of the two, and the old record is
	// deleted. If newName has no record, oldName's record is renamed.
	Merge(oldName, newName string) error

	// Clear removes every player record.
	Clear() error
}
