package notifier

import (
	"github.com/leagueofflex/flexqueue/internal/balance"
	"github.com/leagueofflex/flexqueue/internal/ledger"
	"github.com/leagueofflex/flexqueue/internal/queue"
	"github.com/leagueofflex/flexqueue/internal/stats"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For queue activity
	SendQueueUpdate(snapshot *queue.Snapshot, dryRun bool) error
	SendQueueExpired(removed []queue.Player, dryRun bool) error
	// For new matches
	SendMatchCreated(match *ledger.Match, split *balance.Split, dryRun bool) error
	// For recorded results
	SendResultNotification(match *ledger.Match, dryRun bool) error
	// For scheduled leaderboard publication
	SendLeaderboard(entries []stats.PlayerStats, dryRun bool) error

	// For formatting responses for slash commands
	FormatQueueResponse(snapshot *queue.Snapshot) (any, error)
	FormatLeaderboardResponse(entries []stats.PlayerStats) (any, error)
	FormatPlayerStatsResponse(record *stats.PlayerStats, query string) (any, error)
	FormatPlayerNotFoundResponse(query string) (any, error)
}
