package notifier

import (
	"sync"

	"github.com/leagueofflex/flexqueue/internal/balance"
	"github.com/leagueofflex/flexqueue/internal/ledger"
	"github.com/leagueofflex/flexqueue/internal/queue"
	"github.com/leagueofflex/flexqueue/internal/stats"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	SendQueueUpdateCalls  []*queue.Snapshot
	SendQueueExpiredCalls [][]queue.Player
	SendMatchCreatedCalls []struct {
		Match *ledger.Match
		Split *balance.Split
	}
	SendResultNotificationCalls []*ledger.Match
	SendLeaderboardCalls        [][]stats.PlayerStats

	// Spies for send functions
	SendQueueUpdateFunc        func(snapshot *queue.Snapshot, dryRun bool) error
	SendMatchCreatedFunc       func(match *ledger.Match, split *balance.Split, dryRun bool) error
	SendResultNotificationFunc func(match *ledger.Match, dryRun bool) error

	// Spies for format functions
	FormatQueueResponseFunc          func(snapshot *queue.Snapshot) (any, error)
	FormatLeaderboardResponseFunc    func(entries []stats.PlayerStats) (any, error)
	FormatPlayerStatsResponseFunc    func(record *stats.PlayerStats, query string) (any, error)
	FormatPlayerNotFoundResponseFunc func(query string) (any, error)
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendQueueUpdateCalls = nil
	m.SendQueueExpiredCalls = nil
	m.SendMatchCreatedCalls = nil
	m.SendResultNotificationCalls = nil
	m.SendLeaderboardCalls = nil
}

func (m *Mock) SendQueueUpdate(snapshot *queue.Snapshot, dryRun bool) error {
	m.mu.Lock()
	m.SendQueueUpdateCalls = append(m.SendQueueUpdateCalls, snapshot)
	m.mu.Unlock()
	if m.SendQueueUpdateFunc != nil {
		return m.SendQueueUpdateFunc(snapshot, dryRun)
	}
	return nil
}

func (m *Mock) SendQueueExpired(removed []queue.Player, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendQueueExpiredCalls = append(m.SendQueueExpiredCalls, removed)
	return nil
}

func (m *Mock) SendMatchCreated(match *ledger.Match, split *balance.Split, dryRun bool) error {
	m.mu.Lock()
	m.SendMatchCreatedCalls = append(m.SendMatchCreatedCalls, struct {
		Match *ledger.Match
		Split *balance.Split
	}{match, split})
	m.mu.Unlock()
	if m.SendMatchCreatedFunc != nil {
		return m.SendMatchCreatedFunc(match, split, dryRun)
	}
	return nil
}

func (m *Mock) SendResultNotification(match *ledger.Match, dryRun bool) error {
	m.mu.Lock()
	m.SendResultNotificationCalls = append(m.SendResultNotificationCalls, match)
	m.mu.Unlock()
	if m.SendResultNotificationFunc != nil {
		return m.SendResultNotificationFunc(match, dryRun)
	}
	return nil
}

func (m *Mock) SendLeaderboard(entries []stats.PlayerStats, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, entries)
	return nil
}

func (m *Mock) FormatQueueResponse(snapshot *queue.Snapshot) (any, error) {
	if m.FormatQueueResponseFunc != nil {
		return m.FormatQueueResponseFunc(snapshot)
	}
	return "formatted_queue", nil
}

func (m *Mock) FormatLeaderboardResponse(entries []stats.PlayerStats) (any, error) {
	if m.FormatLeaderboardResponseFunc != nil {
		return m.FormatLeaderboardResponseFunc(entries)
	}
	return "formatted_leaderboard", nil
}

func (m *Mock) FormatPlayerStatsResponse(record *stats.PlayerStats, query string) (any, error) {
	if m.FormatPlayerStatsResponseFunc != nil {
		return m.FormatPlayerStatsResponseFunc(record, query)
	}
	return "formatted_player_stats", nil
}

func (m *Mock) FormatPlayerNotFoundResponse(query string) (any, error) {
	if m.FormatPlayerNotFoundResponseFunc != nil {
		return m.FormatPlayerNotFoundResponseFunc(query)
	}
	return "formatted_player_not_found", nil
}
