package stats

import "sync"

// MockAggregator is a mock implementation of the Aggregator interface for
// testing. It is safe for concurrent use.
type MockAggregator struct {
	mu sync.Mutex

	// Spies for method calls
	ApplyFunc        func(name, externalID string, won bool) error
	UndoFunc         func(name, externalID string, wasWin bool) error
	GetFunc          func(query string) (*PlayerStats, error)
	LeaderboardFunc  func(metric Metric, minGames, limit int) ([]PlayerStats, error)
	CountPlayersFunc func() (int, error)
	MergeFunc        func(oldName, newName string) error
	ClearFunc        func() error

	// Call records
	ApplyCalls []struct {
		Name       string
		ExternalID string
		Won        bool
	}
	UndoCalls []struct {
		Name       string
		ExternalID string
		WasWin     bool
	}
	GetCalls   []string
	MergeCalls []struct {
		OldName string
		NewName string
	}
}

// NewMock creates a new mock instance.
func NewMock() *MockAggregator {
	return &MockAggregator{}
}

// Reset clears all call records.
func (m *MockAggregator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyCalls = nil
	m.UndoCalls = nil
	m.GetCalls = nil
	m.MergeCalls = nil
}

func (m *MockAggregator) Apply(name, externalID string, won bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyCalls = append(m.ApplyCalls, struct {
		Name       string
		ExternalID string
		Won        bool
	}{name, externalID, won})
	if m.ApplyFunc != nil {
		return m.ApplyFunc(name, externalID, won)
	}
	return nil
}

func (m *MockAggregator) Undo(name, externalID string, wasWin bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UndoCalls = append(m.UndoCalls, struct {
		Name       string
		ExternalID string
		WasWin     bool
	}{name, externalID, wasWin})
	if m.UndoFunc != nil {
		return m.UndoFunc(name, externalID, wasWin)
	}
	return nil
}

func (m *MockAggregator) Get(query string) (*PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls = append(m.GetCalls, query)
	if m.GetFunc != nil {
		return m.GetFunc(query)
	}
	return nil, ErrPlayerNotFound
}

func (m *MockAggregator) Leaderboard(metric Metric, minGames, limit int) ([]PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc(metric, minGames, limit)
	}
	return nil, nil
}

func (m *MockAggregator) CountPlayers() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CountPlayersFunc != nil {
		return m.CountPlayersFunc()
	}
	return 0, nil
}

func (m *MockAggregator) Merge(oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MergeCalls = append(m.MergeCalls, struct {
		OldName string
		NewName string
	}{oldName, newName})
	if m.MergeFunc != nil {
		return m.MergeFunc(oldName, newName)
	}
	return nil
}

func (m *MockAggregator) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearFunc != nil {
		return m.ClearFunc()
	}
	return nil
}
