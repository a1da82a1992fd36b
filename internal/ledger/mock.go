package ledger

import "sync"

// MockLedger is a mock implementation of the MatchLedger interface for testing.
type MockLedger struct {
	mu sync.Mutex

	CreateMatchFunc    func(team1Name string, team1Players, team1IDs []string, team2Name string, team2Players, team2IDs []string) (*Match, error)
	GetMatchFunc       func(matchID string) (*Match, error)
	ReportResultFunc   func(matchID string, winner Side, moderator string) (*Match, error)
	EditResultFunc     func(matchID string, winner Side, moderator string) (*Match, error)
	AllMatchesFunc     func() ([]*Match, error)
	HeadToHeadFunc     func(player1, player2 string) (*HeadToHead, error)
	MostPlayedWithFunc func(player string) ([]TeammateCount, error)
	DailyStatsFunc     func() (*DailyStats, error)
	ClearMatchFunc     func(matchID string) error
	ClearFunc          func() error

	CreateMatchCalls  []CreateMatchCall
	ReportResultCalls []ResultCall
	EditResultCalls   []ResultCall
	ClearMatchCalls   []string
	ClearCalls        int
}

// CreateMatchCall records the arguments of a CreateMatch invocation.
type CreateMatchCall struct {
	Team1Name    string
	Team1Players []string
	Team2Name    string
	Team2Players []string
}

// ResultCall records the arguments of a ReportResult or EditResult invocation.
type ResultCall struct {
	MatchID   string
	Winner    Side
	Moderator string
}

// NewMock creates a new MockLedger with no-op defaults.
func NewMock() *MockLedger {
	return &MockLedger{}
}

func (m *MockLedger) CreateMatch(team1Name string, team1Players, team1IDs []string, team2Name string, team2Players, team2IDs []string) (*Match, error) {
	m.mu.Lock()
	m.CreateMatchCalls = append(m.CreateMatchCalls, CreateMatchCall{
		Team1Name:    team1Name,
		Team1Players: team1Players,
		Team2Name:    team2Name,
		Team2Players: team2Players,
	})
	m.mu.Unlock()
	if m.CreateMatchFunc != nil {
		return m.CreateMatchFunc(team1Name, team1Players, team1IDs, team2Name, team2Players, team2IDs)
	}
	return &Match{
		MatchID:      "MOCK01",
		Team1Name:    team1Name,
		Team2Name:    team2Name,
		Team1Players: team1Players,
		Team2Players: team2Players,
	}, nil
}

func (m *MockLedger) GetMatch(matchID string) (*Match, error) {
	if m.GetMatchFunc != nil {
		return m.GetMatchFunc(matchID)
	}
	return nil, ErrMatchNotFound
}

func (m *MockLedger) ReportResult(matchID string, winner Side, moderator string) (*Match, error) {
	m.mu.Lock()
	m.ReportResultCalls = append(m.ReportResultCalls, ResultCall{MatchID: matchID, Winner: winner, Moderator: moderator})
	m.mu.Unlock()
	if m.ReportResultFunc != nil {
		return m.ReportResultFunc(matchID, winner, moderator)
	}
	return &Match{MatchID: matchID, Winner: winner, UpdatedBy: moderator}, nil
}

func (m *MockLedger) EditResult(matchID string, winner Side, moderator string) (*Match, error) {
	m.mu.Lock()
	m.EditResultCalls = append(m.EditResultCalls, ResultCall{MatchID: matchID, Winner: winner, Moderator: moderator})
	m.mu.Unlock()
	if m.EditResultFunc != nil {
		return m.EditResultFunc(matchID, winner, moderator)
	}
	return &Match{MatchID: matchID, Winner: winner, UpdatedBy: moderator}, nil
}

func (m *MockLedger) AllMatches() ([]*Match, error) {
	if m.AllMatchesFunc != nil {
		return m.AllMatchesFunc()
	}
	return nil, nil
}

func (m *MockLedger) HeadToHead(player1, player2 string) (*HeadToHead, error) {
	if m.HeadToHeadFunc != nil {
		return m.HeadToHeadFunc(player1, player2)
	}
	return &HeadToHead{Player1: player1, Player2: player2}, nil
}

func (m *MockLedger) MostPlayedWith(player string) ([]TeammateCount, error) {
	if m.MostPlayedWithFunc != nil {
		return m.MostPlayedWithFunc(player)
	}
	return nil, nil
}

func (m *MockLedger) DailyStats() (*DailyStats, error) {
	if m.DailyStatsFunc != nil {
		return m.DailyStatsFunc()
	}
	return &DailyStats{}, nil
}

func (m *MockLedger) ClearMatch(matchID string) error {
	m.mu.Lock()
	m.ClearMatchCalls = append(m.ClearMatchCalls, matchID)
	m.mu.Unlock()
	if m.ClearMatchFunc != nil {
		return m.ClearMatchFunc(matchID)
	}
	return nil
}

func (m *MockLedger) Clear() error {
	m.mu.Lock()
	m.ClearCalls++
	m.mu.Unlock()
	if m.ClearFunc != nil {
		return m.ClearFunc()
	}
	return nil
}

// Reset clears all recorded calls.
func (m *MockLedger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateMatchCalls = nil
	m.ReportResultCalls = nil
	m.EditResultCalls = nil
	m.ClearMatchCalls = nil
	m.ClearCalls = 0
}
