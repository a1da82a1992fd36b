package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu               sync.Mutex
	queueJoins       int
	matchesCreated   int
	resultsRecorded  int
	resultsEdited    int
	balanceDurations []float64
	slackNotifSent   int
	slackNotifFailed int
	startupTime      float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		balanceDurations: make([]float64, 0),
	}
}

func (m *Mock) IncQueueJoins() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueJoins++
}

func (m *Mock) IncMatchesCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesCreated++
}

func (m *Mock) IncResultsRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultsRecorded++
}

func (m *Mock) IncResultsEdited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultsEdited++
}

func (m *Mock) ObserveBalanceDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balanceDurations = append(m.balanceDurations, duration)
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// QueueJoins returns the number of times IncQueueJoins was called.
func (m *Mock) QueueJoins() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queueJoins
}

// MatchesCreated returns the number of times IncMatchesCreated was called.
func (m *Mock) MatchesCreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesCreated
}

// ResultsRecorded returns the number of times IncResultsRecorded was called.
func (m *Mock) ResultsRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resultsRecorded
}

// ResultsEdited returns the number of times IncResultsEdited was called.
func (m *Mock) ResultsEdited() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resultsEdited
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

// MockUsageStore is a mock implementation of the UsageStore interface.
type MockUsageStore struct {
	mu             sync.Mutex
	RecordHitCalls []string
	AllFunc        func() (map[string]int, error)
}

// NewMockUsageStore creates a new mock usage store.
func NewMockUsageStore() *MockUsageStore {
	return &MockUsageStore{}
}

func (m *MockUsageStore) RecordHit(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordHitCalls = append(m.RecordHitCalls, endpoint)
}

func (m *MockUsageStore) All() (map[string]int, error) {
	if m.AllFunc != nil {
		return m.AllFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, endpoint := range m.RecordHitCalls {
		counts[endpoint]++
	}
	return counts, nil
}
