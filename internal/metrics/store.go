package metrics

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// usageStore counts endpoint hits in the database so the numbers survive
// restarts.
type usageStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewUsageStore creates a database-backed UsageStore.
func NewUsageStore(db *sql.DB) UsageStore {
	return &usageStore{
		db: db,
	}
}

// RecordHit increments the counter for an endpoint, creating it on first hit.
// Failures are logged and swallowed; usage counting never fails a request.
func (s *usageStore) RecordHit(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO endpoint_usage (endpoint, hits) VALUES (?, 1)
		ON CONFLICT(endpoint) DO UPDATE SET hits = hits + 1;
	`, endpoint)
	if err != nil {
		log.Error("Failed to record endpoint hit", "endpoint", endpoint, "error", err)
		return
	}
	log.Debug("Recorded endpoint hit", "endpoint", endpoint)
}

// All returns every endpoint counter.
func (s *usageStore) All() (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT endpoint, hits FROM endpoint_usage`)
	if err != nil {
		return nil, fmt.Errorf("failed to query endpoint usage: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var endpoint string
		var hits int
		if err := rows.Scan(&endpoint, &hits); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint usage row: %w", err)
		}
		counts[endpoint] = hits
	}
	return counts, rows.Err()
}
