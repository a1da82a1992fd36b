package queue

import "time"

// Player is a single entrant in the matchmaking queue.
type Player struct {
	Name       string    `json:"name"`
	Rank       string    `json:"rank"`
	Points     float64   `json:"points"`
	ExternalID string    `json:"external_id,omitempty"`
	JoinedAt   time.Time `json:"joined_at"`
}

// Snapshot is a point-in-time view of the queue for the presentation layer.
type Snapshot struct {
	Players        []Player      `json:"players"`
	Capacity       int           `json:"capacity"`
	TimerActive    bool          `json:"timer_active"`
	TimerRemaining time.Duration `json:"timer_remaining"`
}

// ExpireFunc is called with the removed players when the reset timer fires
// against a non-empty queue.
type ExpireFunc func(removed []Player)
