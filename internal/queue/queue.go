package queue

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Capacity is the number of players that fires a match.
const Capacity = 10

var (
	// ErrAlreadyQueued is returned when a player with the same name (case
	// insensitive) is already in the queue.
	ErrAlreadyQueued = errors.New("player already queued")
	// ErrNotQueued is returned when leaving with a name or identity that is
	// not in the queue.
	ErrNotQueued = errors.New("player not queued")
)

// Queue is the matchmaking queue state machine. All mutation goes through its
// public operations; each runs to completion under the instance lock. The
// queue owns a single cancellable reset timer whose cancellation is
// synchronous with the state change that invalidates it.
type Queue struct {
	mu             sync.Mutex
	players        []Player
	resetAfter     time.Duration
	timer          *time.Timer
	timerGen       uint64
	timerStartedAt time.Time
	onExpire       ExpireFunc
	now            func() time.Time
}

// New creates a queue that resets after the given duration of inactivity.
// onExpire may be nil.
func New(resetAfter time.Duration, onExpire ExpireFunc) *Queue {
	return &Queue{
		resetAfter: resetAfter,
		onExpire:   onExpire,
		now:        time.Now,
	}
}

// Join appends a player to the queue. A case-insensitive name match with the
// same rank fails with ErrAlreadyQueued; re-joining with a different rank
// replaces the existing entry and moves the player to the end of the queue.
// When the queue reaches capacity the first ten players are drained atomically
// and returned; the caller hands them to the partition engine. Otherwise the
// returned slice is nil.
func (q *Queue) Join(p Player) ([]Player, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, existing := range q.players {
		if strings.EqualFold(existing.Name, p.Name) {
			if existing.Rank == p.Rank {
				return nil, ErrAlreadyQueued
			}
			q.players = append(q.players[:i], q.players[i+1:]...)
			log.Info("Player updating rank via re-join", "player", p.Name, "old", existing.Rank, "new", p.Rank)
			break
		}
	}

	p.JoinedAt = q.now()
	q.players = append(q.players, p)
	log.Info("Player joined queue", "player", p.Name, "rank", p.Rank, "size", len(q.players))

	if len(q.players) == 1 {
		q.startTimerLocked()
	}

	if len(q.players) < Capacity {
		return nil, nil
	}

	// Drain and timer cancellation happen inside the same critical section,
	// so an in-flight expiry cannot observe the full queue.
	fired := q.players[:Capacity]
	q.players = append([]Player(nil), q.players[Capacity:]...)
	q.stopTimerLocked()
	if len(q.players) > 0 {
		q.startTimerLocked()
	}
	log.Info("Queue fired a match", "remaining", len(q.players))
	return fired, nil
}

// Leave removes the first player whose name or external identity matches,
// case-insensitively for names. Fails with ErrNotQueued if absent.
func (q *Queue) Leave(nameOrID string) (Player, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, p := range q.players {
		if strings.EqualFold(p.Name, nameOrID) || (p.ExternalID != "" && p.ExternalID == nameOrID) {
			q.players = append(q.players[:i], q.players[i+1:]...)
			if len(q.players) == 0 {
				q.stopTimerLocked()
			}
			log.Info("Player left queue", "player", p.Name, "size", len(q.players))
			return p, nil
		}
	}
	return Player{}, ErrNotQueued
}

// Clear empties the queue and cancels any active timer. It always succeeds
// and returns the number of players removed.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := len(q.players)
	q.players = nil
	q.stopTimerLocked()
	log.Info("Queue cleared", "removed", removed)
	return removed
}

// Len returns the current queue size.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.players)
}

// Snapshot returns a copy of the queue state for display.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	snap := Snapshot{
		Players:  append([]Player(nil), q.players...),
		Capacity: Capacity,
	}
	if q.timer != nil {
		snap.TimerActive = true
		remaining := q.resetAfter - q.now().Sub(q.timerStartedAt)
		if remaining < 0 {
			remaining = 0
		}
		snap.TimerRemaining = remaining
	}
	return snap
}

// startTimerLocked replaces any existing timer with a fresh one. The caller
// must hold the lock.
func (q *Queue) startTimerLocked() {
	q.stopTimerLocked()
	q.timerGen++
	gen := q.timerGen
	q.timerStartedAt = q.now()
	q.timer = time.AfterFunc(q.resetAfter, func() {
		q.expire(gen)
	})
}

// stopTimerLocked cancels the pending timer and invalidates any fire already
// in flight. The caller must hold the lock.
func (q *Queue) stopTimerLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.timerGen++
}

// expire handles a reset timer firing. A stale generation means the timer was
// cancelled between firing and acquiring the lock, and the expiry is a no-op.
func (q *Queue) expire(gen uint64) {
	q.mu.Lock()
	if gen != q.timerGen {
		q.mu.Unlock()
		return
	}
	q.timer = nil
	removed := q.players
	q.players = nil
	q.mu.Unlock()

	if len(removed) == 0 {
		return
	}
	log.Info("Queue reset after inactivity", "removed", len(removed))
	if q.onExpire != nil {
		q.onExpire(removed)
	}
}
