package queue_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leagueofflex/flexqueue/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func join(t *testing.T, q *queue.Queue, name string, points float64) []queue.Player {
	t.Helper()
	fired, err := q.Join(queue.Player{Name: name, Rank: "G", Points: points})
	require.NoError(t, err)
	return fired
}

func TestJoinRejectsDuplicateNamesCaseInsensitively(t *testing.T) {
	q := queue.New(time.Minute, nil)

	_, err := q.Join(queue.Player{Name: "Alice", Rank: "G", Points: 8})
	require.NoError(t, err)

	_, err = q.Join(queue.Player{Name: "alice", Rank: "G", Points: 8})
	assert.ErrorIs(t, err, queue.ErrAlreadyQueued)
	assert.Equal(t, 1, q.Len())
}

func TestJoinWithNewRankReplacesEntryAndMovesToEnd(t *testing.T) {
	q := queue.New(time.Minute, nil)
	join(t, q, "Alice", 8)
	join(t, q, "Bob", 11)

	_, err := q.Join(queue.Player{Name: "alice", Rank: "P", Points: 11})
	require.NoError(t, err)

	snap := q.Snapshot()
	require.Len(t, snap.Players, 2)
	assert.Equal(t, "Bob", snap.Players[0].Name)
	assert.Equal(t, "alice", snap.Players[1].Name)
	assert.Equal(t, "P", snap.Players[1].Rank)
	assert.Equal(t, 11.0, snap.Players[1].Points)
}

func TestQueueFiresAtCapacity(t *testing.T) {
	q := queue.New(time.Minute, nil)

	for i := 0; i < 9; i++ {
		fired := join(t, q, fmt.Sprintf("player%d", i), float64(i+1))
		assert.Nil(t, fired)
	}
	assert.Equal(t, 9, q.Len())

	fired := join(t, q, "player9", 10)
	require.Len(t, fired, 10)
	assert.Equal(t, 0, q.Len())

	// Drain preserves join order.
	for i, p := range fired {
		assert.Equal(t, fmt.Sprintf("player%d", i), p.Name)
	}

	// Timer was cancelled along with the drain.
	assert.False(t, q.Snapshot().TimerActive)
}

func TestQueueSizeNeverExceedsCapacity(t *testing.T) {
	q := queue.New(time.Minute, nil)

	for i := 0; i < 25; i++ {
		_, err := q.Join(queue.Player{Name: fmt.Sprintf("p%d", i), Points: 5})
		require.NoError(t, err)
		assert.LessOrEqual(t, q.Len(), queue.Capacity)
	}
	// 25 joins fire two matches and leave five behind with a fresh timer.
	assert.Equal(t, 5, q.Len())
	assert.True(t, q.Snapshot().TimerActive)
}

func TestLeave(t *testing.T) {
	q := queue.New(time.Minute, nil)
	join(t, q, "Alice", 8)
	join(t, q, "Bob", 11)

	left, err := q.Leave("ALICE")
	require.NoError(t, err)
	assert.Equal(t, "Alice", left.Name)
	assert.Equal(t, 1, q.Len())

	_, err = q.Leave("Alice")
	assert.ErrorIs(t, err, queue.ErrNotQueued)
}

func TestLeaveByExternalID(t *testing.T) {
	q := queue.New(time.Minute, nil)
	_, err := q.Join(queue.Player{Name: "Alice", Points: 8, ExternalID: "U123"})
	require.NoError(t, err)

	left, err := q.Leave("U123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", left.Name)
}

func TestLeaveThenRejoinMovesToEnd(t *testing.T) {
	q := queue.New(time.Minute, nil)
	join(t, q, "Alice", 8)
	join(t, q, "Bob", 11)

	// Rank updates are modeled as leave + rejoin, which forfeits queue position.
	_, err := q.Leave("Alice")
	require.NoError(t, err)
	join(t, q, "Alice", 19)

	snap := q.Snapshot()
	require.Len(t, snap.Players, 2)
	assert.Equal(t, "Bob", snap.Players[0].Name)
	assert.Equal(t, "Alice", snap.Players[1].Name)
	assert.Equal(t, 19.0, snap.Players[1].Points)
}

func TestClearCancelsTimer(t *testing.T) {
	q := queue.New(time.Minute, nil)
	join(t, q, "Alice", 8)
	assert.True(t, q.Snapshot().TimerActive)

	removed := q.Clear()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, q.Len())
	assert.False(t, q.Snapshot().TimerActive)

	// Clearing an empty queue still succeeds.
	assert.Equal(t, 0, q.Clear())
}

func TestTimerExpiryClearsQueue(t *testing.T) {
	var mu sync.Mutex
	var expired []queue.Player

	q := queue.New(20*time.Millisecond, func(removed []queue.Player) {
		mu.Lock()
		defer mu.Unlock()
		expired = removed
	})

	join(t, q, "Alice", 8)
	join(t, q, "Bob", 11)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(expired) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, q.Len())
}

func TestTimerExpiryAfterLeaveOfLastPlayerIsNoOp(t *testing.T) {
	fired := make(chan struct{}, 1)
	q := queue.New(20*time.Millisecond, func(removed []queue.Player) {
		fired <- struct{}{}
	})

	join(t, q, "Alice", 8)
	_, err := q.Leave("Alice")
	require.NoError(t, err)

	select {
	case <-fired:
		t.Fatal("expiry callback ran after the queue was already emptied")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestSnapshotReportsTimerRemaining(t *testing.T) {
	q := queue.New(time.Minute, nil)
	join(t, q, "Alice", 8)

	snap := q.Snapshot()
	assert.True(t, snap.TimerActive)
	assert.Greater(t, snap.TimerRemaining, 50*time.Second)
	assert.LessOrEqual(t, snap.TimerRemaining, time.Minute)
}
