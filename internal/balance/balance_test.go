package balance_test

import (
	"math"
	"math/bits"
	"math/rand"
	"testing"

	"github.com/leagueofflex/flexqueue/internal/balance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bruteForceMinDiff checks every 5-of-10 bitmask and returns the true minimum
// point difference. Used as an oracle against the engine's pinned enumeration.
func bruteForceMinDiff(points []float64) float64 {
	var total float64
	for _, p := range points {
		total += p
	}

	best := math.Inf(1)
	for mask := 0; mask < 1<<10; mask++ {
		if bits.OnesCount(uint(mask)) != 5 {
			continue
		}
		var sum float64
		for i := 0; i < 10; i++ {
			if mask&(1<<i) != 0 {
				sum += points[i]
			}
		}
		diff := math.Abs(sum - (total - sum))
		if diff < best {
			best = diff
		}
	}
	return best
}

func makePlayers(points []float64) []balance.Player {
	players := make([]balance.Player, len(points))
	for i, p := range points {
		players[i] = balance.Player{Name: string(rune('A' + i)), Rank: "G", Points: p}
	}
	return players
}

func TestSplit10RequiresTenPlayers(t *testing.T) {
	_, err := balance.Split10(makePlayers([]float64{1, 2, 3}))
	assert.Error(t, err)

	_, err = balance.Split10(makePlayers(make([]float64, 11)))
	assert.Error(t, err)
}

func TestSplit10MatchesBruteForceOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		points := make([]float64, 10)
		for i := range points {
			// Point values in the shape of the rank table: 1.0 to 30.0 in half steps.
			points[i] = 1 + 0.5*float64(rng.Intn(59))
		}

		split, err := balance.Split10(makePlayers(points))
		require.NoError(t, err)

		expected := bruteForceMinDiff(points)
		assert.InDelta(t, expected, split.PointDifference, 1e-9, "points: %v", points)
	}
}

func TestSplit10DistinctPointsScenario(t *testing.T) {
	split, err := balance.Split10(makePlayers([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))
	require.NoError(t, err)

	// Total is 55, so the best any split can do is 27 vs 28.
	assert.InDelta(t, 1.0, split.PointDifference, 1e-9)
	assert.Len(t, split.TeamA, 5)
	assert.Len(t, split.TeamB, 5)
	assert.InDelta(t, 55.0, split.TeamATotal+split.TeamBTotal, 1e-9)
	assert.InDelta(t, split.PointDifference, math.Abs(split.TeamATotal-split.TeamBTotal), 1e-9)
}

func TestSplit10IsDeterministic(t *testing.T) {
	// All-equal points tie across every bipartition; the pinned enumeration
	// order must pick the same split every time.
	points := []float64{8, 8, 8, 8, 8, 8, 8, 8, 8, 8}

	first, err := balance.Split10(makePlayers(points))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := balance.Split10(makePlayers(points))
		require.NoError(t, err)
		assert.Equal(t, first.TeamA, again.TeamA)
		assert.Equal(t, first.TeamB, again.TeamB)
	}
}

func TestSplit10RostersAreDisjointAndComplete(t *testing.T) {
	split, err := balance.Split10(makePlayers([]float64{3, 5, 8, 11, 13, 15, 17, 19, 24, 30}))
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, p := range append(append([]balance.Player{}, split.TeamA...), split.TeamB...) {
		assert.False(t, seen[p.Name], "player %s appears twice", p.Name)
		seen[p.Name] = true
	}
	assert.Len(t, seen, 10)
}

func TestTeamNamePair(t *testing.T) {
	for i := 0; i < 50; i++ {
		a, b := balance.TeamNamePair()
		assert.NotEmpty(t, a)
		assert.NotEmpty(t, b)
		assert.NotEqual(t, a, b)
	}
}
