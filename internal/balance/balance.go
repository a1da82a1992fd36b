package balance

import (
	"fmt"
	"math"
	"math/rand"
)

// TeamSize is the number of players on each side.
const TeamSize = 5

// MatchSize is the number of players needed to form a match.
const MatchSize = 2 * TeamSize

// Player is a scored player handed to the partition engine.
type Player struct {
	Name       string  `json:"name"`
	Rank       string  `json:"rank"`
	Points     float64 `json:"points"`
	ExternalID string  `json:"external_id,omitempty"`
}

// Split is the result of partitioning ten players into two teams.
type Split struct {
	TeamA           []Player `json:"team_a"`
	TeamB           []Player `json:"team_b"`
	TeamATotal      float64  `json:"team_a_total"`
	TeamBTotal      float64  `json:"team_b_total"`
	PointDifference float64  `json:"point_difference"`
}

// teamNames is the fixed pool teams are named from. Names are assigned
// independently of partition quality.
var teamNames = []string{
	"Baron Snatchers", "Dragon Dodgers", "Mid or Feed", "Ward Bots",
	"Flash on Cooldown", "Smite Diff", "Gray Screen Gang", "Bush Campers",
	"Minion Muncher Club", "Tilted Turrets", "Nexus Nappers", "Herald Heralds",
	"Jungle Gap", "Cannon Wave Crew", "First Blood Fund",
}

// Split10 partitions exactly ten scored players into two five-player teams
// minimizing the absolute difference of point sums. It is a pure function.
//
// Enumeration is pinned for reproducibility: every 5-subset containing input
// index 0 is generated in lexicographic index order, so each unordered
// bipartition is visited exactly once (126 in total) and ties are broken by
// the first subset found in that order.
func Split10(players []Player) (Split, error) {
	if len(players) != MatchSize {
		return Split{}, fmt.Errorf("need exactly %d players, got %d", MatchSize, len(players))
	}

	bestDiff := math.Inf(1)
	var bestTeamA [TeamSize]int

	// Index 0 is pinned to team A; choose the remaining four from 1..9.
	for a := 1; a <= 6; a++ {
		for b := a + 1; b <= 7; b++ {
			for c := b + 1; c <= 8; c++ {
				for d := c + 1; d <= 9; d++ {
					indices := [TeamSize]int{0, a, b, c, d}
					var teamTotal float64
					for _, i := range indices {
						teamTotal += players[i].Points
					}
					rest := total(players) - teamTotal
					diff := math.Abs(teamTotal - rest)
					if diff < bestDiff {
						bestDiff = diff
						bestTeamA = indices
					}
				}
			}
		}
	}

	split := Split{PointDifference: bestDiff}
	inA := make(map[int]bool, TeamSize)
	for _, i := range bestTeamA {
		inA[i] = true
	}
	for i, p := range players {
		if inA[i] {
			split.TeamA = append(split.TeamA, p)
			split.TeamATotal += p.Points
		} else {
			split.TeamB = append(split.TeamB, p)
			split.TeamBTotal += p.Points
		}
	}
	return split, nil
}

func total(players []Player) float64 {
	var sum float64
	for _, p := range players {
		sum += p.Points
	}
	return sum
}

// TeamNamePair picks two distinct display names from the fixed pool. The two
// names are adjacent entries starting at a random offset.
func TeamNamePair() (string, string) {
	i := rand.Intn(len(teamNames))
	j := (i + 1) % len(teamNames)
	return teamNames[i], teamNames[j]
}
