package ledger

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/leagueofflex/flexqueue/internal/stats"
)

var (
	// ErrMatchNotFound is returned when no match exists with the given ID.
	ErrMatchNotFound = errors.New("match not found")
	// ErrNoResultToEdit is returned when editing a match whose winner is unset.
	ErrNoResultToEdit = errors.New("match has no result to edit")
)

// matchIDAlphabet is the character set for match IDs: upper-case letters and digits.
const matchIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// matchIDLength is the fixed length of generated match IDs.
const matchIDLength = 6

// store handles database operations for the match ledger.
type store struct {
	db    *sql.DB
	mu    sync.RWMutex
	stats stats.Aggregator
	newID func() (string, error)
}

// New creates a new MatchLedger. Reported outcomes are forwarded to the given
// statistics aggregator.
func New(db *sql.DB, aggregator stats.Aggregator) MatchLedger {
	return &store{
		db:    db,
		stats: aggregator,
		newID: func() (string, error) {
			return gonanoid.Generate(matchIDAlphabet, matchIDLength)
		},
	}
}

// NewWithIDGenerator creates a ledger with a custom match-ID generator.
// Used by tests to force collisions.
func NewWithIDGenerator(db *sql.DB, aggregator stats.Aggregator, newID func() (string, error)) MatchLedger {
	return &store{db: db, stats: aggregator, newID: newID}
}

// CreateMatch persists a new match with no winner and returns it.
func (s *store) CreateMatch(team1Name string, team1Players, team1IDs []string, team2Name string, team2Players, team2IDs []string) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(team1Players) == 0 || len(team2Players) == 0 {
		return nil, fmt.Errorf("both rosters must be non-empty")
	}

	matchID, err := s.uniqueMatchIDLocked()
	if err != nil {
		return nil, err
	}

	match := &Match{
		MatchID:          matchID,
		Team1Name:        team1Name,
		Team2Name:        team2Name,
		Team1Players:     append([]string(nil), team1Players...),
		Team2Players:     append([]string(nil), team2Players...),
		Team1ExternalIDs: padIDs(team1IDs, len(team1Players)),
		Team2ExternalIDs: padIDs(team2IDs, len(team2Players)),
		Winner:           SideUnset,
		CreatedAt:        time.Now(),
	}

	team1PlayersJSON, _ := json.Marshal(match.Team1Players)
	team2PlayersJSON, _ := json.Marshal(match.Team2Players)
	team1IDsJSON, _ := json.Marshal(match.Team1ExternalIDs)
	team2IDsJSON, _ := json.Marshal(match.Team2ExternalIDs)

	_, err = s.db.Exec(`
		INSERT INTO matches (match_id, team1_name, team2_name, team1_players, team2_players, team1_user_ids, team2_user_ids, winner, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?)
	`, match.MatchID, match.Team1Name, match.Team2Name,
		team1PlayersJSON, team2PlayersJSON, team1IDsJSON, team2IDsJSON,
		match.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	log.Info("Created match", "matchID", match.MatchID, "team1", team1Name, "team2", team2Name)
	return match, nil
}

// uniqueMatchIDLocked draws IDs until one does not collide with an existing match.
func (s *store) uniqueMatchIDLocked() (string, error) {
	for {
		id, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("failed to generate match id: %w", err)
		}
		var exists int
		err = s.db.QueryRow(`SELECT 1 FROM matches WHERE match_id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check match id uniqueness: %w", err)
		}
		log.Warn("Match ID collision, regenerating", "matchID", id)
	}
}

// GetMatch retrieves a match by ID.
func (s *store) GetMatch(matchID string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getMatchLocked(matchID)
}

// ReportResult records a winner, applying (and on edit, first undoing) the
// outcome for every player on both rosters.
func (s *store) ReportResult(matchID string, winner Side, moderator string) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyResultLocked(matchID, winner, moderator, false)
}

// EditResult is ReportResult restricted to matches with an existing winner.
func (s *store) EditResult(matchID string, winner Side, moderator string) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyResultLocked(matchID, winner, moderator, true)
}

func (s *store) applyResultLocked(matchID string, winner Side, moderator string, requireExisting bool) (*Match, error) {
	if winner != SideTeam1 && winner != SideTeam2 {
		return nil, fmt.Errorf("invalid winning side %q", winner)
	}

	match, err := s.getMatchLocked(matchID)
	if err != nil {
		return nil, err
	}
	if requireExisting && match.Winner == SideUnset {
		return nil, ErrNoResultToEdit
	}

	journalID := uuid.New().String()
	startedAt := time.Now()
	_, err = s.db.Exec(`
		INSERT INTO match_update_journal (id, match_id, previous_winner, new_winner, moderator, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, journalID, matchID, string(match.Winner), string(winner), moderator, startedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to journal result update: %w", err)
	}

	// Every player is attempted independently; failures are collected so a
	// partial batch is reported instead of silently losing a subset.
	var failed []string

	if match.Winner != SideUnset {
		prevWinnerNames, prevWinnerIDs, prevLoserNames, prevLoserIDs := match.rosters(match.Winner)
		failed = append(failed, s.undoBatch(prevWinnerNames, prevWinnerIDs, true)...)
		failed = append(failed, s.undoBatch(prevLoserNames, prevLoserIDs, false)...)
	}

	winnerNames, winnerIDs, loserNames, loserIDs := match.rosters(winner)
	failed = append(failed, s.applyBatch(winnerNames, winnerIDs, true)...)
	failed = append(failed, s.applyBatch(loserNames, loserIDs, false)...)

	now := time.Now()
	_, err = s.db.Exec(`
		UPDATE matches SET winner = ?, updated_by = ?, updated_at = ? WHERE match_id = ?
	`, string(winner), moderator, now.Unix(), matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to update match result: %w", err)
	}

	var failedJSON any
	if len(failed) > 0 {
		b, _ := json.Marshal(failed)
		failedJSON = string(b)
	}
	_, err = s.db.Exec(`
		UPDATE match_update_journal SET completed_at = ?, failed_players = ? WHERE id = ?
	`, now.Unix(), failedJSON, journalID)
	if err != nil {
		log.Error("Failed to complete journal entry", "error", err, "journalID", journalID)
	}

	match.Winner = winner
	match.UpdatedBy = moderator
	match.UpdatedAt = now

	if len(failed) > 0 {
		return match, &PartialApplyError{MatchID: matchID, Failed: failed}
	}
	log.Info("Recorded match result", "matchID", matchID, "winner", winner, "moderator", moderator)
	return match, nil
}

// applyBatch applies one outcome to every roster slot, returning the
// identities that failed.
func (s *store) applyBatch(names, ids []string, won bool) []string {
	var failed []string
	for i, name := range names {
		if err := s.stats.Apply(name, slotID(ids, i), won); err != nil {
			log.Error("Failed to apply player outcome", "player", name, "error", err)
			failed = append(failed, name)
		}
	}
	return failed
}

// undoBatch reverses one outcome for every roster slot.
func (s *store) undoBatch(names, ids []string, wasWin bool) []string {
	var failed []string
	for i, name := range names {
		if err := s.stats.Undo(name, slotID(ids, i), wasWin); err != nil {
			log.Error("Failed to undo player outcome", "player", name, "error", err)
			failed = append(failed, name)
		}
	}
	return failed
}

// rosters splits the match into (winnerNames, winnerIDs, loserNames, loserIDs)
// for a given winning side, preserving the positional name/ID pairing.
func (m *Match) rosters(winner Side) ([]string, []string, []string, []string) {
	if winner == SideTeam1 {
		return m.Team1Players, m.Team1ExternalIDs, m.Team2Players, m.Team2ExternalIDs
	}
	return m.Team2Players, m.Team2ExternalIDs, m.Team1Players, m.Team1ExternalIDs
}

// AllMatches returns every match, newest first.
func (s *store) AllMatches() ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(matchSelect + ` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()
	return scanMatches(rows)
}

// HeadToHead scans completed matches for the two players on opposing rosters.
func (s *store) HeadToHead(player1, player2 string) (*HeadToHead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(matchSelect + ` WHERE winner IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed matches: %w", err)
	}
	defer rows.Close()

	matches, err := scanMatches(rows)
	if err != nil {
		return nil, err
	}

	result := &HeadToHead{Player1: player1, Player2: player2}
	for _, match := range matches {
		p1Team1 := rosterContains(match.Team1Players, player1)
		p1Team2 := rosterContains(match.Team2Players, player1)
		p2Team1 := rosterContains(match.Team1Players, player2)
		p2Team2 := rosterContains(match.Team2Players, player2)

		// Only matches where they faced each other count.
		if !((p1Team1 && p2Team2) || (p1Team2 && p2Team1)) {
			continue
		}

		result.TotalMatches++
		p1Won := (p1Team1 && match.Winner == SideTeam1) || (p1Team2 && match.Winner == SideTeam2)
		winner := player2
		if p1Won {
			result.Player1Wins++
			winner = player1
		} else {
			result.Player2Wins++
		}
		result.RecentMatches = append(result.RecentMatches, HeadToHeadMatch{
			MatchID: match.MatchID,
			Date:    match.CreatedAt,
			Winner:  winner,
		})
	}

	sort.Slice(result.RecentMatches, func(i, j int) bool {
		return result.RecentMatches[i].Date.After(result.RecentMatches[j].Date)
	})
	if len(result.RecentMatches) > 5 {
		result.RecentMatches = result.RecentMatches[:5]
	}
	return result, nil
}

// MostPlayedWith counts same-roster co-occurrence across all matches.
func (s *store) MostPlayedWith(player string) ([]TeammateCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(matchSelect)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches, err := scanMatches(rows)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, match := range matches {
		var team []string
		if rosterContains(match.Team1Players, player) {
			team = match.Team1Players
		} else if rosterContains(match.Team2Players, player) {
			team = match.Team2Players
		} else {
			continue
		}
		for _, teammate := range team {
			if teammate != "" && !strings.EqualFold(teammate, player) {
				counts[teammate]++
			}
		}
	}

	results := make([]TeammateCount, 0, len(counts))
	for name, count := range counts {
		results = append(results, TeammateCount{Name: name, Matches: count})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Matches != results[j].Matches {
			return results[i].Matches > results[j].Matches
		}
		return results[i].Name < results[j].Name
	})
	if len(results) > 10 {
		results = results[:10]
	}
	return results, nil
}

// DailyStats summarizes today's activity.
func (s *store) DailyStats() (*DailyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	result := &DailyStats{}
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN winner IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM matches WHERE created_at >= ? AND created_at < ?
	`, dayStart.Unix(), dayEnd.Unix()).Scan(&result.MatchesToday, &result.CompletedToday)
	if err != nil {
		return nil, fmt.Errorf("failed to count today's matches: %w", err)
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&result.TotalMatches); err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}

	players, err := s.stats.CountPlayers()
	if err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}
	result.TotalPlayers = players
	return result, nil
}

// ClearMatch removes a single match and its journal entries.
func (s *store) ClearMatch(matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM match_update_journal WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("failed to clear match journal: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM matches WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("failed to clear match: %w", err)
	}
	log.Info("Cleared match", "matchID", matchID)
	return nil
}

// Clear removes every match record.
func (s *store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM match_update_journal`); err != nil {
		return fmt.Errorf("failed to clear journal: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM matches`); err != nil {
		return fmt.Errorf("failed to clear matches: %w", err)
	}
	return nil
}

const matchSelect = `
	SELECT match_id, team1_name, team2_name, team1_players, team2_players, team1_user_ids, team2_user_ids, winner, created_at, updated_by, updated_at
	FROM matches`

func (s *store) getMatchLocked(matchID string) (*Match, error) {
	row := s.db.QueryRow(matchSelect+` WHERE match_id = ?`, matchID)
	match, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	return match, err
}

// scanMatch is a helper to scan a single match row.
func scanMatch(scanner interface{ Scan(...any) error }) (*Match, error) {
	var match Match
	var team1Players, team2Players, team1IDs, team2IDs []byte
	var winner, updatedBy sql.NullString
	var createdAt int64
	var updatedAt sql.NullInt64

	err := scanner.Scan(
		&match.MatchID, &match.Team1Name, &match.Team2Name,
		&team1Players, &team2Players, &team1IDs, &team2IDs,
		&winner, &createdAt, &updatedBy, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	unmarshalRoster(team1Players, &match.Team1Players, match.MatchID)
	unmarshalRoster(team2Players, &match.Team2Players, match.MatchID)
	unmarshalRoster(team1IDs, &match.Team1ExternalIDs, match.MatchID)
	unmarshalRoster(team2IDs, &match.Team2ExternalIDs, match.MatchID)

	match.Winner = Side(winner.String)
	match.CreatedAt = time.Unix(createdAt, 0)
	match.UpdatedBy = updatedBy.String
	if updatedAt.Valid {
		match.UpdatedAt = time.Unix(updatedAt.Int64, 0)
	}
	return &match, nil
}

func scanMatches(rows *sql.Rows) ([]*Match, error) {
	var matches []*Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

// padIDs copies ids and pads with empty strings up to the roster length, so
// the positional pairing survives storage.
func padIDs(ids []string, rosterLen int) []string {
	padded := make([]string, rosterLen)
	copy(padded, ids)
	return padded
}

// slotID returns the external identity for a roster slot, or "" when absent.
func slotID(ids []string, i int) string {
	if i < len(ids) {
		return ids[i]
	}
	return ""
}

func unmarshalRoster(blob []byte, target *[]string, matchID string) {
	if len(blob) == 0 {
		return
	}
	if err := json.Unmarshal(blob, target); err != nil {
		log.Error("Failed to unmarshal roster blob", "error", err, "matchID", matchID)
	}
}

func rosterContains(roster []string, player string) bool {
	for _, name := range roster {
		if strings.EqualFold(name, player) {
			return true
		}
	}
	return false
}
