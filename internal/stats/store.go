package stats

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrPlayerNotFound is returned when no record matches a lookup or merge source.
var ErrPlayerNotFound = errors.New("player not found")

// store handles database operations for player statistics.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new Aggregator backed by the given database.
func New(db *sql.DB) Aggregator {
	return &store{
		db: db,
	}
}

const statsColumns = `player_name, external_id, display_name, total_matches, wins, losses, win_rate, recent_form, current_streak, streak_type, longest_win_streak, last_played`

// Apply records one outcome for a player.
func (s *store) Apply(name, externalID string, won bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.lookupLocked(name, externalID)
	if err != nil && !errors.Is(err, ErrPlayerNotFound) {
		return fmt.Errorf("failed to look up player stats: %w", err)
	}

	now := time.Now()
	if current == nil {
		record := PlayerStats{
			PlayerName:  name,
			ExternalID:  externalID,
			DisplayName: name,
			LastPlayed:  now,
		}
		if won {
			record.Wins = 1
			record.StreakType = StreakWin
			record.LongestWinStreak = 1
		} else {
			record.Losses = 1
			record.StreakType = StreakLoss
		}
		record.TotalMatches = 1
		record.WinRate = winRate(record.Wins, record.TotalMatches)
		record.RecentForm = formLetter(won)
		record.CurrentStreak = 1

		_, err := s.db.Exec(`
			INSERT INTO player_stats (`+statsColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, record.PlayerName, nullable(record.ExternalID), record.DisplayName,
			record.TotalMatches, record.Wins, record.Losses, record.WinRate,
			record.RecentForm, record.CurrentStreak, string(record.StreakType),
			record.LongestWinStreak, record.LastPlayed.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert player stats: %w", err)
		}
		log.Info("Created player stats record", "player", name, "won", won)
		return nil
	}

	current.TotalMatches++
	if won {
		current.Wins++
	} else {
		current.Losses++
	}
	current.WinRate = winRate(current.Wins, current.TotalMatches)

	current.RecentForm += formLetter(won)
	if len(current.RecentForm) > RecentFormSize {
		current.RecentForm = current.RecentForm[len(current.RecentForm)-RecentFormSize:]
	}

	newType := StreakLoss
	if won {
		newType = StreakWin
	}
	if current.StreakType == newType {
		current.CurrentStreak++
	} else {
		current.CurrentStreak = 1
		current.StreakType = newType
	}
	if won && current.CurrentStreak > current.LongestWinStreak {
		current.LongestWinStreak = current.CurrentStreak
	}

	current.LastPlayed = now
	current.DisplayName = name
	// A record first seen by name picks up the external identity once known.
	if current.ExternalID == "" && externalID != "" {
		current.ExternalID = externalID
	}

	return s.updateLocked(current)
}

// Undo reverses one previously applied outcome. Counters floor at zero and
// the last recent-form letter is dropped; streak fields are left as they are.
func (s *store) Undo(name, externalID string, wasWin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.lookupLocked(name, externalID)
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			log.Warn("Undo for unknown player is a no-op", "player", name)
			return nil
		}
		return fmt.Errorf("failed to look up player stats: %w", err)
	}

	current.TotalMatches = max(0, current.TotalMatches-1)
	if wasWin {
		current.Wins = max(0, current.Wins-1)
	} else {
		current.Losses = max(0, current.Losses-1)
	}
	current.WinRate = winRate(current.Wins, current.TotalMatches)
	if current.RecentForm != "" {
		current.RecentForm = current.RecentForm[:len(current.RecentForm)-1]
	}

	return s.updateLocked(current)
}

// Get looks a player up by external identity, then by name, then by display name.
func (s *store) Get(query string) (*PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, clause := range []string{"external_id = ?", "player_name = ?", "display_name = ?"} {
		row := s.db.QueryRow(`SELECT `+statsColumns+` FROM player_stats WHERE `+clause, query)
		record, err := scanStats(row)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to get player stats: %w", err)
		}
	}
	return nil, ErrPlayerNotFound
}

// Leaderboard returns players ordered descending by the metric.
func (s *store) Leaderboard(metric Metric, minGames, limit int) ([]PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// ParseMetric whitelists the column name, so interpolation is safe here.
	query := fmt.Sprintf(`
		SELECT `+statsColumns+`
		FROM player_stats
		WHERE total_matches >= ?
		ORDER BY %s DESC, player_name ASC
	`, ParseMetric(string(metric)))
	args := []any{minGames}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var results []PlayerStats
	for rows.Next() {
		record, err := scanStats(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		results = append(results, *record)
	}
	return results, rows.Err()
}

// CountPlayers returns the number of tracked player records.
func (s *store) CountPlayers() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM player_stats`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return count, nil
}

// Merge folds oldName's record into newName's.
func (s *store) Merge(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin merge transaction: %w", err)
	}
	defer tx.Rollback()

	oldRecord, err := scanStats(tx.QueryRow(`SELECT `+statsColumns+` FROM player_stats WHERE player_name = ?`, oldName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, oldName)
		}
		return fmt.Errorf("failed to load merge source: %w", err)
	}

	newRecord, err := scanStats(tx.QueryRow(`SELECT `+statsColumns+` FROM player_stats WHERE player_name = ?`, newName))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to load merge target: %w", err)
	}

	if newRecord == nil {
		// No target record: rename the source instead of merging.
		_, err := tx.Exec(`UPDATE player_stats SET player_name = ?, display_name = ? WHERE player_name = ?`, newName, newName, oldName)
		if err != nil {
			return fmt.Errorf("failed to rename player: %w", err)
		}
		log.Info("Renamed player stats record", "from", oldName, "to", newName)
		return tx.Commit()
	}

	merged := PlayerStats{
		TotalMatches:     oldRecord.TotalMatches + newRecord.TotalMatches,
		Wins:             oldRecord.Wins + newRecord.Wins,
		Losses:           oldRecord.Losses + newRecord.Losses,
		LongestWinStreak: max(oldRecord.LongestWinStreak, newRecord.LongestWinStreak),
	}
	merged.WinRate = winRate(merged.Wins, merged.TotalMatches)

	_, err = tx.Exec(`
		UPDATE player_stats
		SET total_matches = ?, wins = ?, losses = ?, win_rate = ?, longest_win_streak = ?
		WHERE player_name = ?
	`, merged.TotalMatches, merged.Wins, merged.Losses, merged.WinRate, merged.LongestWinStreak, newName)
	if err != nil {
		return fmt.Errorf("failed to update merge target: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM player_stats WHERE player_name = ?`, oldName); err != nil {
		return fmt.Errorf("failed to delete merge source: %w", err)
	}

	log.Info("Merged player stats records", "from", oldName, "to", newName)
	return tx.Commit()
}

// Clear removes every player record.
func (s *store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM player_stats`)
	if err != nil {
		return fmt.Errorf("failed to clear player stats: %w", err)
	}
	return nil
}

// lookupLocked finds a record by external identity first, then by name.
func (s *store) lookupLocked(name, externalID string) (*PlayerStats, error) {
	if externalID != "" {
		record, err := scanStats(s.db.QueryRow(`SELECT `+statsColumns+` FROM player_stats WHERE external_id = ?`, externalID))
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	record, err := scanStats(s.db.QueryRow(`SELECT `+statsColumns+` FROM player_stats WHERE player_name = ?`, name))
	if err == nil {
		return record, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	return nil, err
}

func (s *store) updateLocked(record *PlayerStats) error {
	_, err := s.db.Exec(`
		UPDATE player_stats
		SET external_id = ?, display_name = ?, total_matches = ?, wins = ?, losses = ?,
			win_rate = ?, recent_form = ?, current_streak = ?, streak_type = ?,
			longest_win_streak = ?, last_played = ?
		WHERE player_name = ?
	`, nullable(record.ExternalID), record.DisplayName, record.TotalMatches, record.Wins,
		record.Losses, record.WinRate, record.RecentForm, record.CurrentStreak,
		string(record.StreakType), record.LongestWinStreak, record.LastPlayed.Unix(),
		record.PlayerName,
	)
	if err != nil {
		return fmt.Errorf("failed to update player stats: %w", err)
	}
	return nil
}

// scanStats scans a single player_stats row.
func scanStats(scanner interface{ Scan(...any) error }) (*PlayerStats, error) {
	var record PlayerStats
	var externalID, displayName, streakType sql.NullString
	var lastPlayed sql.NullInt64

	err := scanner.Scan(
		&record.PlayerName, &externalID, &displayName, &record.TotalMatches,
		&record.Wins, &record.Losses, &record.WinRate, &record.RecentForm,
		&record.CurrentStreak, &streakType, &record.LongestWinStreak, &lastPlayed,
	)
	if err != nil {
		return nil, err
	}

	record.ExternalID = externalID.String
	record.DisplayName = displayName.String
	record.StreakType = StreakType(streakType.String)
	if lastPlayed.Valid {
		record.LastPlayed = time.Unix(lastPlayed.Int64, 0)
	}
	return &record, nil
}

// winRate computes wins/total as a percentage rounded to two decimals.
func winRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(wins)/float64(total)*100*100) / 100
}

func formLetter(won bool) string {
	if won {
		return "W"
	}
	return "L"
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
