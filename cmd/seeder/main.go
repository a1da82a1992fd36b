package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	gonanoid "github.com/matoous/go-nanoid/v2"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := make(map[string]string)
	required := []string{"TURSO_PRIMARY_URL", "TURSO_AUTH_TOKEN"}

	for _, key := range required {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		} else {
			log.Fatalf("Error: Required environment variable %s is not set.", key)
		}
	}
	return config
}

var seedPlayers = []string{
	"Seeder Player A", "Seeder Player B", "Seeder Player C", "Seeder Player D",
	"Seeder Player E", "Seeder Player F", "Seeder Player G", "Seeder Player H",
	"Seeder Player I", "Seeder Player J",
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	// Connect directly to the primary database
	dbURL := fmt.Sprintf("%s?authToken=%s", cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	db, err := sql.Open("libsql", dbURL)
	if err != nil {
		log.Fatalf("Failed to open primary database: %s", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to primary database: %s", err)
	}

	log.Info("Successfully connected to the primary database.")

	const batchSize = 100 // Insert 100 matches at a time
	const numMatches = 10000

	log.Info("Preparing to insert dummy matches...", "total", numMatches, "batch_size", batchSize)
	startTime := time.Now()

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("Failed to begin transaction: %s", err)
	}

	wins := make(map[string]int)
	losses := make(map[string]int)

	valueStrings := make([]string, 0, batchSize)
	valueArgs := make([]interface{}, 0, batchSize*9) // 9 columns per match

	for i := 0; i < numMatches; i++ {
		matchID, err := gonanoid.Generate("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", 6)
		if err != nil {
			tx.Rollback()
			log.Fatalf("Failed to generate match ID: %s", err)
		}
		matchTime := time.Now().Add(-time.Duration(rand.Intn(365*24)) * time.Hour)

		shuffled := append([]string(nil), seedPlayers...)
		rand.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		team1 := shuffled[:5]
		team2 := shuffled[5:]
		winner := "team1"
		winners, losers := team1, team2
		if rand.Intn(2) == 1 {
			winner = "team2"
			winners, losers = team2, team1
		}
		for _, name := range winners {
			wins[name]++
		}
		for _, name := range losers {
			losses[name]++
		}

		team1Blob, _ := json.Marshal(team1)
		team2Blob, _ := json.Marshal(team2)
		emptyIDs, _ := json.Marshal(make([]string, 5))

		valueStrings = append(valueStrings, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		valueArgs = append(valueArgs,
			matchID,
			"Seeded Alpha",
			"Seeded Beta",
			team1Blob,
			team2Blob,
			emptyIDs,
			emptyIDs,
			winner,
			matchTime.Unix(),
		)

		if (i+1)%batchSize == 0 || (i+1) == numMatches {
			stmt := fmt.Sprintf(`
				INSERT INTO matches (match_id, team1_name, team2_name, team1_players, team2_players,
					team1_user_ids, team2_user_ids, winner, created_at)
				VALUES %s;`, strings.Join(valueStrings, ","))

			_, err := tx.Exec(stmt, valueArgs...)
			if err != nil {
				tx.Rollback()
				log.Fatalf("Failed to execute batch insert: %s", err)
			}

			// Reset for the next batch
			valueStrings = make([]string, 0, batchSize)
			valueArgs = make([]interface{}, 0, batchSize*9)
			log.Info("Inserted batch", "completed", i+1, "total", numMatches)
		}
	}

	// Matching aggregate rows so the leaderboard has data out of the box.
	for _, name := range seedPlayers {
		total := wins[name] + losses[name]
		winRate := 0.0
		if total > 0 {
			winRate = float64(wins[name]) / float64(total) * 100
		}
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO player_stats (player_name, display_name, total_matches, wins, losses, win_rate, recent_form, current_streak, streak_type, longest_win_streak, last_played)
			VALUES (?, ?, ?, ?, ?, ?, '', 0, '', 0, ?)
		`, name, name, total, wins[name], losses[name], winRate, time.Now().Unix())
		if err != nil {
			tx.Rollback()
			log.Fatalf("Failed to upsert player stats for %s: %s", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %s", err)
	}

	duration := time.Since(startTime)
	log.Info("Successfully inserted all dummy matches.", "duration", duration)
}
