package config

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	// Optional env var with a fallback.
	getEnvOr := func(key, fallback string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		return fallback
	}

	resetTimeout, err := time.ParseDuration(getEnvOr("QUEUE_RESET_TIMEOUT", "15m"))
	if err != nil {
		log.Fatalf("Error: QUEUE_RESET_TIMEOUT is not a valid duration: %s", err)
	}

	cfg := Config{
		DBName:        getEnv("DB_NAME"),
		MigrationsDir: "./migrations",
		Slack: SlackConfig{
			Token:                getEnv("SLACK_BOT_TOKEN"),
			ChannelID:            getEnv("SLACK_CHANNEL_ID"),
			ResultsChannelID:     getEnvOr("SLACK_RESULTS_CHANNEL_ID", ""),
			LeaderboardChannelID: getEnvOr("SLACK_LEADERBOARD_CHANNEL_ID", ""),
		},
		Port: getEnv("PORT"),
		Turso: TursoConfig{
			PrimaryURL: getEnvOr("TURSO_PRIMARY_URL", ""),
			AuthToken:  getEnvOr("TURSO_AUTH_TOKEN", ""),
		},
		Queue: QueueConfig{
			ResetTimeout: resetTimeout,
		},
		ProjectID: getEnv("GCP_PROJECT"),
	}
	return cfg
}
