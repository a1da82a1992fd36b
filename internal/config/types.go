package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	Slack         SlackConfig
	Turso         TursoConfig
	Queue         QueueConfig
	ProjectID     string
}
type SlackConfig struct {
	Token                string
	ChannelID            string
	ResultsChannelID     string
	LeaderboardChannelID string
}
type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
type QueueConfig struct {
	ResetTimeout time.Duration
}
