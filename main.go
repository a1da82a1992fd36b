package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/leagueofflex/flexqueue/internal/config"
	"github.com/leagueofflex/flexqueue/internal/database"
	server "github.com/leagueofflex/flexqueue/internal/http"
	"github.com/leagueofflex/flexqueue/internal/ledger"
	"github.com/leagueofflex/flexqueue/internal/metrics"
	"github.com/leagueofflex/flexqueue/internal/notifier/slack"
	"github.com/leagueofflex/flexqueue/internal/pubsub"
	"github.com/leagueofflex/flexqueue/internal/queue"
	"github.com/leagueofflex/flexqueue/internal/stats"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken, cfg.MigrationsDir)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	aggregator := stats.New(db)
	matchLedger := ledger.New(db, aggregator)
	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	usageStore := metrics.NewUsageStore(db)
	notifier := slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, cfg.Slack.ResultsChannelID, cfg.Slack.LeaderboardChannelID, metricsSvc)
	pubsubClient := pubsub.New(cfg.ProjectID)

	q := queue.New(cfg.Queue.ResetTimeout, func(removed []queue.Player) {
		log.Info("Queue reset timer fired", "removed", len(removed))
		if err := notifier.SendQueueExpired(removed, false); err != nil {
			log.Error("Failed to send queue expired notification", "error", err)
		}
		names := make([]string, 0, len(removed))
		for _, p := range removed {
			names = append(names, p.Name)
		}
		if err := pubsubClient.SendMessage(pubsub.EventQueueExpired, pubsub.QueueExpiredEvent{Removed: names}); err != nil {
			log.Error("Failed to publish queue expired event", "error", err)
		}
	})

	s := server.NewServer(
		q,
		matchLedger,
		aggregator,
		metricsSvc,
		metricsHandler,
		usageStore,
		cfg,
		notifier,
		pubsubClient,
	)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		// Create a context with a timeout for the shutdown.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Attempt to gracefully shut down the server.
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
