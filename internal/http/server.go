package http

import (
	"net/http"

	"github.com/leagueofflex/flexqueue/internal/config"
	"github.com/leagueofflex/flexqueue/internal/ledger"
	"github.com/leagueofflex/flexqueue/internal/metrics"
	"github.com/leagueofflex/flexqueue/internal/notifier"
	"github.com/leagueofflex/flexqueue/internal/pubsub"
	"github.com/leagueofflex/flexqueue/internal/queue"
	"github.com/leagueofflex/flexqueue/internal/stats"
)

func NewServer(q *queue.Queue, matchLedger ledger.MatchLedger, aggregator stats.Aggregator, metricsSvc metrics.Metrics, metricsHandler http.Handler, usage metrics.UsageStore, cfg config.Config, notifier notifier.Notifier, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Queue:          q,
		Ledger:         matchLedger,
		Stats:          aggregator,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Usage:          usage,
		Cfg:            cfg,
		Notifier:       notifier,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// Functional endpoints go through handle, which adds the persistent
	// per-endpoint hit counter on top of the standard middleware chain.
	// Observability endpoints are registered directly and stay uncounted.
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/usage", Chain(s.UsageHandler(), paramsMiddleware))
	s.handle("/queue", s.QueueShowHandler())
	s.handle("/queue/join", s.QueueJoinHandler())
	s.handle("/queue/leave", s.QueueLeaveHandler())
	s.handle("/queue/clear", s.QueueClearHandler())
	s.handle("/teams", s.CreateTeamsHandler())
	s.handle("/match", s.GetMatchHandler())
	s.handle("/matches", s.ListMatchesHandler())
	s.handle("/result", s.ReportResultHandler())
	s.handle("/edit", s.EditResultHandler())
	s.handle("/players", s.LeaderboardHandler())
	s.handle("/head-to-head", s.HeadToHeadHandler())
	s.handle("/teammates", s.TeammatesHandler())
	s.handle("/daily", s.DailyStatsHandler())
	s.handle("/merge", s.MergePlayersHandler())
	s.handle("/clear", s.ClearStoreHandler())
	s.handle("/notify-leaderboard", s.NotifyLeaderboardHandler())
	s.handle("/slack/command/queue", s.QueueCommandHandler())
	s.handle("/slack/command/leaderboard", s.LeaderboardCommandHandler())
	s.handle("/slack/command/player-stats", s.PlayerStatsCommandHandler())
}

// handle registers a handler with the standard middleware chain plus the
// usage counter, keyed by route.
func (s *Server) handle(route string, h http.Handler) {
	s.Router.Handle(route, Chain(h, s.usageMiddleware(route), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
