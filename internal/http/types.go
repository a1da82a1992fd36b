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

type Server struct {
	Queue          *queue.Queue
	Ledger         ledger.MatchLedger
	Stats          stats.Aggregator
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Usage          metrics.UsageStore
	Cfg            config.Config
	Notifier       notifier.Notifier
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}
