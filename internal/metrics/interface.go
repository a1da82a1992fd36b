package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncQueueJoins()
	IncMatchesCreated()
	IncResultsRecorded()
	IncResultsEdited()
	ObserveBalanceDuration(duration float64)
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}

// UsageStore persists per-endpoint hit counters across restarts, unlike the
// Prometheus counters which reset with the process.
type UsageStore interface {
	RecordHit(endpoint string)
	All() (map[string]int, error)
}
