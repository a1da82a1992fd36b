package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	EventMatchCreated   EventType = "match-created"
	EventResultRecorded EventType = "result-recorded"
	EventQueueExpired   EventType = "queue-expired"
)

// MatchCreatedEvent is published when balanced teams have been formed.
type MatchCreatedEvent struct {
	MatchID         string   `msgpack:"match_id"`
	Team1Name       string   `msgpack:"team1_name"`
	Team2Name       string   `msgpack:"team2_name"`
	Team1Players    []string `msgpack:"team1_players"`
	Team2Players    []string `msgpack:"team2_players"`
	PointDifference float64  `msgpack:"point_difference"`
}

// ResultRecordedEvent is published when a match outcome is recorded or edited.
type ResultRecordedEvent struct {
	MatchID   string `msgpack:"match_id"`
	Winner    string `msgpack:"winner"`
	Moderator string `msgpack:"moderator"`
	Edited    bool   `msgpack:"edited"`
}

// QueueExpiredEvent is published when the queue reset timer fires.
type QueueExpiredEvent struct {
	Removed []string `msgpack:"removed"`
}
