package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leagueofflex/flexqueue/internal/config"
	"github.com/leagueofflex/flexqueue/internal/database"
	"github.com/leagueofflex/flexqueue/internal/ledger"
	"github.com/leagueofflex/flexqueue/internal/metrics"
	"github.com/leagueofflex/flexqueue/internal/notifier"
	"github.com/leagueofflex/flexqueue/internal/pubsub"
	"github.com/leagueofflex/flexqueue/internal/queue"
	"github.com/leagueofflex/flexqueue/internal/stats"
)

// setupTestServer initializes a new server with a test database and mock clients.
func setupTestServer(t *testing.T) (*Server, *notifier.Mock, *pubsub.MockPubSubClient, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	aggregator := stats.New(db)
	matchLedger := ledger.New(db, aggregator)
	q := queue.New(15*time.Minute, nil)
	cfg := config.Config{}
	notifierMock := notifier.NewMock()
	pubsubMock := pubsub.NewMock("TEST")

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)

	server := NewServer(q, matchLedger, aggregator, metricsSvc, metricsHandler, metrics.NewUsageStore(db), cfg, notifierMock, pubsubMock)

	teardown := func() {
		if dbTeardown != nil {
			dbTeardown()
		}
		db.Close()
	}
	return server, notifierMock, pubsubMock, teardown
}

func postForm(t *testing.T, server *Server, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest("POST", target, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	return rr
}

func joinPlayer(t *testing.T, server *Server, name, rank, userID string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"name": {name}, "rank": {rank}}
	if userID != "" {
		form.Set("user_id", userID)
	}
	return postForm(t, server, "/queue/join", form)
}

func TestHealthCheckHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	req, err := http.NewRequest("GET", "/health", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestQueueJoinHandler(t *testing.T) {
	server, notifierMock, _, teardown := setupTestServer(t)
	defer teardown()

	rr := joinPlayer(t, server, "Alice", "g", "U1")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp joinResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Queue.Players, 1)
	assert.Equal(t, "Alice", resp.Queue.Players[0].Name)
	assert.Equal(t, "G", resp.Queue.Players[0].Rank)
	assert.Nil(t, resp.Match)

	// The new queue state is broadcast.
	require.Len(t, notifierMock.SendQueueUpdateCalls, 1)
	require.Len(t, notifierMock.SendQueueUpdateCalls[0].Players, 1)
	assert.Equal(t, "Alice", notifierMock.SendQueueUpdateCalls[0].Players[0].Name)
}

func TestQueueJoinHandler_Duplicate(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := joinPlayer(t, server, "Alice", "G", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = joinPlayer(t, server, "alice", "G", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestQueueJoinHandler_RankUpdate(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	joinPlayer(t, server, "Alice", "G", "")
	rr := joinPlayer(t, server, "Alice", "P", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp joinResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Queue.Players, 1)
	assert.Equal(t, "P", resp.Queue.Players[0].Rank)
}

func TestQueueJoinHandler_InvalidRank(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := joinPlayer(t, server, "Alice", "ZZ", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestQueueJoinHandler_TenthPlayerFiresMatch(t *testing.T) {
	server, notifierMock, pubsubMock, teardown := setupTestServer(t)
	defer teardown()

	for i := 0; i < 9; i++ {
		rr := joinPlayer(t, server, fmt.Sprintf("Player%d", i), "G", "")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}
	rr := joinPlayer(t, server, "Player9", "G", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp joinResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Match)
	assert.Len(t, resp.Match.MatchID, 6)
	assert.Len(t, resp.Match.Team1Players, 5)
	assert.Len(t, resp.Match.Team2Players, 5)
	assert.Empty(t, resp.Queue.Players, "queue should drain after firing")

	require.Len(t, notifierMock.SendMatchCreatedCalls, 1)
	require.Len(t, pubsubMock.SendMessageCalls, 1)
	assert.Equal(t, string(pubsub.EventMatchCreated), pubsubMock.SendMessageCalls[0].Topic)

	// The firing join announces the match, not another queue update.
	assert.Len(t, notifierMock.SendQueueUpdateCalls, 9)

	// The persisted match must match the response.
	stored, err := server.Ledger.GetMatch(resp.Match.MatchID)
	require.NoError(t, err)
	assert.Equal(t, resp.Match.Team1Players, stored.Team1Players)
}

func TestQueueLeaveHandler(t *testing.T) {
	server, notifierMock, _, teardown := setupTestServer(t)
	defer teardown()

	joinPlayer(t, server, "Alice", "G", "U1")

	rr := postForm(t, server, "/queue/leave", url.Values{"name": {"Alice"}})
	require.Equal(t, http.StatusOK, rr.Code)

	var snapshot queue.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Empty(t, snapshot.Players)

	// One broadcast for the join, one for the leave.
	require.Len(t, notifierMock.SendQueueUpdateCalls, 2)
	assert.Empty(t, notifierMock.SendQueueUpdateCalls[1].Players)
}

func TestQueueLeaveHandler_NotQueued(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := postForm(t, server, "/queue/leave", url.Values{"name": {"Ghost"}})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestQueueClearHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	joinPlayer(t, server, "Alice", "G", "")
	joinPlayer(t, server, "Bob", "S", "")

	req, err := http.NewRequest("POST", "/queue/clear", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Removed 2 player(s) from the queue.", rr.Body.String())
}

func TestCreateTeamsHandler(t *testing.T) {
	server, notifierMock, _, teardown := setupTestServer(t)
	defer teardown()

	entries := make([]teamRequest, 0, 10)
	for i := 0; i < 10; i++ {
		entries = append(entries, teamRequest{Name: fmt.Sprintf("Player%d", i), Rank: "G"})
	}
	body, err := json.Marshal(entries)
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/teams", bytes.NewReader(body))
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var match ledger.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &match))
	assert.Len(t, match.Team1Players, 5)
	assert.Len(t, match.Team2Players, 5)
	assert.Len(t, notifierMock.SendMatchCreatedCalls, 1)
}

func TestCreateTeamsHandler_WrongCount(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	body, err := json.Marshal([]teamRequest{{Name: "Alice", Rank: "G"}})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/teams", bytes.NewReader(body))
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func createTestMatch(t *testing.T, server *Server) *ledger.Match {
	t.Helper()

	match, err := server.Ledger.CreateMatch(
		"Team A", []string{"Alice", "Bob", "Carol", "Dave", "Eve"}, nil,
		"Team B", []string{"Frank", "Grace", "Heidi", "Ivan", "Judy"}, nil,
	)
	require.NoError(t, err)
	return match
}

func TestReportResultHandler(t *testing.T) {
	server, notifierMock, pubsubMock, teardown := setupTestServer(t)
	defer teardown()

	match := createTestMatch(t, server)

	rr := postForm(t, server, "/result", url.Values{
		"matchID":   {match.MatchID},
		"winner":    {"team1"},
		"moderator": {"mod"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp resultResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, ledger.SideTeam1, resp.Match.Winner)
	assert.Empty(t, resp.Failed)

	record, err := server.Stats.Get("Alice")
	require.NoError(t, err)
	assert.Equal(t, 1, record.Wins)

	require.Len(t, notifierMock.SendResultNotificationCalls, 1)
	require.Len(t, pubsubMock.SendMessageCalls, 1)
	assert.Equal(t, string(pubsub.EventResultRecorded), pubsubMock.SendMessageCalls[0].Topic)
}

func TestReportResultHandler_BadWinner(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	match := createTestMatch(t, server)

	rr := postForm(t, server, "/result", url.Values{
		"matchID": {match.MatchID},
		"winner":  {"draw"},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReportResultHandler_NotFound(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := postForm(t, server, "/result", url.Values{
		"matchID": {"NOPE99"},
		"winner":  {"team1"},
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEditResultHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	match := createTestMatch(t, server)

	// Editing before any result is recorded is rejected.
	rr := postForm(t, server, "/edit", url.Values{
		"matchID": {match.MatchID},
		"winner":  {"team2"},
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = postForm(t, server, "/result", url.Values{
		"matchID": {match.MatchID},
		"winner":  {"team1"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postForm(t, server, "/edit", url.Values{
		"matchID":   {match.MatchID},
		"winner":    {"team2"},
		"moderator": {"mod2"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	record, err := server.Stats.Get("Alice")
	require.NoError(t, err)
	assert.Equal(t, 0, record.Wins)
	assert.Equal(t, 1, record.Losses)
}

func TestLeaderboardHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	require.NoError(t, server.Stats.Apply("Alice", "", true))
	require.NoError(t, server.Stats.Apply("Bob", "", false))

	req, err := http.NewRequest("GET", "/players?metric=wins", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var entries []stats.PlayerStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Alice", entries[0].PlayerName)
}

func TestHeadToHeadHandler_MissingParams(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	req, err := http.NewRequest("GET", "/head-to-head?player1=Alice", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTeammatesHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	createTestMatch(t, server)

	req, err := http.NewRequest("GET", "/teammates?player=Alice", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var teammates []ledger.TeammateCount
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &teammates))
	assert.Len(t, teammates, 4)
}

func TestDailyStatsHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	createTestMatch(t, server)

	req, err := http.NewRequest("GET", "/daily", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var daily ledger.DailyStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &daily))
	assert.Equal(t, 1, daily.MatchesToday)
}

func TestMergePlayersHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	require.NoError(t, server.Stats.Apply("Smurf", "", true))

	rr := postForm(t, server, "/merge", url.Values{"old": {"Smurf"}, "new": {"Alice"}})
	require.Equal(t, http.StatusOK, rr.Code)

	record, err := server.Stats.Get("Alice")
	require.NoError(t, err)
	assert.Equal(t, 1, record.Wins)
}

func TestMergePlayersHandler_UnknownSource(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := postForm(t, server, "/merge", url.Values{"old": {"Ghost"}, "new": {"Alice"}})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestClearStoreHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	createTestMatch(t, server)
	require.NoError(t, server.Stats.Apply("Alice", "", true))

	req, err := http.NewRequest("POST", "/clear", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Store cleared!", rr.Body.String())

	matches, err := server.Ledger.AllMatches()
	require.NoError(t, err)
	assert.Empty(t, matches)

	count, err := server.Stats.CountPlayers()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestClearStoreHandler_SingleMatch(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	match := createTestMatch(t, server)
	other := createTestMatch(t, server)

	req, err := http.NewRequest("POST", "/clear?matchID="+match.MatchID, nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	_, err = server.Ledger.GetMatch(match.MatchID)
	assert.ErrorIs(t, err, ledger.ErrMatchNotFound)
	_, err = server.Ledger.GetMatch(other.MatchID)
	assert.NoError(t, err)
}

func TestNotifyLeaderboardHandler(t *testing.T) {
	server, notifierMock, _, teardown := setupTestServer(t)
	defer teardown()

	require.NoError(t, server.Stats.Apply("Alice", "", true))

	req, err := http.NewRequest("POST", "/notify-leaderboard", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, notifierMock.SendLeaderboardCalls, 1)
	assert.Len(t, notifierMock.SendLeaderboardCalls[0], 1)
}

func TestQueueCommandHandler(t *testing.T) {
	server, notifierMock, _, teardown := setupTestServer(t)
	defer teardown()

	notifierMock.FormatQueueResponseFunc = func(snapshot *queue.Snapshot) (any, error) {
		return slack.NewBlockMessage(), nil
	}

	rr := postForm(t, server, "/slack/command/queue", url.Values{})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestPlayerStatsCommandHandler_NotFound(t *testing.T) {
	server, notifierMock, _, teardown := setupTestServer(t)
	defer teardown()

	notFoundCalled := false
	notifierMock.FormatPlayerNotFoundResponseFunc = func(query string) (any, error) {
		notFoundCalled = true
		assert.Equal(t, "Ghost", query)
		return slack.NewBlockMessage(), nil
	}

	rr := postForm(t, server, "/slack/command/player-stats", url.Values{"text": {"Ghost"}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, notFoundCalled, "player-not-found formatter should have been used")
}

func TestUsageCountersTrackEndpoints(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	for i := 0; i < 2; i++ {
		req, err := http.NewRequest("GET", "/queue", nil)
		require.NoError(t, err)
		server.Router.ServeHTTP(httptest.NewRecorder(), req)
	}
	joinPlayer(t, server, "Alice", "G", "")

	req, err := http.NewRequest("GET", "/usage", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var counts map[string]int
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &counts))
	assert.Equal(t, 2, counts["/queue"])
	assert.Equal(t, 1, counts["/queue/join"])

	// Observability endpoints stay out of the counters.
	assert.NotContains(t, counts, "/usage")
	assert.NotContains(t, counts, "/health")
}
