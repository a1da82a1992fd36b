package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"

	"github.com/leagueofflex/flexqueue/internal/balance"
	"github.com/leagueofflex/flexqueue/internal/ledger"
	"github.com/leagueofflex/flexqueue/internal/pubsub"
	"github.com/leagueofflex/flexqueue/internal/queue"
	"github.com/leagueofflex/flexqueue/internal/ranks"
	"github.com/leagueofflex/flexqueue/internal/stats"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// UsageHandler returns the persisted per-endpoint hit counters.
func (s *Server) UsageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := s.Usage.All()
		if err != nil {
			http.Error(w, "Failed to load usage counters", http.StatusInternalServerError)
			log.Error("Failed to load usage counters", "error", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(counts); err != nil {
			log.Error("Failed to encode usage counters", "error", err)
		}
	}
}

// joinResponse is the payload returned by the queue join endpoint. Match is
// set only when the join filled the queue and fired a match.
type joinResponse struct {
	Queue queue.Snapshot `json:"queue"`
	Match *ledger.Match  `json:"match,omitempty"`
}

func (s *Server) QueueShowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := s.Queue.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			log.Error("Failed to encode queue snapshot", "error", err)
		}
	}
}

func (s *Server) QueueJoinHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		name := r.FormValue("name")
		rank := r.FormValue("rank")
		if name == "" || rank == "" {
			http.Error(w, "Both 'name' and 'rank' are required.", http.StatusBadRequest)
			return
		}

		points, err := ranks.Points(rank)
		if err != nil {
			http.Error(w, fmt.Sprintf("Unknown rank %q", rank), http.StatusBadRequest)
			return
		}

		player := queue.Player{
			Name:       name,
			Rank:       ranks.Normalize(rank),
			Points:     points,
			ExternalID: r.FormValue("user_id"),
		}

		fired, err := s.Queue.Join(player)
		if err != nil {
			if errors.Is(err, queue.ErrAlreadyQueued) {
				http.Error(w, fmt.Sprintf("%s is already in the queue.", name), http.StatusConflict)
				return
			}
			http.Error(w, "Failed to join queue", http.StatusInternalServerError)
			log.Error("Failed to join queue", "error", err, "player", name)
			return
		}
		s.Metrics.IncQueueJoins()
		log.Info("Player joined queue", "player", name, "rank", player.Rank)

		resp := joinResponse{Queue: s.Queue.Snapshot()}
		if fired != nil {
			match, err := s.startMatch(fired, isDryRunFromContext(r))
			if err != nil {
				http.Error(w, "Queue filled but match creation failed", http.StatusInternalServerError)
				log.Error("Failed to create match from full queue", "error", err)
				return
			}
			resp.Match = match
			resp.Queue = s.Queue.Snapshot()
		} else {
			// Broadcast the new queue state. The match announcement covers
			// the fired case.
			if err := s.Notifier.SendQueueUpdate(&resp.Queue, isDryRunFromContext(r)); err != nil {
				log.Error("Failed to send queue update", "error", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error("Failed to encode join response", "error", err)
		}
	}
}

func (s *Server) QueueLeaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		name := r.FormValue("name")
		if name == "" {
			name = r.FormValue("user_id")
		}
		if name == "" {
			http.Error(w, "'name' or 'user_id' is required.", http.StatusBadRequest)
			return
		}

		removed, err := s.Queue.Leave(name)
		if err != nil {
			if errors.Is(err, queue.ErrNotQueued) {
				http.Error(w, fmt.Sprintf("%s is not in the queue.", name), http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to leave queue", http.StatusInternalServerError)
			return
		}
		log.Info("Player left queue", "player", removed.Name)

		snapshot := s.Queue.Snapshot()
		if err := s.Notifier.SendQueueUpdate(&snapshot, isDryRunFromContext(r)); err != nil {
			log.Error("Failed to send queue update", "error", err)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			log.Error("Failed to encode queue snapshot", "error", err)
		}
	}
}

func (s *Server) QueueClearHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed := s.Queue.Clear()
		log.Info("Queue cleared", "removed", removed)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Removed %d player(s) from the queue.", removed)
	}
}

// teamRequest is one player entry in a manual team creation request.
type teamRequest struct {
	Name   string `json:"name"`
	Rank   string `json:"rank"`
	UserID string `json:"user_id,omitempty"`
}

// CreateTeamsHandler balances an explicit list of ten players into two teams
// and records the match, bypassing the queue.
func (s *Server) CreateTeamsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entries []teamRequest
		if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if len(entries) != balance.MatchSize {
			http.Error(w, fmt.Sprintf("Exactly %d players are required, got %d.", balance.MatchSize, len(entries)), http.StatusBadRequest)
			return
		}

		players := make([]queue.Player, 0, len(entries))
		for _, entry := range entries {
			points, err := ranks.Points(entry.Rank)
			if err != nil {
				http.Error(w, fmt.Sprintf("Unknown rank %q for %s", entry.Rank, entry.Name), http.StatusBadRequest)
				return
			}
			players = append(players, queue.Player{
				Name:       entry.Name,
				Rank:       ranks.Normalize(entry.Rank),
				Points:     points,
				ExternalID: entry.UserID,
			})
		}

		match, err := s.startMatch(players, isDryRunFromContext(r))
		if err != nil {
			http.Error(w, "Failed to create match", http.StatusInternalServerError)
			log.Error("Failed to create manual match", "error", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(match); err != nil {
			log.Error("Failed to encode match", "error", err)
		}
	}
}

// startMatch balances ten players, persists the match and fans out
// notifications. Shared by the queue-fire and manual team paths.
func (s *Server) startMatch(players []queue.Player, isDryRun bool) (*ledger.Match, error) {
	candidates := make([]balance.Player, 0, len(players))
	for _, p := range players {
		candidates = append(candidates, balance.Player{
			Name:       p.Name,
			Rank:       p.Rank,
			Points:     p.Points,
			ExternalID: p.ExternalID,
		})
	}

	balanceStart := time.Now()
	split, err := balance.Split10(candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to balance teams: %w", err)
	}
	s.Metrics.ObserveBalanceDuration(time.Since(balanceStart).Seconds())

	team1Name, team2Name := balance.TeamNamePair()
	team1Players, team1IDs := rosterOf(split.TeamA)
	team2Players, team2IDs := rosterOf(split.TeamB)

	match, err := s.Ledger.CreateMatch(team1Name, team1Players, team1IDs, team2Name, team2Players, team2IDs)
	if err != nil {
		return nil, err
	}
	s.Metrics.IncMatchesCreated()

	if err := s.Notifier.SendMatchCreated(match, &split, isDryRun); err != nil {
		log.Error("Failed to send match created notification", "error", err, "matchID", match.MatchID)
	}
	if err := s.pubsub.SendMessage(pubsub.EventMatchCreated, pubsub.MatchCreatedEvent{
		MatchID:         match.MatchID,
		Team1Name:       match.Team1Name,
		Team2Name:       match.Team2Name,
		Team1Players:    match.Team1Players,
		Team2Players:    match.Team2Players,
		PointDifference: split.PointDifference,
	}); err != nil {
		log.Error("Failed to publish match created event", "error", err, "matchID", match.MatchID)
	}

	return match, nil
}

func rosterOf(roster []balance.Player) ([]string, []string) {
	names := make([]string, 0, len(roster))
	ids := make([]string, 0, len(roster))
	for _, p := range roster {
		names = append(names, p.Name)
		ids = append(ids, p.ExternalID)
	}
	return names, ids
}

func (s *Server) GetMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("matchID")
		if matchID == "" {
			http.Error(w, "'matchID' is required.", http.StatusBadRequest)
			return
		}

		match, err := s.Ledger.GetMatch(matchID)
		if err != nil {
			if errors.Is(err, ledger.ErrMatchNotFound) {
				http.Error(w, fmt.Sprintf("No match with ID %s.", matchID), http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to get match", http.StatusInternalServerError)
			log.Error("Failed to get match", "error", err, "matchID", matchID)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(match); err != nil {
			log.Error("Failed to encode match", "error", err)
		}
	}
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := s.Ledger.AllMatches()
		if err != nil {
			http.Error(w, "Failed to get matches", http.StatusInternalServerError)
			log.Error("Failed to get matches from ledger", "error", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(matches); err != nil {
			log.Error("Failed to encode matches to JSON", "error", err)
		}
	}
}

// resultResponse is the payload returned by the result and edit endpoints.
type resultResponse struct {
	Match  *ledger.Match `json:"match"`
	Failed []string      `json:"failed_players,omitempty"`
}

func (s *Server) ReportResultHandler() http.HandlerFunc {
	return s.resultHandler(false)
}

func (s *Server) EditResultHandler() http.HandlerFunc {
	return s.resultHandler(true)
}

func (s *Server) resultHandler(edit bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		matchID := r.FormValue("matchID")
		moderator := r.FormValue("moderator")
		winner, err := ledger.ParseSide(r.FormValue("winner"))
		if matchID == "" || err != nil {
			http.Error(w, "'matchID' and a valid 'winner' (team1/team2) are required.", http.StatusBadRequest)
			return
		}

		apply := s.Ledger.ReportResult
		if edit {
			apply = s.Ledger.EditResult
		}

		match, err := apply(matchID, winner, moderator)
		var partial *ledger.PartialApplyError
		switch {
		case errors.As(err, &partial):
			log.Warn("Result recorded with partial stats failures", "matchID", matchID, "failed", partial.Failed)
		case errors.Is(err, ledger.ErrMatchNotFound):
			http.Error(w, fmt.Sprintf("No match with ID %s.", matchID), http.StatusNotFound)
			return
		case errors.Is(err, ledger.ErrNoResultToEdit):
			http.Error(w, fmt.Sprintf("Match %s has no result to edit yet.", matchID), http.StatusConflict)
			return
		case err != nil:
			http.Error(w, "Failed to record result", http.StatusInternalServerError)
			log.Error("Failed to record result", "error", err, "matchID", matchID)
			return
		}

		if edit {
			s.Metrics.IncResultsEdited()
		} else {
			s.Metrics.IncResultsRecorded()
		}

		isDryRun := isDryRunFromContext(r)
		if err := s.Notifier.SendResultNotification(match, isDryRun); err != nil {
			log.Error("Failed to send result notification", "error", err, "matchID", matchID)
		}
		if err := s.pubsub.SendMessage(pubsub.EventResultRecorded, pubsub.ResultRecordedEvent{
			MatchID:   match.MatchID,
			Winner:    string(match.Winner),
			Moderator: moderator,
			Edited:    edit,
		}); err != nil {
			log.Error("Failed to publish result event", "error", err, "matchID", matchID)
		}

		resp := resultResponse{Match: match}
		if partial != nil {
			resp.Failed = partial.Failed
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error("Failed to encode result response", "error", err)
		}
	}
}

// LeaderboardHandler returns a handler that serves the player statistics leaderboard.
func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metric := stats.ParseMetric(r.URL.Query().Get("metric"))
		minGames, _ := strconv.Atoi(r.URL.Query().Get("min_games"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		entries, err := s.Stats.Leaderboard(metric, minGames, limit)
		if err != nil {
			http.Error(w, "Failed to get player stats", http.StatusInternalServerError)
			log.Error("Failed to get player stats", "error", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			log.Error("Failed to encode player stats to JSON", "error", err)
		}
	}
}

func (s *Server) HeadToHeadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player1 := r.URL.Query().Get("player1")
		player2 := r.URL.Query().Get("player2")
		if player1 == "" || player2 == "" {
			http.Error(w, "Both 'player1' and 'player2' are required.", http.StatusBadRequest)
			return
		}

		h2h, err := s.Ledger.HeadToHead(player1, player2)
		if err != nil {
			http.Error(w, "Failed to get head-to-head", http.StatusInternalServerError)
			log.Error("Failed to get head-to-head", "error", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(h2h); err != nil {
			log.Error("Failed to encode head-to-head", "error", err)
		}
	}
}

func (s *Server) TeammatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player := r.URL.Query().Get("player")
		if player == "" {
			http.Error(w, "'player' is required.", http.StatusBadRequest)
			return
		}

		teammates, err := s.Ledger.MostPlayedWith(player)
		if err != nil {
			http.Error(w, "Failed to get teammates", http.StatusInternalServerError)
			log.Error("Failed to get teammates", "error", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(teammates); err != nil {
			log.Error("Failed to encode teammates", "error", err)
		}
	}
}

func (s *Server) DailyStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		daily, err := s.Ledger.DailyStats()
		if err != nil {
			http.Error(w, "Failed to get daily stats", http.StatusInternalServerError)
			log.Error("Failed to get daily stats", "error", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(daily); err != nil {
			log.Error("Failed to encode daily stats", "error", err)
		}
	}
}

func (s *Server) MergePlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		oldName := r.FormValue("old")
		newName := r.FormValue("new")
		if oldName == "" || newName == "" {
			http.Error(w, "Both 'old' and 'new' are required.", http.StatusBadRequest)
			return
		}

		if err := s.Stats.Merge(oldName, newName); err != nil {
			if errors.Is(err, stats.ErrPlayerNotFound) {
				http.Error(w, fmt.Sprintf("No stats for player %s.", oldName), http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to merge players", http.StatusInternalServerError)
			log.Error("Failed to merge players", "error", err, "old", oldName, "new", newName)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Merged %s into %s.", oldName, newName)
	}
}

func (s *Server) ClearStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("matchID")
		if matchID != "" {
			log.Info("Received request to clear a specific match", "matchID", matchID)
			if err := s.Ledger.ClearMatch(matchID); err != nil {
				http.Error(w, "Failed to clear match", http.StatusInternalServerError)
				log.Error("Failed to clear match", "error", err, "matchID", matchID)
				return
			}
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, "Cleared match %s from store!", matchID)
			log.Info("Successfully cleared match from store", "matchID", matchID)
			return
		}

		log.Info("Received request to clear entire store")
		if err := s.Ledger.Clear(); err != nil {
			http.Error(w, "Failed to clear matches", http.StatusInternalServerError)
			log.Error("Failed to clear matches", "error", err)
			return
		}
		if err := s.Stats.Clear(); err != nil {
			http.Error(w, "Failed to clear stats", http.StatusInternalServerError)
			log.Error("Failed to clear stats", "error", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Store cleared!")
		log.Info("Store cleared successfully")
	}
}

// NotifyLeaderboardHandler posts the current leaderboard to the configured
// Slack channel. Intended to be hit by a scheduler.
func (s *Server) NotifyLeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		minGames, _ := strconv.Atoi(r.URL.Query().Get("min_games"))
		entries, err := s.Stats.Leaderboard(stats.MetricWinRate, minGames, 10)
		if err != nil {
			http.Error(w, "Failed to get player stats", http.StatusInternalServerError)
			log.Error("Failed to get player stats", "error", err)
			return
		}

		if err := s.Notifier.SendLeaderboard(entries, isDryRunFromContext(r)); err != nil {
			http.Error(w, "Failed to send leaderboard", http.StatusInternalServerError)
			log.Error("Failed to send leaderboard", "error", err)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Leaderboard sent.")
	}
}

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

// QueueCommandHandler returns a handler for the /queue Slack command.
func (s *Server) QueueCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := s.Queue.Snapshot()

		msg, err := s.Notifier.FormatQueueResponse(&snapshot)
		if err != nil {
			http.Error(w, "Failed to format queue", http.StatusInternalServerError)
			log.Error("Failed to format queue", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}

		respondWithSlackMsg(w, slackMsg)
	}
}

// LeaderboardCommandHandler returns a handler for the /leaderboard Slack command.
func (s *Server) LeaderboardCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := s.Stats.Leaderboard(stats.MetricWinRate, 0, 10)
		if err != nil {
			http.Error(w, "Failed to get player stats", http.StatusInternalServerError)
			log.Error("Failed to get player stats", "error", err)
			return
		}

		msg, err := s.Notifier.FormatLeaderboardResponse(entries)
		if err != nil {
			http.Error(w, "Failed to format leaderboard", http.StatusInternalServerError)
			log.Error("Failed to format leaderboard", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}

		respondWithSlackMsg(w, slackMsg)
	}
}

// PlayerStatsCommandHandler returns a handler for the /player-stats Slack command.
func (s *Server) PlayerStatsCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		playerName := r.FormValue("text")
		if playerName == "" {
			http.Error(w, "Player name is required.", http.StatusBadRequest)
			return
		}

		log.Info("Received player stats command", "player", playerName)

		record, err := s.Stats.Get(playerName)
		var msg any
		if err != nil {
			log.Warn("Could not find player stats", "player", playerName, "error", err)
			msg, err = s.Notifier.FormatPlayerNotFoundResponse(playerName)
		} else {
			msg, err = s.Notifier.FormatPlayerStatsResponse(record, playerName)
		}

		if err != nil {
			http.Error(w, "Failed to format player stats", http.StatusInternalServerError)
			log.Error("Failed to format player stats", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}
		respondWithSlackMsg(w, slackMsg)
	}
}
