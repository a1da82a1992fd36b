package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"

	"github.com/leagueofflex/flexqueue/internal/balance"
	"github.com/leagueofflex/flexqueue/internal/ledger"
	"github.com/leagueofflex/flexqueue/internal/metrics"
	"github.com/leagueofflex/flexqueue/internal/notifier"
	"github.com/leagueofflex/flexqueue/internal/queue"
	"github.com/leagueofflex/flexqueue/internal/stats"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api                  slackClient
	channelID            string
	resultsChannelID     string
	leaderboardChannelID string
	metrics              metrics.Metrics
}

// NewNotifier creates a new Notifier. Queue and match messages go to
// channelID, recorded results to resultsChannelID and leaderboards to
// leaderboardChannelID. The dedicated channels are optional and fall back
// to channelID when empty.
func NewNotifier(token, channelID, resultsChannelID, leaderboardChannelID string, metrics metrics.Metrics) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, resultsChannelID, leaderboardChannelID, metrics)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID, resultsChannelID, leaderboardChannelID string, metrics metrics.Metrics) *Notifier {
	if resultsChannelID == "" {
		resultsChannelID = channelID
	}
	if leaderboardChannelID == "" {
		leaderboardChannelID = channelID
	}
	return &Notifier{
		api:                  api,
		channelID:            channelID,
		resultsChannelID:     resultsChannelID,
		leaderboardChannelID: leaderboardChannelID,
		metrics:              metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, channelID string, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channel, timestamp, err := s.api.PostMessageContext(
		ctx,
		channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channel, "timestamp", timestamp)
	return channel, timestamp, nil
}

// Implement the Notifier interface
func (s *Notifier) SendQueueUpdate(snapshot *queue.Snapshot, dryRun bool) error {
	msg := s.formatQueueUpdate(snapshot)
	_, _, err := s.sendMessage(msg, s.channelID, dryRun)
	return err
}

func (s *Notifier) SendQueueExpired(removed []queue.Player, dryRun bool) error {
	msg := s.formatQueueExpired(removed)
	_, _, err := s.sendMessage(msg, s.channelID, dryRun)
	return err
}

func (s *Notifier) SendMatchCreated(match *ledger.Match, split *balance.Split, dryRun bool) error {
	msg := s.formatMatchCreated(match, split)
	_, _, err := s.sendMessage(msg, s.channelID, dryRun)
	return err
}

func (s *Notifier) SendResultNotification(match *ledger.Match, dryRun bool) error {
	msg := s.formatResultNotification(match)
	_, _, err := s.sendMessage(msg, s.resultsChannelID, dryRun)
	return err
}

func (s *Notifier) SendLeaderboard(entries []stats.PlayerStats, dryRun bool) error {
	msg := s.formatLeaderboard(entries)
	_, _, err := s.sendMessage(msg, s.leaderboardChannelID, dryRun)
	return err
}

// FormatQueueResponse formats a queue snapshot for a slash command response.
func (s *Notifier) FormatQueueResponse(snapshot *queue.Snapshot) (any, error) {
	return s.formatQueueUpdate(snapshot), nil
}

// FormatLeaderboardResponse formats a leaderboard message for a slash command response.
func (s *Notifier) FormatLeaderboardResponse(entries []stats.PlayerStats) (any, error) {
	return s.formatLeaderboard(entries), nil
}

// FormatPlayerStatsResponse formats a player stats message for a slash command response.
func (s *Notifier) FormatPlayerStatsResponse(record *stats.PlayerStats, query string) (any, error) {
	return s.formatPlayerStats(record), nil
}

// FormatPlayerNotFoundResponse formats a player not found message for a slash command response.
func (s *Notifier) FormatPlayerNotFoundResponse(query string) (any, error) {
	return s.formatPlayerNotFound(query), nil
}

// formatQueueUpdate creates the Slack message for the current queue using Block Kit.
func (s *Notifier) formatQueueUpdate(snapshot *queue.Snapshot) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text",
		fmt.Sprintf("🎮 Queue: %d/%d players", len(snapshot.Players), snapshot.Capacity), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(snapshot.Players) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "The queue is empty. Type /join to start one!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	lines := make([]string, 0, len(snapshot.Players))
	for i, player := range snapshot.Players {
		lines = append(lines, fmt.Sprintf("%d. %s (%s, %.1f pts)", i+1, player.Name, player.Rank, player.Points))
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", strings.Join(lines, "\n"), true, false), nil, nil))

	if snapshot.TimerActive {
		timerText := fmt.Sprintf("⏳ Queue resets in %s unless it fills up.", snapshot.TimerRemaining.Round(time.Second))
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", timerText, true, false)))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatQueueExpired creates the Slack message for a timed-out queue.
func (s *Notifier) formatQueueExpired(removed []queue.Player) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "⌛ Queue expired", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	names := make([]string, 0, len(removed))
	for _, player := range removed {
		names = append(names, player.Name)
	}
	bodyText := fmt.Sprintf("The queue did not fill up in time. Removed: %s", strings.Join(names, ", "))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", bodyText, true, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatMatchCreated creates the Slack message announcing balanced teams using Block Kit.
func (s *Notifier) formatMatchCreated(match *ledger.Match, split *balance.Split) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "⚔️ Teams are ready! ⚔️", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	blocks = append(blocks, s.teamBlock(match.Team1Name, split.TeamA, split.TeamATotal))
	blocks = append(blocks, s.teamBlock(match.Team2Name, split.TeamB, split.TeamBTotal))

	balanceText := fmt.Sprintf("Point difference: %.1f", split.PointDifference)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", balanceText, true, false), nil, nil))

	blocks = append(blocks, slack.NewDividerBlock())
	footer := fmt.Sprintf("Match ID: %s • Report the result with /result %s <team>", match.MatchID, match.MatchID)
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", footer, true, false)))

	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) teamBlock(name string, roster []balance.Player, total float64) slack.Block {
	lines := make([]string, 0, len(roster)+1)
	lines = append(lines, fmt.Sprintf("%s (%.1f pts)", name, total))
	for _, player := range roster {
		lines = append(lines, fmt.Sprintf("• %s (%s)", player.Name, player.Rank))
	}
	return slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", strings.Join(lines, "\n"), true, false), nil, nil)
}

// formatResultNotification creates the Slack message for a recorded result.
func (s *Notifier) formatResultNotification(match *ledger.Match) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏁 Match finished! 🏁", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	resultText := fmt.Sprintf("Result: %s won! 🏆", match.WinnerName())
	if match.WinnerName() == "" {
		resultText = "Result: no winner reported."
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", resultText, true, false), nil, nil))

	rosterText := fmt.Sprintf("%s: %s\n%s: %s",
		match.Team1Name, strings.Join(match.Team1Players, ", "),
		match.Team2Name, strings.Join(match.Team2Players, ", "),
	)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", rosterText, true, false), nil, nil))

	if match.UpdatedBy != "" {
		footer := fmt.Sprintf("Match ID: %s • Recorded by %s", match.MatchID, match.UpdatedBy)
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", footer, true, false)))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatLeaderboard creates a Slack message to display the player leaderboard.
func (s *Notifier) formatLeaderboard(entries []stats.PlayerStats) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏆 Player Leaderboard 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(entries) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No stats available yet. Go play some matches!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for i, entry := range entries {
		rank := i + 1
		var medal string
		switch rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}

		playerText := fmt.Sprintf("%d. %s %s\n> Win %%: %.2f%% (%d/%d) | Form: %s | Streak: %d%s",
			rank,
			medal,
			entry.Name(),
			entry.WinRate,
			entry.Wins,
			entry.TotalMatches,
			entry.RecentForm,
			entry.CurrentStreak,
			streakLetter(entry.StreakType),
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", playerText, true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatPlayerStats creates a Slack message to display a single player's stats.
func (s *Notifier) formatPlayerStats(record *stats.PlayerStats) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := fmt.Sprintf("🏆 Stats for %s 🏆", record.Name())
	blocks = append(blocks, slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", headerText, true, false)))

	playerText := fmt.Sprintf("> *Win %%*: %.2f%% (%d/%d)\n> *Recent Form*: %s\n> *Current Streak*: %d%s\n> *Longest Win Streak*: %d",
		record.WinRate,
		record.Wins,
		record.TotalMatches,
		record.RecentForm,
		record.CurrentStreak,
		streakLetter(record.StreakType),
		record.LongestWinStreak,
	)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", playerText, false, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

func streakLetter(t stats.StreakType) string {
	switch t {
	case stats.StreakWin:
		return "W"
	case stats.StreakLoss:
		return "L"
	default:
		return ""
	}
}

// formatPlayerNotFound creates a Slack message for when a player's stats are not found.
func (s *Notifier) formatPlayerNotFound(query string) slack.Message {
	text := fmt.Sprintf("Sorry, I couldn't find a player matching *%s*. Try a different name.", query)
	return slack.NewBlockMessage(
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil),
	)
}
