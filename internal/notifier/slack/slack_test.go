package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leagueofflex/flexqueue/internal/balance"
	"github.com/leagueofflex/flexqueue/internal/ledger"
	"github.com/leagueofflex/flexqueue/internal/metrics"
	"github.com/leagueofflex/flexqueue/internal/queue"
	"github.com/leagueofflex/flexqueue/internal/stats"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", "C456", "C789", metrics)

	message := slackapi.NewBlockMessage()
	_, _, err := notifier.sendMessage(message, "C123", true)
	require.NoError(t, err)
}

func TestSendMessage_Success(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", "C456", "C789", metrics)

	message := slackapi.NewBlockMessage(slackapi.NewSectionBlock(slackapi.NewTextBlockObject("plain_text", "hello", false, false), nil, nil))
	_, _, err := notifier.sendMessage(message, "C123", false)

	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.SlackNotifSent())
	assert.Equal(t, 0, metrics.SlackNotifFailed())
}

func TestSendMessage_Failure(t *testing.T) {
	postMessageCalled := false
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", "C456", "C789", metrics)

	message := slackapi.NewBlockMessage()
	_, _, err := notifier.sendMessage(message, "C123", false)

	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 0, metrics.SlackNotifSent())
	assert.Equal(t, 1, metrics.SlackNotifFailed())
}

func TestSendResultNotification_UsesResultsChannel(t *testing.T) {
	var gotChannel string
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			gotChannel = channelID
			return channelID, "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", "C456", "C789", metrics)

	match := &ledger.Match{
		MatchID:      "AB12CD",
		Team1Name:    "Crimson Foxes",
		Team2Name:    "Azure Wolves",
		Team1Players: []string{"Alice"},
		Team2Players: []string{"Bob"},
		Winner:       ledger.SideTeam1,
		UpdatedBy:    "mod",
	}

	err := notifier.SendResultNotification(match, false)
	require.NoError(t, err)
	assert.Equal(t, "C456", gotChannel)
}

func TestSendLeaderboard_UsesLeaderboardChannel(t *testing.T) {
	var gotChannel string
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			gotChannel = channelID
			return channelID, "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", "C456", "C789", metrics)

	err := notifier.SendLeaderboard(nil, false)
	require.NoError(t, err)
	assert.Equal(t, "C789", gotChannel)
}

func TestDedicatedChannelsFallBackToMainChannel(t *testing.T) {
	var gotChannels []string
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			gotChannels = append(gotChannels, channelID)
			return channelID, "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", "", "", metrics)

	match := &ledger.Match{
		MatchID:      "AB12CD",
		Team1Name:    "Crimson Foxes",
		Team2Name:    "Azure Wolves",
		Team1Players: []string{"Alice"},
		Team2Players: []string{"Bob"},
		Winner:       ledger.SideTeam1,
		UpdatedBy:    "mod",
	}

	require.NoError(t, notifier.SendResultNotification(match, false))
	require.NoError(t, notifier.SendLeaderboard(nil, false))
	assert.Equal(t, []string{"C123", "C123"}, gotChannels)
}

func TestFormatQueueUpdate(t *testing.T) {
	snapshot := &queue.Snapshot{
		Players: []queue.Player{
			{Name: "Alice", Rank: "G", Points: 13.0},
			{Name: "Bob", Rank: "S", Points: 10.0},
		},
		Capacity:       10,
		TimerActive:    true,
		TimerRemaining: 9*time.Minute + 30*time.Second,
	}

	client := &Notifier{channelID: "C123"}
	msg := client.formatQueueUpdate(snapshot)
	require.Len(t, msg.Blocks.BlockSet, 3, "Expected 3 blocks")

	header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
	require.True(t, ok, "First block should be a HeaderBlock")
	assert.Equal(t, "🎮 Queue: 2/10 players", header.Text.Text)

	players, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok, "Second block should be a SectionBlock")
	assert.Equal(t, "1. Alice (G, 13.0 pts)\n2. Bob (S, 10.0 pts)", players.Text.Text)

	contextBlock, ok := msg.Blocks.BlockSet[2].(*slackapi.ContextBlock)
	require.True(t, ok, "Third block should be a ContextBlock")
	require.Len(t, contextBlock.ContextElements.Elements, 1)
	timerElement, ok := contextBlock.ContextElements.Elements[0].(*slackapi.TextBlockObject)
	require.True(t, ok)
	assert.Equal(t, "⏳ Queue resets in 9m30s unless it fills up.", timerElement.Text)
}

func TestFormatQueueUpdate_Empty(t *testing.T) {
	client := &Notifier{channelID: "C123"}
	msg := client.formatQueueUpdate(&queue.Snapshot{Capacity: 10})
	require.Len(t, msg.Blocks.BlockSet, 2)

	body, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, body.Text.Text, "queue is empty")
}

func TestFormatMatchCreated(t *testing.T) {
	match := &ledger.Match{
		MatchID:   "AB12CD",
		Team1Name: "Crimson Foxes",
		Team2Name: "Azure Wolves",
	}
	split := &balance.Split{
		TeamA:           []balance.Player{{Name: "Alice", Rank: "G"}},
		TeamB:           []balance.Player{{Name: "Bob", Rank: "S"}},
		TeamATotal:      13.0,
		TeamBTotal:      10.0,
		PointDifference: 3.0,
	}

	client := &Notifier{channelID: "C123"}
	msg := client.formatMatchCreated(match, split)
	require.Len(t, msg.Blocks.BlockSet, 6, "Expected 6 blocks")

	teamA, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Crimson Foxes (13.0 pts)\n• Alice (G)", teamA.Text.Text)

	teamB, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Azure Wolves (10.0 pts)\n• Bob (S)", teamB.Text.Text)

	diff, ok := msg.Blocks.BlockSet[3].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Point difference: 3.0", diff.Text.Text)

	footer, ok := msg.Blocks.BlockSet[5].(*slackapi.ContextBlock)
	require.True(t, ok)
	footerElement, ok := footer.ContextElements.Elements[0].(*slackapi.TextBlockObject)
	require.True(t, ok)
	assert.Contains(t, footerElement.Text, "Match ID: AB12CD")
}

func TestFormatResultNotification(t *testing.T) {
	match := &ledger.Match{
		MatchID:      "AB12CD",
		Team1Name:    "Crimson Foxes",
		Team2Name:    "Azure Wolves",
		Team1Players: []string{"Alice", "Carol"},
		Team2Players: []string{"Bob", "Dave"},
		Winner:       ledger.SideTeam2,
		UpdatedBy:    "mod",
	}

	client := &Notifier{channelID: "C123"}
	msg := client.formatResultNotification(match)
	require.Len(t, msg.Blocks.BlockSet, 4)

	result, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Result: Azure Wolves won! 🏆", result.Text.Text)

	rosters, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Crimson Foxes: Alice, Carol\nAzure Wolves: Bob, Dave", rosters.Text.Text)
}

func TestFormatLeaderboard(t *testing.T) {
	entries := []stats.PlayerStats{
		{PlayerName: "Alice", TotalMatches: 10, Wins: 7, WinRate: 70.0, RecentForm: "WWLWW", CurrentStreak: 2, StreakType: stats.StreakWin},
		{PlayerName: "Bob", TotalMatches: 10, Wins: 5, WinRate: 50.0, RecentForm: "LWLWL", CurrentStreak: 1, StreakType: stats.StreakLoss},
	}

	client := &Notifier{channelID: "C123"}
	msg := client.formatLeaderboard(entries)
	require.Len(t, msg.Blocks.BlockSet, 3)

	first, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, first.Text.Text, "1. 🥇 Alice")
	assert.Contains(t, first.Text.Text, "70.00% (7/10)")
	assert.Contains(t, first.Text.Text, "Streak: 2W")
}

func TestFormatLeaderboard_Empty(t *testing.T) {
	client := &Notifier{channelID: "C123"}
	msg := client.formatLeaderboard(nil)
	require.Len(t, msg.Blocks.BlockSet, 2)

	body, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, body.Text.Text, "No stats available yet")
}

func TestFormatPlayerStats(t *testing.T) {
	record := &stats.PlayerStats{
		PlayerName:       "Alice",
		DisplayName:      "alice.g",
		TotalMatches:     12,
		Wins:             8,
		WinRate:          66.67,
		RecentForm:       "WWLWW",
		CurrentStreak:    3,
		StreakType:       stats.StreakWin,
		LongestWinStreak: 5,
	}

	client := &Notifier{channelID: "C123"}
	msg := client.formatPlayerStats(record)
	require.Len(t, msg.Blocks.BlockSet, 2)

	header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
	require.True(t, ok)
	assert.Equal(t, "🏆 Stats for alice.g 🏆", header.Text.Text)

	body, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, body.Text.Text, "66.67% (8/12)")
	assert.Contains(t, body.Text.Text, "*Longest Win Streak*: 5")
}

func TestFormatPlayerNotFound(t *testing.T) {
	client := &Notifier{channelID: "C123"}
	msg := client.formatPlayerNotFound("ghost")
	require.Len(t, msg.Blocks.BlockSet, 1)

	body, ok := msg.Blocks.BlockSet[0].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, body.Text.Text, "ghost")
}
