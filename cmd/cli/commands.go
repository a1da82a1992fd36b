package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(leaveCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(usageCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show the current queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/queue")
	},
}

var joinCmd = &cobra.Command{
	Use:   "join <name> <rank>",
	Short: "Join the queue with a name and rank code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/queue/join", url.Values{
			"name": {args[0]},
			"rank": {args[1]},
		})
	},
}

var leaveCmd = &cobra.Command{
	Use:   "leave <name>",
	Short: "Leave the queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/queue/leave", url.Values{"name": {args[0]}})
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List recorded matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/matches")
	},
}

var resultCmd = &cobra.Command{
	Use:   "result <matchID> <team1|team2>",
	Short: "Report a match result",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/result", url.Values{
			"matchID": {args[0]},
			"winner":  {args[1]},
		})
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "Show the player statistics leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/players")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show persisted per-endpoint hit counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/usage")
	},
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func performPostRequest(endpoint string, form url.Values) error {
	target := host + endpoint
	fmt.Printf("Making request to %s\n", target)

	resp, err := http.Post(target, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
