package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/devlog/internal/version"
)

var statusJSON bool
var statusPrompt bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show streak status (for prompt integration)",
	Long: `Output your streak and challenge status as JSON or a compact prompt segment.

The prompt segment looks like [5d|3/7c]: a 5-day streak and 3 of 7 challenge
days written. A trailing ! means you have not posted today and the streak is
at risk.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().BoolVar(&statusPrompt, "prompt", false, "Output compact prompt segment")
}

// StatusData holds the status snapshot.
type StatusData struct {
	UserID            string `json:"user_id,omitempty"`
	CurrentStreak     int    `json:"current_streak"`
	LongestStreak     int    `json:"longest_streak"`
	TotalLogs         int    `json:"total_logs"`
	LoggedToday       bool   `json:"logged_today"`
	HasChallenge      bool   `json:"has_challenge"`
	ChallengeWritten  int    `json:"challenge_written_days"`
	ChallengeRequired int    `json:"challenge_required_days"`
	ChallengePercent  int    `json:"challenge_progress_percent"`
	Version           string `json:"version"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	data := gatherStatus(cmdContext(cmd))

	if statusPrompt {
		seg := formatPromptSegment(data)
		if seg != "" {
			fmt.Print(seg)
		}
		return nil
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(data)
	}

	if data.UserID == "" {
		fmt.Println("No user selected.")
		return nil
	}
	fmt.Printf("Streak: %d days (best %d)", data.CurrentStreak, data.LongestStreak)
	if !data.LoggedToday && data.CurrentStreak > 0 {
		fmt.Print(" - post today to keep it")
	}
	fmt.Println()
	if data.HasChallenge {
		fmt.Printf("Challenge: %d/%d days (%d%%)\n", data.ChallengeWritten, data.ChallengeRequired, data.ChallengePercent)
	}
	return nil
}

// gatherStatus never fails: a prompt hook must print something even when
// the store is unreachable, so errors leave fields at zero.
func gatherStatus(ctx context.Context) StatusData {
	data := StatusData{
		Version: version.Short(),
	}

	s, err := openSession(ctx)
	if err != nil {
		return data
	}
	defer s.Close()

	userID, err := s.userID()
	if err != nil {
		return data
	}
	data.UserID = userID

	if agg, err := s.tracker.Streak(ctx, userID); err == nil {
		data.CurrentStreak = agg.CurrentStreak
		data.LongestStreak = agg.LongestStreak
		data.TotalLogs = agg.TotalLogs
		data.LoggedToday = agg.LastActivity != nil && agg.LastActivity.Compare(s.tracker.Today()) == 0
	}

	if p, err := s.tracker.ChallengeProgress(ctx, userID); err == nil && p.HasChallenge {
		data.HasChallenge = true
		data.ChallengeWritten = p.WrittenDays
		data.ChallengeRequired = p.RequiredDays
		data.ChallengePercent = p.ProgressPercent
	}

	return data
}

func formatPromptSegment(data StatusData) string {
	seg := ""
	if data.CurrentStreak > 0 {
		seg += fmt.Sprintf("%dd", data.CurrentStreak)
		if !data.LoggedToday {
			seg += "!"
		}
	}
	if data.HasChallenge {
		if seg != "" {
			seg += "|"
		}
		seg += fmt.Sprintf("%d/%dc", data.ChallengeWritten, data.ChallengeRequired)
	}
	if seg != "" {
		return "[" + seg + "]"
	}
	return ""
}
