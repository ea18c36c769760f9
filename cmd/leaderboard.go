package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/devlog/internal/ui"
)

var leaderboardLimit int

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"top"},
	Short:   "Rank users by total posts",
	RunE:    runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().IntVarP(&leaderboardLimit, "limit", "n", 10, "How many users to show")
}

func runLeaderboard(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ranks, err := s.tracker.Leaderboard(ctx, leaderboardLimit)
	if err != nil {
		return err
	}
	if len(ranks) == 0 {
		fmt.Println()
		fmt.Println(ui.Muted.Render("  Nobody has posted yet."))
		fmt.Println()
		return nil
	}

	me, _ := s.userID()
	ui.Header(ui.IconTrophy + " Leaderboard")
	for _, r := range ranks {
		name := r.UserID
		if name == me {
			name = ui.Accent.Render(name)
		}
		fmt.Printf("  %3d. %-24s %s\n", r.Rank, name, ui.Muted.Render(fmt.Sprintf("%d %s", r.TotalLogs, plural(r.TotalLogs, "post", "posts"))))
	}
	fmt.Println()
	return nil
}
