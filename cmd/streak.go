package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/devlog/internal/streak"
	"github.com/rnwolfe/devlog/internal/ui"
)

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show your current and longest streak",
	RunE:  runStreakShow,
}

var streakRecomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Rebuild your streak from your posts",
	RunE:  runStreakRecompute,
}

var streakListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show every user's stored streak",
	RunE:    runStreakList,
}

var streakSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Recompute every user's streak now (what the nightly job does)",
	RunE:  runStreakSweep,
}

func init() {
	streakCmd.AddCommand(streakRecomputeCmd)
	streakCmd.AddCommand(streakListCmd)
	streakCmd.AddCommand(streakSweepCmd)
}

func runStreakShow(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	userID, err := s.userID()
	if err != nil {
		return err
	}
	agg, err := s.tracker.Streak(ctx, userID)
	if err != nil {
		return err
	}
	printAggregate(agg, s.tracker.Policy())
	return nil
}

func runStreakRecompute(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	userID, err := s.userID()
	if err != nil {
		return err
	}
	agg, err := s.tracker.RecomputeStreak(ctx, userID)
	if err != nil {
		return err
	}
	ui.Ok("Streak recomputed")
	printAggregate(agg, s.tracker.Policy())
	return nil
}

func runStreakList(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	aggs, err := s.tracker.Streaks(ctx)
	if err != nil {
		return err
	}
	if len(aggs) == 0 {
		fmt.Println()
		fmt.Println(ui.Muted.Render("  No streaks recorded yet."))
		fmt.Println()
		return nil
	}

	ui.Header(ui.IconFire + " Streaks")
	for _, a := range aggs {
		last := "never"
		if a.LastActivity != nil {
			last = a.LastActivity.String()
		}
		fmt.Printf("  %-20s %s  %s\n",
			ui.KeyStyle.Render(a.UserID),
			ui.Accent.Render(fmt.Sprintf("%3d", a.CurrentStreak)),
			ui.Muted.Render(fmt.Sprintf("best %d %s last %s", a.LongestStreak, ui.IconDot, last)))
	}
	fmt.Println()
	return nil
}

func runStreakSweep(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.tracker.SweepStreaks(ctx)
	if err != nil {
		return fmt.Errorf("sweep recomputed %d users before failing: %w", n, err)
	}
	ui.Ok(fmt.Sprintf("Recomputed %d %s", n, plural(n, "user", "users")))
	return nil
}

func printAggregate(agg streak.Aggregate, policy streak.Policy) {
	ui.Header(ui.IconFire + " Streak")
	ui.Kv("Current", fmt.Sprintf("%d %s", agg.CurrentStreak, plural(agg.CurrentStreak, "day", "days")))
	ui.Kv("Longest", fmt.Sprintf("%d %s", agg.LongestStreak, plural(agg.LongestStreak, "day", "days")))
	ui.Kv("Total logs", fmt.Sprintf("%d", agg.TotalLogs))
	if agg.LastActivity != nil {
		ui.Kv("Last post", agg.LastActivity.String())
	} else {
		ui.Kv("Last post", ui.Muted.Render("none"))
	}
	ui.Kv("Policy", string(policy))
	fmt.Println()
}
