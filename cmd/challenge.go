package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/devlog/internal/challenge"
	"github.com/rnwolfe/devlog/internal/tracker"
	"github.com/rnwolfe/devlog/internal/ui"
)

// Flags for challenge create.
var (
	challengeStart    dateValue
	challengeDays     int
	challengeRequired int
)

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Your progress in the community writing challenge",
	Long: `Show how many days you have posted in the active challenge window.

Admins can start a new window with ` + "`devlog challenge create`" + `; starting one
ends the previous window.`,
	RunE: runChallengeProgress,
}

var challengeShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show the active challenge window, or one by ID",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChallengeShow,
}

var challengeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a new challenge window (ends the current one)",
	Long: `Start a new challenge window.

Examples:
  devlog challenge create                       # today, configured defaults
  devlog challenge create --start 2026-03-01 --days 30 --required 20`,
	Args: cobra.NoArgs,
	RunE: runChallengeCreate,
}

var challengeEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End the active challenge window",
	RunE:  runChallengeEnd,
}

var challengeListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List every challenge window, newest first",
	RunE:    runChallengeList,
}

var challengeBoardCmd = &cobra.Command{
	Use:   "board",
	Short: "Rank everyone in the active challenge",
	RunE:  runChallengeBoard,
}

func init() {
	challengeCmd.AddCommand(challengeShowCmd)
	challengeCmd.AddCommand(challengeCreateCmd)
	challengeCmd.AddCommand(challengeEndCmd)
	challengeCmd.AddCommand(challengeListCmd)
	challengeCmd.AddCommand(challengeBoardCmd)

	challengeCreateCmd.Flags().Var(&challengeStart, "start", "First day of the window, YYYY-MM-DD (default: today)")
	challengeCreateCmd.Flags().IntVar(&challengeDays, "days", 0, "Window length in days (default: challenge.default_total_days)")
	challengeCreateCmd.Flags().IntVar(&challengeRequired, "required", 0, "Days a user must post (default: challenge.default_required_days)")
}

func runChallengeProgress(cmd *cobra.Command, _ []string) error {
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
	p, err := s.tracker.ChallengeProgress(ctx, userID)
	if err != nil {
		return err
	}

	ui.Header(ui.IconChallenge + " Challenge")
	if !p.HasChallenge {
		ui.Kv("Status", ui.Muted.Render("no active challenge"))
	} else {
		ui.Kv("Window", windowSpan(*p.Window))
		ui.Kv("Elapsed", fmt.Sprintf("%d of %d days (%d left)", p.ElapsedDays, p.TotalDays, p.RemainingDays))
	}
	ui.Kv("Written", fmt.Sprintf("%d of %d days", p.WrittenDays, p.RequiredDays))
	ui.Kv("Progress", ui.ProgressBar(p.ProgressPercent, 20)+fmt.Sprintf(" %d%%", p.ProgressPercent))
	if p.Completed {
		fmt.Println()
		ui.Ok(ui.IconTrophy + " Challenge complete!")
	}
	fmt.Println()
	return nil
}

func runChallengeShow(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var w *challenge.Window
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid window ID %q", args[0])
		}
		got, err := s.tracker.Challenge(ctx, id)
		if err != nil {
			return err
		}
		w = &got
	} else {
		w, err = s.tracker.ActiveChallenge(ctx)
		if err != nil {
			return err
		}
	}

	if w == nil {
		fmt.Println()
		fmt.Println(ui.Muted.Render("  No active challenge."))
		ui.Tip("`devlog challenge create` to start one.")
		fmt.Println()
		return nil
	}
	printWindow(*w)
	return nil
}

func runChallengeCreate(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	createdBy, _ := s.userID()
	w, err := s.tracker.CreateChallenge(ctx, tracker.ChallengeInput{
		Start:        challengeStart.Date(),
		TotalDays:    challengeDays,
		RequiredDays: challengeRequired,
		CreatedBy:    createdBy,
	})
	if err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Challenge #%d is live", w.ID))
	printWindow(w)
	return nil
}

func runChallengeEnd(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ended, err := s.tracker.EndChallenge(ctx)
	if err != nil {
		return err
	}
	if !ended {
		ui.Inf("No active challenge to end.")
		return nil
	}
	ui.Ok("Challenge ended")
	return nil
}

func runChallengeList(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ws, err := s.tracker.Challenges(ctx)
	if err != nil {
		return err
	}
	if len(ws) == 0 {
		fmt.Println()
		fmt.Println(ui.Muted.Render("  No challenges yet."))
		fmt.Println()
		return nil
	}

	ui.Header(ui.IconChallenge + " Challenges")
	for _, w := range ws {
		marker := "  "
		if w.Active {
			marker = ui.Success.Render(ui.IconFlag)
		}
		fmt.Printf("  %s %s  %s  %s\n",
			marker,
			ui.KeyStyle.Render(fmt.Sprintf("#%-4d", w.ID)),
			windowSpan(w),
			ui.Muted.Render(fmt.Sprintf("%d of %d days", w.RequiredDays, w.TotalDays)))
	}
	fmt.Println()
	return nil
}

func runChallengeBoard(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	w, standings, err := s.tracker.Board(ctx)
	if err != nil {
		return err
	}
	if w == nil {
		fmt.Println()
		fmt.Println(ui.Muted.Render("  No active challenge."))
		fmt.Println()
		return nil
	}

	ui.Header(fmt.Sprintf("%s Challenge #%d  %s", ui.IconTrophy, w.ID, windowSpan(*w)))
	if len(standings) == 0 {
		fmt.Println(ui.Muted.Render("  Nobody has posted yet."))
	}
	for i, st := range standings {
		done := ""
		if st.Completed {
			done = " " + ui.Success.Render(ui.IconOk)
		}
		fmt.Printf("  %2d. %-20s %s %3d%%  %s%s\n",
			i+1,
			st.UserID,
			ui.ProgressBar(st.ProgressPercent, 16),
			st.ProgressPercent,
			ui.Muted.Render(fmt.Sprintf("%d/%d", st.WrittenDays, st.RequiredDays)),
			done)
	}
	fmt.Println()
	return nil
}

func printWindow(w challenge.Window) {
	ui.Header(fmt.Sprintf("%s Challenge #%d", ui.IconChallenge, w.ID))
	ui.Kv("Dates", windowSpan(w))
	ui.Kv("Required", fmt.Sprintf("%d of %d days", w.RequiredDays, w.TotalDays))
	status := "ended"
	if w.Active {
		status = ui.Success.Render("active")
	}
	ui.Kv("Status", status)
	if w.CreatedBy != "" {
		ui.Kv("Created by", w.CreatedBy)
	}
	fmt.Println()
}

func windowSpan(w challenge.Window) string {
	return fmt.Sprintf("%s %s %s", w.StartDate, ui.IconArrow, w.EndDate)
}

func challengeSummary(p challenge.Progress) string {
	s := fmt.Sprintf("%d/%d days %s %d%%", p.WrittenDays, p.RequiredDays, ui.IconDot, p.ProgressPercent)
	if !p.HasChallenge {
		s += ui.Muted.Render(" (no active challenge)")
	}
	return s
}
