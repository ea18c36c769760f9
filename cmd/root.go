package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rnwolfe/devlog/internal/config"
	"github.com/rnwolfe/devlog/internal/logging"
	"github.com/rnwolfe/devlog/internal/tracker"
	"github.com/rnwolfe/devlog/internal/ui"
	"github.com/rnwolfe/devlog/internal/version"
)

var (
	// flagUser overrides user.id for a single invocation.
	flagUser    string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "devlog",
	Short: "Log what you build, keep the streak alive",
	Long:  `devlog tracks daily dev-log posts, streaks, and the community writing challenge.`,
	RunE:  runDashboard,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		ui.ConfigureColor()
	},
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Err(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User ID to act as (default: config user.id)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log at the configured log.level instead of warn")

	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(streakCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(heatmapCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// session is the per-invocation state shared by subcommands.
type session struct {
	cfg     *config.Config
	log     *logrus.Logger
	tracker *tracker.Tracker
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	level := "warn"
	if flagVerbose {
		level = cfg.Log.Level
	}
	log := logging.New(level, cfg.Log.Format)

	opts, err := tracker.OptionsFromConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	backend, err := tracker.OpenBackend(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Database.Driver, err)
	}
	return &session{cfg: cfg, log: log, tracker: tracker.New(backend, opts)}, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func (s *session) Close() error {
	return s.tracker.Close()
}

// userID resolves who the command acts as: --user first, then user.id.
func (s *session) userID() (string, error) {
	id := strings.TrimSpace(flagUser)
	if id == "" {
		id = s.cfg.User.ID
	}
	if id == "" {
		return "", fmt.Errorf("no user selected; pass %s or run %s",
			ui.Accent.Render("--user <id>"), ui.Accent.Render("devlog config set user.id <id>"))
	}
	return id, nil
}

// runDashboard shows the at-a-glance status when you just type `devlog`.
func runDashboard(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Println(ui.Greet(s.cfg.User.Name))
	fmt.Println()

	userID, err := s.userID()
	if err != nil {
		fmt.Printf("  Pick who you are with %s to see your streak.\n",
			ui.Accent.Render("devlog config set user.id <id>"))
		fmt.Println()
		return nil
	}

	agg, err := s.tracker.Streak(ctx, userID)
	if err != nil {
		return fmt.Errorf("reading streak: %w", err)
	}
	progress, err := s.tracker.ChallengeProgress(ctx, userID)
	if err != nil {
		return fmt.Errorf("reading challenge progress: %w", err)
	}

	ui.Kv(ui.IconFire+" Streak", streakSummary(agg.CurrentStreak, agg.LongestStreak))
	ui.Kv(ui.IconPost+"Logs", fmt.Sprintf("%d total", agg.TotalLogs))
	ui.Kv(ui.IconChallenge+" Challenge", challengeSummary(progress))
	ui.Kv(ui.IconCalendar+" Today", s.tracker.Today().Start(s.tracker.Location()).Format("Monday, January 2"))
	ui.Kv("   devlog", version.Short())

	today := s.tracker.Today()
	switch {
	case agg.LastActivity != nil && agg.LastActivity.Compare(today) == 0:
		ui.Tip("already logged today. Nice.")
	case agg.CurrentStreak > 0:
		ui.Tip("`devlog post add \"...\"` to keep the streak going.")
	default:
		ui.Tip("`devlog post add \"what I built today\"` to start a streak.")
	}

	fmt.Println()
	return nil
}

func streakSummary(current, longest int) string {
	s := fmt.Sprintf("%d %s", current, plural(current, "day", "days"))
	if longest > 0 {
		s += ui.Muted.Render(fmt.Sprintf(" (best %d)", longest))
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
