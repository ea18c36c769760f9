package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/devlog/internal/config"
	"github.com/rnwolfe/devlog/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check your devlog setup and stored data for problems",
	Long:  `Run a suite of health checks and report what's working (and what isn't).`,
	RunE:  runDoctor,
}

// checkResult holds the outcome of a single health check.
type checkResult struct {
	name    string
	ok      bool
	detail  string
	fixHint string
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmdContext(cmd)
	results := []checkResult{checkConfig()}

	s, err := openSession(ctx)
	if err != nil {
		results = append(results, checkResult{
			name:    "Store",
			detail:  err.Error(),
			fixHint: fmt.Sprintf("Check %s and %s", ui.Accent.Render("database.driver"), ui.Accent.Render("database.url")),
		})
	} else {
		defer s.Close()
		results = append(results,
			checkResult{name: "Store", ok: true, detail: s.cfg.Database.Driver + " store opens and migrates"},
			checkUser(s),
			checkClock(s),
			checkWindows(ctx, s),
			checkAggregates(ctx, s),
		)
	}

	fmt.Println()

	allPassed := true
	for _, r := range results {
		printCheck(r)
		if !r.ok {
			allPassed = false
		}
	}

	fmt.Println()

	if !allPassed {
		return fmt.Errorf("one or more checks failed; see suggestions above")
	}
	return nil
}

func printCheck(r checkResult) {
	label := fmt.Sprintf("%-16s", r.name)
	if r.ok {
		icon := ui.Success.Render(ui.IconOk)
		fmt.Printf("  %s %s %s\n", icon, ui.KeyStyle.Render(label), ui.Muted.Render(r.detail))
		return
	}
	icon := ui.Error.Render(ui.IconError)
	fmt.Printf("  %s %s %s\n", icon, ui.KeyStyle.Render(label), r.detail)
	if r.fixHint != "" {
		fmt.Printf("    %-16s %s\n", "", ui.Muted.Render(ui.IconArrow+" "+r.fixHint))
	}
}

func checkConfig() checkResult {
	paths := config.GetPaths()
	if _, err := config.Load(); err != nil {
		return checkResult{
			name:    "Config",
			detail:  fmt.Sprintf("invalid: %v", err),
			fixHint: fmt.Sprintf("Check %s and DEVLOG_* variables", paths.ConfigFile),
		}
	}
	if !config.Initialized() {
		return checkResult{name: "Config", ok: true, detail: "no config file, using defaults"}
	}
	return checkResult{name: "Config", ok: true, detail: paths.ConfigFile + " found and valid"}
}

func checkUser(s *session) checkResult {
	id, err := s.userID()
	if err != nil {
		return checkResult{
			name:    "User",
			detail:  "no user selected",
			fixHint: fmt.Sprintf("Run %s", ui.Accent.Render("devlog config set user.id <id>")),
		}
	}
	return checkResult{name: "User", ok: true, detail: id}
}

func checkClock(s *session) checkResult {
	loc := s.tracker.Location()
	return checkResult{
		name:   "Calendar",
		ok:     true,
		detail: fmt.Sprintf("today is %s in %s (%s policy)", s.tracker.Today(), loc, s.tracker.Policy()),
	}
}

// checkWindows reports more than one active challenge window, which the
// store is supposed to make impossible.
func checkWindows(ctx context.Context, s *session) checkResult {
	ws, err := s.tracker.Challenges(ctx)
	if err != nil {
		return checkResult{name: "Challenges", detail: err.Error()}
	}
	active := 0
	for _, w := range ws {
		if w.Active {
			active++
		}
	}
	switch active {
	case 0:
		return checkResult{name: "Challenges", ok: true, detail: fmt.Sprintf("%d windows, none active", len(ws))}
	case 1:
		return checkResult{name: "Challenges", ok: true, detail: fmt.Sprintf("%d windows, 1 active", len(ws))}
	default:
		return checkResult{
			name:    "Challenges",
			detail:  fmt.Sprintf("%d windows are active at once", active),
			fixHint: fmt.Sprintf("Run %s then create the window you want", ui.Accent.Render("devlog challenge end")),
		}
	}
}

// checkAggregates validates every stored streak row.
func checkAggregates(ctx context.Context, s *session) checkResult {
	aggs, err := s.tracker.Streaks(ctx)
	if err != nil {
		return checkResult{name: "Streaks", detail: err.Error()}
	}
	bad := 0
	for _, a := range aggs {
		if a.Validate() != nil {
			bad++
		}
	}
	if bad > 0 {
		return checkResult{
			name:    "Streaks",
			detail:  fmt.Sprintf("%d of %d stored streaks are inconsistent", bad, len(aggs)),
			fixHint: fmt.Sprintf("Run %s to rebuild them", ui.Accent.Render("devlog streak sweep")),
		}
	}
	return checkResult{name: "Streaks", ok: true, detail: fmt.Sprintf("%d stored streaks consistent", len(aggs))}
}
