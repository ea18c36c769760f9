package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/devlog/internal/activity"
	"github.com/rnwolfe/devlog/internal/ui"
)

const maxHeatmapWeeks = 53

var heatmapWeeks int

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Show a calendar heatmap of your posts",
	Long:  `Show posts per day. Without --weeks the heatmap fills the terminal width, up to a year.`,
	RunE:  runHeatmap,
}

func init() {
	heatmapCmd.Flags().IntVarP(&heatmapWeeks, "weeks", "w", 0, "Number of weeks to show (max 53)")
}

func runHeatmap(cmd *cobra.Command, _ []string) error {
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

	weeks := heatmapWeeks
	if weeks <= 0 {
		weeks = fitWeeks(ui.TermWidth(80))
	}
	weeks = min(weeks, maxHeatmapWeeks)

	cells, err := s.tracker.Heatmap(ctx, userID, weeks)
	if err != nil {
		return err
	}

	ui.Header(fmt.Sprintf("%s %s, last %d weeks", ui.IconCalendar, userID, weeks))
	fmt.Print(renderHeatmap(cells))

	total := 0
	active := 0
	for _, c := range cells {
		total += c.Count
		if c.Count > 0 {
			active++
		}
	}
	fmt.Println()
	fmt.Printf("  %s\n", ui.Muted.Render(fmt.Sprintf("%d posts on %d of %d days", total, active, len(cells))))
	fmt.Printf("  %s %s %s\n", ui.Muted.Render("less"), legend(), ui.Muted.Render("more"))
	fmt.Println()
	return nil
}

// fitWeeks is how many two-column week strips fit beside the row labels.
func fitWeeks(width int) int {
	return max(1, min((width-8)/2, maxHeatmapWeeks))
}

// renderHeatmap lays cells out as seven rows with one column per week,
// oldest on the left.
func renderHeatmap(cells []activity.HeatCell) string {
	var b strings.Builder
	rows := min(7, len(cells))
	for r := range rows {
		fmt.Fprintf(&b, "  %s ", ui.Muted.Render(cells[r].Date.Start(nil).Weekday().String()[:3]))
		for i := r; i < len(cells); i += 7 {
			b.WriteString(ui.HeatGlyph(cells[i].Level))
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func legend() string {
	parts := make([]string, len(ui.HeatLevels))
	for i := range ui.HeatLevels {
		parts[i] = ui.HeatGlyph(i)
	}
	return strings.Join(parts, " ")
}
