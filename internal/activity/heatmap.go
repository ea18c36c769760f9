package activity

import (
	"time"

	"github.com/rnwolfe/devlog/internal/calendar"
)

// DefaultHeatmapWeeks is the span shown on a profile.
const DefaultHeatmapWeeks = 12

// HeatCell is one day of the activity heatmap.
type HeatCell struct {
	Date  calendar.Date `json:"date"`
	Count int           `json:"count"`
	Level int           `json:"level"`
}

// Intensity maps a day's post count to a level from 0 to 4.
func Intensity(count int) int {
	switch {
	case count <= 0:
		return 0
	case count == 1:
		return 1
	case count <= 3:
		return 2
	case count <= 5:
		return 3
	default:
		return 4
	}
}

// Heatmap buckets times into the weeks*7 days ending at today, oldest first.
// Dates are cut in loc; times outside the span are ignored.
func Heatmap(times []time.Time, today calendar.Date, weeks int, loc *time.Location) []HeatCell {
	if weeks <= 0 {
		weeks = DefaultHeatmapWeeks
	}
	span := calendar.Range{From: today.AddDays(-(weeks*7 - 1)), To: today}

	counts := make(map[calendar.Date]int)
	for _, t := range times {
		d := calendar.In(t, loc)
		if span.Contains(d) {
			counts[d]++
		}
	}

	cells := make([]HeatCell, 0, span.Days())
	for d := span.From; !d.After(span.To); d = d.AddDays(1) {
		n := counts[d]
		cells = append(cells, HeatCell{Date: d, Count: n, Level: Intensity(n)})
	}
	return cells
}
