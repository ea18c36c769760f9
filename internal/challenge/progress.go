package challenge

import (
	"time"

	"github.com/rnwolfe/devlog/internal/calendar"
)

// Defaults reported when no challenge is active.
const (
	DefaultRequiredDays = 7
	DefaultTotalDays    = 14
)

// Progress is a user's standing in a challenge. It is never persisted.
type Progress struct {
	WrittenDays     int     `json:"written_days"`
	RequiredDays    int     `json:"required_days"`
	TotalDays       int     `json:"total_days"`
	ProgressPercent int     `json:"progress_percent"`
	ElapsedDays     int     `json:"elapsed_days"`
	RemainingDays   int     `json:"remaining_days"`
	Completed       bool    `json:"completed"`
	HasChallenge    bool    `json:"has_challenge"`
	Window          *Window `json:"window,omitempty"`
}

// Default is the result when no window is active: 0 of 7 days in a 14-day
// challenge, 0%.
func Default() Progress {
	return defaultWith(DefaultRequiredDays, DefaultTotalDays)
}

func defaultWith(required, total int) Progress {
	return Progress{RequiredDays: required, TotalDays: total, RemainingDays: total}
}

// Percent is 100*written/required rounded half up and capped at 100.
func Percent(written, required int) int {
	if required <= 0 || written <= 0 {
		return 0
	}
	p := (200*written + required) / (2 * required)
	if p > 100 {
		return 100
	}
	return p
}

// Compute evaluates times against w. Events are cut into dates in loc and
// only dates within [w.StartDate, w.EndDate] count.
func Compute(times []time.Time, w Window, today calendar.Date, loc *time.Location) Progress {
	r := w.Range()
	days := calendar.Set{}
	for _, t := range times {
		if d := calendar.In(t, loc); r.Contains(d) {
			days.Add(d)
		}
	}

	written := days.Len()
	elapsed := 0
	if !today.Before(w.StartDate) {
		elapsed = min(today.Sub(w.StartDate)+1, w.TotalDays)
	}

	win := w
	return Progress{
		WrittenDays:     written,
		RequiredDays:    w.RequiredDays,
		TotalDays:       w.TotalDays,
		ProgressPercent: Percent(written, w.RequiredDays),
		ElapsedDays:     elapsed,
		RemainingDays:   w.TotalDays - elapsed,
		Completed:       written >= w.RequiredDays,
		HasChallenge:    true,
		Window:          &win,
	}
}
