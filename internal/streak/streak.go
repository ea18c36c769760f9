// Package streak derives a user's consecutive-day activity streak from the
// full set of their post timestamps.
package streak

import (
	"fmt"
	"strings"

	"github.com/rnwolfe/devlog/internal/calendar"
)

// Policy decides how a day without activity so far affects the current streak.
type Policy string

const (
	// PolicyStrict scans back from today; no post today means a streak of 0.
	PolicyStrict Policy = "strict"
	// PolicyGrace keeps yesterday's run alive until today ends.
	PolicyGrace Policy = "grace"
)

// ParsePolicy accepts "strict" or "grace"; empty means strict.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyStrict, nil
	case PolicyStrict, PolicyGrace:
		return p, nil
	default:
		return "", fmt.Errorf("unknown streak policy %q (expected strict or grace)", s)
	}
}

// Info holds current and longest streak values.
type Info struct {
	Current int
	Longest int
}

// Compute calculates the current and longest streaks from a set of distinct
// activity dates. All dates, today included, must be cut in the same zone.
//
// The current streak counts consecutive days with activity walking back from
// today. Under PolicyGrace a missing today is skipped when yesterday has
// activity. Dates after today are ignored for the current streak.
func Compute(days calendar.Set, today calendar.Date, policy Policy) Info {
	if days.Len() == 0 {
		return Info{}
	}

	start := today
	if policy == PolicyGrace && !days.Has(today) {
		start = today.AddDays(-1)
	}
	var current int
	for d := start; days.Has(d); d = d.AddDays(-1) {
		current++
	}

	// Longest streak: scan all dates in ascending order.
	asc := days.Sorted()
	longest, run := 1, 1
	for i := 1; i < len(asc); i++ {
		if asc[i].Sub(asc[i-1]) == 1 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}

	if current > longest {
		longest = current
	}
	return Info{Current: current, Longest: longest}
}
