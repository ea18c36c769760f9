// Package challenge evaluates progress against the admin-defined challenge
// window and keeps at most one window active.
package challenge

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rnwolfe/devlog/internal/calendar"
)

var (
	// ErrInvalidWindow rejects a window whose day counts are out of range.
	ErrInvalidWindow = errors.New("invalid challenge window")
	// ErrMultipleActive reports more than one active window on read.
	ErrMultipleActive = errors.New("multiple active challenge windows")
	// ErrWindowNotFound is returned for an unknown window ID.
	ErrWindowNotFound = errors.New("challenge window not found")
	// ErrDataFetch means events or windows could not be read.
	ErrDataFetch = errors.New("fetching challenge data failed")
)

// Window is an admin-defined challenge. Only Active changes after creation.
type Window struct {
	ID           int64         `json:"id"`
	StartDate    calendar.Date `json:"start_date"`
	EndDate      calendar.Date `json:"end_date"`
	TotalDays    int           `json:"total_days" validate:"gte=1"`
	RequiredDays int           `json:"required_days" validate:"gte=1,ltefield=TotalDays"`
	Active       bool          `json:"is_active"`
	CreatedBy    string        `json:"created_by,omitempty" validate:"max=128"`
	CreatedAt    time.Time     `json:"created_at"`
}

var validate = validator.New()

// NewWindow builds an inactive window starting at start and running for
// totalDays days. requiredDays must lie in [1, totalDays].
func NewWindow(start calendar.Date, totalDays, requiredDays int, createdBy string) (Window, error) {
	w := Window{
		StartDate:    start,
		TotalDays:    totalDays,
		RequiredDays: requiredDays,
		CreatedBy:    createdBy,
	}
	if totalDays >= 1 {
		w.EndDate = start.AddDays(totalDays - 1)
	}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate checks the day counts and that EndDate matches StartDate+TotalDays-1.
func (w Window) Validate() error {
	if w.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidWindow)
	}
	if err := validate.Struct(w); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			switch fe.Field() {
			case "TotalDays":
				return fmt.Errorf("%w: total days must be at least 1, got %d", ErrInvalidWindow, w.TotalDays)
			case "RequiredDays":
				return fmt.Errorf("%w: required days must be between 1 and %d, got %d", ErrInvalidWindow, w.TotalDays, w.RequiredDays)
			}
		}
		return fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	if w.EndDate != w.StartDate.AddDays(w.TotalDays-1) {
		return fmt.Errorf("%w: end date %s does not match %d days from %s", ErrInvalidWindow, w.EndDate, w.TotalDays, w.StartDate)
	}
	return nil
}

// Range returns the inclusive date range of the window.
func (w Window) Range() calendar.Range {
	return calendar.Range{From: w.StartDate, To: w.EndDate}
}

// PickActive resolves the active window from the rows flagged active.
// With more than one it returns the most recently created window (highest ID
// on a tie) together with ErrMultipleActive so the caller can report it.
func PickActive(ws []Window) (*Window, error) {
	switch len(ws) {
	case 0:
		return nil, nil
	case 1:
		w := ws[0]
		return &w, nil
	}

	sorted := append([]Window(nil), ws...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	w := sorted[0]
	return &w, fmt.Errorf("%w: %d rows flagged active", ErrMultipleActive, len(ws))
}
