package streak

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rnwolfe/devlog/internal/calendar"
)

var (
	// ErrDataFetch means the event source could not be read; nothing was written.
	ErrDataFetch = errors.New("fetching activity failed")
	// ErrInvalidAggregate means a computed aggregate broke its own invariants.
	ErrInvalidAggregate = errors.New("invalid streak aggregate")
)

// Aggregate is the persisted per-user streak record. It is always derived
// from the full event set and written by overwrite.
type Aggregate struct {
	UserID        string         `json:"user_id" validate:"required"`
	CurrentStreak int            `json:"current_streak" validate:"gte=0"`
	LongestStreak int            `json:"longest_streak" validate:"gte=0,gtefield=CurrentStreak"`
	LastActivity  *calendar.Date `json:"last_activity_date"`
	TotalLogs     int            `json:"total_logs" validate:"gte=0"`
	RecomputedAt  time.Time      `json:"recomputed_at"`
}

var validate = validator.New()

// Validate checks field ranges and that LastActivity is set exactly when the
// user has posts.
func (a Aggregate) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAggregate, err)
	}
	if (a.LastActivity == nil) != (a.TotalLogs == 0) {
		return fmt.Errorf("%w: last activity %v with %d logs", ErrInvalidAggregate, a.LastActivity, a.TotalLogs)
	}
	if a.TotalLogs == 0 && a.LongestStreak != 0 {
		return fmt.Errorf("%w: longest streak %d with no logs", ErrInvalidAggregate, a.LongestStreak)
	}
	return nil
}

// EventSource lists activity instants for a user. from is inclusive, to is
// exclusive, and either may be nil.
type EventSource interface {
	ListActivityTimes(ctx context.Context, userID string, from, to *time.Time) ([]time.Time, error)
}

// AggregateStore reads and writes streak aggregates. GetAggregate returns
// nil, nil when the user has none yet.
type AggregateStore interface {
	GetAggregate(ctx context.Context, userID string) (*Aggregate, error)
	PutAggregate(ctx context.Context, a Aggregate) error
}
