package streak

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rnwolfe/devlog/internal/calendar"
	"github.com/rnwolfe/devlog/internal/store"
)

// Store persists aggregates in the streak_aggregates table.
type Store struct {
	db *sql.DB
}

// NewStore creates a new aggregate store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetAggregate returns nil, nil when the user has no row.
func (s *Store) GetAggregate(ctx context.Context, userID string) (*Aggregate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, current_streak, longest_streak, last_activity_date, total_logs, recomputed_at
		 FROM streak_aggregates WHERE user_id = ?`, userID,
	)

	var a Aggregate
	var last calendar.Date
	var recomputed string
	if err := row.Scan(&a.UserID, &a.CurrentStreak, &a.LongestStreak, &last, &a.TotalLogs, &recomputed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting streak aggregate: %w", err)
	}
	if !last.IsZero() {
		a.LastActivity = &last
	}
	t, err := time.ParseInLocation(store.TimeLayout, recomputed, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parsing recomputed_at %q: %w", recomputed, err)
	}
	a.RecomputedAt = t
	return &a, nil
}

// PutAggregate upserts a. A row recomputed later than a is kept, so an
// out-of-order write from a slower recompute cannot roll the row back.
func (s *Store) PutAggregate(ctx context.Context, a Aggregate) error {
	var last any
	if a.LastActivity != nil {
		last = a.LastActivity.String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO streak_aggregates (user_id, current_streak, longest_streak, last_activity_date, total_logs, recomputed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_activity_date = excluded.last_activity_date,
			total_logs = excluded.total_logs,
			recomputed_at = excluded.recomputed_at
		 WHERE excluded.recomputed_at >= streak_aggregates.recomputed_at`,
		a.UserID, a.CurrentStreak, a.LongestStreak, last, a.TotalLogs, a.RecomputedAt.UTC().Format(store.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("saving streak aggregate: %w", err)
	}
	return nil
}

// ListAggregates returns every stored aggregate ordered by current streak.
func (s *Store) ListAggregates(ctx context.Context) ([]Aggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, current_streak, longest_streak, last_activity_date, total_logs, recomputed_at
		 FROM streak_aggregates ORDER BY current_streak DESC, user_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing streak aggregates: %w", err)
	}
	defer rows.Close()

	var out []Aggregate
	for rows.Next() {
		var a Aggregate
		var last calendar.Date
		var recomputed string
		if err := rows.Scan(&a.UserID, &a.CurrentStreak, &a.LongestStreak, &last, &a.TotalLogs, &recomputed); err != nil {
			return nil, fmt.Errorf("scanning streak aggregate: %w", err)
		}
		if !last.IsZero() {
			a.LastActivity = &last
		}
		t, err := time.ParseInLocation(store.TimeLayout, recomputed, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing recomputed_at %q: %w", recomputed, err)
		}
		a.RecomputedAt = t
		out = append(out, a)
	}
	return out, rows.Err()
}
