package challenge

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rnwolfe/devlog/internal/store"
)

// Store persists challenge windows in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new window store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const windowColumns = `id, start_date, end_date, total_days, required_days, is_active, created_by, created_at`

// CreateWindow deactivates every window and inserts w as the active one in
// a single transaction. Either both happen or neither does.
func (s *Store) CreateWindow(ctx context.Context, w Window) (Window, error) {
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	if w.CreatedAt.IsZero() {
		return Window{}, fmt.Errorf("%w: created_at is required", ErrInvalidWindow)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Window{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE challenge_windows SET is_active = 0 WHERE is_active = 1`); err != nil {
		return Window{}, fmt.Errorf("deactivating windows: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO challenge_windows (start_date, end_date, total_days, required_days, is_active, created_by, created_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		w.StartDate, w.EndDate, w.TotalDays, w.RequiredDays, w.CreatedBy, w.CreatedAt.UTC().Format(store.TimeLayout),
	)
	if err != nil {
		return Window{}, fmt.Errorf("inserting window: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Window{}, fmt.Errorf("reading window id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Window{}, fmt.Errorf("committing window: %w", err)
	}

	w.ID = id
	w.Active = true
	return w, nil
}

// ActiveWindows returns every row flagged active, newest first.
func (s *Store) ActiveWindows(ctx context.Context) ([]Window, error) {
	return s.query(ctx, `SELECT `+windowColumns+` FROM challenge_windows WHERE is_active = 1 ORDER BY created_at DESC, id DESC`)
}

// ListWindows returns every window, newest first.
func (s *Store) ListWindows(ctx context.Context) ([]Window, error) {
	return s.query(ctx, `SELECT `+windowColumns+` FROM challenge_windows ORDER BY created_at DESC, id DESC`)
}

// GetWindow returns one window by ID.
func (s *Store) GetWindow(ctx context.Context, id int64) (Window, error) {
	ws, err := s.query(ctx, `SELECT `+windowColumns+` FROM challenge_windows WHERE id = ?`, id)
	if err != nil {
		return Window{}, err
	}
	if len(ws) == 0 {
		return Window{}, fmt.Errorf("window #%d: %w", id, ErrWindowNotFound)
	}
	return ws[0], nil
}

// DeactivateAll ends the current challenge. It returns how many rows changed.
func (s *Store) DeactivateAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE challenge_windows SET is_active = 0 WHERE is_active = 1`)
	if err != nil {
		return 0, fmt.Errorf("deactivating windows: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Window, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing windows: %w", err)
	}
	defer rows.Close()

	var out []Window
	for rows.Next() {
		var w Window
		var active int
		var created string
		if err := rows.Scan(&w.ID, &w.StartDate, &w.EndDate, &w.TotalDays, &w.RequiredDays, &active, &w.CreatedBy, &created); err != nil {
			return nil, err
		}
		w.Active = active == 1
		t, err := time.ParseInLocation(store.TimeLayout, created, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", created, err)
		}
		w.CreatedAt = t
		out = append(out, w)
	}
	return out, rows.Err()
}
