// Package postgres is the managed-database backend. It implements the same
// post, streak and challenge ports as the SQLite stores.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rnwolfe/devlog/internal/activity"
	"github.com/rnwolfe/devlog/internal/calendar"
	"github.com/rnwolfe/devlog/internal/challenge"
	"github.com/rnwolfe/devlog/internal/streak"
)

// Store provides Postgres-backed persistence.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool. Call Migrate before first use.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to url, verifies the connection and applies migrations.
func Open(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		content TEXT NOT NULL,
		category TEXT NOT NULL,
		project TEXT NOT NULL DEFAULT '',
		duration_min INTEGER NOT NULL DEFAULT 0,
		link_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS streak_aggregates (
		user_id TEXT PRIMARY KEY,
		current_streak INTEGER NOT NULL DEFAULT 0 CHECK (current_streak >= 0),
		longest_streak INTEGER NOT NULL DEFAULT 0 CHECK (longest_streak >= current_streak),
		last_activity_date DATE,
		total_logs INTEGER NOT NULL DEFAULT 0,
		recomputed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS challenge_windows (
		id BIGSERIAL PRIMARY KEY,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		total_days INTEGER NOT NULL CHECK (total_days >= 1),
		required_days INTEGER NOT NULL CHECK (required_days >= 1 AND required_days <= total_days),
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_challenge_windows_single_active
		ON challenge_windows(is_active) WHERE is_active`,
}

// Migrate applies the schema idempotently.
func (s *Store) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

func dateArg(d calendar.Date) time.Time {
	return d.Start(time.UTC)
}

func toDate(t time.Time) calendar.Date {
	return calendar.New(t.Year(), t.Month(), t.Day())
}

// Posts

func (s *Store) CreatePost(ctx context.Context, p activity.Post) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO posts (id, user_id, content, category, project, duration_min, link_url, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.UserID, p.Content, p.Category, p.Project, p.DurationMin, p.LinkURL, p.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("adding post: %w", err)
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, userID, postID string) (activity.Post, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, content, category, project, duration_min, link_url, created_at, updated_at
		 FROM posts WHERE id = $1 AND user_id = $2`, postID, userID)
	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return activity.Post{}, fmt.Errorf("post %s: %w", postID, activity.ErrPostNotFound)
	}
	if err != nil {
		return activity.Post{}, fmt.Errorf("getting post %s: %w", postID, err)
	}
	return p, nil
}

func (s *Store) UpdatePost(ctx context.Context, userID, postID string, e activity.PostEdit, now time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE posts SET content = $1, category = $2, project = $3, duration_min = $4, link_url = $5, updated_at = $6
		 WHERE id = $7 AND user_id = $8`,
		e.Content, e.Category, e.Project, e.DurationMin, e.LinkURL, now.UTC(), postID, userID)
	if err != nil {
		return fmt.Errorf("updating post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("post %s: %w", postID, activity.ErrPostNotFound)
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, userID, postID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("post %s: %w", postID, activity.ErrPostNotFound)
	}
	return nil
}

func (s *Store) ListPosts(ctx context.Context, userID string, limit int) ([]activity.Post, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, content, category, project, duration_min, link_url, created_at, updated_at
		 FROM posts WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var posts []activity.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Store) ListActivityTimes(ctx context.Context, userID string, from, to *time.Time) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT created_at FROM posts
		 WHERE user_id = $1
		   AND ($2::timestamptz IS NULL OR created_at >= $2)
		   AND ($3::timestamptz IS NULL OR created_at < $3)`,
		userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	times, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	for i := range times {
		times[i] = times[i].UTC()
	}
	return times, nil
}

func (s *Store) PostCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id, COUNT(*) FROM posts GROUP BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("counting posts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var userID string
		var n int64
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, err
		}
		counts[userID] = int(n)
	}
	return counts, rows.Err()
}

func (s *Store) UserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT user_id FROM posts ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return ids, nil
}

func scanPost(row pgx.Row) (activity.Post, error) {
	var p activity.Post
	if err := row.Scan(&p.ID, &p.UserID, &p.Content, &p.Category, &p.Project, &p.DurationMin, &p.LinkURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return activity.Post{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	if p.UpdatedAt != nil {
		u := p.UpdatedAt.UTC()
		p.UpdatedAt = &u
	}
	return p, nil
}

// Streak aggregates

func (s *Store) GetAggregate(ctx context.Context, userID string) (*streak.Aggregate, error) {
	a, err := scanAggregate(s.pool.QueryRow(ctx,
		`SELECT user_id, current_streak, longest_streak, last_activity_date, total_logs, recomputed_at
		 FROM streak_aggregates WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting streak aggregate: %w", err)
	}
	return &a, nil
}

// PutAggregate upserts a unless the stored row was recomputed later.
func (s *Store) PutAggregate(ctx context.Context, a streak.Aggregate) error {
	var last *time.Time
	if a.LastActivity != nil {
		t := dateArg(*a.LastActivity)
		last = &t
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO streak_aggregates (user_id, current_streak, longest_streak, last_activity_date, total_logs, recomputed_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_activity_date = EXCLUDED.last_activity_date,
			total_logs = EXCLUDED.total_logs,
			recomputed_at = EXCLUDED.recomputed_at
		 WHERE streak_aggregates.recomputed_at <= EXCLUDED.recomputed_at`,
		a.UserID, a.CurrentStreak, a.LongestStreak, last, a.TotalLogs, a.RecomputedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving streak aggregate: %w", err)
	}
	return nil
}

func (s *Store) ListAggregates(ctx context.Context) ([]streak.Aggregate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, current_streak, longest_streak, last_activity_date, total_logs, recomputed_at
		 FROM streak_aggregates ORDER BY current_streak DESC, user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing streak aggregates: %w", err)
	}
	defer rows.Close()

	var out []streak.Aggregate
	for rows.Next() {
		a, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAggregate(row pgx.Row) (streak.Aggregate, error) {
	var a streak.Aggregate
	var last *time.Time
	if err := row.Scan(&a.UserID, &a.CurrentStreak, &a.LongestStreak, &last, &a.TotalLogs, &a.RecomputedAt); err != nil {
		return streak.Aggregate{}, err
	}
	if last != nil {
		d := toDate(*last)
		a.LastActivity = &d
	}
	a.RecomputedAt = a.RecomputedAt.UTC()
	return a, nil
}

// Challenge windows

const windowColumns = `id, start_date, end_date, total_days, required_days, is_active, created_by, created_at`

// CreateWindow deactivates every window and inserts w as active in one
// transaction. The table lock serializes concurrent admins so neither sees
// the other's row half-written.
func (s *Store) CreateWindow(ctx context.Context, w challenge.Window) (challenge.Window, error) {
	if err := w.Validate(); err != nil {
		return challenge.Window{}, err
	}
	if w.CreatedAt.IsZero() {
		return challenge.Window{}, fmt.Errorf("%w: created_at is required", challenge.ErrInvalidWindow)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return challenge.Window{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `LOCK TABLE challenge_windows IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return challenge.Window{}, fmt.Errorf("locking windows: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE challenge_windows SET is_active = FALSE WHERE is_active`); err != nil {
		return challenge.Window{}, fmt.Errorf("deactivating windows: %w", err)
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO challenge_windows (start_date, end_date, total_days, required_days, is_active, created_by, created_at)
		 VALUES ($1,$2,$3,$4,TRUE,$5,$6) RETURNING id`,
		dateArg(w.StartDate), dateArg(w.EndDate), w.TotalDays, w.RequiredDays, w.CreatedBy, w.CreatedAt.UTC(),
	).Scan(&w.ID)
	if err != nil {
		return challenge.Window{}, fmt.Errorf("inserting window: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return challenge.Window{}, fmt.Errorf("committing window: %w", err)
	}

	w.Active = true
	return w, nil
}

func (s *Store) ActiveWindows(ctx context.Context) ([]challenge.Window, error) {
	return s.queryWindows(ctx, `SELECT `+windowColumns+` FROM challenge_windows WHERE is_active ORDER BY created_at DESC, id DESC`)
}

func (s *Store) ListWindows(ctx context.Context) ([]challenge.Window, error) {
	return s.queryWindows(ctx, `SELECT `+windowColumns+` FROM challenge_windows ORDER BY created_at DESC, id DESC`)
}

func (s *Store) GetWindow(ctx context.Context, id int64) (challenge.Window, error) {
	ws, err := s.queryWindows(ctx, `SELECT `+windowColumns+` FROM challenge_windows WHERE id = $1`, id)
	if err != nil {
		return challenge.Window{}, err
	}
	if len(ws) == 0 {
		return challenge.Window{}, fmt.Errorf("window #%d: %w", id, challenge.ErrWindowNotFound)
	}
	return ws[0], nil
}

func (s *Store) DeactivateAll(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE challenge_windows SET is_active = FALSE WHERE is_active`)
	if err != nil {
		return 0, fmt.Errorf("deactivating windows: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) queryWindows(ctx context.Context, q string, args ...any) ([]challenge.Window, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing windows: %w", err)
	}
	defer rows.Close()

	var out []challenge.Window
	for rows.Next() {
		var w challenge.Window
		var start, end time.Time
		if err := rows.Scan(&w.ID, &start, &end, &w.TotalDays, &w.RequiredDays, &w.Active, &w.CreatedBy, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.StartDate, w.EndDate = toDate(start), toDate(end)
		w.CreatedAt = w.CreatedAt.UTC()
		out = append(out, w)
	}
	return out, rows.Err()
}
