package activity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rnwolfe/devlog/internal/store"
)

// Store handles post persistence on SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new post store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(store.TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(store.TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// CreatePost inserts p.
func (s *Store) CreatePost(ctx context.Context, p Post) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, content, category, project, duration_min, link_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Content, p.Category, p.Project, p.DurationMin, p.LinkURL, formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("adding post: %w", err)
	}
	return nil
}

// GetPost returns one post owned by userID.
func (s *Store) GetPost(ctx context.Context, userID, postID string) (Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, content, category, project, duration_min, link_url, created_at, updated_at
		 FROM posts WHERE id = ? AND user_id = ?`, postID, userID,
	)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, fmt.Errorf("post %s: %w", postID, ErrPostNotFound)
	}
	if err != nil {
		return Post{}, fmt.Errorf("getting post %s: %w", postID, err)
	}
	return p, nil
}

// UpdatePost rewrites the editable fields of a post owned by userID.
// CreatedAt never changes, so edits do not move the activity event.
func (s *Store) UpdatePost(ctx context.Context, userID, postID string, e PostEdit, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET content = ?, category = ?, project = ?, duration_min = ?, link_url = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		e.Content, e.Category, e.Project, e.DurationMin, e.LinkURL, formatTime(now), postID, userID,
	)
	if err != nil {
		return fmt.Errorf("updating post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("post %s: %w", postID, ErrPostNotFound)
	}
	return nil
}

// DeletePost removes a post owned by userID.
func (s *Store) DeletePost(ctx context.Context, userID, postID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("post %s: %w", postID, ErrPostNotFound)
	}
	return nil
}

// ListPosts returns the user's most recent posts, newest first.
func (s *Store) ListPosts(ctx context.Context, userID string, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, content, category, project, duration_min, link_url, created_at, updated_at
		 FROM posts WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListActivityTimes returns the creation instants of the user's posts.
// from is inclusive and to is exclusive; either may be nil. Order is not
// guaranteed.
func (s *Store) ListActivityTimes(ctx context.Context, userID string, from, to *time.Time) ([]time.Time, error) {
	query := `SELECT created_at FROM posts WHERE user_id = ?`
	args := []any{userID}
	if from != nil {
		query += ` AND created_at >= ?`
		args = append(args, formatTime(*from))
	}
	if to != nil {
		query += ` AND created_at < ?`
		args = append(args, formatTime(*to))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		t, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// PostCounts returns the number of posts per user.
func (s *Store) PostCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, COUNT(*) FROM posts GROUP BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("counting posts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var userID string
		var n int
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, err
		}
		counts[userID] = n
	}
	return counts, rows.Err()
}

// UserIDs returns every user that has at least one post, sorted.
func (s *Store) UserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM posts ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (Post, error) {
	var p Post
	var created string
	var updated sql.NullString
	if err := row.Scan(&p.ID, &p.UserID, &p.Content, &p.Category, &p.Project, &p.DurationMin, &p.LinkURL, &created, &updated); err != nil {
		return Post{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return Post{}, err
	}
	p.CreatedAt = t
	if updated.Valid && updated.String != "" {
		u, err := parseTime(updated.String)
		if err != nil {
			return Post{}, err
		}
		p.UpdatedAt = &u
	}
	return p, nil
}
