package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/rnwolfe/devlog/internal/activity"
	"github.com/rnwolfe/devlog/internal/challenge"
	"github.com/rnwolfe/devlog/internal/config"
	"github.com/rnwolfe/devlog/internal/store"
	"github.com/rnwolfe/devlog/internal/store/postgres"
	"github.com/rnwolfe/devlog/internal/streak"
)

// Posts is the post-authoring side of a backend.
type Posts interface {
	CreatePost(ctx context.Context, p activity.Post) error
	GetPost(ctx context.Context, userID, postID string) (activity.Post, error)
	UpdatePost(ctx context.Context, userID, postID string, e activity.PostEdit, now time.Time) error
	DeletePost(ctx context.Context, userID, postID string) error
	ListPosts(ctx context.Context, userID string, limit int) ([]activity.Post, error)
	ListActivityTimes(ctx context.Context, userID string, from, to *time.Time) ([]time.Time, error)
	PostCounts(ctx context.Context) (map[string]int, error)
	UserIDs(ctx context.Context) ([]string, error)
}

// Aggregates stores streak aggregates.
type Aggregates interface {
	streak.AggregateStore
	ListAggregates(ctx context.Context) ([]streak.Aggregate, error)
}

// Windows stores challenge windows.
type Windows interface {
	challenge.WindowSource
	CreateWindow(ctx context.Context, w challenge.Window) (challenge.Window, error)
	ListWindows(ctx context.Context) ([]challenge.Window, error)
	GetWindow(ctx context.Context, id int64) (challenge.Window, error)
	DeactivateAll(ctx context.Context) (int64, error)
}

// Backend is everything the tracker persists.
type Backend interface {
	Posts
	Aggregates
	Windows
	Close() error
}

type (
	postStore      = activity.Store
	aggregateStore = streak.Store
	windowStore    = challenge.Store
)

// sqliteBackend joins the per-package SQLite stores over one database.
type sqliteBackend struct {
	*postStore
	*aggregateStore
	*windowStore
	db *store.DB
}

func (b *sqliteBackend) Close() error { return b.db.Close() }

// SQLite returns a Backend over an open SQLite database. Closing the backend
// closes db.
func SQLite(db *store.DB) Backend {
	conn := db.Conn()
	return &sqliteBackend{
		postStore:      activity.NewStore(conn),
		aggregateStore: streak.NewStore(conn),
		windowStore:    challenge.NewStore(conn),
		db:             db,
	}
}

// OpenBackend opens the backend selected by cfg.Database.
func OpenBackend(ctx context.Context, cfg config.DatabaseConfig) (Backend, error) {
	switch cfg.Driver {
	case "", "sqlite":
		var (
			db  *store.DB
			err error
		)
		if cfg.URL != "" {
			db, err = store.OpenPath(cfg.URL)
		} else {
			db, err = store.Open()
		}
		if err != nil {
			return nil, err
		}
		return SQLite(db), nil
	case "postgres":
		pg, err := postgres.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
