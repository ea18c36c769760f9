//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/rnwolfe/devlog/internal/activity"
	"github.com/rnwolfe/devlog/internal/calendar"
	"github.com/rnwolfe/devlog/internal/challenge"
	"github.com/rnwolfe/devlog/internal/streak"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("devlog"),
		postgrescontainer.WithUsername("devlog"),
		postgrescontainer.WithPassword("devlog"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	s, err := Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func TestPostsAndActivityTimes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		p := activity.Post{
			ID:        uuid.NewString(),
			UserID:    "alice",
			Content:   "log",
			Category:  "coding",
			CreatedAt: base.AddDate(0, 0, i),
		}
		require.NoError(t, s.CreatePost(ctx, p))
		ids = append(ids, p.ID)
	}

	all, err := s.ListActivityTimes(ctx, "alice", nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	from, to := base.AddDate(0, 0, 1), base.AddDate(0, 0, 2)
	ranged, err := s.ListActivityTimes(ctx, "alice", &from, &to)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.True(t, ranged[0].Equal(from))

	require.NoError(t, s.DeletePost(ctx, "alice", ids[0]))
	assert.ErrorIs(t, s.DeletePost(ctx, "alice", ids[0]), activity.ErrPostNotFound)

	counts, err := s.PostCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"alice": 2}, counts)
}

func TestAggregateUpsertGuard(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	last := calendar.MustParse("2026-06-03")
	t0 := time.Date(2026, time.June, 3, 18, 0, 0, 0, time.UTC)

	require.NoError(t, s.PutAggregate(ctx, streak.Aggregate{UserID: "alice", CurrentStreak: 3, LongestStreak: 3, LastActivity: &last, TotalLogs: 3, RecomputedAt: t0}))
	require.NoError(t, s.PutAggregate(ctx, streak.Aggregate{UserID: "alice", CurrentStreak: 1, LongestStreak: 1, LastActivity: &last, TotalLogs: 1, RecomputedAt: t0.Add(-time.Second)}))

	got, err := s.GetAggregate(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.CurrentStreak)
	assert.Equal(t, last, *got.LastActivity)

	missing, err := s.GetAggregate(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateWindowSingleActive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	t0 := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	a, err := challenge.NewWindow(calendar.MustParse("2026-06-01"), 14, 7, "admin")
	require.NoError(t, err)
	a.CreatedAt = t0
	a, err = s.CreateWindow(ctx, a)
	require.NoError(t, err)

	b, err := challenge.NewWindow(calendar.MustParse("2026-06-15"), 7, 7, "admin")
	require.NoError(t, err)
	b.CreatedAt = t0.Add(time.Hour)
	b, err = s.CreateWindow(ctx, b)
	require.NoError(t, err)

	_, err = s.CreateWindow(ctx, challenge.Window{StartDate: b.StartDate, EndDate: b.EndDate, TotalDays: 7, RequiredDays: 7})
	require.ErrorIs(t, err, challenge.ErrInvalidWindow)
	require.NoError(t, err)

	active, err := s.ActiveWindows(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)
	assert.Equal(t, calendar.MustParse("2026-06-21"), active[0].EndDate)

	got, err := s.GetWindow(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}
