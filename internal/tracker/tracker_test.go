package tracker

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnwolfe/devlog/internal/activity"
	"github.com/rnwolfe/devlog/internal/calendar"
	"github.com/rnwolfe/devlog/internal/challenge"
	"github.com/rnwolfe/devlog/internal/store"
	"github.com/rnwolfe/devlog/internal/streak"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func newTestTracker(t *testing.T, policy streak.Policy) (*Tracker, *testClock) {
	t.Helper()
	db, err := store.OpenPath(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	clock := &testClock{t: time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)}
	tr := New(SQLite(db), Options{Policy: policy, Clock: clock})
	t.Cleanup(func() { tr.Close() })
	return tr, clock
}

func post(t *testing.T, tr *Tracker, userID string) (activity.Post, streak.Aggregate) {
	t.Helper()
	p, agg, err := tr.CreatePost(context.Background(), activity.NewPost{
		UserID:   userID,
		Content:  "worked on devlog",
		Category: "coding",
	})
	require.NoError(t, err)
	return p, agg
}

func TestCreatePostUpdatesStreak(t *testing.T) {
	tr, clock := newTestTracker(t, streak.PolicyStrict)
	ctx := context.Background()

	_, agg := post(t, tr, "alice")
	assert.Equal(t, 1, agg.CurrentStreak)

	clock.set(time.Date(2026, time.June, 2, 9, 0, 0, 0, time.UTC))
	_, agg = post(t, tr, "alice")
	_, agg = post(t, tr, "alice")
	assert.Equal(t, 2, agg.CurrentStreak)
	assert.Equal(t, 3, agg.TotalLogs)

	stored, err := tr.Streak(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, agg.CurrentStreak, stored.CurrentStreak)
	require.NotNil(t, stored.LastActivity)
	assert.Equal(t, calendar.MustParse("2026-06-02"), *stored.LastActivity)
}

func TestDeletePostRecomputes(t *testing.T) {
	tr, clock := newTestTracker(t, streak.PolicyStrict)
	ctx := context.Background()

	first, _ := post(t, tr, "alice")
	clock.set(time.Date(2026, time.June, 2, 9, 0, 0, 0, time.UTC))
	post(t, tr, "alice")

	agg, err := tr.DeletePost(ctx, "alice", first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.CurrentStreak)
	assert.Equal(t, 1, agg.LongestStreak)
	assert.Equal(t, 1, agg.TotalLogs)

	_, err = tr.DeletePost(ctx, "alice", first.ID)
	assert.True(t, IsNotFound(err))
}

func TestDeleteLastPostClearsAggregate(t *testing.T) {
	tr, _ := newTestTracker(t, streak.PolicyStrict)
	p, _ := post(t, tr, "alice")

	agg, err := tr.DeletePost(context.Background(), "alice", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, agg.CurrentStreak)
	assert.Equal(t, 0, agg.LongestStreak)
	assert.Nil(t, agg.LastActivity)
}

func TestDeleteOtherUsersPost(t *testing.T) {
	tr, _ := newTestTracker(t, streak.PolicyStrict)
	p, _ := post(t, tr, "alice")

	_, err := tr.DeletePost(context.Background(), "bob", p.ID)
	assert.True(t, IsNotFound(err))
}

func TestInvalidPost(t *testing.T) {
	tr, _ := newTestTracker(t, streak.PolicyStrict)
	_, _, err := tr.CreatePost(context.Background(), activity.NewPost{UserID: "alice"})
	assert.True(t, IsInvalid(err))
}

func TestUpdatePost(t *testing.T) {
	tr, clock := newTestTracker(t, streak.PolicyStrict)
	ctx := context.Background()
	p, _ := post(t, tr, "alice")

	clock.set(time.Date(2026, time.June, 5, 9, 0, 0, 0, time.UTC))
	got, err := tr.UpdatePost(ctx, "alice", p.ID, activity.PostEdit{Content: "edited", Category: "study", DurationMin: 30})
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))

	fetched, err := tr.Post(ctx, "alice", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "study", fetched.Category)
	require.NotNil(t, fetched.UpdatedAt)

	_, err = tr.Post(ctx, "bob", p.ID)
	assert.True(t, IsNotFound(err))

	_, err = tr.UpdatePost(ctx, "alice", p.ID, activity.PostEdit{Content: "", Category: "study"})
	assert.True(t, IsInvalid(err))
}

func TestSweepDropsStrictStreak(t *testing.T) {
	tr, clock := newTestTracker(t, streak.PolicyStrict)
	ctx := context.Background()

	post(t, tr, "alice")
	post(t, tr, "bob")

	clock.set(time.Date(2026, time.June, 2, 0, 5, 0, 0, time.UTC))
	n, err := tr.SweepStreaks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	agg, err := tr.Streak(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, agg.CurrentStreak)
	assert.Equal(t, 1, agg.LongestStreak)
}

func TestSweepKeepsGraceStreak(t *testing.T) {
	tr, clock := newTestTracker(t, streak.PolicyGrace)
	ctx := context.Background()
	post(t, tr, "alice")

	clock.set(time.Date(2026, time.June, 2, 0, 5, 0, 0, time.UTC))
	_, err := tr.SweepStreaks(ctx)
	require.NoError(t, err)

	agg, err := tr.Streak(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, agg.CurrentStreak)
}

func TestChallengeLifecycle(t *testing.T) {
	tr, clock := newTestTracker(t, streak.PolicyStrict)
	ctx := context.Background()

	p, err := tr.ChallengeProgress(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, challenge.Default(), p)

	a, err := tr.CreateChallenge(ctx, ChallengeInput{TotalDays: 14, RequiredDays: 7, CreatedBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, calendar.MustParse("2026-06-01"), a.StartDate)

	post(t, tr, "alice")
	clock.set(time.Date(2026, time.June, 3, 9, 0, 0, 0, time.UTC))
	post(t, tr, "alice")

	p, err = tr.ChallengeProgress(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, p.WrittenDays)
	assert.Equal(t, 29, p.ProgressPercent)
	assert.Equal(t, 3, p.ElapsedDays)

	b, err := tr.CreateChallenge(ctx, ChallengeInput{Start: calendar.MustParse("2026-06-03"), TotalDays: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, b.RequiredDays, "default required days is capped at total days")

	active, err := tr.ActiveChallenge(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, b.ID, active.ID)

	all, err := tr.Challenges(ctx)
	require.NoError(t, err)
	activeCount := 0
	for _, w := range all {
		if w.Active {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)

	ended, err := tr.EndChallenge(ctx)
	require.NoError(t, err)
	assert.True(t, ended)
	ended, err = tr.EndChallenge(ctx)
	require.NoError(t, err)
	assert.False(t, ended)

	p, err = tr.ChallengeProgress(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, p.HasChallenge)
}

func TestCreateChallengeRejectsRequiredAboveTotal(t *testing.T) {
	tr, _ := newTestTracker(t, streak.PolicyStrict)
	_, err := tr.CreateChallenge(context.Background(), ChallengeInput{TotalDays: 3, RequiredDays: 4})
	assert.True(t, IsInvalid(err))
}

func TestBoardHeatmapLeaderboard(t *testing.T) {
	tr, clock := newTestTracker(t, streak.PolicyStrict)
	ctx := context.Background()

	_, err := tr.CreateChallenge(ctx, ChallengeInput{TotalDays: 7, RequiredDays: 3})
	require.NoError(t, err)

	post(t, tr, "alice")
	post(t, tr, "bob")
	clock.set(time.Date(2026, time.June, 2, 9, 0, 0, 0, time.UTC))
	post(t, tr, "bob")
	post(t, tr, "bob")

	_, board, err := tr.Board(ctx)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "bob", board[0].UserID)
	assert.Equal(t, 2, board[0].WrittenDays)

	cells, err := tr.Heatmap(ctx, "bob", 1)
	require.NoError(t, err)
	require.Len(t, cells, 7)
	assert.Equal(t, 2, cells[6].Count)
	assert.Equal(t, 1, cells[5].Count)

	ranks, err := tr.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranks, 2)
	assert.Equal(t, activity.Rank{Rank: 1, UserID: "bob", TotalLogs: 3}, ranks[0])

	streaks, err := tr.Streaks(ctx)
	require.NoError(t, err)
	require.Len(t, streaks, 2)
	assert.Equal(t, "bob", streaks[0].UserID)
}
