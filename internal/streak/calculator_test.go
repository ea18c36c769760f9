package streak

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnwolfe/devlog/internal/calendar"
)

type fakeEvents struct {
	mu    sync.Mutex
	times map[string][]time.Time
	err   error
}

func (f *fakeEvents) ListActivityTimes(_ context.Context, userID string, _, _ *time.Time) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]time.Time(nil), f.times[userID]...), nil
}

type fakeStore struct {
	mu   sync.Mutex
	rows map[string]Aggregate
	err  error
}

func newFakeStore() *fakeStore { return &fakeStore{rows: map[string]Aggregate{}} }

func (f *fakeStore) GetAggregate(_ context.Context, userID string) (*Aggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[userID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeStore) PutAggregate(_ context.Context, a Aggregate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows[a.UserID] = a
	return nil
}

var now = time.Date(2026, time.March, 15, 18, 0, 0, 0, time.UTC)

func at(daysBack, hour int) time.Time {
	return time.Date(2026, time.March, 15-daysBack, hour, 0, 0, 0, time.UTC)
}

func newCalc(events EventSource, store AggregateStore, policy Policy) *Calculator {
	return NewCalculator(events, store, Config{
		Policy: policy,
		Clock:  calendar.FixedClock(now),
	})
}

func TestRecomputeZeroEvents(t *testing.T) {
	store := newFakeStore()
	c := newCalc(&fakeEvents{}, store, PolicyStrict)

	agg, err := c.Recompute(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, agg.CurrentStreak)
	assert.Nil(t, agg.LastActivity)
	assert.Equal(t, 0, agg.TotalLogs)
	assert.Contains(t, store.rows, "alice")
}

func TestRecomputeSameDayDedup(t *testing.T) {
	events := &fakeEvents{times: map[string][]time.Time{
		"alice": {at(0, 8), at(0, 12), at(0, 17)},
	}}
	c := newCalc(events, newFakeStore(), PolicyStrict)

	agg, err := c.Recompute(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, agg.CurrentStreak)
	assert.Equal(t, 3, agg.TotalLogs)
	require.NotNil(t, agg.LastActivity)
	assert.Equal(t, calendar.MustParse("2026-03-15"), *agg.LastActivity)
}

func TestRecomputeTodayMissingPolicies(t *testing.T) {
	events := &fakeEvents{times: map[string][]time.Time{
		"alice": {at(1, 9), at(2, 9)},
	}}

	strict, err := newCalc(events, newFakeStore(), PolicyStrict).Recompute(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, strict.CurrentStreak)
	assert.Equal(t, 2, strict.LongestStreak)
	require.NotNil(t, strict.LastActivity)
	assert.Equal(t, calendar.MustParse("2026-03-14"), *strict.LastActivity)

	grace, err := newCalc(events, newFakeStore(), PolicyGrace).Recompute(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, grace.CurrentStreak)
}

func TestRecomputeUsesReferenceZone(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	// 2026-03-15 18:00 UTC is 2026-03-16 03:00 in Seoul. The events below are
	// the 15th and 16th in Seoul but both the 15th in UTC.
	events := &fakeEvents{times: map[string][]time.Time{
		"alice": {
			time.Date(2026, time.March, 15, 1, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 15, 16, 0, 0, 0, time.UTC),
		},
	}}

	c := NewCalculator(events, newFakeStore(), Config{
		Location: seoul,
		Clock:    calendar.FixedClock(now),
	})
	agg, err := c.Recompute(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, agg.CurrentStreak)

	utc := newCalc(events, newFakeStore(), PolicyStrict)
	agg, err = utc.Recompute(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, agg.CurrentStreak)
}

func TestRecomputeFetchErrorLeavesAggregate(t *testing.T) {
	store := newFakeStore()
	previous := Aggregate{UserID: "alice", CurrentStreak: 4, LongestStreak: 4, TotalLogs: 4}
	store.rows["alice"] = previous

	c := newCalc(&fakeEvents{err: errors.New("connection refused")}, store, PolicyStrict)
	_, err := c.Recompute(context.Background(), "alice")
	require.ErrorIs(t, err, ErrDataFetch)
	assert.Equal(t, previous, store.rows["alice"])
}

func TestRecomputeWriteErrorSurfaces(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("disk full")
	events := &fakeEvents{times: map[string][]time.Time{"alice": {at(0, 9)}}}

	_, err := newCalc(events, store, PolicyStrict).Recompute(context.Background(), "alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDataFetch)
	assert.Empty(t, store.rows)
}

func TestRecomputeOverwritesAfterDelete(t *testing.T) {
	events := &fakeEvents{times: map[string][]time.Time{
		"alice": {at(0, 9), at(1, 9), at(2, 9)},
	}}
	store := newFakeStore()
	c := newCalc(events, store, PolicyStrict)

	agg, err := c.Recompute(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, agg.CurrentStreak)

	events.mu.Lock()
	events.times["alice"] = []time.Time{at(0, 9), at(2, 9)}
	events.mu.Unlock()

	agg, err = c.Recompute(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, agg.CurrentStreak)
	assert.Equal(t, 2, agg.TotalLogs)
	assert.Equal(t, 1, store.rows["alice"].CurrentStreak)
}

func TestConcurrentRecomputeSameUser(t *testing.T) {
	events := &fakeEvents{times: map[string][]time.Time{
		"alice": {at(0, 9), at(1, 9)},
	}}
	store := newFakeStore()
	c := newCalc(events, store, PolicyStrict)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Recompute(context.Background(), "alice")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, store.rows["alice"].CurrentStreak)
	assert.Equal(t, 0, c.locks.size())
}

func TestGetMissingAggregate(t *testing.T) {
	c := newCalc(&fakeEvents{}, newFakeStore(), PolicyStrict)
	agg, err := c.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, Aggregate{UserID: "nobody"}, agg)
}

func TestRecomputeAll(t *testing.T) {
	events := &fakeEvents{times: map[string][]time.Time{
		"alice": {at(0, 9)},
		"bob":   {at(0, 9), at(1, 9)},
		"carol": {at(3, 9)},
	}}
	store := newFakeStore()
	c := newCalc(events, store, PolicyStrict)

	n, err := c.RecomputeAll(context.Background(), []string{"alice", "bob", "carol"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, store.rows["bob"].CurrentStreak)
	assert.Equal(t, 0, store.rows["carol"].CurrentStreak)
}

func TestAggregateValidate(t *testing.T) {
	d := calendar.MustParse("2026-03-15")
	assert.NoError(t, Aggregate{UserID: "a"}.Validate())
	assert.NoError(t, Aggregate{UserID: "a", CurrentStreak: 1, LongestStreak: 2, LastActivity: &d, TotalLogs: 3}.Validate())

	bad := []Aggregate{
		{},
		{UserID: "a", CurrentStreak: 3, LongestStreak: 2, LastActivity: &d, TotalLogs: 3},
		{UserID: "a", LastActivity: &d},
		{UserID: "a", TotalLogs: 1},
		{UserID: "a", CurrentStreak: -1, LastActivity: &d, TotalLogs: 1},
	}
	for _, a := range bad {
		assert.ErrorIs(t, a.Validate(), ErrInvalidAggregate, "%+v", a)
	}
}

// tickingClock advances a second on every read.
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// gatedEvents returns a fixed set of times but holds the fetch until released.
type gatedEvents struct {
	times    []time.Time
	fetching chan struct{}
	release  chan struct{}
}

func (g *gatedEvents) ListActivityTimes(_ context.Context, _ string, _, _ *time.Time) ([]time.Time, error) {
	close(g.fetching)
	<-g.release
	return g.times, nil
}

func TestRecomputeStaleFetchAcrossProcesses(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	clock := &tickingClock{t: now}

	slow := &gatedEvents{
		times:    []time.Time{at(1, 9)},
		fetching: make(chan struct{}),
		release:  make(chan struct{}),
	}
	fresh := &fakeEvents{times: map[string][]time.Time{
		"alice": {at(1, 9), at(0, 9)},
	}}
	a := NewCalculator(slow, s, Config{Clock: clock})
	b := NewCalculator(fresh, s, Config{Clock: clock})

	done := make(chan error, 1)
	go func() {
		_, err := a.Recompute(ctx, "alice")
		done <- err
	}()

	<-slow.fetching
	_, err := b.Recompute(ctx, "alice")
	require.NoError(t, err)
	close(slow.release)
	require.NoError(t, <-done)

	got, err := s.GetAggregate(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 2, got.TotalLogs)
	require.NotNil(t, got.LastActivity)
	assert.Equal(t, calendar.MustParse("2026-03-15"), *got.LastActivity)
}
