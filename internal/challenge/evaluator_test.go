package challenge

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnwolfe/devlog/internal/calendar"
	"github.com/rnwolfe/devlog/internal/logging"
)

type fakeEvents struct {
	times map[string][]time.Time
	err   error
	calls int
}

func (f *fakeEvents) ListActivityTimes(_ context.Context, userID string, from, to *time.Time) ([]time.Time, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []time.Time
	for _, t := range f.times[userID] {
		if from != nil && t.Before(*from) {
			continue
		}
		if to != nil && !t.Before(*to) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type fakeWindows struct {
	active []Window
	err    error
}

func (f *fakeWindows) ActiveWindows(context.Context) ([]Window, error) {
	return f.active, f.err
}

var today = time.Date(2026, time.June, 10, 18, 0, 0, 0, time.UTC)

func TestEvaluateNilWindowIsDefault(t *testing.T) {
	events := &fakeEvents{}
	e := NewEvaluator(events, &fakeWindows{}, Config{Clock: calendar.FixedClock(today)})

	p, err := e.Evaluate(context.Background(), "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
	assert.Equal(t, 0, events.calls, "no fetch without a window")
}

func TestEvaluateConfiguredDefault(t *testing.T) {
	e := NewEvaluator(&fakeEvents{}, &fakeWindows{}, Config{DefaultRequiredDays: 20, DefaultTotalDays: 30})
	p, err := e.Progress(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 20, p.RequiredDays)
	assert.Equal(t, 30, p.TotalDays)
}

func TestEvaluateWindow(t *testing.T) {
	w := mustWindow(t, "2026-06-01", 14, 7)
	events := &fakeEvents{times: map[string][]time.Time{
		"alice": {noon("2026-06-01"), noon("2026-06-02"), noon("2026-06-14"), noon("2026-06-15")},
	}}
	e := NewEvaluator(events, &fakeWindows{active: []Window{w}}, Config{Clock: calendar.FixedClock(today)})

	p, err := e.Progress(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, p.WrittenDays)
	assert.Equal(t, 43, p.ProgressPercent)
	assert.Equal(t, 10, p.ElapsedDays)
	require.NotNil(t, p.Window)
	assert.Equal(t, w.StartDate, p.Window.StartDate)
}

func TestEvaluateFetchError(t *testing.T) {
	w := mustWindow(t, "2026-06-01", 14, 7)
	e := NewEvaluator(&fakeEvents{err: errors.New("timeout")}, &fakeWindows{}, Config{})
	_, err := e.Evaluate(context.Background(), "alice", &w)
	assert.ErrorIs(t, err, ErrDataFetch)
}

func TestActiveWindowSourceError(t *testing.T) {
	e := NewEvaluator(&fakeEvents{}, &fakeWindows{err: errors.New("down")}, Config{})
	_, err := e.Progress(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrDataFetch)
}

func TestActiveRecoversFromDuplicates(t *testing.T) {
	older := mustWindow(t, "2026-05-01", 7, 3)
	older.ID, older.Active, older.CreatedAt = 1, true, today.Add(-72*time.Hour)
	newer := mustWindow(t, "2026-06-01", 14, 7)
	newer.ID, newer.Active, newer.CreatedAt = 2, true, today.Add(-24*time.Hour)

	var buf bytes.Buffer
	e := NewEvaluator(&fakeEvents{}, &fakeWindows{active: []Window{older, newer}}, Config{
		Clock:  calendar.FixedClock(today),
		Logger: logging.NewWithWriter(&buf, "info", "json"),
	})

	w, err := e.Active(context.Background())
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, int64(2), w.ID)
	assert.Contains(t, buf.String(), "more than one active challenge window")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestBoard(t *testing.T) {
	w := mustWindow(t, "2026-06-01", 14, 7)
	events := &fakeEvents{times: map[string][]time.Time{
		"alice": {noon("2026-06-01")},
		"bob":   {noon("2026-06-01"), noon("2026-06-02")},
		"carol": {noon("2026-06-03")},
	}}
	e := NewEvaluator(events, &fakeWindows{active: []Window{w}}, Config{Clock: calendar.FixedClock(today)})

	got, board, err := e.Board(context.Background(), []string{"carol", "alice", "bob", "dave"})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, board, 4)
	assert.Equal(t, "bob", board[0].UserID)
	assert.Equal(t, 2, board[0].WrittenDays)
	assert.Equal(t, "alice", board[1].UserID)
	assert.Equal(t, "carol", board[2].UserID)
	assert.Equal(t, "dave", board[3].UserID)
	assert.Nil(t, board[0].Window)
}

func TestBoardWithoutChallenge(t *testing.T) {
	e := NewEvaluator(&fakeEvents{}, &fakeWindows{}, Config{})
	w, board, err := e.Board(context.Background(), []string{"alice"})
	require.NoError(t, err)
	assert.Nil(t, w)
	assert.Nil(t, board)
}
