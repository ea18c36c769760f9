package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnwolfe/devlog/internal/calendar"
)

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, 0, p.WrittenDays)
	assert.Equal(t, 7, p.RequiredDays)
	assert.Equal(t, 14, p.TotalDays)
	assert.Equal(t, 0, p.ProgressPercent)
	assert.False(t, p.HasChallenge)
	assert.Nil(t, p.Window)
}

func TestPercent(t *testing.T) {
	cases := []struct{ written, required, want int }{
		{0, 7, 0},
		{1, 7, 14},
		{1, 8, 13}, // 12.5 rounds up
		{1, 3, 33},
		{2, 3, 67},
		{7, 7, 100},
		{10, 7, 100},
		{3, 0, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Percent(c.written, c.required), "%d/%d", c.written, c.required)
	}
}

func mustWindow(t *testing.T, start string, total, required int) Window {
	t.Helper()
	w, err := NewWindow(calendar.MustParse(start), total, required, "admin")
	require.NoError(t, err)
	return w
}

func noon(date string) time.Time {
	return calendar.MustParse(date).Start(time.UTC).Add(12 * time.Hour)
}

func TestComputeBoundaries(t *testing.T) {
	w := mustWindow(t, "2026-06-01", 14, 7)
	today := calendar.MustParse("2026-06-20")

	times := []time.Time{
		noon("2026-05-31"), // before start
		noon("2026-06-01"), // start
		noon("2026-06-01"), // same day again
		noon("2026-06-07"),
		noon("2026-06-14"), // end date counts
		noon("2026-06-15"), // one past end
	}

	p := Compute(times, w, today, time.UTC)
	assert.Equal(t, 3, p.WrittenDays)
	assert.Equal(t, 7, p.RequiredDays)
	assert.Equal(t, 14, p.TotalDays)
	assert.Equal(t, 43, p.ProgressPercent)
	assert.Equal(t, 14, p.ElapsedDays)
	assert.Equal(t, 0, p.RemainingDays)
	assert.False(t, p.Completed)
	assert.True(t, p.HasChallenge)
}

func TestComputeClamp(t *testing.T) {
	w := mustWindow(t, "2026-06-01", 14, 7)
	var times []time.Time
	for i := 0; i < 10; i++ {
		times = append(times, noon(calendar.MustParse("2026-06-01").AddDays(i).String()))
	}
	p := Compute(times, w, calendar.MustParse("2026-06-10"), time.UTC)
	assert.Equal(t, 10, p.WrittenDays)
	assert.Equal(t, 100, p.ProgressPercent)
	assert.True(t, p.Completed)
	assert.Equal(t, 10, p.ElapsedDays)
	assert.Equal(t, 4, p.RemainingDays)
}

func TestComputeEdgeCases(t *testing.T) {
	today := calendar.MustParse("2026-06-10")

	t.Run("no slack", func(t *testing.T) {
		w := mustWindow(t, "2026-06-08", 3, 3)
		p := Compute([]time.Time{noon("2026-06-08"), noon("2026-06-09"), noon("2026-06-10")}, w, today, time.UTC)
		assert.Equal(t, 100, p.ProgressPercent)
		assert.True(t, p.Completed)
	})

	t.Run("required one", func(t *testing.T) {
		w := mustWindow(t, "2026-06-08", 3, 1)
		p := Compute([]time.Time{noon("2026-06-09")}, w, today, time.UTC)
		assert.Equal(t, 100, p.ProgressPercent)
	})

	t.Run("future window", func(t *testing.T) {
		w := mustWindow(t, "2026-07-01", 14, 7)
		p := Compute([]time.Time{noon("2026-06-10")}, w, today, time.UTC)
		assert.Equal(t, 0, p.WrittenDays)
		assert.Equal(t, 0, p.ProgressPercent)
		assert.Equal(t, 0, p.ElapsedDays)
		assert.Equal(t, 14, p.RemainingDays)
	})

	t.Run("past window", func(t *testing.T) {
		w := mustWindow(t, "2026-05-01", 7, 5)
		p := Compute([]time.Time{noon("2026-05-02"), noon("2026-05-03"), noon("2026-06-10")}, w, today, time.UTC)
		assert.Equal(t, 2, p.WrittenDays)
		assert.Equal(t, 40, p.ProgressPercent)
		assert.Equal(t, 7, p.ElapsedDays)
	})

	t.Run("zero events", func(t *testing.T) {
		w := mustWindow(t, "2026-06-01", 14, 7)
		p := Compute(nil, w, today, time.UTC)
		assert.Equal(t, 0, p.WrittenDays)
		assert.Equal(t, 0, p.ProgressPercent)
		assert.Equal(t, 10, p.ElapsedDays)
	})
}

func TestComputeReferenceZone(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	w := mustWindow(t, "2026-06-01", 7, 3)

	// 2026-05-31 16:00 UTC is 2026-06-01 01:00 in Seoul.
	times := []time.Time{time.Date(2026, time.May, 31, 16, 0, 0, 0, time.UTC)}
	assert.Equal(t, 1, Compute(times, w, calendar.MustParse("2026-06-03"), seoul).WrittenDays)
	assert.Equal(t, 0, Compute(times, w, calendar.MustParse("2026-06-03"), time.UTC).WrittenDays)
}
