package calendar

import "time"

// Clock supplies the current instant. Tests pin it with FixedClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Today returns the current date in loc according to c.
func Today(c Clock, loc *time.Location) Date {
	if c == nil {
		c = SystemClock{}
	}
	return In(c.Now(), loc)
}
