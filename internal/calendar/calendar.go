// Package calendar normalizes instants into civil dates in a single reference
// time zone. Every date comparison in devlog goes through this package so that
// "today" and event dates never disagree about which zone they were cut in.
package calendar

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"time"
)

// Layout is the textual form of a Date.
const Layout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns the date for y-m-d, normalizing overflow the way time.Date does
// (e.g. Feb 30 becomes Mar 1 or Mar 2).
func New(y int, m time.Month, d int) Date {
	return fromUTC(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// In returns the calendar date of t as observed in loc.
func In(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Parse parses a YYYY-MM-DD string.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return fromUTC(t), nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fromUTC(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.utc().Format(Layout)
}

// Start returns midnight of d in loc.
func (d Date) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n days (n may be negative).
func (d Date) AddDays(n int) Date {
	return fromUTC(d.utc().AddDate(0, 0, n))
}

// Sub returns the number of whole days from o to d.
func (d Date) Sub(o Date) int {
	return int(d.utc().Sub(o.utc()) / (24 * time.Hour))
}

// Compare returns -1, 0 or +1 as d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	return d.utc().Compare(o.utc())
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer; dates are stored as YYYY-MM-DD text.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	case time.Time:
		*d = Date{Year: v.Year(), Month: v.Month(), Day: v.Day()}
		return nil
	default:
		return fmt.Errorf("calendar: cannot scan %T into Date", src)
	}
}

// Set is a set of distinct dates.
type Set map[Date]struct{}

// NewSet normalizes times into loc and keeps one entry per calendar date.
func NewSet(times []time.Time, loc *time.Location) Set {
	s := make(Set, len(times))
	for _, t := range times {
		s.Add(In(t, loc))
	}
	return s
}

func (s Set) Add(d Date) { s[d] = struct{}{} }

func (s Set) Has(d Date) bool {
	_, ok := s[d]
	return ok
}

func (s Set) Len() int { return len(s) }

// Sorted returns the dates in ascending order.
func (s Set) Sorted() []Date {
	out := make([]Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Latest returns the most recent date in the set.
func (s Set) Latest() (Date, bool) {
	var latest Date
	found := false
	for d := range s {
		if !found || d.After(latest) {
			latest = d
			found = true
		}
	}
	return latest, found
}

// Range is an inclusive date range.
type Range struct {
	From Date
	To   Date
}

// Contains reports whether d lies in [From, To].
func (r Range) Contains(d Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// Days returns the number of dates in the range.
func (r Range) Days() int {
	if r.To.Before(r.From) {
		return 0
	}
	return r.To.Sub(r.From) + 1
}

// Bounds returns the half-open UTC instant range [From 00:00, To+1 00:00)
// covering the range in loc.
func (r Range) Bounds(loc *time.Location) (from, to time.Time) {
	return r.From.Start(loc).UTC(), r.To.AddDays(1).Start(loc).UTC()
}

// LoadZone resolves a zone name; the empty string means UTC.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}
