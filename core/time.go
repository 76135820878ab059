package core

import (
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar day (timesheets are day-granular)
// =============================================================================

const DateLayout = "2006-01-02"

type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads "2006-01-02" or an RFC3339 timestamp (the day part wins).
// Empty or malformed input yields the zero Date and ok=false.
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	if len(s) >= len(DateLayout) {
		if t, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return Date{Time: t}, true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDate(t.Year(), t.Month(), t.Day()), true
	}
	return Date{}, false
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(o Date) bool { return d.normalize().Before(o.normalize()) }
func (d Date) After(o Date) bool  { return d.normalize().After(o.normalize()) }
func (d Date) Equal(o Date) bool  { return d.normalize().Equal(o.normalize()) }
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) IsZero() bool       { return d.Time.IsZero() }
func (d Date) String() string     { return d.Time.Format(DateLayout) }

// =============================================================================
// DATE RANGE - Inclusive [From, To] filter
// =============================================================================

// DateRange filters timesheet entries. Both ends are inclusive. When either
// bound is zero the range is open and every entry passes, dated or not.
type DateRange struct {
	From Date
	To   Date
}

// ParseDateRange builds a range from query-string style values. A bound
// that fails to parse is treated as absent.
func ParseDateRange(from, to string) DateRange {
	f, _ := ParseDate(from)
	t, _ := ParseDate(to)
	return DateRange{From: f, To: t}
}

// Bounded reports whether date filtering applies at all.
func (r DateRange) Bounded() bool { return !r.From.IsZero() && !r.To.IsZero() }

// Valid is false only for a bounded range whose end precedes its start.
func (r DateRange) Valid() bool { return !r.Bounded() || !r.To.Before(r.From) }

// Includes applies the filter to a raw entry date. Undated entries are kept
// by an open range and dropped by a bounded one.
func (r DateRange) Includes(raw string) bool {
	if !r.Bounded() {
		return true
	}
	d, ok := ParseDate(raw)
	if !ok {
		return false
	}
	return !d.Before(r.From) && !d.After(r.To)
}

func (r DateRange) String() string {
	if !r.Bounded() {
		return "[all]"
	}
	return "[" + r.From.String() + ", " + r.To.String() + "]"
}
