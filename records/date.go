package records

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day (school records never need finer granularity)
// =============================================================================

// Date is a calendar day in UTC. Due dates, absence dates and card expiry
// are all day-granular; comparing two Dates ignores any time-of-day.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses an ISO "2006-01-02" date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return DateOf(d.t.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateOf(d.t.AddDate(0, n, 0)) }
func (d Date) AddYears(n int) Date  { return DateOf(d.t.AddDate(n, 0, 0)) }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Time() time.Time   { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// PeriodKey returns the "2006-01" month bucket, used by report rows.
func (d Date) PeriodKey() string { return d.t.Format("2006-01") }

// =============================================================================
// ACADEMIC CALENDAR
// =============================================================================

// NextAcademicYearEnd returns the first 30 June strictly after d.
// A card issued on 2024-09-10 expires 2025-06-30; one issued on
// 2025-06-30 expires 2026-06-30.
func NextAcademicYearEnd(d Date) Date {
	end := NewDate(d.Year(), time.June, 30)
	if d.Before(end) {
		return end
	}
	return NewDate(d.Year()+1, time.June, 30)
}
