package engine

import (
	"time"
)

// =============================================================================
// DAY - Calendar-date value (stats rows and references are day-scoped)
// =============================================================================

type Day struct {
	Time time.Time
}

// Constructors
func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

func Today() Day {
	return DayOf(time.Now())
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, err
	}
	return DayOf(t), nil
}

// Comparison
func (d Day) Before(other Day) bool { return d.normalize().Before(other.normalize()) }
func (d Day) Equal(other Day) bool  { return d.normalize().Equal(other.normalize()) }
func (d Day) After(other Day) bool  { return d.normalize().After(other.normalize()) }
func (d Day) IsZero() bool          { return d.Time.IsZero() }

func (d Day) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Day) AddDays(n int) Day { return Day{Time: d.Time.AddDate(0, 0, n)} }

// String returns the canonical YYYY-MM-DD form used as the stats row key.
func (d Day) String() string { return d.normalize().Format("2006-01-02") }

// Compact returns the YYYYMMDD form embedded in reference codes.
func (d Day) Compact() string { return d.normalize().Format("20060102") }
