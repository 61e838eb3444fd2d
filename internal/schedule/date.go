// Package schedule holds the pure habit scheduling rules: which days a habit
// is due, streak accounting, and reminder dispatch windows.
//
// Calendar dates are represented as time.Time values at midnight UTC so that
// day arithmetic never crosses a DST transition. Nothing in this package reads
// the wall clock.
package schedule

import "time"

const DateLayout = "2006-01-02"

// DateOf returns the calendar date of t, as seen in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LocalDate returns the calendar date a user in loc is living at instant now.
func LocalDate(now time.Time, loc *time.Location) time.Time {
	return DateOf(now.In(loc))
}

func ParseDate(s string) (time.Time, error) {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// LoadLocation resolves an IANA zone name, treating empty as UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
