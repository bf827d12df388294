// Package dateutil converts between calendar dates and the YYYY-MM-DD strings
// habits are keyed by. All arithmetic is done on UTC midnights so day
// differences are never skewed by DST transitions.
package dateutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/habitloop/internal/model"
)

// Layout is the ISO calendar date format used for every date string.
const Layout = "2006-01-02"

// ErrInvalidDate is returned for any date string that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

var weekdayTokens = [7]model.Weekday{
	model.Sunday, model.Monday, model.Tuesday, model.Wednesday,
	model.Thursday, model.Friday, model.Saturday,
}

// Parse returns the UTC midnight for date.
func Parse(date string) (time.Time, error) {
	if len(date) != len(Layout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	t, err := time.Parse(Layout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// Valid reports whether date parses.
func Valid(date string) bool {
	_, err := Parse(date)
	return err == nil
}

// Format returns the calendar date of t in t's own location.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Today returns the calendar date of now as seen from loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return Format(now.In(loc))
}

// AddDays shifts date by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return Format(t.AddDate(0, 0, n)), nil
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b string) (int, error) {
	ta, err := Parse(a)
	if err != nil {
		return 0, err
	}
	tb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

// Weekday returns the day token for date, sun through sat.
func Weekday(date string) (model.Weekday, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return weekdayTokens[t.Weekday()], nil
}

// DayName returns the English weekday name for date.
func DayName(date string) (string, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return t.Weekday().String(), nil
}

// WeekDates returns the seven dates of the Sunday-first week containing date.
func WeekDates(date string) ([]string, error) {
	t, err := Parse(date)
	if err != nil {
		return nil, err
	}
	start := t.AddDate(0, 0, -int(t.Weekday()))
	dates := make([]string, 7)
	for i := range dates {
		dates[i] = Format(start.AddDate(0, 0, i))
	}
	return dates, nil
}

// WindowEnding returns n consecutive dates ending at end, oldest first.
func WindowEnding(end string, n int) ([]string, error) {
	t, err := Parse(end)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []string{}, nil
	}
	dates := make([]string, n)
	for i := 0; i < n; i++ {
		dates[i] = Format(t.AddDate(0, 0, i-n+1))
	}
	return dates, nil
}

// LoadLocation loads an IANA timezone. Empty and "Local" mean the system zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}
