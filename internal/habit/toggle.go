package habit

import (
	"slices"

	"github.com/dukerupert/habitloop/internal/dateutil"
	"github.com/dukerupert/habitloop/internal/model"
)

// Toggle flips the completion of h on date and returns the updated copy along
// with whether date is now completed. The streak counter only moves when date
// is today; it never drops below zero.
func Toggle(h model.Habit, date, today string) (model.Habit, bool, error) {
	if _, err := dateutil.Parse(date); err != nil {
		return model.Habit{}, false, err
	}

	next := h.Clone()
	dates := NormalizeDates(next.CompletedDates)

	if i := slices.Index(dates, date); i >= 0 {
		next.CompletedDates = slices.Delete(dates, i, i+1)
		if date == today {
			next.Streak = max(0, next.Streak-1)
		}
		return next, false, nil
	}

	dates = append(dates, date)
	slices.Sort(dates)
	next.CompletedDates = dates
	if date == today {
		next.Streak++
	}
	return next, true, nil
}

// NormalizeDates returns a sorted, de-duplicated copy of dates.
func NormalizeDates(dates []string) []string {
	out := slices.Clone(dates)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
