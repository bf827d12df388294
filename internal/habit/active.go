// Package habit holds the pure aggregation rules over habits: schedule
// activity, completion rates, toggling, streaks and the derived views built on
// top of them. Nothing here touches storage or the clock; callers pass today.
package habit

import (
	"slices"

	"github.com/dukerupert/habitloop/internal/dateutil"
	"github.com/dukerupert/habitloop/internal/model"
)

// IsActiveOnDate reports whether the habit's schedule calls for it on date.
func IsActiveOnDate(h model.Habit, date string) (bool, error) {
	day, err := dateutil.Weekday(date)
	if err != nil {
		return false, err
	}
	if h.Frequency == model.FrequencyDaily {
		return true, nil
	}
	return slices.Contains(h.DaysOfWeek, day), nil
}

// IsCompletedOn reports whether date is in the habit's completion set.
func IsCompletedOn(h model.Habit, date string) bool {
	_, found := slices.BinarySearch(h.CompletedDates, date)
	if found {
		return true
	}
	// Rows decoded from outside the engine may not be sorted yet.
	return slices.Contains(h.CompletedDates, date)
}

// ProgressForDate counts active and completed habits on date.
func ProgressForDate(habits []model.Habit, date string) (model.DailyProgress, error) {
	p := model.DailyProgress{Date: date}
	for _, h := range habits {
		active, err := IsActiveOnDate(h, date)
		if err != nil {
			return model.DailyProgress{}, err
		}
		if !active {
			continue
		}
		p.TotalHabits++
		if IsCompletedOn(h, date) {
			p.CompletedHabits++
		}
	}
	return p, nil
}

// CompletionRate returns the share of habits active on date that were
// completed, as a whole percentage rounded half up. No active habits is 0.
func CompletionRate(habits []model.Habit, date string) (int, error) {
	p, err := ProgressForDate(habits, date)
	if err != nil {
		return 0, err
	}
	return Rate(p.CompletedHabits, p.TotalHabits), nil
}

// Rate is round-half-up(100 * completed / total), 0 when total is 0.
func Rate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*completed + total) / (2 * total)
}

// ProgressWindow computes one entry per date, in the order given.
func ProgressWindow(habits []model.Habit, dates []string) ([]model.DailyProgress, error) {
	series := make([]model.DailyProgress, 0, len(dates))
	for _, d := range dates {
		p, err := ProgressForDate(habits, d)
		if err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	return series, nil
}

// UpsertProgress inserts p into series keyed by date, keeping the series
// sorted ascending. An existing entry for the same date is overwritten.
func UpsertProgress(series []model.DailyProgress, p model.DailyProgress) []model.DailyProgress {
	i, found := slices.BinarySearchFunc(series, p.Date, func(e model.DailyProgress, date string) int {
		switch {
		case e.Date < date:
			return -1
		case e.Date > date:
			return 1
		}
		return 0
	})
	out := slices.Clone(series)
	if found {
		out[i] = p
		return out
	}
	return slices.Insert(out, i, p)
}
