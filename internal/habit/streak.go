package habit

import (
	"github.com/dukerupert/habitloop/internal/dateutil"
	"github.com/dukerupert/habitloop/internal/model"
)

// MaxStreak returns the longest run of consecutive calendar days in dates.
// Unparseable entries are skipped.
func MaxStreak(dates []string) int {
	sorted := NormalizeDates(dates)
	best, run := 0, 0
	prev := ""
	for _, d := range sorted {
		if !dateutil.Valid(d) {
			continue
		}
		if prev != "" {
			if gap, _ := dateutil.DaysBetween(prev, d); gap == 1 {
				run++
			} else {
				run = 1
			}
		} else {
			run = 1
		}
		best = max(best, run)
		prev = d
	}
	return best
}

// CurrentStreak counts consecutive completed days ending today, or ending
// yesterday when today has not been completed yet.
func CurrentStreak(dates []string, today string) int {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}

	day := today
	if _, ok := set[day]; !ok {
		yesterday, err := dateutil.AddDays(today, -1)
		if err != nil {
			return 0
		}
		day = yesterday
	}

	n := 0
	for {
		if _, ok := set[day]; !ok {
			return n
		}
		n++
		prev, err := dateutil.AddDays(day, -1)
		if err != nil {
			return n
		}
		day = prev
	}
}

// IsStreakActive reports whether h was completed today or yesterday.
func IsStreakActive(h model.Habit, today string) bool {
	if IsCompletedOn(h, today) {
		return true
	}
	yesterday, err := dateutil.AddDays(today, -1)
	if err != nil {
		return false
	}
	return IsCompletedOn(h, yesterday)
}

// Summary collects the streak figures shown next to a habit.
type Summary struct {
	HabitID          string `json:"habit_id"`
	Name             string `json:"name"`
	Streak           int    `json:"streak"`
	CurrentStreak    int    `json:"current_streak"`
	BestStreak       int    `json:"best_streak"`
	StreakActive     bool   `json:"streak_active"`
	CompletedToday   bool   `json:"completed_today"`
	TotalCompletions int    `json:"total_completions"`
}

func Summarize(h model.Habit, today string) Summary {
	return Summary{
		HabitID:          h.ID,
		Name:             h.Name,
		Streak:           h.Streak,
		CurrentStreak:    CurrentStreak(h.CompletedDates, today),
		BestStreak:       MaxStreak(h.CompletedDates),
		StreakActive:     IsStreakActive(h, today),
		CompletedToday:   IsCompletedOn(h, today),
		TotalCompletions: len(h.CompletedDates),
	}
}
