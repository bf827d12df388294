package habit

import (
	"strings"

	"github.com/dukerupert/habitloop/internal/model"
)

// Search returns habits whose name, description or category contains term,
// ignoring case. A blank term matches everything.
func Search(habits []model.Habit, term string) []model.Habit {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]model.Habit, 0, len(habits))
	for _, h := range habits {
		if term == "" ||
			strings.Contains(strings.ToLower(h.Name), term) ||
			strings.Contains(strings.ToLower(h.Description), term) ||
			strings.Contains(strings.ToLower(string(h.Category)), term) {
			out = append(out, h)
		}
	}
	return out
}

// FilterByCategory keeps habits in category. "all" and "" keep everything.
func FilterByCategory(habits []model.Habit, category string) []model.Habit {
	if category == "" || category == "all" {
		return append([]model.Habit{}, habits...)
	}
	out := make([]model.Habit, 0, len(habits))
	for _, h := range habits {
		if string(h.Category) == category {
			out = append(out, h)
		}
	}
	return out
}

type CategoryCount struct {
	Category model.Category `json:"category"`
	Count    int            `json:"count"`
}

// CategoryBreakdown counts habits per category in display order, omitting
// empty categories.
func CategoryBreakdown(habits []model.Habit) []CategoryCount {
	counts := make(map[model.Category]int)
	for _, h := range habits {
		counts[h.Category]++
	}
	out := []CategoryCount{}
	for _, c := range model.Categories {
		if n := counts[c]; n > 0 {
			out = append(out, CategoryCount{Category: c, Count: n})
		}
	}
	return out
}

// AverageRate is the rounded mean of the per-day rates in progress. Days with
// no active habits count as 0.
func AverageRate(progress []model.DailyProgress) int {
	if len(progress) == 0 {
		return 0
	}
	sum := 0
	for _, p := range progress {
		sum += Rate(p.CompletedHabits, max(1, p.TotalHabits))
	}
	return Rate(sum, 100*len(progress))
}
