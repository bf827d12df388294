package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dukerupert/habitloop/internal/habit"
	"github.com/dukerupert/habitloop/internal/model"
)

var (
	faint = color.New(color.Faint)
	green = color.New(color.FgGreen)
	bold  = color.New(color.Bold)
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// progressBar renders pct (0..100) as a bar of width cells.
func progressBar(pct, width int) string {
	pct = min(max(pct, 0), 100)
	filled := pct * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// printHabitLine writes one habit with its state on date.
func printHabitLine(w io.Writer, h model.Habit, date string) {
	mark := faint.Sprint("·")
	if active, err := habit.IsActiveOnDate(h, date); err == nil && active {
		mark = "○"
		if habit.IsCompletedOn(h, date) {
			mark = green.Sprint("●")
		}
	}

	schedule := string(h.Frequency)
	if h.Frequency != model.FrequencyDaily {
		schedule += " " + habit.JoinWeekdays(h.DaysOfWeek, ",")
	}
	fmt.Fprintf(w, "%s %s %s %s %s\n",
		mark,
		faint.Sprint(shortID(h.ID)),
		padRight(truncate(h.Name, 28), 28),
		faint.Sprint(padRight(string(h.Category), 9)),
		faint.Sprintf("%s  streak %d", schedule, h.Streak))
}

func printProgress(w io.Writer, progress []model.DailyProgress) {
	for _, p := range progress {
		rate := habit.Rate(p.CompletedHabits, p.TotalHabits)
		fmt.Fprintf(w, "%s %s %3d%% %s\n",
			faint.Sprint(p.Date),
			progressBar(rate, 20),
			rate,
			faint.Sprintf("(%d/%d)", p.CompletedHabits, p.TotalHabits))
	}
}
