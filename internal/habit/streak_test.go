package habit

import "testing"

func TestMaxStreak(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		want  int
	}{
		{"empty", nil, 0},
		{"five consecutive", []string{"2025-04-01", "2025-04-02", "2025-04-03", "2025-04-04", "2025-04-05"}, 5},
		{"gap", []string{"2025-04-01", "2025-04-03"}, 1},
		{"unsorted", []string{"2025-04-03", "2025-04-01", "2025-04-02"}, 3},
		{"duplicates", []string{"2025-04-01", "2025-04-01", "2025-04-02"}, 2},
		{"best run later", []string{"2025-03-01", "2025-03-05", "2025-03-06", "2025-03-07"}, 3},
		{"month boundary", []string{"2025-02-28", "2025-03-01"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxStreak(tt.dates); got != tt.want {
				t.Errorf("MaxStreak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		want  int
	}{
		{"empty", nil, 0},
		{"ending today", []string{"2025-04-08", "2025-04-09", "2025-04-10"}, 3},
		{"ending yesterday", []string{"2025-04-08", "2025-04-09"}, 2},
		{"broken", []string{"2025-04-07", "2025-04-08"}, 0},
		{"today only", []string{"2025-04-01", "2025-04-10"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentStreak(tt.dates, today); got != tt.want {
				t.Errorf("CurrentStreak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsStreakActive(t *testing.T) {
	if !IsStreakActive(daily("a", "2025-04-09"), today) {
		t.Error("completed yesterday should be active")
	}
	if !IsStreakActive(daily("a", today), today) {
		t.Error("completed today should be active")
	}
	if IsStreakActive(daily("a", "2025-04-08"), today) {
		t.Error("completed two days ago should not be active")
	}
}

func TestSummarize(t *testing.T) {
	h := daily("a", "2025-04-01", "2025-04-02", "2025-04-03", "2025-04-09", "2025-04-10")
	h.Streak = 7

	s := Summarize(h, today)
	if s.Streak != 7 {
		t.Errorf("Streak = %d, want 7", s.Streak)
	}
	if s.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", s.CurrentStreak)
	}
	if s.BestStreak != 3 {
		t.Errorf("BestStreak = %d, want 3", s.BestStreak)
	}
	if !s.StreakActive || !s.CompletedToday {
		t.Errorf("StreakActive=%v CompletedToday=%v, want true true", s.StreakActive, s.CompletedToday)
	}
	if s.TotalCompletions != 5 {
		t.Errorf("TotalCompletions = %d, want 5", s.TotalCompletions)
	}
}
