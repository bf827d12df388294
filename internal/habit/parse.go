package habit

import (
	"strings"

	"github.com/dukerupert/habitloop/internal/model"
)

var weekdayOrder = []model.Weekday{
	model.Monday, model.Tuesday, model.Wednesday, model.Thursday,
	model.Friday, model.Saturday, model.Sunday,
}

// ParseCategory maps unknown values to personal.
func ParseCategory(s string) model.Category {
	switch c := model.Category(strings.ToLower(strings.TrimSpace(s))); c {
	case model.CategoryStudy, model.CategoryHealth, model.CategoryPersonal, model.CategorySocial:
		return c
	}
	return model.CategoryPersonal
}

// ParseFrequency maps unknown values to daily.
func ParseFrequency(s string) model.Frequency {
	switch f := model.Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyCustom:
		return f
	}
	return model.FrequencyDaily
}

// ParseWeekdays keeps the known day tokens, once each, in mon..sun order.
func ParseWeekdays(tokens []string) []model.Weekday {
	seen := make(map[model.Weekday]bool, len(tokens))
	for _, t := range tokens {
		seen[model.Weekday(strings.ToLower(strings.TrimSpace(t)))] = true
	}
	out := []model.Weekday{}
	for _, d := range weekdayOrder {
		if seen[d] {
			out = append(out, d)
		}
	}
	return out
}

// SplitWeekdays parses a comma separated day list such as "mon,wed,fri".
func SplitWeekdays(s string) []model.Weekday {
	if s == "" {
		return []model.Weekday{}
	}
	return ParseWeekdays(strings.Split(s, ","))
}

// JoinWeekdays is the inverse of SplitWeekdays.
func JoinWeekdays(days []model.Weekday, sep string) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = string(d)
	}
	return strings.Join(parts, sep)
}
