package habit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/habitloop/internal/model"
)

var ErrInvalidHabit = errors.New("invalid habit")

// Validate checks a user supplied definition before it is written.
func Validate(def model.HabitDefinition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidHabit)
	}
	switch def.Category {
	case model.CategoryStudy, model.CategoryHealth, model.CategoryPersonal, model.CategorySocial:
	default:
		return fmt.Errorf("%w: unknown category %q", ErrInvalidHabit, def.Category)
	}
	switch def.Frequency {
	case model.FrequencyDaily:
	case model.FrequencyWeekly, model.FrequencyCustom:
		if len(ParseWeekdays(weekdayStrings(def.DaysOfWeek))) == 0 {
			return fmt.Errorf("%w: %s habits need at least one day", ErrInvalidHabit, def.Frequency)
		}
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidHabit, def.Frequency)
	}
	if def.ReminderTime != "" {
		if _, err := time.Parse("15:04", def.ReminderTime); err != nil {
			return fmt.Errorf("%w: reminder time must be HH:MM", ErrInvalidHabit)
		}
	}
	return nil
}

// Normalize fills defaults and canonicalizes the day list.
func Normalize(def model.HabitDefinition) model.HabitDefinition {
	def.Name = strings.TrimSpace(def.Name)
	if def.Category == "" {
		def.Category = SuggestCategory(def.Name)
	}
	if def.Frequency == "" {
		def.Frequency = model.FrequencyDaily
	}
	def.DaysOfWeek = ParseWeekdays(weekdayStrings(def.DaysOfWeek))
	return def
}

func weekdayStrings(days []model.Weekday) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = string(d)
	}
	return out
}
