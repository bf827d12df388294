package model

import "time"

type Category string

const (
	CategoryStudy    Category = "study"
	CategoryHealth   Category = "health"
	CategoryPersonal Category = "personal"
	CategorySocial   Category = "social"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryStudy, CategoryHealth, CategoryPersonal, CategorySocial}

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// Weekday is a lowercase three-letter day token.
type Weekday string

const (
	Sunday    Weekday = "sun"
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
)

// Habit is a recurring task definition together with its completion history.
// CompletedDates holds unique YYYY-MM-DD strings sorted ascending.
type Habit struct {
	ID                   string    `json:"id" yaml:"id"`
	Name                 string    `json:"name" yaml:"name"`
	Description          string    `json:"description" yaml:"description"`
	Category             Category  `json:"category" yaml:"category"`
	Icon                 string    `json:"icon" yaml:"icon"`
	Color                string    `json:"color" yaml:"color"`
	Frequency            Frequency `json:"frequency" yaml:"frequency"`
	DaysOfWeek           []Weekday `json:"days_of_week" yaml:"days_of_week"`
	ReminderTime         string    `json:"reminder_time,omitempty" yaml:"reminder_time,omitempty"`
	NotificationsEnabled bool      `json:"notifications_enabled" yaml:"notifications_enabled"`
	CreatedAt            string    `json:"created_at" yaml:"created_at"`
	Streak               int       `json:"streak" yaml:"streak"`
	CompletedDates       []string  `json:"completed_dates" yaml:"completed_dates"`
}

// HabitDefinition is the user-supplied part of a habit. The store assigns
// ID and CreatedAt; Streak and CompletedDates start empty.
type HabitDefinition struct {
	Name                 string    `json:"name" yaml:"name"`
	Description          string    `json:"description" yaml:"description"`
	Category             Category  `json:"category" yaml:"category"`
	Icon                 string    `json:"icon" yaml:"icon"`
	Color                string    `json:"color" yaml:"color"`
	Frequency            Frequency `json:"frequency" yaml:"frequency"`
	DaysOfWeek           []Weekday `json:"days_of_week" yaml:"days_of_week"`
	ReminderTime         string    `json:"reminder_time,omitempty" yaml:"reminder_time,omitempty"`
	NotificationsEnabled bool      `json:"notifications_enabled" yaml:"notifications_enabled"`
}

// Definition returns the user-editable fields of h.
func (h Habit) Definition() HabitDefinition {
	return HabitDefinition{
		Name:                 h.Name,
		Description:          h.Description,
		Category:             h.Category,
		Icon:                 h.Icon,
		Color:                h.Color,
		Frequency:            h.Frequency,
		DaysOfWeek:           append([]Weekday(nil), h.DaysOfWeek...),
		ReminderTime:         h.ReminderTime,
		NotificationsEnabled: h.NotificationsEnabled,
	}
}

// Clone returns a deep copy of h.
func (h Habit) Clone() Habit {
	h.DaysOfWeek = append([]Weekday(nil), h.DaysOfWeek...)
	h.CompletedDates = append([]string(nil), h.CompletedDates...)
	return h
}

type HabitCompletion struct {
	ID        int64     `json:"id"`
	HabitID   string    `json:"habit_id"`
	UserID    int64     `json:"user_id"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyProgress is one point of the rolling completion series.
type DailyProgress struct {
	Date            string `json:"date"`
	TotalHabits     int    `json:"total_habits"`
	CompletedHabits int    `json:"completed_habits"`
}
