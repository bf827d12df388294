package template

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/habitloop/internal/habit"
	"github.com/dukerupert/habitloop/internal/model"
)

var (
	ErrNotFound        = errors.New("template not found")
	ErrReadOnly        = errors.New("built-in templates are read-only")
	ErrInvalidTemplate = errors.New("invalid template")
)

var allDays = []model.Weekday{
	model.Monday, model.Tuesday, model.Wednesday, model.Thursday,
	model.Friday, model.Saturday, model.Sunday,
}

func daily(name, description string, category model.Category, icon, color, reminder string, notify bool) model.HabitDefinition {
	return model.HabitDefinition{
		Name:                 name,
		Description:          description,
		Category:             category,
		Icon:                 icon,
		Color:                color,
		Frequency:            model.FrequencyDaily,
		DaysOfWeek:           allDays,
		ReminderTime:         reminder,
		NotificationsEnabled: notify,
	}
}

var builtIns = []model.Template{
	{
		ID:          "exam_crunch",
		Name:        "Exam Crunch Mode",
		Description: "Intense but balanced routine for exam preparation",
		Category:    "study",
		TargetGroup: "All students",
		Goal:        "Maximize study efficiency while maintaining health",
		Intensity:   model.IntensityIntense,
		BuiltIn:     true,
		Habits: []model.HabitDefinition{
			daily("Wake up at 6:30 AM", "", model.CategoryPersonal, "⏰", "#F9E79F", "06:30", true),
			daily("Morning Pomodoro session", "", model.CategoryStudy, "📚", "#D4C4FB", "08:00", true),
			daily("Short walk", "", model.CategoryHealth, "🏃", "#A3E4D7", "", false),
			daily("Practice past paper", "", model.CategoryStudy, "📝", "#D4C4FB", "16:30", true),
		},
	},
	{
		ID:          "daily_study_care",
		Name:        "Daily Study + Self-Care",
		Description: "Balance productivity and mental health",
		Category:    "self-care",
		TargetGroup: "Burned-out or anxious students",
		Goal:        "Sustainable study habits with focus on wellbeing",
		Intensity:   model.IntensityLight,
		BuiltIn:     true,
		Habits: []model.HabitDefinition{
			daily("Morning journaling", "Write 3 things you're grateful for", model.CategoryPersonal, "📝", "#F9E79F", "08:00", true),
			daily("Light exercise", "Walk, yoga, or gentle stretching", model.CategoryHealth, "🧘", "#A3E4D7", "12:00", true),
			daily("Screen-free time", "No screens after 9 PM", model.CategoryPersonal, "📱", "#F9E79F", "20:45", true),
		},
	},
}

// BuiltIns returns a copy of the built-in catalog.
func BuiltIns() []model.Template {
	out := make([]model.Template, len(builtIns))
	for i, t := range builtIns {
		out[i] = clone(t)
	}
	return out
}

// BuiltIn looks up a built-in template by id.
func BuiltIn(id string) (model.Template, bool) {
	for _, t := range builtIns {
		if t.ID == id {
			return clone(t), true
		}
	}
	return model.Template{}, false
}

func clone(t model.Template) model.Template {
	habits := make([]model.HabitDefinition, len(t.Habits))
	for i, def := range t.Habits {
		def.DaysOfWeek = append([]model.Weekday(nil), def.DaysOfWeek...)
		habits[i] = def
	}
	t.Habits = habits
	return t
}

// Store persists user-owned templates.
type Store interface {
	Create(ownerID int64, t model.Template) (*model.Template, error)
	GetByID(ownerID int64, id string) (*model.Template, error)
	List(ownerID int64) ([]model.Template, error)
	Delete(ownerID int64, id string) (bool, error)
}

// Service merges the built-in catalog with a user's own templates.
type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

// List returns the built-in templates followed by the user's.
func (s *Service) List(userID int64) ([]model.Template, error) {
	own, err := s.store.List(userID)
	if err != nil {
		return nil, err
	}
	return append(BuiltIns(), own...), nil
}

func (s *Service) Get(userID int64, id string) (model.Template, error) {
	if t, ok := BuiltIn(id); ok {
		return t, nil
	}
	t, err := s.store.GetByID(userID, id)
	if err != nil {
		return model.Template{}, err
	}
	if t == nil {
		return model.Template{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *t, nil
}

// Create validates and stores a user template. Each habit definition is
// normalized the same way a new habit would be.
func (s *Service) Create(userID int64, t model.Template) (model.Template, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return model.Template{}, fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if len(t.Habits) == 0 {
		return model.Template{}, fmt.Errorf("%w: at least one habit is required", ErrInvalidTemplate)
	}
	switch t.Intensity {
	case "", model.IntensityLight, model.IntensityNormal, model.IntensityIntense:
	default:
		return model.Template{}, fmt.Errorf("%w: unknown intensity %q", ErrInvalidTemplate, t.Intensity)
	}

	defs := make([]model.HabitDefinition, len(t.Habits))
	for i, def := range t.Habits {
		def = habit.Normalize(def)
		if err := habit.Validate(def); err != nil {
			return model.Template{}, fmt.Errorf("habit %d: %w", i+1, err)
		}
		defs[i] = def
	}
	t.Habits = defs

	created, err := s.store.Create(userID, t)
	if err != nil {
		return model.Template{}, err
	}
	return *created, nil
}

func (s *Service) Delete(userID int64, id string) error {
	if _, ok := BuiltIn(id); ok {
		return ErrReadOnly
	}
	deleted, err := s.store.Delete(userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// HabitCreator is satisfied by *engine.Engine.
type HabitCreator interface {
	AddHabit(ctx context.Context, def model.HabitDefinition) (model.Habit, error)
}

// Apply creates every habit of t in order. On failure it returns the habits
// created so far together with the error.
func Apply(ctx context.Context, c HabitCreator, t model.Template) ([]model.Habit, error) {
	created := make([]model.Habit, 0, len(t.Habits))
	for _, def := range t.Habits {
		h, err := c.AddHabit(ctx, def)
		if err != nil {
			return created, fmt.Errorf("apply template %s: %w", t.ID, err)
		}
		created = append(created, h)
	}
	return created, nil
}
