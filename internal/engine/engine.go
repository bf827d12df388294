// Package engine keeps a user's habits and their rolling progress series in
// memory and applies intents against a RemoteStore. Every mutation is written
// to the remote first; local state changes only after the write succeeds.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dukerupert/habitloop/internal/dateutil"
	"github.com/dukerupert/habitloop/internal/habit"
	"github.com/dukerupert/habitloop/internal/model"
)

// RemoteStore is the system of record for one user's habits.
//
// AddCompletion and RemoveCompletion write the completion row and the habit's
// denormalized streak together. Repeating either call is harmless.
type RemoteStore interface {
	ListHabits(ctx context.Context) ([]model.Habit, error)
	CreateHabit(ctx context.Context, def model.HabitDefinition, createdAt string) (*model.Habit, error)
	UpdateHabit(ctx context.Context, id string, def model.HabitDefinition) (*model.Habit, error)
	DeleteHabit(ctx context.Context, id string) error
	AddCompletion(ctx context.Context, habitID, date string, streak int) error
	RemoveCompletion(ctx context.Context, habitID, date string, streak int) error
}

// DefaultWindow is the length of the progress series in days.
const DefaultWindow = 7

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithRetry bounds retries of temporary remote failures. Zero disables retry.
func WithRetry(maxRetries uint64, base time.Duration) Option {
	return func(e *Engine) {
		e.maxRetries = maxRetries
		e.retryBase = base
	}
}

func WithWindow(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.window = days
		}
	}
}

type Engine struct {
	remote     RemoteStore
	logger     *slog.Logger
	now        func() time.Time
	loc        *time.Location
	window     int
	maxRetries uint64
	retryBase  time.Duration

	// op serializes intents and refetches so each one sees the result of
	// the previous. mu guards the state below for readers.
	op           sync.Mutex
	mu           sync.RWMutex
	habits       []model.Habit
	progress     []model.DailyProgress
	selectedDate string
}

// Snapshot is a consistent copy of the engine state.
type Snapshot struct {
	Habits       []model.Habit         `json:"habits"`
	Progress     []model.DailyProgress `json:"progress"`
	SelectedDate string                `json:"selected_date"`
	Today        string                `json:"today"`
}

func New(remote RemoteStore, opts ...Option) *Engine {
	e := &Engine{
		remote:     remote,
		logger:     slog.Default(),
		now:        time.Now,
		loc:        time.Local,
		window:     DefaultWindow,
		maxRetries: defaultMaxRetries,
		retryBase:  defaultRetryBase,
		habits:     []model.Habit{},
		progress:   []model.DailyProgress{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.selectedDate = e.Today()
	return e
}

// Today is the current calendar date in the engine's location.
func (e *Engine) Today() string {
	return dateutil.Today(e.now(), e.loc)
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// Habits returns a copy of the current habits.
func (e *Engine) Habits() []model.Habit {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneHabits(e.habits)
}

// Habit returns a copy of one habit.
func (e *Engine) Habit(id string) (model.Habit, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i := e.indexOf(id)
	if i < 0 {
		return model.Habit{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.habits[i].Clone(), nil
}

// Progress returns a copy of the progress series, oldest first.
func (e *Engine) Progress() []model.DailyProgress {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.progress)
}

func (e *Engine) SelectedDate() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selectedDate
}

// CompletionRate is the completion percentage of the current habits on date.
func (e *Engine) CompletionRate(date string) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return habit.CompletionRate(e.habits, date)
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		Habits:       cloneHabits(e.habits),
		Progress:     slices.Clone(e.progress),
		SelectedDate: e.selectedDate,
		Today:        e.Today(),
	}
}

// SetSelectedDate changes the date the view layer is focused on.
func (e *Engine) SetSelectedDate(date string) error {
	if _, err := dateutil.Parse(date); err != nil {
		return err
	}
	e.mu.Lock()
	e.selectedDate = date
	e.mu.Unlock()
	return nil
}

// Refresh replaces the local state with the remote snapshot. On failure the
// previous state is kept.
func (e *Engine) Refresh(ctx context.Context) error {
	e.op.Lock()
	defer e.op.Unlock()

	var rows []model.Habit
	err := e.withRetry(ctx, "list habits", func(ctx context.Context) error {
		var err error
		rows, err = e.remote.ListHabits(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: list habits: %w", ErrRemoteReadFailed, err)
	}

	habits := make([]model.Habit, 0, len(rows))
	for _, h := range rows {
		h = h.Clone()
		h.CompletedDates = habit.NormalizeDates(h.CompletedDates)
		h.Streak = max(0, h.Streak)
		habits = append(habits, h)
	}

	progress, err := e.windowFor(habits)
	if err != nil {
		return fmt.Errorf("recompute progress: %w", err)
	}

	e.mu.Lock()
	e.habits = habits
	e.progress = progress
	e.mu.Unlock()

	e.logger.Debug("refreshed habits", "count", len(habits))
	return nil
}

// RecomputeProgressWindow rebuilds the whole series for the window ending
// today.
func (e *Engine) RecomputeProgressWindow() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	progress, err := e.windowFor(e.habits)
	if err != nil {
		return err
	}
	e.progress = progress
	return nil
}

// ToggleCompletion flips the completion of habitID on date and returns the
// updated habit.
func (e *Engine) ToggleCompletion(ctx context.Context, habitID, date string) (model.Habit, error) {
	e.op.Lock()
	defer e.op.Unlock()

	current, err := e.Habit(habitID)
	if err != nil {
		return model.Habit{}, err
	}

	next, completed, err := habit.Toggle(current, date, e.Today())
	if err != nil {
		return model.Habit{}, err
	}

	err = e.withRetry(ctx, "toggle completion", func(ctx context.Context) error {
		if completed {
			return e.remote.AddCompletion(ctx, habitID, date, next.Streak)
		}
		return e.remote.RemoveCompletion(ctx, habitID, date, next.Streak)
	})
	if err != nil {
		e.logger.Warn("completion write failed", "habit_id", habitID, "date", date, "error", err)
		return model.Habit{}, fmt.Errorf("%w: toggle %s on %s: %w", ErrRemoteWriteFailed, habitID, date, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(habitID)
	if i < 0 {
		// Deleted by a concurrent refetch; the remote already holds the write.
		return next.Clone(), nil
	}
	e.habits[i] = next
	p, err := habit.ProgressForDate(e.habits, date)
	if err != nil {
		return model.Habit{}, err
	}
	e.progress = habit.UpsertProgress(e.progress, p)
	return next.Clone(), nil
}

// AddHabit creates a habit from def and recomputes the window.
func (e *Engine) AddHabit(ctx context.Context, def model.HabitDefinition) (model.Habit, error) {
	def = habit.Normalize(def)
	if err := habit.Validate(def); err != nil {
		return model.Habit{}, err
	}

	e.op.Lock()
	defer e.op.Unlock()

	// Creation assigns a fresh id on every call, so it is never retried.
	created, err := e.remote.CreateHabit(ctx, def, e.Today())
	if err != nil {
		return model.Habit{}, fmt.Errorf("%w: create habit: %w", ErrRemoteWriteFailed, err)
	}

	h := created.Clone()
	h.CompletedDates = habit.NormalizeDates(h.CompletedDates)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.habits = append(e.habits, h)
	if err := e.recomputeLocked(); err != nil {
		return model.Habit{}, err
	}
	return h.Clone(), nil
}

// UpdateHabit writes the editable fields of h. Streak and completions are
// owned by ToggleCompletion and are not changed here.
func (e *Engine) UpdateHabit(ctx context.Context, h model.Habit) (model.Habit, error) {
	def := habit.Normalize(h.Definition())
	if err := habit.Validate(def); err != nil {
		return model.Habit{}, err
	}

	e.op.Lock()
	defer e.op.Unlock()

	current, err := e.Habit(h.ID)
	if err != nil {
		return model.Habit{}, err
	}

	var updated *model.Habit
	err = e.withRetry(ctx, "update habit", func(ctx context.Context) error {
		var err error
		updated, err = e.remote.UpdateHabit(ctx, h.ID, def)
		return err
	})
	if err != nil {
		return model.Habit{}, fmt.Errorf("%w: update habit %s: %w", ErrRemoteWriteFailed, h.ID, err)
	}
	if updated == nil {
		return model.Habit{}, fmt.Errorf("%w: %s", ErrNotFound, h.ID)
	}

	next := updated.Clone()
	next.Streak = current.Streak
	next.CompletedDates = current.CompletedDates

	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexOf(h.ID); i >= 0 {
		e.habits[i] = next
	}
	if err := e.recomputeLocked(); err != nil {
		return model.Habit{}, err
	}
	return next.Clone(), nil
}

// DeleteHabit removes the habit and its completions.
func (e *Engine) DeleteHabit(ctx context.Context, id string) error {
	e.op.Lock()
	defer e.op.Unlock()

	if _, err := e.Habit(id); err != nil {
		return err
	}

	err := e.withRetry(ctx, "delete habit", func(ctx context.Context) error {
		return e.remote.DeleteHabit(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("%w: delete habit %s: %w", ErrRemoteWriteFailed, id, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexOf(id); i >= 0 {
		e.habits = slices.Delete(e.habits, i, i+1)
	}
	return e.recomputeLocked()
}

// Watch refetches on every change notification until ctx ends or changes is
// closed. Notifications that arrive while a refetch runs collapse into one.
func (e *Engine) Watch(ctx context.Context, changes <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
		drain:
			for {
				select {
				case _, ok := <-changes:
					if !ok {
						break drain
					}
				default:
					break drain
				}
			}
			if err := e.Refresh(ctx); err != nil && ctx.Err() == nil {
				e.logger.Warn("refetch after change failed", "error", err)
			}
		}
	}
}

func (e *Engine) windowFor(habits []model.Habit) ([]model.DailyProgress, error) {
	dates, err := dateutil.WindowEnding(e.Today(), e.window)
	if err != nil {
		return nil, err
	}
	return habit.ProgressWindow(habits, dates)
}

// recomputeLocked requires e.mu held for writing.
func (e *Engine) recomputeLocked() error {
	progress, err := e.windowFor(e.habits)
	if err != nil {
		return err
	}
	e.progress = progress
	return nil
}

func (e *Engine) indexOf(id string) int {
	return slices.IndexFunc(e.habits, func(h model.Habit) bool { return h.ID == id })
}

func cloneHabits(in []model.Habit) []model.Habit {
	out := make([]model.Habit, len(in))
	for i, h := range in {
		out[i] = h.Clone()
	}
	return out
}
