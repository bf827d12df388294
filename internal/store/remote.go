package store

import (
	"context"

	"github.com/dukerupert/habitloop/internal/model"
)

// Remote exposes one user's rows in HabitStore to an engine.
type Remote struct {
	habits *HabitStore
	userID int64
}

func NewRemote(habits *HabitStore, userID int64) *Remote {
	return &Remote{habits: habits, userID: userID}
}

func (r *Remote) ListHabits(ctx context.Context) ([]model.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.habits.List(r.userID)
}

func (r *Remote) CreateHabit(ctx context.Context, def model.HabitDefinition, createdAt string) (*model.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.habits.Create(r.userID, def, createdAt)
}

func (r *Remote) UpdateHabit(ctx context.Context, id string, def model.HabitDefinition) (*model.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.habits.Update(r.userID, id, def)
}

func (r *Remote) DeleteHabit(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.habits.Delete(r.userID, id)
}

func (r *Remote) AddCompletion(ctx context.Context, habitID, date string, streak int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.habits.AddCompletion(r.userID, habitID, date, streak)
}

func (r *Remote) RemoveCompletion(ctx context.Context, habitID, date string, streak int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.habits.RemoveCompletion(r.userID, habitID, date, streak)
}
