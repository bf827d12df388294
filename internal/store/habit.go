package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/habitloop/internal/dateutil"
	"github.com/dukerupert/habitloop/internal/habit"
	"github.com/dukerupert/habitloop/internal/model"
)

var ErrHabitNotFound = errors.New("habit not found")

type HabitStore struct {
	db *sql.DB
}

func NewHabitStore(db *sql.DB) *HabitStore {
	return &HabitStore{db: db}
}

func scanHabit(scanner interface{ Scan(...any) error }) (*model.Habit, error) {
	var h model.Habit
	var category, frequency, days string
	err := scanner.Scan(&h.ID, &h.Name, &h.Description, &category, &h.Icon, &h.Color,
		&frequency, &days, &h.ReminderTime, &h.NotificationsEnabled, &h.CreatedAt, &h.Streak)
	if err != nil {
		return nil, err
	}
	h.Category = habit.ParseCategory(category)
	h.Frequency = habit.ParseFrequency(frequency)
	h.DaysOfWeek = habit.SplitWeekdays(days)
	h.CompletedDates = []string{}
	return &h, nil
}

const habitCols = `id, name, description, category, icon, color, frequency, days_of_week, reminder_time, notifications_enabled, created_at, streak`

// List returns every habit of the user with its completion dates attached.
func (s *HabitStore) List(userID int64) ([]model.Habit, error) {
	rows, err := s.db.Query(
		`SELECT `+habitCols+` FROM habits WHERE user_id = ? ORDER BY created_at, rowid`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	habits := []model.Habit{}
	index := make(map[string]int)
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		index[h.ID] = len(habits)
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	completions, err := s.db.Query(
		`SELECT habit_id, date FROM habit_completions WHERE user_id = ? ORDER BY habit_id, date`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer completions.Close()

	for completions.Next() {
		var habitID, date string
		if err := completions.Scan(&habitID, &date); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		if i, ok := index[habitID]; ok {
			habits[i].CompletedDates = append(habits[i].CompletedDates, date)
		}
	}
	return habits, completions.Err()
}

func (s *HabitStore) GetByID(userID int64, id string) (*model.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitCols+` FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	h, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}
	dates, err := s.CompletedDates(id)
	if err != nil {
		return nil, err
	}
	h.CompletedDates = dates
	return h, nil
}

func (s *HabitStore) CompletedDates(habitID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT date FROM habit_completions WHERE habit_id = ? ORDER BY date`, habitID)
	if err != nil {
		return nil, fmt.Errorf("list completed dates: %w", err)
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (s *HabitStore) Create(userID int64, def model.HabitDefinition, createdAt string) (*model.Habit, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO habits (id, user_id, name, description, category, icon, color, frequency, days_of_week, reminder_time, notifications_enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, def.Name, def.Description, def.Category, def.Icon, def.Color, def.Frequency,
		habit.JoinWeekdays(def.DaysOfWeek, ","), def.ReminderTime, def.NotificationsEnabled, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}
	return s.GetByID(userID, id)
}

// Update rewrites the editable fields. It returns nil when the habit does not
// belong to the user.
func (s *HabitStore) Update(userID int64, id string, def model.HabitDefinition) (*model.Habit, error) {
	result, err := s.db.Exec(
		`UPDATE habits SET name = ?, description = ?, category = ?, icon = ?, color = ?, frequency = ?,
		 days_of_week = ?, reminder_time = ?, notifications_enabled = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		def.Name, def.Description, def.Category, def.Icon, def.Color, def.Frequency,
		habit.JoinWeekdays(def.DaysOfWeek, ","), def.ReminderTime, def.NotificationsEnabled, time.Now().UTC(),
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(userID, id)
}

func (s *HabitStore) Delete(userID int64, id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM habit_completions WHERE habit_id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete completions: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM habits WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return tx.Commit()
}

// AddCompletion records date as completed and stores streak on the habit in
// one transaction. Recording an existing date only updates the streak.
func (s *HabitStore) AddCompletion(userID int64, habitID, date string, streak int) error {
	return s.writeCompletion(userID, habitID, streak,
		`INSERT OR IGNORE INTO habit_completions (habit_id, user_id, date) VALUES (?, ?, ?)`,
		habitID, userID, date,
	)
}

// RemoveCompletion is the inverse of AddCompletion.
func (s *HabitStore) RemoveCompletion(userID int64, habitID, date string, streak int) error {
	return s.writeCompletion(userID, habitID, streak,
		`DELETE FROM habit_completions WHERE habit_id = ? AND user_id = ? AND date = ?`,
		habitID, userID, date,
	)
}

func (s *HabitStore) writeCompletion(userID int64, habitID string, streak int, query string, args ...any) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE habits SET streak = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		max(0, streak), time.Now().UTC(), habitID, userID,
	)
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrHabitNotFound, habitID)
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("write completion: %w", err)
	}
	return tx.Commit()
}

// Import upserts habits by id together with their completions. Habits without
// an id, or whose id belongs to another user, are inserted under a new id.
// Every date must be YYYY-MM-DD; otherwise nothing is written.
func (s *HabitStore) Import(userID int64, habits []model.Habit) (int, error) {
	for i, h := range habits {
		if !dateutil.Valid(h.CreatedAt) {
			return 0, fmt.Errorf("%w: habit %d created_at %q", dateutil.ErrInvalidDate, i+1, h.CreatedAt)
		}
		for _, d := range h.CompletedDates {
			if !dateutil.Valid(d) {
				return 0, fmt.Errorf("%w: habit %d completion %q", dateutil.ErrInvalidDate, i+1, d)
			}
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, h := range habits {
		if h.ID != "" {
			var owner int64
			err := tx.QueryRow(`SELECT user_id FROM habits WHERE id = ?`, h.ID).Scan(&owner)
			if err != nil && err != sql.ErrNoRows {
				return 0, fmt.Errorf("check habit owner: %w", err)
			}
			if err == nil && owner != userID {
				h.ID = ""
			}
		}
		if h.ID == "" {
			h.ID = uuid.NewString()
		}

		_, err := tx.Exec(
			`INSERT INTO habits (id, user_id, name, description, category, icon, color, frequency, days_of_week, reminder_time, notifications_enabled, created_at, streak)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description,
			   category = excluded.category, icon = excluded.icon, color = excluded.color,
			   frequency = excluded.frequency, days_of_week = excluded.days_of_week,
			   reminder_time = excluded.reminder_time, notifications_enabled = excluded.notifications_enabled,
			   streak = excluded.streak, updated_at = CURRENT_TIMESTAMP`,
			h.ID, userID, h.Name, h.Description, habit.ParseCategory(string(h.Category)), h.Icon, h.Color,
			habit.ParseFrequency(string(h.Frequency)), habit.JoinWeekdays(h.DaysOfWeek, ","), h.ReminderTime,
			h.NotificationsEnabled, h.CreatedAt, max(0, h.Streak),
		)
		if err != nil {
			return 0, fmt.Errorf("upsert habit %s: %w", h.ID, err)
		}

		if _, err := tx.Exec(`DELETE FROM habit_completions WHERE habit_id = ?`, h.ID); err != nil {
			return 0, fmt.Errorf("clear completions: %w", err)
		}
		for _, d := range habit.NormalizeDates(h.CompletedDates) {
			if _, err := tx.Exec(
				`INSERT INTO habit_completions (habit_id, user_id, date) VALUES (?, ?, ?)`,
				h.ID, userID, d,
			); err != nil {
				return 0, fmt.Errorf("insert completion: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(habits), nil
}

func (s *HabitStore) CountByUser(userID int64) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM habits WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count habits: %w", err)
	}
	return n, nil
}
