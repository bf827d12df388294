package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/habitloop/internal/model"
)

// TemplateStore holds user-created templates. Built-in templates live in
// package template and are never stored.
type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func scanTemplate(scanner interface{ Scan(...any) error }) (*model.Template, error) {
	var t model.Template
	var ownerID int64
	var habitsJSON string
	err := scanner.Scan(&t.ID, &ownerID, &t.Name, &t.Description, &t.Category, &t.TargetGroup,
		&t.Goal, &t.Intensity, &habitsJSON, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.OwnerID = &ownerID
	if err := json.Unmarshal([]byte(habitsJSON), &t.Habits); err != nil {
		return nil, fmt.Errorf("decode template habits: %w", err)
	}
	if t.Habits == nil {
		t.Habits = []model.HabitDefinition{}
	}
	return &t, nil
}

const templateCols = `id, owner_id, name, description, category, target_group, goal, intensity, habits_json, created_at`

func (s *TemplateStore) Create(ownerID int64, t model.Template) (*model.Template, error) {
	habits := t.Habits
	if habits == nil {
		habits = []model.HabitDefinition{}
	}
	habitsJSON, err := json.Marshal(habits)
	if err != nil {
		return nil, fmt.Errorf("encode template habits: %w", err)
	}
	if t.Intensity == "" {
		t.Intensity = model.IntensityNormal
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO templates (id, owner_id, name, description, category, target_group, goal, intensity, habits_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, t.Name, t.Description, t.Category, t.TargetGroup, t.Goal, t.Intensity, string(habitsJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return s.GetByID(ownerID, id)
}

func (s *TemplateStore) GetByID(ownerID int64, id string) (*model.Template, error) {
	row := s.db.QueryRow(`SELECT `+templateCols+` FROM templates WHERE id = ? AND owner_id = ?`, id, ownerID)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (s *TemplateStore) List(ownerID int64) ([]model.Template, error) {
	rows, err := s.db.Query(`SELECT `+templateCols+` FROM templates WHERE owner_id = ? ORDER BY created_at, name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := []model.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// Delete removes the template and reports whether it existed.
func (s *TemplateStore) Delete(ownerID int64, id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM templates WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete template: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
