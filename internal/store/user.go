package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/habitloop/internal/model"
)

// ErrEmailTaken is returned when an account already uses the address.
var ErrEmailTaken = errors.New("email already registered")

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userCols = `id, email, name, password_hash, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := scanner.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// isUniqueViolation matches SQLite's constraint error text; the driver does
// not export a typed error for it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Create inserts an account. Email must already be normalized.
func (s *UserStore) Create(email, name, passwordHash string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (email, name, password_hash) VALUES (?, ?, ?)`,
		email, name, passwordHash,
	)
	if isUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) get(where string, arg any) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE `+where+` = ?`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", where, err)
	}
	return u, nil
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	return s.get("id", id)
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	return s.get("email", email)
}

// Rename changes the display name and returns the updated account, or nil
// if it no longer exists.
func (s *UserStore) Rename(id int64, name string) (*model.User, error) {
	if _, err := s.db.Exec(
		`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id,
	); err != nil {
		return nil, fmt.Errorf("rename user: %w", err)
	}
	return s.GetByID(id)
}

// ChangePassword stores a new hash and drops every session except keep, in
// one transaction.
func (s *UserStore) ChangePassword(id int64, hash string, keepSession int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now().UTC(), id,
	); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE user_id = ? AND id != ?`, id, keepSession); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return tx.Commit()
}

// Delete removes the account. Habits, completions, settings, sessions,
// custom templates and archive rows go with it through foreign keys.
func (s *UserStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
