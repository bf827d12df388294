package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/habitloop/internal/model"
)

const SettingTimezone = "timezone"

var userSettingKeys = []string{
	SettingTimezone,
}

type SettingsStore struct {
	db              *sql.DB
	defaultTimezone string
}

// NewSettingsStore returns a store that reports defaultTimezone for users who
// have not chosen one.
func NewSettingsStore(db *sql.DB, defaultTimezone string) *SettingsStore {
	return &SettingsStore{db: db, defaultTimezone: defaultTimezone}
}

// Get returns the value of key for the user, or "" when unset.
func (s *SettingsStore) Get(userID int64, key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM user_settings WHERE user_id = ? AND key = ?`, userID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *SettingsStore) GetAll(userID int64) (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM user_settings WHERE user_id = ? ORDER BY key`, userID)
	if err != nil {
		return nil, fmt.Errorf("get all settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

func (s *SettingsStore) Set(userID int64, key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO user_settings (user_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		userID, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// UserSettings returns the typed settings with defaults filled in.
func (s *SettingsStore) UserSettings(userID int64) (model.UserSettings, error) {
	settings := model.UserSettings{Timezone: s.defaultTimezone}
	for _, key := range userSettingKeys {
		value, err := s.Get(userID, key)
		if err != nil {
			return model.UserSettings{}, err
		}
		if value == "" {
			continue
		}
		switch key {
		case SettingTimezone:
			settings.Timezone = value
		}
	}
	return settings, nil
}
