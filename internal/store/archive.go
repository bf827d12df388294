package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/habitloop/internal/model"
)

type ArchiveStore struct {
	db *sql.DB
}

func NewArchiveStore(db *sql.DB) *ArchiveStore {
	return &ArchiveStore{db: db}
}

func scanArchive(scanner interface{ Scan(...any) error }) (*model.Archive, error) {
	var a model.Archive
	var completedAt sql.NullTime
	err := scanner.Scan(&a.ID, &a.UserID, &a.Filename, &a.S3Key, &a.SizeBytes, &a.HabitCount,
		&a.Status, &a.ErrorMessage, &completedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return &a, nil
}

const archiveCols = `id, user_id, filename, s3_key, size_bytes, habit_count, status, error_message, completed_at, created_at, updated_at`

func (s *ArchiveStore) Create(userID int64, filename, s3Key string) (*model.Archive, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO archives (user_id, filename, s3_key, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, filename, s3Key, model.ArchiveStatusPending, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, userID)
}

func (s *ArchiveStore) GetByID(id, userID int64) (*model.Archive, error) {
	row := s.db.QueryRow(`SELECT `+archiveCols+` FROM archives WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanArchive(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get archive %d: %w", id, err)
	}
	return a, nil
}

func (s *ArchiveStore) List(userID int64, limit int) ([]model.Archive, error) {
	rows, err := s.db.Query(
		`SELECT `+archiveCols+` FROM archives WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	defer rows.Close()

	archives := []model.Archive{}
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		archives = append(archives, *a)
	}
	return archives, rows.Err()
}

func (s *ArchiveStore) UpdateStatus(id int64, status model.ArchiveStatus, errorMsg string) error {
	_, err := s.db.Exec(
		`UPDATE archives SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status, errorMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update archive status: %w", err)
	}
	return nil
}

func (s *ArchiveStore) UpdateCompleted(id, sizeBytes int64, habitCount int) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE archives SET status = ?, size_bytes = ?, habit_count = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		model.ArchiveStatusCompleted, sizeBytes, habitCount, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("update archive completed: %w", err)
	}
	return nil
}

// DeleteOlderThan deletes archives older than the given time and returns the S3 keys of deleted archives.
func (s *ArchiveStore) DeleteOlderThan(userID int64, before time.Time) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT s3_key FROM archives WHERE user_id = ? AND created_at < ?`,
		userID, before,
	)
	if err != nil {
		return nil, fmt.Errorf("select old archives: %w", err)
	}

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan s3 key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	_, err = s.db.Exec(
		`DELETE FROM archives WHERE user_id = ? AND created_at < ?`,
		userID, before,
	)
	if err != nil {
		return nil, fmt.Errorf("delete old archives: %w", err)
	}
	return keys, nil
}

func (s *ArchiveStore) LatestCompleted(userID int64) (*model.Archive, error) {
	row := s.db.QueryRow(
		`SELECT `+archiveCols+` FROM archives WHERE user_id = ? AND status = ? ORDER BY completed_at DESC, id DESC LIMIT 1`,
		userID, model.ArchiveStatusCompleted,
	)
	a, err := scanArchive(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest completed archive: %w", err)
	}
	return a, nil
}
