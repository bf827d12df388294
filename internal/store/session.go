package store

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/habitloop/internal/model"
)

// DefaultSessionTTL applies when the store is built without a TTL.
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionStore issues bearer tokens. Sessions slide: a lookup in the second
// half of a session's lifetime pushes its expiry a full TTL ahead.
type SessionStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSessionStore(db *sql.DB, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{db: db, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

const sessionCols = `id, user_id, expires_at, last_seen_at, created_at`

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	if err := scanner.Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.LastSeenAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Create starts a session and returns it with its plaintext token.
func (s *SessionStore) Create(userID int64) (*model.Session, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(raw)
	now := s.now()

	result, err := s.db.Exec(
		`INSERT INTO sessions (token_hash, user_id, expires_at, last_seen_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		hashToken(token), userID, now.Add(s.ttl), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	sess, err := scanSession(s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	sess.Token = token
	return sess, nil
}

// GetByToken returns the live session for token, or nil if it is unknown or
// expired. A hit records the access and renews the session when due.
func (s *SessionStore) GetByToken(token string) (*model.Session, error) {
	now := s.now()
	sess, err := scanSession(s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE token_hash = ? AND expires_at > ?`,
		hashToken(token), now,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	sess.Token = token

	if sess.ExpiresAt.Sub(now) < s.ttl/2 {
		sess.ExpiresAt = now.Add(s.ttl)
	}
	sess.LastSeenAt = now
	if _, err := s.db.Exec(
		`UPDATE sessions SET expires_at = ?, last_seen_at = ? WHERE id = ?`,
		sess.ExpiresAt, sess.LastSeenAt, sess.ID,
	); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired purges ended sessions and returns how many it removed.
func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, s.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
