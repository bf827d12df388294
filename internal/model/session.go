package model

import "time"

// Session is a login. Token is only known when the session is created or
// presented by a client; the store keeps a hash of it.
type Session struct {
	ID         int64     `json:"id"`
	Token      string    `json:"token,omitempty"`
	UserID     int64     `json:"user_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}
