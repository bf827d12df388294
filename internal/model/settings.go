package model

import "time"

type Setting struct {
	UserID    int64     `json:"user_id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSettings is the typed view of a user's settings rows.
type UserSettings struct {
	Timezone string `json:"timezone"`
}
