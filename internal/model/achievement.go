package model

type AchievementType string

const (
	AchievementStreak     AchievementType = "streak"
	AchievementCompletion AchievementType = "completion"
	AchievementChallenge  AchievementType = "challenge"
)

type Achievement struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Type        AchievementType `json:"type"`
	Threshold   int             `json:"threshold"`
	Progress    int             `json:"progress"`
	Unlocked    bool            `json:"unlocked"`
}

// Reminder is a read-only nudge for a habit still pending today.
type Reminder struct {
	HabitID string `json:"habit_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Time    string `json:"time,omitempty"`
}
