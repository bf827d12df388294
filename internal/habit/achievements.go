package habit

import "github.com/dukerupert/habitloop/internal/model"

type achievementDef struct {
	id          string
	name        string
	description string
	icon        string
	kind        model.AchievementType
	threshold   int
}

var catalog = []achievementDef{
	{"streak_3", "Getting Started", "Reach a 3 day streak on any habit", "🔥", model.AchievementStreak, 3},
	{"streak_7", "Week Warrior", "Reach a 7 day streak on any habit", "⚡", model.AchievementStreak, 7},
	{"streak_30", "Habit Master", "Reach a 30 day streak on any habit", "🏆", model.AchievementStreak, 30},
	{"completions_10", "First Steps", "Complete habits 10 times", "✅", model.AchievementCompletion, 10},
	{"completions_50", "Consistent", "Complete habits 50 times", "🎯", model.AchievementCompletion, 50},
	{"completions_100", "Centurion", "Complete habits 100 times", "💯", model.AchievementCompletion, 100},
	{"habits_5", "Full Plate", "Track 5 habits at once", "📚", model.AchievementChallenge, 5},
}

// Achievements evaluates the fixed achievement catalog against habits.
func Achievements(habits []model.Habit) []model.Achievement {
	bestStreak, completions := 0, 0
	for _, h := range habits {
		bestStreak = max(bestStreak, MaxStreak(h.CompletedDates))
		completions += len(h.CompletedDates)
	}

	out := make([]model.Achievement, 0, len(catalog))
	for _, def := range catalog {
		var progress int
		switch def.kind {
		case model.AchievementStreak:
			progress = bestStreak
		case model.AchievementCompletion:
			progress = completions
		case model.AchievementChallenge:
			progress = len(habits)
		}
		out = append(out, model.Achievement{
			ID:          def.id,
			Name:        def.name,
			Description: def.description,
			Icon:        def.icon,
			Type:        def.kind,
			Threshold:   def.threshold,
			Progress:    min(progress, def.threshold),
			Unlocked:    progress >= def.threshold,
		})
	}
	return out
}
