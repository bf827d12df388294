package habit

import (
	"fmt"

	"github.com/dukerupert/habitloop/internal/model"
)

// PendingReminders lists a reminder for every habit with notifications on
// that is scheduled today and not yet completed.
func PendingReminders(habits []model.Habit, today string) ([]model.Reminder, error) {
	out := []model.Reminder{}
	for _, h := range habits {
		if !h.NotificationsEnabled || IsCompletedOn(h, today) {
			continue
		}
		active, err := IsActiveOnDate(h, today)
		if err != nil {
			return nil, err
		}
		if !active {
			continue
		}
		out = append(out, model.Reminder{
			HabitID: h.ID,
			Title:   "Don't forget: " + h.Name,
			Message: fmt.Sprintf("You haven't completed %q today yet. Keep your streak going!", h.Name),
			Time:    h.ReminderTime,
		})
	}
	return out, nil
}
