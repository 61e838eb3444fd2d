package schedule

import (
	"time"

	"github.com/habitify/reminders/internal/model"
)

// IsDue reports whether a habit with the given weekly schedule is due on date.
// An empty or full schedule is due every day.
func IsDue(days model.Weekdays, date time.Time) bool {
	if days.IsDaily() {
		return true
	}
	return days.Mask()&(1<<uint(date.Weekday())) != 0
}
