package model

import (
	"time"
)

// Completion marks a habit as satisfied on a local calendar date.
// At most one exists per (habit, date).
type Completion struct {
	ID          string    `db:"id"`
	HabitID     string    `db:"habit_id"`
	UserID      string    `db:"user_id"`
	CompletedOn string    `db:"completed_on"` // YYYY-MM-DD in the user's local calendar
	Value       float64   `db:"value"`
	Note        string    `db:"note"`
	CreatedAt   time.Time `db:"created_at"`
}
