package model

import "time"

const (
	DeliveryKindReminder = "reminder"
	DeliveryKindStreak   = "streak"
)

// ReminderDelivery claims one reminder slot: a habit reminder (subject = habit id)
// or a streak alert (subject = user id) on one local date.
type ReminderDelivery struct {
	ID        string    `db:"id"`
	Kind      string    `db:"kind"`
	SubjectID string    `db:"subject_id"`
	UserID    string    `db:"user_id"`
	LocalDate string    `db:"local_date"`
	CreatedAt time.Time `db:"created_at"`
}
