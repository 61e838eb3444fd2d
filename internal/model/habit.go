package model

import (
	"strings"
	"time"
)

const (
	HabitTypeBoolean    = "boolean"
	HabitTypeMeasurable = "measurable"
)

type Habit struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	Name            string    `db:"name"`
	Icon            string    `db:"icon"`
	Color           string    `db:"color"`
	HabitType       string    `db:"habit_type"`
	Unit            *string   `db:"unit"`
	FrequencyDays   Weekdays  `db:"frequency_days"`
	FrequencyTarget int       `db:"frequency_target"`
	ReminderTime    *string   `db:"reminder_time"` // Local wall clock, HH:MM
	IsArchived      bool      `db:"is_archived"`
	Position        int       `db:"position"`
	CreatedAt       time.Time `db:"created_at"`
}

func (h *Habit) HasReminder() bool {
	return h.ReminderTime != nil && strings.TrimSpace(*h.ReminderTime) != ""
}

func (h *Habit) IsMeasurable() bool {
	return h.HabitType == HabitTypeMeasurable
}
