package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/habitify/reminders/internal/model"
)

var (
	ErrInvalidSchedule = errors.New("invalid weekly schedule")
)

type HabitRepository interface {
	Create(ctx context.Context, habit *model.Habit) error
	ActiveWithReminder(ctx context.Context) ([]*model.Habit, error)
	ActiveByUser(ctx context.Context, userID string) ([]*model.Habit, error)
}

type habitRepository struct {
	db *sqlx.DB
}

func NewHabitRepository(db *sqlx.DB) HabitRepository {
	return &habitRepository{db: db}
}

func (r *habitRepository) Create(ctx context.Context, habit *model.Habit) error {
	// Weekday values are rejected here so the scheduling code never sees them
	if err := habit.FrequencyDays.Validate(); err != nil {
		return errors.Join(ErrInvalidSchedule, err)
	}

	query := `INSERT INTO habits (id, user_id, name, icon, color, habit_type, unit, frequency_days,
	              frequency_target, reminder_time, is_archived, position, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		habit.ID,
		habit.UserID,
		habit.Name,
		habit.Icon,
		habit.Color,
		habit.HabitType,
		habit.Unit,
		habit.FrequencyDays,
		habit.FrequencyTarget,
		habit.ReminderTime,
		habit.IsArchived,
		habit.Position,
		habit.CreatedAt,
	)

	return err
}

// ActiveWithReminder returns every non-archived habit that has a reminder time.
func (r *habitRepository) ActiveWithReminder(ctx context.Context) ([]*model.Habit, error) {
	var habits []*model.Habit
	query := `SELECT * FROM habits
	          WHERE is_archived = $1 AND reminder_time IS NOT NULL AND reminder_time <> ''
	          ORDER BY user_id, position`

	err := r.db.SelectContext(ctx, &habits, query, false)
	if err != nil {
		return nil, err
	}

	return habits, nil
}

func (r *habitRepository) ActiveByUser(ctx context.Context, userID string) ([]*model.Habit, error) {
	var habits []*model.Habit
	query := `SELECT * FROM habits WHERE user_id = $1 AND is_archived = $2 ORDER BY position`

	err := r.db.SelectContext(ctx, &habits, query, userID, false)
	if err != nil {
		return nil, err
	}

	return habits, nil
}
