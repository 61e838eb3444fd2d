package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/habitify/reminders/internal/model"
)

var (
	ErrDuplicateCompletion = errors.New("habit already completed on this date")
)

type CompletionRepository interface {
	Create(ctx context.Context, completion *model.Completion) error
	Exists(ctx context.Context, habitID, date string) (bool, error)
	ByUserOnDate(ctx context.Context, userID, date string) ([]*model.Completion, error)
	HistorySince(ctx context.Context, userID, since string) ([]*model.Completion, error)
}

type completionRepository struct {
	db *sqlx.DB
}

func NewCompletionRepository(db *sqlx.DB) CompletionRepository {
	return &completionRepository{db: db}
}

func (r *completionRepository) Create(ctx context.Context, completion *model.Completion) error {
	query := `INSERT INTO completions (id, habit_id, user_id, completed_on, value, note, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		completion.ID,
		completion.HabitID,
		completion.UserID,
		completion.CompletedOn,
		completion.Value,
		completion.Note,
		completion.CreatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateCompletion
	}

	return err
}

// Exists reports whether the habit has a completion on the given local date.
func (r *completionRepository) Exists(ctx context.Context, habitID, date string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM completions WHERE habit_id = $1 AND completed_on = $2`

	err := r.db.QueryRowContext(ctx, query, habitID, date).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *completionRepository) ByUserOnDate(ctx context.Context, userID, date string) ([]*model.Completion, error) {
	var completions []*model.Completion
	query := `SELECT * FROM completions WHERE user_id = $1 AND completed_on = $2`

	err := r.db.SelectContext(ctx, &completions, query, userID, date)
	if err != nil {
		return nil, err
	}

	return completions, nil
}

// HistorySince returns the user's completions on or after the given date, oldest first.
func (r *completionRepository) HistorySince(ctx context.Context, userID, since string) ([]*model.Completion, error) {
	var completions []*model.Completion
	query := `SELECT * FROM completions WHERE user_id = $1 AND completed_on >= $2 ORDER BY completed_on`

	err := r.db.SelectContext(ctx, &completions, query, userID, since)
	if err != nil {
		return nil, err
	}

	return completions, nil
}
