package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/habitify/reminders/internal/model"
)

type DeliveryRepository interface {
	Claim(ctx context.Context, delivery *model.ReminderDelivery) (bool, error)
	Release(ctx context.Context, kind, subjectID, localDate string) error
}

type deliveryRepository struct {
	db *sqlx.DB
}

func NewDeliveryRepository(db *sqlx.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

// Claim records that a notification for (kind, subject, local date) is being sent.
// It returns false when another invocation already holds the claim.
func (r *deliveryRepository) Claim(ctx context.Context, delivery *model.ReminderDelivery) (bool, error) {
	if delivery.ID == "" {
		delivery.ID = uuid.New().String()
	}
	if delivery.CreatedAt.IsZero() {
		delivery.CreatedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO reminder_deliveries (id, kind, subject_id, user_id, local_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (kind, subject_id, local_date) DO NOTHING
	`, delivery.ID, delivery.Kind, delivery.SubjectID, delivery.UserID, delivery.LocalDate, delivery.CreatedAt)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (r *deliveryRepository) Release(ctx context.Context, kind, subjectID, localDate string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM reminder_deliveries
		WHERE kind = $1 AND subject_id = $2 AND local_date = $3
	`, kind, subjectID, localDate)
	return err
}
