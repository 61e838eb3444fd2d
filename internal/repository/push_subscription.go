package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/habitify/reminders/internal/model"
)

type PushSubscriptionRepository interface {
	Create(ctx context.Context, sub *model.PushSubscription) error
	ByUserIDs(ctx context.Context, userIDs []string) ([]*model.PushSubscription, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type pushSubscriptionRepository struct {
	db *sqlx.DB
}

func NewPushSubscriptionRepository(db *sqlx.DB) PushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

func (r *pushSubscriptionRepository) Create(ctx context.Context, sub *model.PushSubscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	query := `INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, sub.ID, sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth, sub.CreatedAt)
	return err
}

func (r *pushSubscriptionRepository) ByUserIDs(ctx context.Context, userIDs []string) ([]*model.PushSubscription, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM push_subscriptions WHERE user_id IN (?) ORDER BY created_at`, userIDs)
	if err != nil {
		return nil, err
	}

	var subs []*model.PushSubscription
	if err := r.db.SelectContext(ctx, &subs, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return subs, nil
}

// DeleteByIDs removes subscriptions and returns how many rows went away.
func (r *pushSubscriptionRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM push_subscriptions WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
