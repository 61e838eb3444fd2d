package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/habitify/reminders/internal/model"
)

var ErrProfileNotFound = errors.New("profile not found")

// channelColumns maps channels to their preference column. Only these names are
// ever interpolated into SQL.
var channelColumns = map[model.Channel]string{
	model.ChannelPush:  "notify_push",
	model.ChannelNtfy:  "notify_ntfy",
	model.ChannelEmail: "notify_email",
}

const profileSelect = `SELECT p.*, u.email FROM profiles p JOIN users u ON u.id = p.user_id`

type ProfileRepository interface {
	ByUserID(ctx context.Context, userID string) (*model.Profile, error)
	ByUserIDs(ctx context.Context, userIDs []string) ([]*model.Profile, error)
	WithAnyChannelEnabled(ctx context.Context, channels []model.Channel) ([]*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	UpdateTimezone(ctx context.Context, userID, timezone string) error
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, profileSelect+` WHERE p.user_id = $1`, userID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) ByUserIDs(ctx context.Context, userIDs []string) ([]*model.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(profileSelect+` WHERE p.user_id IN (?)`, userIDs)
	if err != nil {
		return nil, err
	}

	var profiles []*model.Profile
	if err := r.db.SelectContext(ctx, &profiles, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return profiles, nil
}

// WithAnyChannelEnabled returns profiles where at least one of the channels is
// enabled or was never set.
func (r *profileRepository) WithAnyChannelEnabled(ctx context.Context, channels []model.Channel) ([]*model.Profile, error) {
	var conds []string
	for _, ch := range channels {
		col, ok := channelColumns[ch]
		if !ok {
			return nil, fmt.Errorf("unknown channel %q", ch)
		}
		conds = append(conds, fmt.Sprintf("p.%s IS NULL OR p.%s = ?", col, col))
	}
	if len(conds) == 0 {
		return nil, nil
	}

	args := make([]any, len(conds))
	for i := range args {
		args[i] = true
	}

	query := profileSelect + ` WHERE (` + strings.Join(conds, " OR ") + `) ORDER BY p.user_id`

	var profiles []*model.Profile
	if err := r.db.SelectContext(ctx, &profiles, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return profiles, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.Timezone == "" {
		profile.Timezone = model.DefaultTimezone
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, user_id, name, timezone, notify_push, notify_ntfy, notify_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, profile.ID, profile.UserID, profile.Name, profile.Timezone,
		profile.NotifyPush, profile.NotifyNtfy, profile.NotifyEmail,
		profile.CreatedAt, profile.UpdatedAt)

	return err
}

func (r *profileRepository) UpdateTimezone(ctx context.Context, userID, timezone string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET timezone = $1, updated_at = $2
		WHERE user_id = $3
	`, timezone, time.Now(), userID)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileNotFound
	}

	return nil
}
