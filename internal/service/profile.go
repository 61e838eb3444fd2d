package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/habitify/reminders/internal/model"
	"github.com/habitify/reminders/internal/repository"
	"github.com/habitify/reminders/internal/validation"
)

var ErrInvalidTimezone = errors.New("invalid timezone")

type ProfileService struct {
	profileRepo repository.ProfileRepository
}

func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
	}
}

func (s *ProfileService) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	return s.profileRepo.ByUserID(ctx, userID)
}

// UpdateTimezone stores the IANA zone detected on the user's device.
// Empty input resets the profile to UTC.
func (s *ProfileService) UpdateTimezone(ctx context.Context, userID, timezone string) error {
	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		timezone = model.DefaultTimezone
	}

	if err := validation.ValidateTimezone(timezone); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, timezone, err)
	}

	return s.profileRepo.UpdateTimezone(ctx, userID, timezone)
}
