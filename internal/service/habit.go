package service

import (
	"context"
	"fmt"
	"time"

	"github.com/habitify/reminders/internal/model"
	"github.com/habitify/reminders/internal/repository"
	"github.com/habitify/reminders/internal/schedule"
)

// HabitStatus is one row of a user's day view.
type HabitStatus struct {
	Habit     *model.Habit
	Completed bool
	Streak    schedule.StreakData
}

type HabitService struct {
	habitRepo      repository.HabitRepository
	completionRepo repository.CompletionRepository
}

func NewHabitService(habitRepo repository.HabitRepository, completionRepo repository.CompletionRepository) *HabitService {
	return &HabitService{
		habitRepo:      habitRepo,
		completionRepo: completionRepo,
	}
}

// DueOn returns the user's active habits scheduled on date, in position order,
// with their completion state and streaks as of that date.
func (s *HabitService) DueOn(ctx context.Context, userID string, date time.Time) ([]HabitStatus, error) {
	date = schedule.DateOf(date)

	habits, err := s.habitRepo.ActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}

	since := schedule.FormatDate(date.AddDate(0, 0, -schedule.StreakLookbackDays))
	history, err := s.completionRepo.HistorySince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load completions: %w", err)
	}

	day := schedule.FormatDate(date)
	datesByHabit := make(map[string][]string)
	completed := make(map[string]bool)
	for _, c := range history {
		// Completions after date must not count toward its streaks
		if c.CompletedOn > day {
			continue
		}
		datesByHabit[c.HabitID] = append(datesByHabit[c.HabitID], c.CompletedOn)
		if c.CompletedOn == day {
			completed[c.HabitID] = true
		}
	}

	var statuses []HabitStatus
	for _, h := range habits {
		if !schedule.IsDue(h.FrequencyDays, date) {
			continue
		}
		statuses = append(statuses, HabitStatus{
			Habit:     h,
			Completed: completed[h.ID],
			Streak:    schedule.CalculateStreak(datesByHabit[h.ID], h.FrequencyDays, date),
		})
	}

	return statuses, nil
}
