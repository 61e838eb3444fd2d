package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/habitify/reminders/internal/repository"
	"github.com/habitify/reminders/internal/schedule"
	"github.com/habitify/reminders/internal/service"
)

type HabitHandler struct {
	habitService   *service.HabitService
	profileService *service.ProfileService
}

func NewHabitHandler(habitService *service.HabitService, profileService *service.ProfileService) *HabitHandler {
	return &HabitHandler{
		habitService:   habitService,
		profileService: profileService,
	}
}

type dueHabit struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Icon      string              `json:"icon"`
	Completed bool                `json:"completed"`
	Streak    schedule.StreakData `json:"streak"`
}

// Due lists the habits a user has scheduled on a date. Without a date query
// parameter it uses today in the user's timezone.
func (h *HabitHandler) Due(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var date time.Time
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := schedule.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	} else {
		profile, err := h.profileService.ByUserID(r.Context(), userID)
		if errors.Is(err, repository.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		if err != nil {
			slog.Error("failed to load profile", "error", err, "user_id", userID)
			writeError(w, http.StatusInternalServerError, "failed to load profile")
			return
		}
		loc, err := schedule.LoadLocation(profile.Timezone)
		if err != nil {
			loc = time.UTC
		}
		date = schedule.LocalDate(time.Now(), loc)
	}

	statuses, err := h.habitService.DueOn(r.Context(), userID, date)
	if err != nil {
		slog.Error("failed to load due habits", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to load habits")
		return
	}

	habits := make([]dueHabit, 0, len(statuses))
	for _, s := range statuses {
		habits = append(habits, dueHabit{
			ID:        s.Habit.ID,
			Name:      s.Habit.Name,
			Icon:      s.Habit.Icon,
			Completed: s.Completed,
			Streak:    s.Streak,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":   schedule.FormatDate(date),
		"habits": habits,
	})
}
