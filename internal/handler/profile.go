package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/habitify/reminders/internal/repository"
	"github.com/habitify/reminders/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

type timezoneRequest struct {
	Timezone string `json:"timezone"`
}

// UpdateTimezone stores the zone detected by the user's device.
func (h *ProfileHandler) UpdateTimezone(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var req timezoneRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := h.profileService.UpdateTimezone(r.Context(), userID, req.Timezone)
	switch {
	case errors.Is(err, service.ErrInvalidTimezone):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, repository.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "profile not found")
		return
	case err != nil:
		slog.Error("failed to update timezone", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to update timezone")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
