package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/habitify/reminders/internal/service"
)

type ReminderHandler struct {
	reminderService *service.ReminderService
}

func NewReminderHandler(reminderService *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{
		reminderService: reminderService,
	}
}

// Run is called by the external scheduler. The optional now query parameter
// (RFC 3339) replays a specific instant.
func (h *ReminderHandler) Run(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	if v := r.URL.Query().Get("now"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "now must be an RFC 3339 timestamp")
			return
		}
		now = parsed.UTC()
	}

	// A scheduler that hangs up must not abort a half-finished run
	ctx := context.WithoutCancel(r.Context())

	summary := h.reminderService.Run(ctx, now)
	writeJSON(w, http.StatusOK, summary)
}
