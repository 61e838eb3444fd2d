package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/habitify/reminders/internal/app"
	"github.com/habitify/reminders/internal/handler"
	"github.com/habitify/reminders/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	reminder := handler.NewReminderHandler(app.ReminderService)
	profile := handler.NewProfileHandler(app.ProfileService)
	habit := handler.NewHabitHandler(app.HabitService, app.ProfileService)

	mux := http.NewServeMux()

	// ============================================================================
	// PROBES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)
	if app.Cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// ============================================================================
	// INTERNAL (scheduler and backend callers, bearer token + rate limited)
	// ============================================================================

	limiter := middleware.NewRateLimiter(app.Cfg.TriggerRatePerMinute, 5)
	internal := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.RateLimit(limiter),
			middleware.RequireTriggerToken(app.Cfg.TriggerSecret),
		)
	}

	mux.Handle("POST /internal/reminders/run", internal(reminder.Run))
	mux.Handle("PUT /internal/users/{userID}/timezone", internal(profile.UpdateTimezone))
	mux.Handle("GET /internal/users/{userID}/due", internal(habit.Due))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestLogging,
	)

	return handler
}
