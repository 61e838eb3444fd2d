package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitify/reminders/internal/db/dbtest"
	"github.com/habitify/reminders/internal/handler"
	"github.com/habitify/reminders/internal/message"
	"github.com/habitify/reminders/internal/model"
	"github.com/habitify/reminders/internal/notify"
	"github.com/habitify/reminders/internal/repository"
	"github.com/habitify/reminders/internal/service"
)

func seedUser(t *testing.T, database *sqlx.DB) string {
	t.Helper()
	ctx := context.Background()

	user := &model.User{ID: uuid.New().String(), Email: "ada@example.com", CreatedAt: time.Now()}
	require.NoError(t, repository.NewUserRepository(database).Create(ctx, user))
	require.NoError(t, repository.NewProfileRepository(database).Create(ctx, &model.Profile{UserID: user.ID}))
	return user.ID
}

func TestReminderHandlerRun(t *testing.T) {
	database := dbtest.New(t)
	svc := service.NewReminderService(
		repository.NewHabitRepository(database),
		repository.NewProfileRepository(database),
		repository.NewCompletionRepository(database),
		repository.NewPushSubscriptionRepository(database),
		repository.NewDeliveryRepository(database),
		notify.NewRouter(0, 1),
		message.NewSeeded(1, 1),
		nil,
		service.ReminderConfig{StreakChannels: []model.Channel{model.ChannelPush}},
	)
	h := handler.NewReminderHandler(svc)

	t.Run("replays a given instant", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Run(rec, httptest.NewRequest(http.MethodPost, "/internal/reminders/run?now=2026-01-13T09:00:00%2B01:00", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var summary service.RunSummary
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
		assert.Equal(t, time.Date(2026, 1, 13, 8, 0, 0, 0, time.UTC), summary.StartedAt)
		assert.Zero(t, summary.Processed)
		assert.NotNil(t, summary.Errors)
	})

	t.Run("rejects malformed now", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Run(rec, httptest.NewRequest(http.MethodPost, "/internal/reminders/run?now=yesterday", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	database := dbtest.New(t)
	rec := httptest.NewRecorder()
	handler.NewHealthHandler(database).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.NoError(t, database.Close())
	rec = httptest.NewRecorder()
	handler.NewHealthHandler(database).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProfileHandlerUpdateTimezone(t *testing.T) {
	database := dbtest.New(t)
	userID := seedUser(t, database)
	profiles := service.NewProfileService(repository.NewProfileRepository(database))

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /internal/users/{userID}/timezone", handler.NewProfileHandler(profiles).UpdateTimezone)

	put := func(user, body string) int {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/internal/users/"+user+"/timezone", strings.NewReader(body)))
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, put(userID, `{"timezone":"Asia/Tokyo"}`))
	assert.Equal(t, http.StatusBadRequest, put(userID, `{"timezone":"Nowhere/Land"}`))
	assert.Equal(t, http.StatusBadRequest, put(userID, `not json`))
	assert.Equal(t, http.StatusNotFound, put("missing", `{"timezone":"UTC"}`))

	p, err := profiles.ByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", p.Timezone)
}

func TestHabitHandlerDue(t *testing.T) {
	database := dbtest.New(t)
	userID := seedUser(t, database)
	ctx := context.Background()

	habit := &model.Habit{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          "Read",
		HabitType:     model.HabitTypeBoolean,
		FrequencyDays: model.Weekdays{2}, // Tuesday
		CreatedAt:     time.Now(),
	}
	require.NoError(t, repository.NewHabitRepository(database).Create(ctx, habit))
	require.NoError(t, repository.NewCompletionRepository(database).Create(ctx, &model.Completion{
		ID: uuid.New().String(), HabitID: habit.ID, UserID: userID, CompletedOn: "2026-01-13", CreatedAt: time.Now(),
	}))

	h := handler.NewHabitHandler(
		service.NewHabitService(repository.NewHabitRepository(database), repository.NewCompletionRepository(database)),
		service.NewProfileService(repository.NewProfileRepository(database)),
	)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /internal/users/{userID}/due", h.Due)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/internal/users/" + userID + "/due?date=2026-01-13")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"date": "2026-01-13",
		"habits": [{"id": "`+habit.ID+`", "name": "Read", "icon": "", "completed": true,
			"streak": {"current_streak": 1, "best_streak": 1}}]
	}`, rec.Body.String())

	rec = get("/internal/users/" + userID + "/due?date=2026-01-14")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date": "2026-01-14", "habits": []}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, get("/internal/users/"+userID+"/due?date=14.01.2026").Code)
	assert.Equal(t, http.StatusNotFound, get("/internal/users/missing/due").Code)
}
