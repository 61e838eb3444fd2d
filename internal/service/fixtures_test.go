package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/habitify/reminders/internal/db/dbtest"
	"github.com/habitify/reminders/internal/model"
	"github.com/habitify/reminders/internal/notify"
	"github.com/habitify/reminders/internal/repository"
	"github.com/habitify/reminders/internal/service"
)

func ptr[T any](v T) *T { return &v }

type attempt struct {
	target notify.Target
	msg    notify.Message
	err    error
}

type fakeNotifier struct {
	mu       sync.Mutex
	attempts []attempt
	errs     map[model.Channel]error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{errs: make(map[model.Channel]error)}
}

func (f *fakeNotifier) Send(_ context.Context, target notify.Target, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.errs[target.Channel]
	f.attempts = append(f.attempts, attempt{target: target, msg: msg, err: err})
	return err
}

func (f *fakeNotifier) setErr(ch model.Channel, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[ch] = err
}

// delivered returns the successful sends on a channel.
func (f *fakeNotifier) delivered(ch model.Channel) []attempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attempt
	for _, a := range f.attempts {
		if a.target.Channel == ch && a.err == nil {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeNotifier) count(ch model.Channel) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.attempts {
		if a.target.Channel == ch {
			n++
		}
	}
	return n
}

type streakCall struct {
	streak, open int
	urgent       bool
}

type fakeMessages struct {
	mu    sync.Mutex
	calls []streakCall
}

func (m *fakeMessages) ReminderTitle(icon, name string) string { return icon + " " + name }
func (m *fakeMessages) ReminderBody(name string) string { return "do " + name }
func (m *fakeMessages) StreakTitle(icon string, streak int) string {
	return fmt.Sprintf("%s %d", icon, streak)
}

func (m *fakeMessages) StreakBody(streak, open int, urgent bool) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, streakCall{streak: streak, open: open, urgent: urgent})
	return "streak"
}

type fakeArchive struct {
	mu   sync.Mutex
	keys []string
}

func (a *fakeArchive) Save(_ context.Context, key string, _ []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, key)
	return nil
}

type fixture struct {
	t        *testing.T
	db       *sqlx.DB
	notifier *fakeNotifier
	messages *fakeMessages
	archive  *fakeArchive
	cfg      service.ReminderConfig
	svc      *service.ReminderService
}

func defaultConfig() service.ReminderConfig {
	return service.ReminderConfig{
		WindowMinutes:   5,
		Concurrency:     4,
		CallTimeout:     5 * time.Second,
		RunBudget:       time.Minute,
		StreakThreshold: 5,
		StreakChannels:  []model.Channel{model.ChannelPush, model.ChannelNtfy},
		NtfyTopic:       "habitify",
	}
}

func newFixture(t *testing.T, mutate func(*service.ReminderConfig)) *fixture {
	t.Helper()

	cfg := defaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	database := dbtest.New(t)
	f := &fixture{
		t:        t,
		db:       database,
		notifier: newFakeNotifier(),
		messages: &fakeMessages{},
		archive:  &fakeArchive{},
	}
	f.cfg = cfg
	f.useSubscriptions(repository.NewPushSubscriptionRepository(database))
	return f
}

// useSubscriptions rebuilds the service around a different subscription store.
func (f *fixture) useSubscriptions(subs repository.PushSubscriptionRepository) {
	f.svc = service.NewReminderService(
		repository.NewHabitRepository(f.db),
		repository.NewProfileRepository(f.db),
		repository.NewCompletionRepository(f.db),
		subs,
		repository.NewDeliveryRepository(f.db),
		f.notifier,
		f.messages,
		f.archive,
		f.cfg,
	)
}

// failingSubscriptions errors on every read.
type failingSubscriptions struct {
	repository.PushSubscriptionRepository
}

func (failingSubscriptions) ByUserIDs(context.Context, []string) ([]*model.PushSubscription, error) {
	return nil, errors.New("connection reset")
}

func (f *fixture) user(email string, profile *model.Profile) string {
	f.t.Helper()
	ctx := context.Background()

	user := &model.User{ID: uuid.New().String(), Email: email, CreatedAt: time.Now()}
	require.NoError(f.t, repository.NewUserRepository(f.db).Create(ctx, user))

	if profile != nil {
		profile.UserID = user.ID
		require.NoError(f.t, repository.NewProfileRepository(f.db).Create(ctx, profile))
	}
	return user.ID
}

func (f *fixture) habit(userID, name string, mutate func(*model.Habit)) *model.Habit {
	f.t.Helper()

	h := &model.Habit{
		ID:              uuid.New().String(),
		UserID:          userID,
		Name:            name,
		Icon:            "*",
		HabitType:       model.HabitTypeBoolean,
		FrequencyTarget: 1,
		CreatedAt:       time.Now(),
	}
	if mutate != nil {
		mutate(h)
	}
	require.NoError(f.t, repository.NewHabitRepository(f.db).Create(context.Background(), h))
	return h
}

func (f *fixture) complete(h *model.Habit, dates ...string) {
	f.t.Helper()
	repo := repository.NewCompletionRepository(f.db)
	for _, d := range dates {
		require.NoError(f.t, repo.Create(context.Background(), &model.Completion{
			ID:          uuid.New().String(),
			HabitID:     h.ID,
			UserID:      h.UserID,
			CompletedOn: d,
			Value:       1,
			CreatedAt:   time.Now(),
		}))
	}
}

func (f *fixture) subscribe(userID, endpoint string) *model.PushSubscription {
	f.t.Helper()
	sub := &model.PushSubscription{UserID: userID, Endpoint: endpoint, P256dh: "key", Auth: "auth"}
	require.NoError(f.t, repository.NewPushSubscriptionRepository(f.db).Create(context.Background(), sub))
	return sub
}

func (f *fixture) subscriptions(userID string) []*model.PushSubscription {
	f.t.Helper()
	subs, err := repository.NewPushSubscriptionRepository(f.db).ByUserIDs(context.Background(), []string{userID})
	require.NoError(f.t, err)
	return subs
}

// dates returns n consecutive YYYY-MM-DD dates ending the day before end.
func dates(end string, n int) []string {
	last, _ := time.Parse("2006-01-02", end)
	out := make([]string, 0, n)
	for i := n; i >= 1; i-- {
		out = append(out, last.AddDate(0, 0, -i).Format("2006-01-02"))
	}
	return out
}
