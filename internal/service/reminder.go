package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/habitify/reminders/internal/message"
	"github.com/habitify/reminders/internal/model"
	"github.com/habitify/reminders/internal/notify"
	"github.com/habitify/reminders/internal/repository"
	"github.com/habitify/reminders/internal/schedule"
)

const (
	runKindReminder = "reminder"
	runKindStreak   = "streak"
)

// ReportArchive stores run summaries. storage.S3Storage implements it.
type ReportArchive interface {
	Save(ctx context.Context, key string, body []byte) error
}

type ReminderConfig struct {
	WindowMinutes   int
	Concurrency     int
	CallTimeout     time.Duration
	RunBudget       time.Duration
	StreakThreshold int
	StreakChannels  []model.Channel
	NtfyTopic       string
}

// RunSummary reports one dispatcher invocation. Failures never abort a run;
// they are listed in Errors.
type RunSummary struct {
	RunID                string    `json:"run_id"`
	StartedAt            time.Time `json:"started_at"`
	Processed            int       `json:"processed"`
	Sent                 int       `json:"sent"`
	Errors               []string  `json:"errors"`
	ExpiredSubscriptions int       `json:"expired_subscriptions"`
}

type ReminderService struct {
	habitRepo        repository.HabitRepository
	profileRepo      repository.ProfileRepository
	completionRepo   repository.CompletionRepository
	subscriptionRepo repository.PushSubscriptionRepository
	deliveryRepo     repository.DeliveryRepository
	notifier         notify.Notifier
	messages         message.Provider
	archive          ReportArchive
	metrics          *Metrics
	cfg              ReminderConfig
}

func NewReminderService(
	habitRepo repository.HabitRepository,
	profileRepo repository.ProfileRepository,
	completionRepo repository.CompletionRepository,
	subscriptionRepo repository.PushSubscriptionRepository,
	deliveryRepo repository.DeliveryRepository,
	notifier notify.Notifier,
	messages message.Provider,
	archive ReportArchive,
	cfg ReminderConfig,
) *ReminderService {
	if cfg.WindowMinutes < 1 {
		cfg.WindowMinutes = 5
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}

	return &ReminderService{
		habitRepo:        habitRepo,
		profileRepo:      profileRepo,
		completionRepo:   completionRepo,
		subscriptionRepo: subscriptionRepo,
		deliveryRepo:     deliveryRepo,
		notifier:         notifier,
		messages:         messages,
		archive:          archive,
		metrics:          NewMetrics(),
		cfg:              cfg,
	}
}

// run is the mutable state of one invocation, shared by its workers.
type run struct {
	kind      string
	mu        sync.Mutex
	summary   RunSummary
	disabled  map[model.Channel]bool
	gone      map[string]bool
	abandoned atomic.Int64
}

func newRun(kind string, now time.Time) *run {
	return &run{
		kind: kind,
		summary: RunSummary{
			RunID:     uuid.New().String(),
			StartedAt: now,
			Errors:    []string{},
		},
		disabled: make(map[model.Channel]bool),
		gone:     make(map[string]bool),
	}
}

func (r *run) processed(n int) {
	r.mu.Lock()
	r.summary.Processed += n
	r.mu.Unlock()
}

func (r *run) sent() {
	r.mu.Lock()
	r.summary.Sent++
	r.mu.Unlock()
}

func (r *run) fail(format string, args ...any) {
	r.mu.Lock()
	r.summary.Errors = append(r.summary.Errors, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *run) isDisabled(ch model.Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disabled[ch]
}

// disable turns a channel off for the rest of the run. It reports true the
// first time so the caller logs the configuration error once.
func (r *run) disable(ch model.Channel, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disabled[ch] {
		return false
	}
	r.disabled[ch] = true
	r.summary.Errors = append(r.summary.Errors, fmt.Sprintf("channel %s disabled for this run: %v", ch, err))
	return true
}

func (r *run) markGone(subscriptionID string) {
	r.mu.Lock()
	r.gone[subscriptionID] = true
	r.mu.Unlock()
}

// Run performs the reminder pass and then the streak alert pass and merges
// their summaries.
func (s *ReminderService) Run(ctx context.Context, now time.Time) RunSummary {
	reminders := s.RunReminders(ctx, now)
	streaks := s.RunStreakAlerts(ctx, now)

	merged := RunSummary{
		RunID:                reminders.RunID,
		StartedAt:            reminders.StartedAt,
		Processed:            reminders.Processed + streaks.Processed,
		Sent:                 reminders.Sent + streaks.Sent,
		Errors:               append(reminders.Errors, streaks.Errors...),
		ExpiredSubscriptions: reminders.ExpiredSubscriptions + streaks.ExpiredSubscriptions,
	}

	return merged
}

// RunReminders sends the habit reminders whose local reminder time falls in the
// current window.
func (s *ReminderService) RunReminders(ctx context.Context, now time.Time) RunSummary {
	r := newRun(runKindReminder, now)
	start := time.Now()
	defer s.observe(r, start)

	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	var habits []*model.Habit
	err := s.call(ctx, func(ctx context.Context) (err error) {
		habits, err = s.habitRepo.ActiveWithReminder(ctx)
		return err
	})
	if err != nil {
		slog.Error("failed to load habits with reminders", "error", err)
		r.fail("load habits: %v", err)
		return s.finish(ctx, r)
	}
	r.processed(len(habits))
	if len(habits) == 0 {
		return s.finish(ctx, r)
	}

	userIDs := uniqueUserIDs(habits)
	profiles, err := s.loadProfiles(ctx, userIDs)
	if err != nil {
		slog.Error("failed to load reminder recipients", "error", err)
		r.fail("load profiles: %v", err)
		return s.finish(ctx, r)
	}

	// Without subscriptions only push is skipped; email and ntfy still go out
	subs := map[string][]*model.PushSubscription{}
	err = s.call(ctx, func(ctx context.Context) (err error) {
		subs, err = s.subscriptionsByUser(ctx, userIDs)
		return err
	})
	if err != nil {
		slog.Error("failed to load push subscriptions", "error", err)
		r.fail("load push subscriptions: %v", err)
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	for _, habit := range habits {
		g.Go(func() error {
			if ctx.Err() != nil {
				r.abandoned.Add(1)
				return nil
			}

			profile, ok := profiles[habit.UserID]
			if !ok {
				slog.Warn("habit owner has no profile, skipping", "habit_id", habit.ID, "user_id", habit.UserID)
				r.fail("habit %s: no profile for user %s", habit.ID, habit.UserID)
				return nil
			}

			s.remindHabit(ctx, r, now, habit, profile, subs[habit.UserID])
			return nil
		})
	}
	_ = g.Wait()

	return s.finish(ctx, r)
}

func (s *ReminderService) remindHabit(ctx context.Context, r *run, now time.Time, habit *model.Habit, profile *model.Profile, subs []*model.PushSubscription) {
	loc := userLocation(profile)

	if !schedule.IsWithinWindow(now, loc, *habit.ReminderTime, s.cfg.WindowMinutes) {
		return
	}

	today := schedule.LocalDate(now, loc)
	if !schedule.IsDue(habit.FrequencyDays, today) {
		return
	}
	localDate := schedule.FormatDate(today)

	var done bool
	err := s.call(ctx, func(ctx context.Context) (err error) {
		done, err = s.completionRepo.Exists(ctx, habit.ID, localDate)
		return err
	})
	if err != nil {
		slog.Error("failed to check completion", "habit_id", habit.ID, "error", err)
		r.fail("habit %s: check completion: %v", habit.ID, err)
		return
	}
	if done {
		slog.Debug("habit already completed, no reminder", "habit_id", habit.ID, "date", localDate)
		return
	}

	targets := s.targets(r, profile, EnabledChannels(profile), subs)
	if len(targets) == 0 {
		slog.Debug("no reachable channel for reminder", "habit_id", habit.ID, "user_id", habit.UserID)
		return
	}

	msg := notify.Message{
		Title:    s.messages.ReminderTitle(habit.Icon, habit.Name),
		Body:     s.messages.ReminderBody(habit.Name),
		URL:      "/",
		Priority: notify.PriorityHigh,
		Tags:     []string{"bell"},
		Data:     map[string]string{"habitId": habit.ID, "type": model.DeliveryKindReminder},
	}

	s.deliver(ctx, r, &model.ReminderDelivery{
		Kind:      model.DeliveryKindReminder,
		SubjectID: habit.ID,
		UserID:    habit.UserID,
		LocalDate: localDate,
	}, targets, msg)
}

// RunStreakAlerts warns users in their evening slot when their longest running
// streak among today's open habits is above the threshold.
func (s *ReminderService) RunStreakAlerts(ctx context.Context, now time.Time) RunSummary {
	r := newRun(runKindStreak, now)
	start := time.Now()
	defer s.observe(r, start)

	ctx, cancel := s.withBudget(ctx)
	defer cancel()

	if len(s.cfg.StreakChannels) == 0 {
		return s.finish(ctx, r)
	}

	var profiles []*model.Profile
	err := s.call(ctx, func(ctx context.Context) (err error) {
		profiles, err = s.profileRepo.WithAnyChannelEnabled(ctx, s.cfg.StreakChannels)
		return err
	})
	if err != nil {
		slog.Error("failed to load profiles for streak alerts", "error", err)
		r.fail("load profiles: %v", err)
		return s.finish(ctx, r)
	}

	// Only users whose evening slot is now need any further work
	var due []*model.Profile
	for _, p := range profiles {
		if schedule.IsWithinEveningStreakWindow(p.UserID, now, userLocation(p)) {
			due = append(due, p)
		}
	}
	r.processed(len(due))
	if len(due) == 0 {
		return s.finish(ctx, r)
	}

	userIDs := make([]string, 0, len(due))
	for _, p := range due {
		userIDs = append(userIDs, p.UserID)
	}

	subs := map[string][]*model.PushSubscription{}
	if slices.Contains(s.cfg.StreakChannels, model.ChannelPush) {
		err = s.call(ctx, func(ctx context.Context) (err error) {
			subs, err = s.subscriptionsByUser(ctx, userIDs)
			return err
		})
		if err != nil {
			slog.Error("failed to load push subscriptions", "error", err)
			r.fail("load push subscriptions: %v", err)
		}
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	for _, profile := range due {
		g.Go(func() error {
			if ctx.Err() != nil {
				r.abandoned.Add(1)
				return nil
			}
			s.alertStreak(ctx, r, now, profile, subs[profile.UserID])
			return nil
		})
	}
	_ = g.Wait()

	return s.finish(ctx, r)
}

func (s *ReminderService) alertStreak(ctx context.Context, r *run, now time.Time, profile *model.Profile, subs []*model.PushSubscription) {
	loc := userLocation(profile)
	today := schedule.LocalDate(now, loc)
	localDate := schedule.FormatDate(today)

	risk, err := s.streakAtRisk(ctx, profile.UserID, today)
	if err != nil {
		slog.Error("failed to compute streaks", "user_id", profile.UserID, "error", err)
		r.fail("user %s: streaks: %v", profile.UserID, err)
		return
	}
	if risk.habit == nil {
		slog.Debug("no open habits today", "user_id", profile.UserID)
		return
	}
	if risk.streak <= s.cfg.StreakThreshold {
		slog.Debug("streak below alert threshold", "user_id", profile.UserID, "streak", risk.streak)
		return
	}

	channels := intersectChannels(EnabledChannels(profile), s.cfg.StreakChannels)
	targets := s.targets(r, profile, channels, subs)
	if len(targets) == 0 {
		return
	}

	urgent := now.In(loc).Hour() >= 21
	priority := notify.PriorityHigh
	if urgent {
		priority = notify.PriorityUrgent
	}

	msg := notify.Message{
		Title:    s.messages.StreakTitle(risk.habit.Icon, risk.streak),
		Body:     s.messages.StreakBody(risk.streak, risk.open, urgent),
		URL:      "/",
		Priority: priority,
		Tags:     []string{"fire", "warning"},
		Data:     map[string]string{"habitId": risk.habit.ID, "type": model.DeliveryKindStreak},
	}

	s.deliver(ctx, r, &model.ReminderDelivery{
		Kind:      model.DeliveryKindStreak,
		SubjectID: profile.UserID,
		UserID:    profile.UserID,
		LocalDate: localDate,
	}, targets, msg)
}

type streakRisk struct {
	habit  *model.Habit
	streak int
	open   int
}

// streakAtRisk finds, among the habits due today and not yet completed, the
// one with the longest current streak.
func (s *ReminderService) streakAtRisk(ctx context.Context, userID string, today time.Time) (streakRisk, error) {
	var risk streakRisk
	localDate := schedule.FormatDate(today)

	var habits []*model.Habit
	err := s.call(ctx, func(ctx context.Context) (err error) {
		habits, err = s.habitRepo.ActiveByUser(ctx, userID)
		return err
	})
	if err != nil {
		return risk, fmt.Errorf("load habits: %w", err)
	}

	var completedToday []*model.Completion
	err = s.call(ctx, func(ctx context.Context) (err error) {
		completedToday, err = s.completionRepo.ByUserOnDate(ctx, userID, localDate)
		return err
	})
	if err != nil {
		return risk, fmt.Errorf("load today's completions: %w", err)
	}

	done := make(map[string]bool, len(completedToday))
	for _, c := range completedToday {
		done[c.HabitID] = true
	}

	var open []*model.Habit
	for _, h := range habits {
		if schedule.IsDue(h.FrequencyDays, today) && !done[h.ID] {
			open = append(open, h)
		}
	}
	if len(open) == 0 {
		return risk, nil
	}

	since := schedule.FormatDate(today.AddDate(0, 0, -schedule.StreakLookbackDays))
	var history []*model.Completion
	err = s.call(ctx, func(ctx context.Context) (err error) {
		history, err = s.completionRepo.HistorySince(ctx, userID, since)
		return err
	})
	if err != nil {
		return risk, fmt.Errorf("load completion history: %w", err)
	}

	datesByHabit := make(map[string][]string)
	for _, c := range history {
		datesByHabit[c.HabitID] = append(datesByHabit[c.HabitID], c.CompletedOn)
	}

	risk.open = len(open)
	risk.streak = -1
	for _, h := range open {
		streak := schedule.CalculateStreak(datesByHabit[h.ID], h.FrequencyDays, today).CurrentStreak
		if streak > risk.streak {
			risk.habit = h
			risk.streak = streak
		}
	}

	return risk, nil
}

// targets expands channels into concrete destinations. Channels without a
// destination for this user are silently not applicable.
func (s *ReminderService) targets(r *run, profile *model.Profile, channels []model.Channel, subs []*model.PushSubscription) []notify.Target {
	var targets []notify.Target

	for _, ch := range channels {
		if r.isDisabled(ch) {
			continue
		}

		switch ch {
		case model.ChannelEmail:
			if profile.Email != "" {
				targets = append(targets, notify.Target{Channel: ch, Address: profile.Email})
			}

		case model.ChannelNtfy:
			if s.cfg.NtfyTopic == "" {
				if r.disable(ch, fmt.Errorf("missing NTFY_TOPIC: %w", notify.ErrNotConfigured)) {
					slog.Error("ntfy channel not configured", "run_id", r.summary.RunID)
				}
				continue
			}
			if topic := notify.UserTopic(s.cfg.NtfyTopic, profile.Email); topic != "" {
				targets = append(targets, notify.Target{Channel: ch, Address: topic})
			}

		case model.ChannelPush:
			for _, sub := range subs {
				targets = append(targets, notify.Target{Channel: ch, Subscription: sub})
			}
		}
	}

	return targets
}

// deliver claims the reminder slot and sends to every target. The claim is
// released when nothing was delivered so a later invocation can retry.
func (s *ReminderService) deliver(ctx context.Context, r *run, delivery *model.ReminderDelivery, targets []notify.Target, msg notify.Message) {
	var claimed bool
	err := s.call(ctx, func(ctx context.Context) (err error) {
		claimed, err = s.deliveryRepo.Claim(ctx, delivery)
		return err
	})
	if err != nil {
		slog.Error("failed to claim reminder slot", "kind", delivery.Kind, "subject_id", delivery.SubjectID, "error", err)
		r.fail("%s %s: claim: %v", delivery.Kind, delivery.SubjectID, err)
		return
	}
	if !claimed {
		slog.Debug("reminder slot already claimed", "kind", delivery.Kind, "subject_id", delivery.SubjectID, "date", delivery.LocalDate)
		return
	}

	delivered := make(map[model.Channel]bool)
	for _, target := range targets {
		if r.isDisabled(target.Channel) {
			continue
		}

		err := s.call(ctx, func(ctx context.Context) error {
			return s.notifier.Send(ctx, target, msg)
		})
		s.record(r, delivery, target, err)
		if err == nil {
			delivered[target.Channel] = true
		}
	}

	for range delivered {
		r.sent()
	}

	if len(delivered) == 0 {
		// The run context may already be past its budget
		releaseCtx := context.WithoutCancel(ctx)
		err := s.call(releaseCtx, func(ctx context.Context) error {
			return s.deliveryRepo.Release(ctx, delivery.Kind, delivery.SubjectID, delivery.LocalDate)
		})
		if err != nil {
			slog.Error("failed to release reminder slot", "kind", delivery.Kind, "subject_id", delivery.SubjectID, "error", err)
			r.fail("%s %s: release: %v", delivery.Kind, delivery.SubjectID, err)
		}
	}
}

func (s *ReminderService) record(r *run, delivery *model.ReminderDelivery, target notify.Target, err error) {
	ch := target.Channel
	log := slog.With("channel", ch, "kind", delivery.Kind, "subject_id", delivery.SubjectID, "user_id", delivery.UserID)

	switch {
	case err == nil:
		s.metrics.SendsTotal.WithLabelValues(string(ch), delivery.Kind, "sent").Inc()
		log.Info("notification sent")

	case errors.Is(err, notify.ErrNotConfigured):
		s.metrics.SendsTotal.WithLabelValues(string(ch), delivery.Kind, "not_configured").Inc()
		if r.disable(ch, err) {
			log.Error("channel not configured", "error", err)
		}

	case errors.Is(err, notify.ErrGone) && target.Subscription != nil:
		s.metrics.SendsTotal.WithLabelValues(string(ch), delivery.Kind, "gone").Inc()
		log.Info("push subscription gone, scheduling removal", "subscription_id", target.Subscription.ID)
		r.markGone(target.Subscription.ID)

	default:
		s.metrics.SendsTotal.WithLabelValues(string(ch), delivery.Kind, "failed").Inc()
		log.Warn("notification failed", "error", err)
		r.fail("%s %s via %s: %v", delivery.Kind, delivery.SubjectID, ch, err)
	}
}

// finish removes gone subscriptions, notes abandoned work and archives the summary.
func (s *ReminderService) finish(ctx context.Context, r *run) RunSummary {
	if n := r.abandoned.Load(); n > 0 {
		r.fail("run budget exceeded: %d %s units not processed", n, r.kind)
	}

	if len(r.gone) > 0 {
		ids := make([]string, 0, len(r.gone))
		for id := range r.gone {
			ids = append(ids, id)
		}

		var removed int64
		err := s.call(context.WithoutCancel(ctx), func(ctx context.Context) (err error) {
			removed, err = s.subscriptionRepo.DeleteByIDs(ctx, ids)
			return err
		})
		if err != nil {
			slog.Error("failed to delete expired push subscriptions", "count", len(ids), "error", err)
			r.fail("delete expired subscriptions: %v", err)
		} else {
			r.summary.ExpiredSubscriptions = int(removed)
			s.metrics.ExpiredSubscriptions.Add(float64(removed))
		}
	}

	slog.Info("reminder run finished",
		"run_id", r.summary.RunID,
		"kind", r.kind,
		"processed", r.summary.Processed,
		"sent", r.summary.Sent,
		"errors", len(r.summary.Errors),
		"expired_subscriptions", r.summary.ExpiredSubscriptions,
	)

	s.archiveSummary(ctx, r.kind, r.summary)
	return r.summary
}

func (s *ReminderService) observe(r *run, start time.Time) {
	s.metrics.RunsTotal.WithLabelValues(r.kind).Inc()
	s.metrics.RunDuration.WithLabelValues(r.kind).Observe(time.Since(start).Seconds())
}

// archiveSummary writes the summary to the report archive when one is configured.
// Archive failures are logged only.
func (s *ReminderService) archiveSummary(ctx context.Context, kind string, summary RunSummary) {
	if s.archive == nil {
		return
	}

	body, err := json.Marshal(summary)
	if err != nil {
		slog.Error("failed to encode run summary", "run_id", summary.RunID, "error", err)
		return
	}

	key := fmt.Sprintf("reminder-runs/%s/%s-%s.json", summary.StartedAt.UTC().Format("2006/01/02"), kind, summary.RunID)
	err = s.call(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return s.archive.Save(ctx, key, body)
	})
	if err != nil {
		slog.Error("failed to archive run summary", "run_id", summary.RunID, "key", key, "error", err)
	}
}

func (s *ReminderService) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RunBudget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.RunBudget)
}

// call runs one store or channel operation under the per-call timeout.
func (s *ReminderService) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return fn(ctx)
}

func (s *ReminderService) loadProfiles(ctx context.Context, userIDs []string) (map[string]*model.Profile, error) {
	var list []*model.Profile
	err := s.call(ctx, func(ctx context.Context) (err error) {
		list, err = s.profileRepo.ByUserIDs(ctx, userIDs)
		return err
	})
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*model.Profile, len(list))
	for _, p := range list {
		profiles[p.UserID] = p
	}
	return profiles, nil
}

func (s *ReminderService) subscriptionsByUser(ctx context.Context, userIDs []string) (map[string][]*model.PushSubscription, error) {
	list, err := s.subscriptionRepo.ByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	subs := make(map[string][]*model.PushSubscription)
	for _, sub := range list {
		subs[sub.UserID] = append(subs[sub.UserID], sub)
	}
	return subs, nil
}

func userLocation(profile *model.Profile) *time.Location {
	loc, err := schedule.LoadLocation(profile.Timezone)
	if err != nil {
		slog.Warn("invalid profile timezone, using UTC", "user_id", profile.UserID, "timezone", profile.Timezone)
		return time.UTC
	}
	return loc
}

func uniqueUserIDs(habits []*model.Habit) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, h := range habits {
		if !seen[h.UserID] {
			seen[h.UserID] = true
			ids = append(ids, h.UserID)
		}
	}
	return ids
}
