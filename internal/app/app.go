package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/habitify/reminders/internal/config"
	"github.com/habitify/reminders/internal/db"
	"github.com/habitify/reminders/internal/message"
	"github.com/habitify/reminders/internal/model"
	"github.com/habitify/reminders/internal/notify"
	"github.com/habitify/reminders/internal/repository"
	"github.com/habitify/reminders/internal/service"
	"github.com/habitify/reminders/internal/storage"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	ReminderService *service.ReminderService
	HabitService    *service.HabitService
	ProfileService  *service.ProfileService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	habitRepository := repository.NewHabitRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	completionRepository := repository.NewCompletionRepository(database)
	subscriptionRepository := repository.NewPushSubscriptionRepository(database)
	deliveryRepository := repository.NewDeliveryRepository(database)

	// Storage (optional run report archive)
	reportStorage, err := storage.New(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	var archive service.ReportArchive
	if reportStorage != nil {
		archive = reportStorage
	}

	// Notification channels
	httpClient := &http.Client{Timeout: cfg.ReminderCallTimeout}
	router := notify.NewRouter(cfg.NotifyRatePerSecond, cfg.NotifyRateBurst)
	router.Register(model.ChannelEmail, notify.NewEmailSender(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	))
	router.Register(model.ChannelNtfy, notify.NewNtfySender(cfg.NtfyBaseURL, cfg.AppURL, httpClient))
	router.Register(model.ChannelPush, notify.NewPushSender(
		cfg.VAPIDPublicKey,
		cfg.VAPIDPrivateKey,
		cfg.VAPIDSubject,
		httpClient,
	))

	// Services
	reminderService := service.NewReminderService(
		habitRepository,
		profileRepository,
		completionRepository,
		subscriptionRepository,
		deliveryRepository,
		router,
		message.NewRandom(),
		archive,
		service.ReminderConfig{
			WindowMinutes:   cfg.ReminderWindow,
			Concurrency:     cfg.ReminderConcurrency,
			CallTimeout:     cfg.ReminderCallTimeout,
			RunBudget:       cfg.ReminderRunBudget,
			StreakThreshold: cfg.StreakThreshold,
			StreakChannels:  cfg.StreakAlertChannels,
			NtfyTopic:       cfg.NtfyTopic,
		},
	)
	habitService := service.NewHabitService(habitRepository, completionRepository)
	profileService := service.NewProfileService(profileRepository)

	return &App{
		Cfg:             cfg,
		DB:              database,
		ReminderService: reminderService,
		HabitService:    habitService,
		ProfileService:  profileService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
