package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/habitify/reminders/internal/app"
	"github.com/habitify/reminders/internal/config"
	"github.com/habitify/reminders/internal/logger"
)

// withApp loads configuration, wires the application and hands it to fn.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg := config.Load()

	flush := logger.Init(logger.Options{
		Development: cfg.IsDevelopment(),
		Level:       cfg.LogLevel,
		SentryDSN:   cfg.SentryDSN,
		Release:     "cli",
	})
	defer flush()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("failed to close app", "error", err)
		}
	}()

	return fn(a)
}
