package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/habitify/reminders/internal/app"
	"github.com/habitify/reminders/internal/service"
)

func RunCmd() *cobra.Command {
	var nowFlag, kind string

	c := &cobra.Command{
		Use:   "run",
		Short: "Run one reminder and streak alert pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if nowFlag != "" {
				parsed, err := time.Parse(time.RFC3339, nowFlag)
				if err != nil {
					return fmt.Errorf("--now must be an RFC 3339 timestamp: %w", err)
				}
				now = parsed.UTC()
			}

			run, err := passFor(kind)
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(a *app.App) error {
				printSummary(run(a.ReminderService, cmd.Context(), now))
				return nil
			})
		},
	}
	c.Flags().StringVar(&nowFlag, "now", "", "evaluate at this instant (RFC 3339) instead of the clock")
	c.Flags().StringVar(&kind, "kind", "all", "which pass to run: all, reminders or streaks")

	return c
}

func LoopCmd() *cobra.Command {
	var interval time.Duration

	c := &cobra.Command{
		Use:   "loop",
		Short: "Run passes on a fixed interval until interrupted",
		Long: `Runs a pass immediately and then every --interval. Use this where no
external scheduler can call the HTTP trigger. Keep the interval at or below
REMINDER_WINDOW (minutes) so no reminder falls between two passes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, func(a *app.App) error {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				for {
					// A signal stops the loop between passes, never inside one
					printSummary(a.ReminderService.Run(context.WithoutCancel(ctx), time.Now().UTC()))

					select {
					case <-ctx.Done():
						slog.Info("loop stopped")
						return nil
					case <-ticker.C:
					}
				}
			})
		},
	}
	c.Flags().DurationVar(&interval, "interval", 5*time.Minute, "time between passes")

	return c
}

type pass func(*service.ReminderService, context.Context, time.Time) service.RunSummary

func passFor(kind string) (pass, error) {
	switch kind {
	case "all":
		return (*service.ReminderService).Run, nil
	case "reminders":
		return (*service.ReminderService).RunReminders, nil
	case "streaks":
		return (*service.ReminderService).RunStreakAlerts, nil
	default:
		return nil, fmt.Errorf("unknown pass %q (want all, reminders or streaks)", kind)
	}
}

func printSummary(summary service.RunSummary) {
	faint := color.New(color.Faint)

	fmt.Printf("%s %s\n",
		faint.Sprint(summary.RunID),
		faint.Sprint(summary.StartedAt.Format(time.RFC3339)))

	if len(summary.Errors) == 0 {
		color.Green("✓ processed %d, sent %d", summary.Processed, summary.Sent)
	} else {
		color.Yellow("⚠ processed %d, sent %d, %d errors", summary.Processed, summary.Sent, len(summary.Errors))
	}
	if summary.ExpiredSubscriptions > 0 {
		fmt.Printf("  removed %d expired push subscriptions\n", summary.ExpiredSubscriptions)
	}
	for _, e := range summary.Errors {
		color.Red("  ✗ %s", e)
	}
}
