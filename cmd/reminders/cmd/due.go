package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/habitify/reminders/internal/app"
	"github.com/habitify/reminders/internal/schedule"
)

func DueCmd() *cobra.Command {
	var userID, dateFlag string

	c := &cobra.Command{
		Use:   "due",
		Short: "List a user's habits scheduled on a date with their streaks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withApp(ctx, func(a *app.App) error {
				profile, err := a.ProfileService.ByUserID(ctx, userID)
				if err != nil {
					return err
				}

				var date time.Time
				if dateFlag != "" {
					date, err = schedule.ParseDate(dateFlag)
					if err != nil {
						return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
					}
				} else {
					loc, err := schedule.LoadLocation(profile.Timezone)
					if err != nil {
						color.Yellow("⚠ invalid timezone %q, using UTC", profile.Timezone)
						loc = time.UTC
					}
					date = schedule.LocalDate(time.Now(), loc)
				}

				statuses, err := a.HabitService.DueOn(ctx, userID, date)
				if err != nil {
					return err
				}

				faint := color.New(color.Faint)
				fmt.Printf("%s %s\n", schedule.FormatDate(date), faint.Sprint(profile.Timezone))
				if len(statuses) == 0 {
					fmt.Println("Nothing scheduled.")
					return nil
				}

				for _, s := range statuses {
					mark := color.New(color.FgYellow).Sprint("○")
					if s.Completed {
						mark = color.New(color.FgGreen).Sprint("✓")
					}
					fmt.Printf("%s %-24s %s\n", mark, s.Habit.Name,
						faint.Sprintf("streak %d, best %d", s.Streak.CurrentStreak, s.Streak.BestStreak))
				}
				return nil
			})
		},
	}
	c.Flags().StringVarP(&userID, "user", "u", "", "user ID")
	c.Flags().StringVarP(&dateFlag, "date", "d", "", "date (YYYY-MM-DD), default today in the user's timezone")
	_ = c.MarkFlagRequired("user")

	return c
}
