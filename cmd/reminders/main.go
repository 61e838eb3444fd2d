package main

import (
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/habitify/reminders/cmd/reminders/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reminders",
		Short: "Habit reminder and streak alert tools",
		Long: `Operate the reminder dispatcher from the command line.

  $ reminders run                              # one pass at the current instant
  $ reminders run --now 2026-01-13T08:00:00Z   # replay an instant
  $ reminders loop --interval 5m               # self-scheduled passes
  $ reminders due --user <id>                  # today's habits for a user
  $ reminders token --ttl 24h                  # bearer token for the HTTP trigger
  $ reminders migrate down                     # roll back one migration

Configuration is read from the environment and .env, same as the server.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.RunCmd())
	rootCmd.AddCommand(cmd.LoopCmd())
	rootCmd.AddCommand(cmd.DueCmd())
	rootCmd.AddCommand(cmd.TokenCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
