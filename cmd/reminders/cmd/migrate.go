package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/habitify/reminders/internal/config"
	"github.com/habitify/reminders/internal/db"
)

func MigrateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	c.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
			if err != nil {
				return err
			}
			defer db.Close(database)

			if err := db.RunMigrations(cmd.Context(), database.DB, cfg.DBDriver); err != nil {
				return err
			}
			color.Green("✓ schema up to date")
			return nil
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
			if err != nil {
				return err
			}
			defer db.Close(database)

			if err := db.MigrateDown(cmd.Context(), database.DB, cfg.DBDriver); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			color.Yellow("✗ rolled back one migration")
			return nil
		},
	})

	return c
}
