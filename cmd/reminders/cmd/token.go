package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/habitify/reminders/internal/config"
	"github.com/habitify/reminders/internal/middleware"
)

func TokenCmd() *cobra.Command {
	var ttl time.Duration

	c := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for the internal HTTP endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.TriggerSecret == "" {
				return fmt.Errorf("TRIGGER_SECRET is not set")
			}

			token, err := middleware.SignTriggerToken(cfg.TriggerSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	c.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return c
}
