package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired sessions once from the redis session store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Sessions.Backend != "redis" {
			return fmt.Errorf("sweep needs sessions.backend=redis, got %q", cfg.Sessions.Backend)
		}
		zapLog, log := newLogger(cfg.Logging)
		defer zapLog.Sync()

		client, err := connectRedis(cmd.Context(), cfg.Database.Redis, log)
		if err != nil {
			return err
		}
		defer client.Close()

		removed, err := buildSessionStore(cfg.Sessions, client, log).SweepExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired session(s)\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
