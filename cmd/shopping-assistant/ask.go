package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

var askSessionID string

var askCmd = &cobra.Command{
	Use:   `ask "<query>"`,
	Short: "Answer one query and print the response as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		zapLog, log := newLogger(cfg.Logging)
		defer zapLog.Sync()

		a, err := buildApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		resp := a.orchestrator.Process(cmd.Context(), strings.Join(args, " "), askSessionID)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	askCmd.Flags().StringVarP(&askSessionID, "session", "s", "", "continue an existing session")
	rootCmd.AddCommand(askCmd)
}
