package main

import (
	"fmt"
	"os"

	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "shopping-assistant",
	Short:         "Conversational mobile phone shopping assistant",
	Long:          `Answers phone shopping questions from the catalog, augmenting with web search when the catalog alone is not enough.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (default: ./configs/config.yaml)")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, logger.Logger) {
	zapLog := logger.NewWithOptions(logger.Options{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		FilePath:   cfg.File.Path,
		MaxSizeMB:  cfg.File.MaxSizeMB,
		MaxBackups: cfg.File.MaxBackups,
		MaxAgeDays: cfg.File.MaxAgeDays,
		Compress:   cfg.File.Compress,
	})
	return zapLog, logger.NewZapAdapter(zapLog)
}
