package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"DailyBrief/internal/app"
	"DailyBrief/internal/config"
	"DailyBrief/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "dailybrief",
	Short:         "DailyBrief curates a personal daily brief",
	Long:          `DailyBrief gathers recent items from configured feeds and listings, ranks them against your engagement history and assembles a time-boxed brief.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config (defaults to $DAILYBRIEF_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format), nil
}

func newApplication(ctx context.Context) (*app.Application, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, logger)
}
