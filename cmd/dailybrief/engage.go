package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"DailyBrief/internal/app"
	"DailyBrief/internal/config"
)

var errEphemeralStores = errors.New("engage needs redis.address and database.dsn: without them the latest brief and the profile are not kept between runs")

var engageDwell time.Duration

var engageCmd = &cobra.Command{
	Use:   "engage <brief-item-id> <viewed|clicked|shared|saved|dismissed>",
	Short: "Record an interaction with an item of the latest brief",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requirePersistent(cfg); err != nil {
			return err
		}

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.Engage(ctx, args[0], args[1], engageDwell); err != nil {
			return err
		}

		profile := application.Generator().Profile()
		fmt.Fprintf(cmd.OutOrStdout(), "recorded %s (%d events in history)\n", args[1], len(profile.EngagementHistory))
		return nil
	},
}

func requirePersistent(cfg config.Config) error {
	if !cfg.Persistent() {
		return errEphemeralStores
	}
	return nil
}

func init() {
	engageCmd.Flags().DurationVar(&engageDwell, "dwell", 0, "time spent on the item")
	rootCmd.AddCommand(engageCmd)
}
