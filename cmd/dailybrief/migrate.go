package main

import (
	"github.com/spf13/cobra"

	"DailyBrief/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the brief history schema to the configured Postgres database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		return app.Migrate(cmd.Context(), cfg, logger.With("component", "migrate"))
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
