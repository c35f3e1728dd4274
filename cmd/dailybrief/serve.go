package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled generation and the metrics endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
