package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"DailyBrief/internal/usecase"
)

var generateMode string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a brief now and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		application, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		brief, err := application.Generate(ctx, generateMode)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(brief.Items) == 0 {
			fmt.Fprintf(out, "Nothing new for a %s brief.\n", brief.Mode.Name)
			return nil
		}

		fmt.Fprintln(out, usecase.RenderDigest(brief))
		fmt.Fprintln(out)
		for _, item := range brief.Items {
			fmt.Fprintf(out, "  %d: %s\n", item.Priority+1, item.ID)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateMode, "mode", "m", "", "rush, standard, leisurely, commute or weekend (default: by time of day)")
	rootCmd.AddCommand(generateCmd)
}
