package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently generated briefs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		application, err := newApplication(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		briefs, err := application.Generator().History(ctx, historyLimit)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"ID", "Generated", "Mode", "Items", "Read time"})
		for _, brief := range briefs {
			t.AppendRow(table.Row{
				brief.ID,
				brief.GeneratedAt.Format("2006-01-02 15:04"),
				brief.Mode.Name,
				len(brief.Items),
				(brief.TotalReadTimeSeconds + 59) / 60,
			})
		}
		t.Render()
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of briefs to show")
	rootCmd.AddCommand(historyCmd)
}
