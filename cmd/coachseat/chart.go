package main

import (
	"encoding/json"

	"github.com/kirinyoku/coachseat/internal/chart"
	"github.com/spf13/cobra"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Print the seat chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := application.Services().Query.Chart(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(ch)
		}

		return chart.Render(cmd.OutOrStdout(), *ch)
	},
}
