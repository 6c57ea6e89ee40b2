package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// The chart is created while the application starts; init only reports it.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the seat chart if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		counts, err := application.Services().Query.Counts(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seat chart ready (%s): %d available, %d booked\n",
			cfg.Store.Driver, counts.Available, counts.Booked)
		return nil
	},
}
