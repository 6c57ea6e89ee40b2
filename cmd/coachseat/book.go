package main

import (
	"os"
	"os/signal"

	"github.com/kirinyoku/coachseat/internal/console"
	"github.com/spf13/cobra"
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Book seats interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		svcs := application.Services()
		c := console.New(svcs.Booking, svcs.Query, cfg.Booking.MaxSeats, cmd.InOrStdin(), cmd.OutOrStdout())

		return c.Run(ctx)
	},
}
