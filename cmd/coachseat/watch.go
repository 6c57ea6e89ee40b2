package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/kirinyoku/coachseat/internal/chart"
	redisrepo "github.com/kirinyoku/coachseat/internal/repository/redis"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the chart again whenever seats are booked",
	RunE: func(cmd *cobra.Command, args []string) error {
		ps := application.PubSub()
		if ps == nil {
			return errors.New("watch needs REDIS_ADDR to be set")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		out := cmd.OutOrStdout()
		query := application.Services().Query

		show := func(ctx context.Context) error {
			ch, err := query.Chart(ctx)
			if err != nil {
				return err
			}
			return chart.Render(out, *ch)
		}

		if err := show(ctx); err != nil {
			return err
		}

		err := ps.Subscribe(ctx, func(ctx context.Context, msg redisrepo.ChartChanged) {
			fmt.Fprintf(out, "\nBooking %s: seats %v\n", msg.Reference, msg.Seats)
			if err := show(ctx); err != nil {
				logger.Warn("failed to print chart", "error", err)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		return nil
	},
}
