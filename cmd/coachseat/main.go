package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/kirinyoku/coachseat/docs"
	"github.com/kirinyoku/coachseat/internal/app"
	"github.com/kirinyoku/coachseat/internal/config"
	"github.com/spf13/cobra"
)

var (
	storeDriver string
	jsonOutput  bool

	cfg         *config.Config
	logger      *slog.Logger
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:           "coachseat",
	Short:         "Seat booking for a single 80-seat coach",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.New()
		if err != nil {
			return err
		}

		if storeDriver != "" {
			cfg.Store.Driver = storeDriver
		}

		// The console owns stdout; logs go to stderr.
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.Level}))

		application, err = app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if application != nil {
			if err := application.Close(); err != nil {
				logger.Error("failed to close application", "error", err)
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "store driver: postgres, sqlite or memory (overrides STORE_DRIVER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(watchCmd)
}

// @title Coachseat API
// @version 1.0
// @description Seat booking for a single 80-seat coach.
// @host localhost:8080
// @BasePath /
func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
