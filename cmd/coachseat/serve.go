package main

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.Run(cmd.Context()); err != nil {
			logger.Error("application finished with error", "error", err)
			return err
		}
		return nil
	},
}
