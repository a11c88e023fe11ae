package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  `Opens the configured store, applies pending migrations and serves the workflow API until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, cleanup, err := opts.startContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			logger := c.Logger()
			logger.Info("Starting EHS tracker",
				zap.String("address", c.Server().Address()),
				zap.String("driver", c.Config().Database.Driver),
			)

			if err := c.Server().Start(ctx); err != nil {
				logger.Error("HTTP server failed", zap.Error(err))
				return err
			}

			logger.Info("Shutdown complete")
			return nil
		},
	}
}
