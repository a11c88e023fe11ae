package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/ehs-tracker/internal/config"
	"github.com/garyjia/ehs-tracker/internal/container"
	"github.com/garyjia/ehs-tracker/pkg/logging"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "ehs-tracker",
		Short:        "EHS corrective action workflow service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "configs/config.yaml", "path to the YAML config file (empty to use defaults and env only)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "optional .env file loaded before reading EHS_* variables")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newRolesCmd(opts),
	)

	return cmd
}

// bootstrap loads configuration and builds the logger shared by every command.
func (o *rootOptions) bootstrap() (*config.Config, *zap.Logger, func() error, error) {
	cfg, err := config.Load(o.configPath, o.envFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, sync, err := logging.New(logging.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger, sync, nil
}

// startContainer bootstraps and starts the container. The caller must Close it.
func (o *rootOptions) startContainer(cmd *cobra.Command) (*container.Container, func(), error) {
	cfg, logger, sync, err := o.bootstrap()
	if err != nil {
		return nil, nil, err
	}

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		_ = sync()
		return nil, nil, err
	}

	cleanup := func() {
		if err := c.Close(); err != nil {
			logger.Error("Container close failed", zap.Error(err))
		}
		_ = sync()
	}

	if err := c.Start(cmd.Context()); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to start container: %w", err)
	}

	return c, cleanup, nil
}
