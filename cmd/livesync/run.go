package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/livesync"
	"github.com/jpalmerr/livesync/config"
	"github.com/jpalmerr/livesync/internal/logging"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// loadConfig reads the file named by --config, or returns the defaults when
// the flag is empty.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return config.Default(), nil
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger creates the CLI logger from the config's log section.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	logger, closer, err := logging.New(cfg.LoggingConfig(), os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, closer, nil
}

// runCmd starts the sync loop.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start syncing",
	Long: `Start the real-time sync loop.

The loop will:
  - Check that the endpoint answers its health query
  - Fetch new logs and metrics every interval
  - Append them to the local archives and rewrite the reports

The loop runs until interrupted (Ctrl+C) or receives SIGTERM. Without
--config the built-in defaults are used.

Example:
  livesync run
  livesync run -c config.yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts := append(config.BuildOptions(cfg),
		livesync.WithLogger(logger),
		livesync.WithStatusCallback(func(s livesync.Snapshot) {
			if s.Status == livesync.StatusActive {
				logger.Info("records synced",
					"new", s.NewRecordsThisSync,
					"total", s.TotalRecordsSynced,
				)
			}
		}),
	)

	syncer, err := livesync.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create syncer: %w", err)
	}

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- syncer.Run(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("sync error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		logger.Info("shutdown signal received")

		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("sync error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
