package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/livesync"
	"github.com/jpalmerr/livesync/config"
	"github.com/spf13/cobra"
)

// checkCmd runs the connectivity check without starting the loop.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the endpoint is reachable",
	Long: `Send the health query once and report the result.

No files are written. Useful before a deployment or when the sync
refuses to start.

Exit codes:
  0 - Endpoint is healthy
  1 - Endpoint unreachable or unhealthy

Example:
  livesync check
  livesync check -c config.yaml`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	syncer, err := livesync.New(append(config.BuildOptions(cfg), livesync.WithLogger(logger))...)
	if err != nil {
		return fmt.Errorf("failed to create syncer: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := syncer.CheckConnectivity(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Endpoint is reachable!\n")
	fmt.Printf("  Endpoint:            %s\n", syncer.Endpoint())
	fmt.Printf("  Status:              %s\n", orDash(report.Status))
	fmt.Printf("  ELK healthy:         %t\n", report.ELKHealthy)
	fmt.Printf("  Real-time ready:     %t\n", report.RealtimeSyncReady)
	fmt.Printf("  Data prep kit ready: %t\n", report.DataPrepKitReady)

	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
