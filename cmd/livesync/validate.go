package main

import (
	"fmt"

	"github.com/jpalmerr/livesync/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the loop.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a livesync configuration file without contacting the endpoint.

This command parses the YAML, expands environment variables, applies
defaults and validates all fields. It's useful for CI/CD pipelines or
pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  livesync validate -c config.yaml
  livesync validate --config /etc/livesync/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	metrics := cfg.MetricsFile
	switch {
	case cfg.DisableMetrics:
		metrics = "disabled"
	case metrics == "":
		metrics = "sync_metrics.prom"
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Endpoint:    %s\n", cfg.Endpoint)
	fmt.Printf("  Directory:   %s\n", cfg.Directory)
	fmt.Printf("  Interval:    %s\n", cfg.Interval.Duration())
	fmt.Printf("  Limit:       %d\n", cfg.Limit)
	fmt.Printf("  Archive cap: %d\n", cfg.ArchiveCap)
	fmt.Printf("  Metrics:     %s\n", metrics)
	fmt.Printf("  Status addr: %s\n", orDash(cfg.StatusAddr))

	return nil
}
