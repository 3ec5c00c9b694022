// Package main is the entry point for the livesync CLI.
//
// livesync can be run either as a library (SDK) or as a standalone binary
// with optional YAML configuration. This CLI provides the standalone binary
// approach.
//
// Usage:
//
//	livesync run                     # Sync with the built-in defaults
//	livesync run -c config.yaml      # Sync with a config file
//	livesync check -c config.yaml    # Probe the endpoint once
//	livesync validate -c config.yaml # Validate configuration
//	livesync version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "livesync",
	Short: "Real-time log and metric sync client",
	Long: `livesync polls a remote elk-data endpoint and keeps a local copy of
the returned logs and metrics.

Every cycle it appends the new batch to live_logs.json and
live_metrics.json, rewrites a readable log digest and a run summary, and
records its state in sync_status.json.

Quick start:
  1. Run: livesync check            (verify the endpoint is reachable)
  2. Run: livesync run              (sync until Ctrl+C)
  3. Inspect ./cogniview_realtime_data

Example config:
  endpoint: https://example.com/api/elk-data
  directory: ./data
  interval: 30s`,
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this livesync binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("livesync %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
