// Package main is the entry point for the triageboard CLI.
//
// triageboard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	triageboard serve -c config.yaml    # Start the dashboard
//	triageboard once -c config.yaml     # Run one tick and print the views
//	triageboard mock --addr :8000       # Run a simulated triage backend
//	triageboard validate -c config.yaml # Validate configuration
//	triageboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "triageboard",
	Short: "A live emergency department triage dashboard",
	Long: `triageboard is a live dashboard for an emergency department triage backend.

It polls the backend's queue, completion and doctor feeds at a fixed
interval and renders them as charts and a doctors table, streamed to the
browser with Server-Sent Events and WebSockets.

Quick start:
  1. Run a simulated backend: triageboard mock --addr :8000
  2. Create a config file (triageboard.yaml)
  3. Run: triageboard serve -c triageboard.yaml
  4. Open http://localhost:8080 in your browser

Example config:
  base_url: ${TRIAGE_URL:-http://localhost:8000}
  port: 8080
  poll_interval: 2s`,
}

// Execute runs the root command.
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
	Long:  `Print the version, commit hash, and build date of this triageboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("triageboard %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
