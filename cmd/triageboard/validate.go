package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/triageboard"
	"github.com/jpalmerr/triageboard/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a triageboard configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  triageboard validate -c config.yaml`,
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

	// the SDK resolves the feed URLs, which also catches bad paths
	db, err := triageboard.New(config.BuildOptions(cfg, nil)...)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:           %d\n", cfg.Port)
	fmt.Printf("  Poll interval:  %s\n", cfg.PollInterval.Duration())
	fmt.Printf("  Timeout:        %s\n", cfg.Timeout.Duration())
	fmt.Printf("  Doctor summary: %s\n", cfg.DoctorSummary)
	for _, f := range triageboard.Feeds {
		fmt.Printf("  Feed %-8s %s\n", string(f)+":", db.FeedURL(f))
	}

	return nil
}
