package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/triageboard"
	"github.com/jpalmerr/triageboard/config"
	"github.com/jpalmerr/triageboard/render"
)

// onceCmd runs a single tick and prints what was rendered.
var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run one tick and print the rendered views",
	Long: `Fetch the three feeds once and print the resulting charts and table as JSON.

Nothing is served. If any feed fails the command exits non-zero and nothing
is printed, exactly like a failed tick on the dashboard.

Example:
  triageboard once -c config.yaml`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)

	onceCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	onceCmd.Flags().String("env-file", "", "path to a dotenv file loaded before the config")
	_ = onceCmd.MarkFlagRequired("config")
}

// onceOutput is the JSON document printed by the once command.
type onceOutput struct {
	Charts map[string]render.Chart `json:"charts"`
	Tables map[string]render.Table `json:"tables"`
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return err
	}

	rec := &render.Recorder{Mounts: triageboard.Mounts}
	opts := append(config.BuildOptions(cfg, logger), triageboard.WithRenderer(rec))

	db, err := triageboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout.Duration()+time.Second)
	defer cancel()

	if err := db.Tick(ctx); err != nil {
		return err
	}

	out := onceOutput{
		Charts: make(map[string]render.Chart),
		Tables: make(map[string]render.Table),
	}
	for _, mount := range triageboard.Mounts {
		if c, ok := rec.Chart(mount); ok {
			out.Charts[mount] = c
		}
		if t, ok := rec.Table(mount); ok {
			out.Tables[mount] = t
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
