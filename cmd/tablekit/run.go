package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tablekit/internal/config"
	"tablekit/internal/metrics"
	"tablekit/internal/metrics/prompush"
	"tablekit/internal/pipeline"
)

var runForce bool

var runCmd = &cobra.Command{
	Use:   "run <recipe.json>",
	Short: "Execute a recipe end to end",
	Long: `Run loads the recipe's source file under its column contract, applies the
steps in order and delivers the final table to each sink. Relative paths in
the recipe resolve against the recipe file's directory.

Destructive steps (dedupe, drop) are refused unless the recipe sets
"confirm": true on the step or the run is started with --force.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		r, err := config.Load(path)
		if err != nil {
			return err
		}

		issues := config.ValidateRecipe(r)
		printIssues(issues)
		if config.HasErrors(issues) {
			return fmt.Errorf("recipe %s is invalid", path)
		}

		flush := setupMetrics(env, r.Name)
		defer flush()

		start := time.Now()
		res, err := pipeline.Run(cmd.Context(), r, pipeline.RunOptions{
			Force:   runForce,
			BaseDir: filepath.Dir(path),
			Env:     &env,
		})
		if err != nil {
			return err
		}

		printRunSummary(r.Name, res, time.Since(start))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runForce, "force", false, "override per-step confirm for destructive steps")
}

// setupMetrics installs the configured metrics backend and returns the flush
// to defer. The nop backend stays in place when metrics are disabled or the
// backend cannot be built; an unreachable Pushgateway must not fail a run.
func setupMetrics(e config.Env, job string) func() {
	switch e.MetricsBackend {
	case "pushgateway":
		url := e.PushgatewayURL
		if url == "" {
			url = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, url)
		if err != nil {
			slog.Warn("metrics backend unavailable, continuing without", slog.Any("error", err))
			return func() {}
		}
		metrics.SetBackend(b)
		return func() {
			if err := metrics.Flush(); err != nil {
				slog.Warn("metrics flush failed", slog.Any("error", err))
			}
		}

	case "", "none":
		return func() {}

	default:
		slog.Warn("unknown metrics backend, metrics disabled",
			slog.String("backend", e.MetricsBackend))
		return func() {}
	}
}

// printRunSummary writes the human recap to stdout; structured logs already
// went to stderr.
func printRunSummary(name string, res *pipeline.RunResult, elapsed time.Duration) {
	fmt.Printf("%s: %d rows in %s\n", name, res.Table.Len(), elapsed.Truncate(time.Millisecond))
	for _, st := range res.Steps {
		fmt.Printf("  %-12s %7d rows  %7d affected", st.Op, st.Rows, st.Affected)
		if st.Issues > 0 {
			fmt.Printf("  %d issues", st.Issues)
		}
		fmt.Println()
	}

	s := res.Stats
	fmt.Printf("  loaded=%d skipped=%d bad_cells=%d", s.Loaded, s.Skipped, s.BadCells)
	if s.Pruned > 0 {
		fmt.Printf(" pruned=%d", s.Pruned)
	}
	if s.Filled > 0 {
		fmt.Printf(" filled=%d", s.Filled)
	}
	if s.Exported > 0 {
		fmt.Printf(" exported=%d", s.Exported)
	}
	if s.Inserted > 0 {
		fmt.Printf(" inserted=%d", s.Inserted)
	}
	fmt.Println()

	if len(res.Snapshots) > 0 {
		fmt.Printf("  snapshots: %s\n", strings.Join(res.Snapshots, ", "))
	}
}
