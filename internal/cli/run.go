package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/harness"
	"github.com/roach88/vex/internal/hotreload"
	"github.com/roach88/vex/internal/plugin"
	"github.com/roach88/vex/internal/reactive"
	"github.com/roach88/vex/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database      string
	SnapshotEvery int64
	Watch         string
	Metrics       bool
}

// RunOutput is the JSON output of run.
type RunOutput struct {
	Scenario string             `json:"scenario"`
	Result   *harness.Result    `json:"result"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run one scenario and print its trace",
		Long: `Run one scenario against a fresh store and print its trace and final state.

With --db every non-silent commit is journaled to SQLite, continuing the
journal's seq numbering. With --watch the store stays alive after the
scenario and the module manifest is hot reloaded on every change until
interrupted.

Examples:
  vex run ./scenarios/counter.yaml
  vex run ./scenarios/counter.yaml --db ./vex.db --snapshot-every 100
  vex run ./scenarios/todos.yaml --watch ./modules.yaml --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioCommand(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal mutations to this SQLite database")
	cmd.Flags().Int64Var(&opts.SnapshotEvery, "snapshot-every", 0, "write a state snapshot every N journaled mutations (0 disables)")
	cmd.Flags().StringVar(&opts.Watch, "watch", "", "module manifest to hot reload after the scenario")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "report store metrics after the run")

	return cmd
}

func runScenarioCommand(opts *RunOptions, path string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runOpts := []harness.RunOption{harness.WithLogger(logger)}
	if opts.Verbose {
		runOpts = append(runOpts, harness.WithPlugins(plugin.Logger(logger)))
	}

	if opts.Database != "" {
		db, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		clock, err := plugin.ResumeClock(cmd.Context(), db)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		logger.Debug("journal opened", "path", opts.Database, "seq", clock.Current())
		runOpts = append(runOpts,
			harness.WithClock(clock),
			harness.WithPlugins(plugin.Journal(db, plugin.JournalOptions{SnapshotEvery: opts.SnapshotEvery})),
		)
	}

	var reg *prometheus.Registry
	if opts.Metrics {
		reg = prometheus.NewRegistry()
		runOpts = append(runOpts, harness.WithPlugins(plugin.Metrics(reg)))
	}

	var kept *engine.Store
	if opts.Watch != "" {
		runOpts = append(runOpts, harness.WithStore(func(s *engine.Store) { kept = s }))
	}

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario could not run", err)
	}

	if kept != nil {
		if err := watchManifest(cmd, kept, opts.Watch, logger); err != nil {
			return err
		}
		kept.Read(func(state *reactive.Object) {
			result.State = state.Plain()
		})
	}

	var metrics map[string]float64
	if reg != nil {
		if metrics, err = gatherMetrics(reg); err != nil {
			return WrapExitError(ExitFailure, "failed to gather metrics", err)
		}
	}

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), CLIResponse{
			Status: status(result.Pass),
			Data:   RunOutput{Scenario: scenario.Name, Result: result, Metrics: metrics},
		}); err != nil {
			return err
		}
	} else {
		printRunResult(cmd.OutOrStdout(), scenario.Name, result, metrics)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

// watchManifest hot reloads manifest into s until the command's context
// is done or the process is interrupted.
func watchManifest(cmd *cobra.Command, s *engine.Store, manifest string, logger *slog.Logger) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := hotreload.NewWatcher(s, hotreload.ManifestLoader, []string{manifest},
		hotreload.WithLogger(logger),
		hotreload.WithOnReload(func(path string, err error) {
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ reload %s: %v\n", path, err)
				return
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ reloaded %s\n", path)
		}),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to watch manifest", err)
	}
	if err := w.Reload(manifest); err != nil {
		_ = w.Close()
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s, press Ctrl-C to stop\n", manifest)
	w.Start(ctx)
	return nil
}

// gatherMetrics flattens the registry into name{labels} -> value.
func gatherMetrics(reg prometheus.Gatherer) (map[string]float64, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += fmt.Sprintf("{%s=%s}", lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}

func printRunResult(w io.Writer, name string, result *harness.Result, metrics map[string]float64) {
	mark := "✓"
	if !result.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s\n", mark, name)
	for _, ev := range result.Trace {
		fmt.Fprintf(w, "  [%d] %-8s %s", ev.Seq, ev.Kind, ev.Type)
		if ev.Payload != nil {
			fmt.Fprintf(w, " %v", ev.Payload)
		}
		if ev.Flow != "" {
			fmt.Fprintf(w, " (flow %s)", ev.Flow)
		}
		fmt.Fprintln(w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	fmt.Fprintf(w, "state: %v\n", result.State)

	if len(metrics) > 0 {
		keys := make([]string, 0, len(metrics))
		for k := range metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "metrics:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s %g\n", k, metrics[k])
		}
	}
}
