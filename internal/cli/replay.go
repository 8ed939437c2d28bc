package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/roach88/vex/internal/binding"
	"github.com/roach88/vex/internal/catalog"
	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/plugin"
	"github.com/roach88/vex/internal/reactive"
	"github.com/roach88/vex/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	ModuleFlags
	Database string
	Rate     float64
	Snapshot bool
	Path     string
}

// ReplayResult is the JSON output of replay.
type ReplayResult struct {
	SnapshotSeq int64          `json:"snapshot_seq"`
	Replayed    int            `json:"replayed"`
	LastSeq     int64          `json:"last_seq"`
	StateHash   string         `json:"state_hash"`
	HashMatches bool           `json:"hash_matches"`
	Snapshotted bool           `json:"snapshotted,omitempty"`
	State       map[string]any `json:"state"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rehydrate a store from a journal and verify its state hash",
		Long: `Rehydrate a store from a journal: restore the latest snapshot, re-commit
every later mutation, then compare the resulting state hash with the hash
recorded for the last mutation.

Exit codes:
  0 - State restored and hash matches
  1 - Hash mismatch (mutation handlers are not deterministic)
  2 - Command error (database not found, unknown module, etc.)

Examples:
  vex replay --db ./vex.db
  vex replay --db ./vex.db --modules counter,todos --rate 500
  vex replay --db ./vex.db --manifest ./modules.yaml --snapshot
  vex replay --db ./vex.db --path todos`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	addModuleFlags(cmd, &opts.ModuleFlags)
	cmd.Flags().Float64Var(&opts.Rate, "rate", 0, "re-commit at most this many mutations per second (0 is unlimited)")
	cmd.Flags().BoolVar(&opts.Snapshot, "snapshot", false, "write a snapshot of the restored state")
	cmd.Flags().StringVar(&opts.Path, "path", "", "print only the state object at this module path (e.g. todos)")

	return cmd
}

// addModuleFlags registers --modules and --manifest.
func addModuleFlags(cmd *cobra.Command, m *ModuleFlags) {
	cmd.Flags().StringSliceVar(&m.Modules, "modules", catalog.Names(), "catalog modules to mount")
	cmd.Flags().StringVar(&m.Manifest, "manifest", "", "module manifest file (overrides --modules)")
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	db, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := newJournaledStore(ctx, opts.ModuleFlags, db, logger, false)
	if err != nil {
		return err
	}

	var limiter *rate.Limiter
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}
	res, err := plugin.Rehydrate(ctx, s, db, limiter)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	out := ReplayResult{
		SnapshotSeq: res.SnapshotSeq,
		Replayed:    res.Replayed,
		LastSeq:     res.LastSeq,
		StateHash:   res.StateHash,
		HashMatches: res.HashMatches,
	}
	if opts.Path != "" {
		if err := binding.Decode(s, opts.Path, &out.State); err != nil {
			return WrapExitError(ExitCommandError, "invalid --path", err)
		}
	} else {
		s.Read(func(state *reactive.Object) {
			out.State = state.Plain()
		})
	}

	if opts.Snapshot && res.HashMatches && res.LastSeq > res.SnapshotSeq {
		if err := plugin.Snapshot(ctx, s, db, res.LastSeq); err != nil {
			return WrapExitError(ExitCommandError, "failed to write snapshot", err)
		}
		out.Snapshotted = true
	}

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), CLIResponse{Status: status(out.HashMatches), Data: out}); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "snapshot seq: %d\n", out.SnapshotSeq)
		fmt.Fprintf(w, "replayed:     %d\n", out.Replayed)
		fmt.Fprintf(w, "last seq:     %d\n", out.LastSeq)
		fmt.Fprintf(w, "state hash:   %s\n", out.StateHash)
		if out.Snapshotted {
			fmt.Fprintf(w, "snapshot written at seq %d\n", out.LastSeq)
		}
		fmt.Fprintf(w, "state: %v\n", out.State)
		if out.HashMatches {
			fmt.Fprintln(w, "✓ state hash matches journal")
		} else {
			fmt.Fprintln(w, "✗ state hash differs from journal")
		}
	}

	if !out.HashMatches {
		return NewExitError(ExitFailure, "state hash differs from journal")
	}
	return nil
}

// openExisting opens a journal that must already exist.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return db, nil
}

// newJournaledStore builds a store from the selected modules whose clock
// continues db's seq. With journal set, new commits are written to db.
func newJournaledStore(ctx context.Context, mf ModuleFlags, db *store.Store, logger *slog.Logger, journal bool) (*engine.Store, error) {
	cfg, err := mf.Config()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid module selection", err)
	}
	root, err := catalog.BuildConfig(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid module selection", err)
	}
	clock, err := plugin.ResumeClock(ctx, db)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithClock(clock),
		engine.WithActionErrors(engine.PropagateActionErrors),
	}
	if journal {
		opts = append(opts, engine.WithPlugins(plugin.Journal(db, plugin.JournalOptions{})))
	}
	s, err := engine.New(root, opts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create store", err)
	}
	return s, nil
}
