package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/vex/internal/binding"
	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/ir"
	"github.com/roach88/vex/internal/plugin"
	"github.com/roach88/vex/internal/reactive"
	"github.com/roach88/vex/internal/store"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	ModuleFlags
	Database string
	Args     string
	Commit   bool
	Timeout  time.Duration
	Getters  []string
}

// InvokeResult is the JSON output of invoke.
type InvokeResult struct {
	Type   string         `json:"type"`
	Flow   string         `json:"flow,omitempty"`
	Result any            `json:"result,omitempty"`
	Seq     int64          `json:"seq"`
	State   map[string]any `json:"state"`
	Getters map[string]any `json:"getters,omitempty"`
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <type>",
		Short: "Dispatch an action (or commit a mutation) against a journal",
		Long: `Rehydrate a store from a journal, dispatch one action, wait for it to
settle and journal every commit it makes. With --commit the type names a
mutation and is committed directly.

The database is created if it does not exist.

Examples:
  vex invoke increment --db ./vex.db
  vex invoke addTodo --db ./vex.db --args '"write docs"'
  vex invoke setFilter --db ./vex.db --commit --args '"active"'
  vex invoke increment --db ./vex.db --getter doubleCount`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	addModuleFlags(cmd, &opts.ModuleFlags)
	cmd.Flags().StringVar(&opts.Args, "args", "null", "payload as JSON")
	cmd.Flags().BoolVar(&opts.Commit, "commit", false, "commit a mutation instead of dispatching an action")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "how long to wait for the action to settle")
	cmd.Flags().StringSliceVar(&opts.Getters, "getter", nil, "getters to print after the invocation")

	return cmd
}

func invoke(opts *InvokeOptions, typ string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	payloadValue, err := ir.UnmarshalIRValue([]byte(opts.Args))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --args JSON", err)
	}
	payload := ir.ToPlain(payloadValue)

	db, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer db.Close()

	s, err := newJournaledStore(ctx, opts.ModuleFlags, db, logger, true)
	if err != nil {
		return err
	}
	if _, err := plugin.Rehydrate(ctx, s, db, nil); err != nil {
		return WrapExitError(ExitCommandError, "failed to rehydrate", err)
	}

	out := InvokeResult{Type: typ}
	if opts.Commit {
		commit, ok := binding.MapMutations(s, binding.Names(s.MutationNames()...))[typ]
		if !ok {
			return NewExitError(ExitFailure, fmt.Sprintf("unknown mutation %q", typ))
		}
		commit(payload)
	} else {
		dispatch, ok := binding.MapActions(s, binding.Names(s.ActionNames()...))[typ]
		if !ok {
			return NewExitError(ExitFailure, fmt.Sprintf("unknown action %q", typ))
		}
		out.Flow = engine.UUIDv7Generator{}.Generate()
		waitCtx, cancel := context.WithTimeout(engine.WithFlow(ctx, out.Flow), opts.Timeout)
		defer cancel()
		value, err := dispatch(waitCtx, payload).Wait(waitCtx)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("action %s failed", typ), err)
		}
		out.Result = reactive.Plain(value)
	}

	if out.Seq, err = db.GetLastSeq(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	s.Read(func(state *reactive.Object) {
		out.State = state.Plain()
	})
	if len(opts.Getters) > 0 {
		out.Getters = make(map[string]any, len(opts.Getters))
		for name, get := range binding.MapGetters(s, binding.Names(opts.Getters...)) {
			out.Getters[name] = reactive.Plain(get())
		}
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: out})
	}
	w := cmd.OutOrStdout()
	verb := "dispatched"
	if opts.Commit {
		verb = "committed"
	}
	fmt.Fprintf(w, "%s %s", verb, typ)
	if out.Flow != "" {
		fmt.Fprintf(w, " (flow %s)", out.Flow)
	}
	fmt.Fprintln(w)
	if out.Result != nil {
		fmt.Fprintf(w, "result: %v\n", out.Result)
	}
	fmt.Fprintf(w, "seq: %d\n", out.Seq)
	fmt.Fprintf(w, "state: %v\n", out.State)
	for _, name := range opts.Getters {
		fmt.Fprintf(w, "getter %s: %v\n", name, out.Getters[name])
	}
	return nil
}
