package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/vex/internal/ir"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	FlowToken string
	After     int64
	Type      string // optional - filter to one mutation type
}

// TraceEntry is one journaled mutation in the timeline.
type TraceEntry struct {
	Seq       int64  `json:"seq"`
	ID        string `json:"id"`
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	FlowToken string `json:"flow_token,omitempty"`
	StateHash string `json:"state_hash"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	FlowToken string       `json:"flow_token,omitempty"`
	Timeline  []TraceEntry `json:"timeline"`
	Flows     []string     `json:"flows,omitempty"`
	Stats     TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Mutations int            `json:"mutations"`
	ByType    map[string]int `json:"by_type"`
	FirstSeq  int64          `json:"first_seq"`
	LastSeq   int64          `json:"last_seq"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show journaled mutations",
		Long: `Show the mutations recorded in a journal, in seq order.

With --flow only the commits made under one dispatch flow are shown;
without it every mutation after --after is shown along with the list of
known flow tokens.

Examples:
  vex trace --db ./vex.db
  vex trace --db ./vex.db --flow 0190f5c2-...
  vex trace --db ./vex.db --after 100 --type addTodo --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.FlowToken, "flow", "", "flow token to trace")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only mutations with a greater seq")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter to one mutation type")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	var entries []ir.JournalEntry
	result := TraceResult{FlowToken: opts.FlowToken, Timeline: []TraceEntry{}}
	if opts.FlowToken != "" {
		entries, err = db.ReadFlow(ctx, opts.FlowToken)
	} else {
		entries, err = db.ReadMutations(ctx, opts.After)
		if err == nil {
			result.Flows, err = db.ListFlowTokens(ctx)
		}
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	if opts.FlowToken != "" && len(entries) == 0 {
		if opts.Format == "json" {
			_ = writeJSON(cmd.OutOrStdout(), CLIResponse{
				Status: "error",
				Error:  &CLIError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no mutations for flow %s", opts.FlowToken)},
			})
		}
		return NewExitError(ExitFailure, fmt.Sprintf("no mutations for flow %s", opts.FlowToken))
	}

	result.Stats.ByType = map[string]int{}
	for _, e := range entries {
		if e.Seq <= opts.After || (opts.Type != "" && e.Type != opts.Type) {
			continue
		}
		result.Timeline = append(result.Timeline, TraceEntry{
			Seq:       e.Seq,
			ID:        e.ID,
			Type:      e.Type,
			Payload:   payloadOrNil(e.Payload),
			FlowToken: e.FlowToken,
			StateHash: e.StateHash,
		})
		result.Stats.ByType[e.Type]++
	}
	result.Stats.Mutations = len(result.Timeline)
	if n := len(result.Timeline); n > 0 {
		result.Stats.FirstSeq = result.Timeline[0].Seq
		result.Stats.LastSeq = result.Timeline[n-1].Seq
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}
	printTrace(cmd.OutOrStdout(), result)
	return nil
}

func payloadOrNil(v ir.IRValue) any {
	if _, ok := v.(ir.IRNull); ok || v == nil {
		return nil
	}
	return ir.ToPlain(v)
}

func printTrace(w io.Writer, result TraceResult) {
	if result.FlowToken != "" {
		fmt.Fprintf(w, "Flow: %s\n\n", result.FlowToken)
	}
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No mutations recorded.")
	}
	for _, e := range result.Timeline {
		fmt.Fprintf(w, "[%d] %s", e.Seq, e.Type)
		if e.Payload != nil {
			fmt.Fprintf(w, " %v", e.Payload)
		}
		if e.FlowToken != "" && result.FlowToken == "" {
			fmt.Fprintf(w, " (flow %s)", e.FlowToken)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d mutation(s)", result.Stats.Mutations)
	if result.Stats.Mutations > 0 {
		fmt.Fprintf(w, ", seq %d..%d", result.Stats.FirstSeq, result.Stats.LastSeq)
	}
	fmt.Fprintln(w)
	if len(result.Flows) > 0 {
		fmt.Fprintf(w, "flows: %v\n", result.Flows)
	}
}
