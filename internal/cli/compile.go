package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vex/internal/compiler"
	"github.com/roach88/vex/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
	Mounts []string
}

// CompileResult is the JSON output of compile.
type CompileResult struct {
	File      string         `json:"file"`
	State     map[string]any `json:"state"`
	StateHash string         `json:"state_hash"`
	Output    string         `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <state-file>",
		Short: "Compile a state document to canonical JSON",
		Long: `Compile an initial state document (.cue, .yaml, .yml, .json or .toml)
into canonical JSON and print its state hash.

With --mount, the document is also checked against the module mount points
that will be installed on it.

Examples:
  vex compile ./state.cue
  vex compile ./state.yaml -o state.json
  vex compile ./state.toml --mount todos --mount counter`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical JSON to this file")
	cmd.Flags().StringSliceVar(&opts.Mounts, "mount", nil, "module mount path to check (repeatable, a/b form)")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(path); err != nil {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("state file not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "state file not found", err)
	}

	state, err := compiler.CompileStateFile(path)
	if err != nil {
		_ = f.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "compile failed", err)
	}
	f.VerboseLog("compiled %s (%d top-level keys)", path, len(state))

	if len(opts.Mounts) > 0 {
		mounts := make([]ir.Path, len(opts.Mounts))
		for i, m := range opts.Mounts {
			mounts[i] = ir.ParsePath(m)
		}
		if errs := compiler.ValidateState(state, mounts); len(errs) > 0 {
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			_ = f.Error(errs[0].Code, "state does not fit the module mounts", errs)
			return NewExitError(ExitFailure, strings.Join(msgs, "; "))
		}
	}

	data, err := ir.MarshalCanonical(state)
	if err != nil {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "canonical encoding failed", err)
	}
	hash, err := ir.StateHash(state)
	if err != nil {
		return WrapExitError(ExitFailure, "state hash failed", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			_ = f.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	}

	if f.JSON() {
		return f.Success(CompileResult{File: path, State: state, StateHash: hash, Output: opts.Output}, "")
	}
	w := cmd.OutOrStdout()
	if opts.Output == "" {
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintf(w, "wrote %s\n", opts.Output)
	}
	fmt.Fprintf(w, "state hash: %s\n", hash)
	return nil
}
