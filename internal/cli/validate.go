package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vex/internal/harness"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Scenarios []string          `json:"scenarios"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one invalid scenario.
type ValidationIssue struct {
	Code    string `json:"code"`
	File    string `json:"file"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario|dir>...",
		Short: "Validate scenarios without running them",
		Long: `Validate scenario files without running them.

Checks YAML structure (unknown fields are errors), step and assertion
shapes, module names and the scenario's state file against its module
mounts. Directories are searched recursively.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	result := ValidationResult{Scenarios: []string{}}

	loaded, loadErrs := LoadScenarios(paths, LoadModeCollectAll)
	if len(loaded) == 0 && len(loadErrs) == 1 {
		var le *LoadError
		if errors.As(loadErrs[0], &le) && le.Code != ErrCodeLoadFailed {
			_ = f.Error(le.Code, le.Error(), nil)
			return WrapExitError(ExitCommandError, "nothing to validate", le)
		}
	}

	for _, err := range loadErrs {
		issue := ValidationIssue{Code: ErrCodeGeneric, Message: err.Error()}
		var le *LoadError
		if errors.As(err, &le) {
			issue = ValidationIssue{Code: le.Code, File: le.Path, Message: le.Message}
		}
		result.Errors = append(result.Errors, issue)
	}
	for _, l := range loaded {
		if l.Scenario.StateFile != "" {
			if _, err := harness.LoadState(l.Scenario); err != nil {
				result.Errors = append(result.Errors, ValidationIssue{Code: ErrCodeLoadFailed, File: l.Path, Message: err.Error()})
				continue
			}
		}
		f.VerboseLog("valid: %s", l.Path)
		result.Scenarios = append(result.Scenarios, l.Scenario.Name)
	}
	result.Valid = len(result.Errors) == 0

	if f.JSON() {
		if err := writeJSON(f.Writer, CLIResponse{Status: status(result.Valid), Data: result}); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, issue := range result.Errors {
			fmt.Fprintf(w, "✗ %s\n  [%s] %s\n", issue.File, issue.Code, issue.Message)
		}
		if result.Valid {
			fmt.Fprintf(w, "✓ %d scenario(s) valid\n", len(result.Scenarios))
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) invalid", len(result.Errors)))
	}
	return nil
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
