// Command vex runs scenarios against the mutation-gated store and manages
// its SQLite journal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/vex/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
