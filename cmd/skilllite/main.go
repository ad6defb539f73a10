// Command skilllite is the thin CLI shell around every component of the
// sandboxed skill-execution substrate: manifest parsing, dependency
// resolution, environment building, static scanning, bash validation,
// sandboxed execution, and the agent loop that ties them together for an
// interactive chat session. The CLI surface itself is intentionally thin —
// behavior lives in the internal packages it wires together here.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skilllite/skilllite/internal/sandbox"
)

// cliError carries the process exit code spec.md §6 assigns: 0 success,
// 1 generic failure, 2 policy blocked, 3 timeout/OOM.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	var blocked *sandbox.PolicyBlocked
	if errors.As(err, &blocked) {
		return 2
	}
	var execErr *sandbox.ExecutionError
	if errors.As(err, &execErr) && execErr.Killed {
		return 3
	}
	return 1
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "skilllite",
		Short:         "Sandboxed execution substrate for agent-invocable skills",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newInitCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newListCmd(),
		newShowCmd(),
		newScanCmd(),
		newValidateCmd(),
		newRunCmd(),
		newExecCmd(),
		newBashCmd(),
		newChatCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "skilllite: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}
