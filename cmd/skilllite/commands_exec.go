package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skilllite/skilllite/internal/manifest"
	"github.com/skilllite/skilllite/internal/resolve"
	"github.com/skilllite/skilllite/internal/sandbox"
)

// execConfirmer always denies non-interactive CLI runs unless
// SKILLLITE_AUTO_APPROVE is set to "true", matching sandbox.DenyAll's documented
// fail-closed default for a non-TTY caller.
func execConfirmer() sandbox.Confirmer {
	if os.Getenv("SKILLLITE_AUTO_APPROVE") == "true" {
		return sandbox.AutoApprove{}
	}
	return sandbox.DenyAll{}
}

// newRunCmd executes a skill's entry point end to end: resolve its
// dependencies, build its runtime environment, sandbox-run it with
// inputJSON on stdin.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <dir> <json>",
		Short: "Resolve, build, and sandbox-run a skill's entry point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, inputJSON := args[0], args[1]

			a, err := newApp()
			if err != nil {
				return &cliError{code: 1, err: err}
			}
			defer a.close()

			m, err := manifest.ParseFile(filepath.Join(dir, "SKILL.md"), nil)
			if err != nil {
				return &cliError{code: 1, err: err}
			}
			m.Dir = dir

			runner := newSkillRunner(a.workspaceRoot, a.newEnvBuilder(), a.newSandboxRunner(execConfirmer()))
			output, err := runner.RunSkill(cmd.Context(), m, inputJSON)
			if err != nil {
				return classifyRunError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
}

// newExecCmd runs one specific script inside a skill directory instead of
// its declared entry point — for ad hoc invocation of a helper script a
// skill ships alongside its primary entry point.
func newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <dir> <script> <json>",
		Short: "Sandbox-run one script inside a skill directory",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, script, inputJSON := args[0], args[1], args[2]

			a, err := newApp()
			if err != nil {
				return &cliError{code: 1, err: err}
			}
			defer a.close()

			m, err := manifest.ParseFile(filepath.Join(dir, "SKILL.md"), nil)
			if err != nil {
				return &cliError{code: 1, err: err}
			}
			m.Dir = dir
			m.EntryPoint = script

			deps, err := resolve.ResolveSync(a.workspaceRoot, m, false)
			if err != nil {
				return &cliError{code: 1, err: err}
			}
			runtime, err := a.newEnvBuilder().Build(cmd.Context(), m.Language, deps.Packages)
			if err != nil {
				return &cliError{code: 1, err: err}
			}

			runner := a.newSandboxRunner(execConfirmer())
			output, err := runner.Run(cmd.Context(), toSandboxConfig(m), sandbox.RuntimePaths{
				Interpreter:      runtime.Interpreter,
				ModuleSearchRoot: runtime.ModuleSearchRoot,
				EnvironmentRoot:  runtime.EnvironmentRoot,
			}, inputJSON)
			if err != nil {
				return classifyRunError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
}

// newBashCmd validates and runs one allow-listed bash command against a
// bash-tool skill's declared patterns (C5 then C6's RunBashCommand).
func newBashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bash <dir> <command>",
		Short: "Validate and run a bash command against a skill's allow-list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, command := args[0], args[1]

			m, err := manifest.ParseFile(filepath.Join(dir, "SKILL.md"), nil)
			if err != nil {
				return &cliError{code: 1, err: err}
			}
			m.Dir = dir

			runner := sandbox.NewRunner(sandbox.LevelIsolated, execConfirmer())
			result, err := runner.RunBashCommand(context.Background(), toSandboxConfig(m), sandbox.RuntimePaths{}, command)
			if err != nil {
				return classifyRunError(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), result.Stdout)
			if result.Stderr != "" {
				fmt.Fprint(cmd.ErrOrStderr(), result.Stderr)
			}
			if result.ExitCode != 0 {
				return &cliError{code: 1, err: fmt.Errorf("bash: exit code %d", result.ExitCode)}
			}
			return nil
		},
	}
}

func classifyRunError(err error) error {
	var blocked *sandbox.PolicyBlocked
	if errors.As(err, &blocked) {
		return &cliError{code: 2, err: err}
	}
	var execErr *sandbox.ExecutionError
	if errors.As(err, &execErr) && execErr.Killed {
		return &cliError{code: 3, err: err}
	}
	return &cliError{code: 1, err: err}
}
