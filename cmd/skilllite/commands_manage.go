package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skilllite/skilllite/internal/manifest"
	"github.com/skilllite/skilllite/internal/resolve"
	"github.com/skilllite/skilllite/internal/scanner"
)

func workspaceRootFlag() string {
	if root := os.Getenv("SKILLLITE_WORKSPACE_ROOT"); root != "" {
		return root
	}
	wd, _ := os.Getwd()
	return wd
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new workspace skeleton in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := workspaceRootFlag()
			for _, dir := range []string{"skills", "output", "plans", "prompts", "transcripts"} {
				if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
					return &cliError{code: 1, err: fmt.Errorf("init: %w", err)}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized workspace at %s\n", root)
			return nil
		},
	}
}

// newAddCmd copies a skill directory (source is a local path; fetching
// from a remote registry is an external collaborator spec.md places out
// of scope) into <root>/skills/<name> and resolves its dependencies.
func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <source>",
		Short: "Add a skill directory to the workspace and resolve its dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := workspaceRootFlag()
			source := args[0]

			mdPath := filepath.Join(source, "SKILL.md")
			m, err := manifest.ParseFile(mdPath, nil)
			if err != nil {
				return &cliError{code: 1, err: fmt.Errorf("add: %w", err)}
			}

			dest := filepath.Join(root, "skills", m.Name)
			if err := copyDir(source, dest); err != nil {
				return &cliError{code: 1, err: fmt.Errorf("add: copy %s: %w", m.Name, err)}
			}
			m.Dir = dest

			if _, err := resolve.ResolveSync(root, m, false); err != nil {
				return &cliError{code: 1, err: fmt.Errorf("add: resolve %s: %w", m.Name, err)}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", m.Name, m.Kind())
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a skill from the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := workspaceRootFlag()
			dir := filepath.Join(root, "skills", args[0])
			if _, err := os.Stat(dir); err != nil {
				return &cliError{code: 1, err: fmt.Errorf("remove: skill %q not found", args[0])}
			}
			if err := os.RemoveAll(dir); err != nil {
				return &cliError{code: 1, err: fmt.Errorf("remove: %w", err)}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every skill discovered in the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := workspaceRootFlag()
			manifests, errs := manifest.ScanDir(root)
			for _, e := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", e)
			}
			for _, m := range manifests {
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-12s %s\n", m.Name, m.Kind(), m.Description)
			}
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a skill's full parsed manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := workspaceRootFlag()
			manifests, _ := manifest.ScanDir(root)
			for _, m := range manifests {
				if m.Name != args[0] {
					continue
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "name: %s\n", m.Name)
				fmt.Fprintf(out, "description: %s\n", m.Description)
				fmt.Fprintf(out, "license: %s\n", m.License)
				fmt.Fprintf(out, "compatibility: %s\n", m.Compatibility)
				fmt.Fprintf(out, "kind: %s\n", m.Kind())
				fmt.Fprintf(out, "language: %s\n", m.Language)
				fmt.Fprintf(out, "network.enabled: %t\n", m.Network.Enabled)
				fmt.Fprintf(out, "requires_elevated_permissions: %t\n", m.RequiresElevatedPermissions)
				fmt.Fprintf(out, "entry_point: %s\n", m.EntryPoint)
				fmt.Fprintf(out, "resolved_packages: %v\n", m.ResolvedPackages)
				return nil
			}
			return &cliError{code: 1, err: fmt.Errorf("show: skill %q not found", args[0])}
		},
	}
}

// newScanCmd runs the static scanner (C4) over a skill directory's entry
// point, reporting every issue found. Exit code 2 when a High/Critical
// issue is present, matching the same policy gate the sandbox runner
// applies at L3.
func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <dir>",
		Short: "Run the static scanner over a skill directory's entry point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			m, err := manifest.ParseFile(filepath.Join(dir, "SKILL.md"), nil)
			if err != nil {
				return &cliError{code: 1, err: err}
			}
			if m.EntryPoint == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no entry point to scan")
				return nil
			}

			s := scanner.New(scanner.Options{AllowNetwork: m.Network.Enabled})
			result, err := s.ScanFile(filepath.Join(dir, m.EntryPoint))
			if err != nil {
				return &cliError{code: 1, err: err}
			}

			var worst scanner.Severity
			for _, issue := range result.Issues {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", issue.Severity, issue.Kind, issue.Description)
				if issue.Severity == scanner.SeverityCritical {
					worst = scanner.SeverityCritical
				} else if issue.Severity == scanner.SeverityHigh && worst != scanner.SeverityCritical {
					worst = scanner.SeverityHigh
				}
			}
			if worst == scanner.SeverityCritical || worst == scanner.SeverityHigh {
				return &cliError{code: 2, err: fmt.Errorf("scan: %s severity issue(s) found", worst)}
			}
			return nil
		},
	}
}

// newValidateCmd checks a skill directory's manifest and bash patterns
// without executing anything: ParseFile must succeed and, for a
// bash-tool skill, every declared pattern's command prefix must be
// non-empty (bashvalidate itself validates commands, not patterns, so
// this is manifest-level sanity rather than a Validate call).
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dir>",
		Short: "Validate a skill directory's manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			m, err := manifest.ParseFile(filepath.Join(dir, "SKILL.md"), nil)
			if err != nil {
				return &cliError{code: 1, err: err}
			}
			for _, p := range m.BashPatterns {
				if p.CommandPrefix == "" {
					return &cliError{code: 1, err: fmt.Errorf("validate: empty command prefix in pattern %q", p.RawPattern)}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%s)\n", m.Name, m.Kind())
			return nil
		},
	}
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
