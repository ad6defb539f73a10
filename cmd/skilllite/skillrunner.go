package main

import (
	"context"
	"fmt"

	"github.com/skilllite/skilllite/internal/envbuild"
	"github.com/skilllite/skilllite/internal/manifest"
	"github.com/skilllite/skilllite/internal/resolve"
	"github.com/skilllite/skilllite/internal/sandbox"
)

// toSandboxConfig projects a parsed manifest into the shape the sandbox
// runner needs to execute it, independent of how the manifest was loaded.
// No such conversion exists elsewhere in the tree; this is its one home.
func toSandboxConfig(m *manifest.Manifest) sandbox.Config {
	return sandbox.Config{
		Name:            m.Name,
		SkillDir:        m.Dir,
		EntryPoint:      m.EntryPoint,
		Language:        m.Language,
		NetworkEnabled:  m.Network.Enabled,
		NetworkOutbound: m.Network.OutboundPatterns,
		UsesPlaywright:  m.UsesPlaywright,
		BashPatterns:    m.BashPatterns,
	}
}

// skillRunner implements dispatch.SkillRunner by resolving a skill's
// dependencies, materialising its runtime environment, and executing it
// under the sandbox — the three stages spec.md §4.1-§4.6 describe end to
// end, glued together for the first time at the CLI boundary.
type skillRunner struct {
	workspaceDir string
	builder      *envbuild.Builder
	runner       *sandbox.Runner
	strict       bool
}

func newSkillRunner(workspaceDir string, builder *envbuild.Builder, runner *sandbox.Runner) *skillRunner {
	return &skillRunner{workspaceDir: workspaceDir, builder: builder, runner: runner}
}

func (s *skillRunner) RunSkill(ctx context.Context, m *manifest.Manifest, inputJSON string) (string, error) {
	if m.Kind() != manifest.KindExecutable {
		return "", fmt.Errorf("skillrunner: skill %q has no entry point to execute", m.Name)
	}

	deps, err := resolve.ResolveSync(s.workspaceDir, m, s.strict)
	if err != nil {
		return "", fmt.Errorf("skillrunner: resolve %q: %w", m.Name, err)
	}

	runtime, err := s.builder.Build(ctx, m.Language, deps.Packages)
	if err != nil {
		return "", fmt.Errorf("skillrunner: build environment for %q: %w", m.Name, err)
	}

	cfg := toSandboxConfig(m)
	output, err := s.runner.Run(ctx, cfg, sandbox.RuntimePaths{
		Interpreter:      runtime.Interpreter,
		ModuleSearchRoot: runtime.ModuleSearchRoot,
		EnvironmentRoot:  runtime.EnvironmentRoot,
	}, inputJSON)
	if err != nil {
		return "", err
	}
	return output, nil
}
