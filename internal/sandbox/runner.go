package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/skilllite/skilllite/internal/bashvalidate"
	"github.com/skilllite/skilllite/internal/manifest"
	"github.com/skilllite/skilllite/internal/scanner"
)

const shutdownGrace = 2 * time.Second

// interpreterCommand maps a skill's resolved language to its launch
// command, shared by both the direct (L1) and isolated (L2/L3) paths.
func interpreterCommand(language manifest.Language, runtime RuntimePaths, entryPoint string) (string, []string, error) {
	switch language {
	case manifest.LangPython, manifest.LangNode:
		return runtime.Interpreter, []string{entryPoint}, nil
	default:
		return "", nil, fmt.Errorf("sandbox: unsupported language %q for execution", language)
	}
}

// Confirmer is the minimal capability the runner needs from the event sink
// (spec.md §4.12's confirmation_request(prompt) -> bool) to ask a human
// whether to proceed past a High/Critical scanner finding.
type Confirmer interface {
	ConfirmationRequest(ctx context.Context, prompt string) bool
}

// AutoApprove implements Confirmer by always answering true — used when
// SKILLLITE_AUTO_APPROVE is set or the sink is known non-interactive.
type AutoApprove struct{}

func (AutoApprove) ConfirmationRequest(context.Context, string) bool { return true }

// DenyAll implements Confirmer by always answering false — used for
// non-TTY contexts without an explicit auto-approve flag.
type DenyAll struct{}

func (DenyAll) ConfirmationRequest(context.Context, string) bool { return false }

// Runner executes skills under a chosen security level.
type Runner struct {
	Level     Level
	Limits    ResourceLimits
	Confirmer Confirmer
	Scanner   *scanner.Scanner
}

func NewRunner(level Level, confirmer Confirmer) *Runner {
	return &Runner{
		Level:     level,
		Limits:    DefaultResourceLimits(),
		Confirmer: confirmer,
		Scanner:   scanner.New(scanner.Options{}),
	}
}

// Run executes cfg's entry point with inputJSON on stdin and returns the
// single JSON document the skill wrote to stdout. It refuses to return
// success unless stdout parses as JSON (spec.md's child protocol).
func (r *Runner) Run(ctx context.Context, cfg Config, runtime RuntimePaths, inputJSON string) (string, error) {
	if r.Level.UsesScanner() {
		if err := r.runScan(ctx, cfg); err != nil {
			return "", err
		}
	}

	var (
		result Result
		err    error
	)
	if r.Level.UsesIsolation() {
		result, err = r.runIsolated(ctx, cfg, runtime, inputJSON)
	} else {
		result, err = r.runDirect(ctx, cfg, runtime, inputJSON)
	}
	if err != nil {
		return "", err
	}

	if result.Killed {
		return "", &ExecutionError{Killed: true, KilledBy: result.KilledBy, Stderr: result.Stderr}
	}
	if result.ExitCode != 0 {
		return "", &ExecutionError{ExitCode: result.ExitCode, Stderr: result.Stderr}
	}

	output := strings.TrimSpace(result.Stdout)
	var probe json.RawMessage
	if err := json.Unmarshal([]byte(output), &probe); err != nil {
		return "", fmt.Errorf("sandbox: skill output is not valid JSON: %w (output: %s)", err, truncateForError(output))
	}
	return output, nil
}

func (r *Runner) runScan(ctx context.Context, cfg Config) error {
	scriptPath := filepath.Join(cfg.SkillDir, cfg.EntryPoint)
	if _, err := os.Stat(scriptPath); err != nil {
		return nil
	}

	s := scanner.New(scanner.Options{AllowNetwork: cfg.NetworkEnabled})
	result, err := s.ScanFile(scriptPath)
	if err != nil {
		return fmt.Errorf("sandbox: scan %s: %w", scriptPath, err)
	}

	var critical, high []scanner.Issue
	for _, issue := range result.Issues {
		switch issue.Severity {
		case scanner.SeverityCritical:
			critical = append(critical, issue)
		case scanner.SeverityHigh:
			high = append(high, issue)
		}
	}
	if len(critical) == 0 && len(high) == 0 {
		return nil
	}

	severity := "HIGH"
	if len(critical) > 0 {
		severity = "CRITICAL"
	}
	count := len(critical) + len(high)

	confirmer := r.Confirmer
	if confirmer == nil {
		confirmer = DenyAll{}
	}
	prompt := fmt.Sprintf("found %d %s severity issue(s) in %s — proceed?", count, severity, cfg.Name)
	if !confirmer.ConfirmationRequest(ctx, prompt) {
		return &PolicyBlocked{Reason: fmt.Sprintf("scanner found %d %s severity issue(s), not approved", count, severity)}
	}
	return nil
}

func (r *Runner) runDirect(ctx context.Context, cfg Config, runtime RuntimePaths, inputJSON string) (Result, error) {
	entryPoint := filepath.Join(cfg.SkillDir, cfg.EntryPoint)
	program, args, err := interpreterCommand(cfg.Language, runtime, entryPoint)
	if err != nil {
		return Result{}, err
	}

	workDir, err := os.MkdirTemp("", "skilllite-run-*")
	if err != nil {
		return Result{}, fmt.Errorf("sandbox: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	cmd := newDirectCommand(ctx, program, args, cfg, workDir)
	return runWithLimits(ctx, cmd, inputJSON, r.Limits)
}

func (r *Runner) runIsolated(ctx context.Context, cfg Config, runtime RuntimePaths, inputJSON string) (Result, error) {
	workDir, err := os.MkdirTemp("", "skilllite-run-*")
	if err != nil {
		return Result{}, fmt.Errorf("sandbox: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	mode, domains := resolveNetworkMode(cfg.NetworkEnabled, cfg.NetworkOutbound)

	var proxyEnv []string
	if mode == NetworkFiltered {
		proxy, err := newFilteringProxy(domains)
		if err != nil {
			return Result{}, err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			_ = proxy.Close(shutdownCtx)
		}()
		proxyEnv = proxy.proxyEnv()
	}

	cmd, err := isolate(ctx, cfg, runtime, workDir, mode, proxyEnv)
	if err != nil {
		return Result{}, err
	}
	return runWithLimits(ctx, cmd, inputJSON, r.Limits)
}

// RunBashCommand validates command against cfg's declared bash-patterns
// (C5) before executing it with the skill's environment PATH prepended
// with the package environment's binary directory, per spec.md §4.6's
// "Command-allowlist path".
func (r *Runner) RunBashCommand(ctx context.Context, cfg Config, runtime RuntimePaths, command string) (Result, error) {
	if err := bashvalidate.Validate(command, cfg.BashPatterns); err != nil {
		return Result{}, &PolicyBlocked{Reason: err.Error()}
	}

	workDir, err := os.MkdirTemp("", "skilllite-bash-*")
	if err != nil {
		return Result{}, fmt.Errorf("sandbox: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = cfg.SkillDir
	cmd.Env = append(filterEnv(os.Environ()), "TMPDIR="+workDir)
	if runtime.EnvironmentRoot != "" {
		binDir := filepath.Join(runtime.EnvironmentRoot, "bin")
		cmd.Env = append(cmd.Env, "PATH="+binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}

	return runWithLimits(ctx, cmd, "", r.Limits)
}

func truncateForError(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
