package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/skilllite/skilllite/internal/tool"
)

const (
	commandTimeout = 30 * time.Second
	maxOutputChars = 8000
)

// dangerousPatterns blocks obviously destructive commands before they ever
// reach the confirmation gate — grounded verbatim in
// internal/tool/builtin/shell.go's blocklist (best-effort, not a security
// boundary; C6/bashvalidate is what actually constrains skills).
var dangerousPatterns = []string{
	"rm -rf /", "rm -r -f /", "rm --recursive", "rm -rf ~", "rm -rf $home", "rm -rf ${home}",
	"rm -rf -- /", "rm -r -f -- /",
	"mkfs", "dd if=",
	"shutdown", "reboot", "halt", "init 0", "init 6", "systemctl poweroff", "systemctl halt",
	"pkill -9",
	"chmod -r 000 /",
	":(){:|:&};:",
	"format c:", "format d:", "del /s /q c:\\", "del /s /q d:\\", "rd /s /q c:\\", "rd /s /q d:\\",
	"remove-item -recurse c:", "remove-item -recurse d:",
}

// Confirmer asks a human whether to proceed with a risky operation.
// Mirrors sandbox.Confirmer — kept as a separate, equally minimal
// interface so this package has no dependency on internal/sandbox.
type Confirmer interface {
	ConfirmationRequest(ctx context.Context, prompt string) bool
}

// RunCommandTool executes a shell command after an explicit confirmation,
// grounded in internal/tool/builtin/shell.go's ShellTool (timeout, output
// truncation, env filtering), generalized with a confirmation gate per
// spec.md §4.7's "confirmation-gated shell".
type RunCommandTool struct {
	workspaceDir string
	confirmer    Confirmer
}

func NewRunCommandTool(workspaceDir string, confirmer Confirmer) *RunCommandTool {
	return &RunCommandTool{workspaceDir: workspaceDir, confirmer: confirmer}
}

func (t *RunCommandTool) Name() string        { return "run_command" }
func (t *RunCommandTool) Description() string { return "Run a shell command in the workspace, after confirmation." }
func (t *RunCommandTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(tool.SchemaParam{Name: "command", Type: "string", Description: "command to execute", Required: true})
}
func (t *RunCommandTool) Init(context.Context) error { return nil }
func (t *RunCommandTool) Close() error                { return nil }

type runCommandArgs struct {
	Command string `json:"command"`
}

func (t *RunCommandTool) Execute(ctx context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a runCommandArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if strings.TrimSpace(a.Command) == "" {
		return tool.ToolResult{Error: "command cannot be empty"}, nil
	}

	lower := strings.ToLower(a.Command)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return tool.ToolResult{Error: fmt.Sprintf("refused: command contains a blocked pattern %q", pattern)}, nil
		}
	}

	if t.confirmer != nil && !t.confirmer.ConfirmationRequest(ctx, fmt.Sprintf("run command: %s", a.Command)) {
		return tool.ToolResult{Error: "command not approved"}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/c", a.Command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", a.Command)
	}
	if t.workspaceDir != "" {
		cmd.Dir = t.workspaceDir
	}
	cmd.Env = filterCommandEnv(os.Environ())

	output, err := cmd.CombinedOutput()
	outStr := safeRuneTruncate(string(output), maxOutputChars)
	outStr = strings.TrimSpace(outStr)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return tool.ToolResult{Error: fmt.Sprintf("command timed out (%v): %s", commandTimeout, outStr)}, nil
		}
		return tool.ToolResult{Output: outStr, Error: fmt.Sprintf("command exited with error: %v", err)}, nil
	}
	return tool.ToolResult{Output: outStr}, nil
}

// safeRuneTruncate truncates s to maxRunes runes, preserving valid UTF-8 —
// grounded in shell.go's safeRuneTruncate.
func safeRuneTruncate(s string, maxRunes int) string {
	count := 0
	for i := range s {
		count++
		if count > maxRunes {
			total := maxRunes + utf8.RuneCountInString(s[i:])
			return s[:i] + fmt.Sprintf("\n... (output truncated, %d characters total)", total)
		}
	}
	return s
}

var commandEnvSensitiveSuffixes = []string{
	"_KEY", "_SECRET", "_TOKEN", "_PASSWORD", "_PASSWD",
	"_PASSPHRASE", "_CREDENTIALS", "_AUTH", "_DSN",
}

func filterCommandEnv(env []string) []string {
	filtered := make([]string, 0, len(env))
	for _, e := range env {
		name, _, found := strings.Cut(e, "=")
		if !found {
			continue
		}
		upper := strings.ToUpper(name)
		sensitive := false
		for _, suffix := range commandEnvSensitiveSuffixes {
			if strings.HasSuffix(upper, suffix) {
				sensitive = true
				break
			}
		}
		if !sensitive {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
