package sandbox

import (
	"context"
	"os"
	"os/exec"
	"strings"
)

// sensitiveEnvSuffixes mirrors shell.go's filterEnv: the L1 path has no
// filesystem isolation at all, so at minimum the child shouldn't inherit
// the parent's obvious secrets.
var sensitiveEnvSuffixes = []string{
	"_KEY", "_SECRET", "_TOKEN", "_PASSWORD", "_PASSWD",
	"_PASSPHRASE", "_CREDENTIALS", "_AUTH", "_DSN",
}

// newDirectCommand builds the L1 (no isolation) command: resource limits
// only, gated by the caller already having checked SKILLLITE_SANDBOX_LEVEL=1
// is explicitly requested.
func newDirectCommand(ctx context.Context, program string, args []string, cfg Config, workDir string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = cfg.SkillDir
	cmd.Env = append(filterEnv(os.Environ()), "SKILLLITE_SANDBOX=0", "TMPDIR="+workDir)
	if !cfg.NetworkEnabled {
		cmd.Env = append(cmd.Env, "SKILLLITE_NETWORK_DISABLED=1")
	}
	return cmd
}

func filterEnv(env []string) []string {
	filtered := make([]string, 0, len(env))
	for _, e := range env {
		name, _, found := strings.Cut(e, "=")
		if !found || isSensitiveEnvName(name) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func isSensitiveEnvName(name string) bool {
	upper := strings.ToUpper(name)
	for _, suffix := range sensitiveEnvSuffixes {
		if strings.HasSuffix(upper, suffix) {
			return true
		}
	}
	return false
}
