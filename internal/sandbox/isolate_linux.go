//go:build linux

package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

// sensitiveDirs is the mandatory deny list — always denied regardless of
// the skill's declared policy (spec.md §4.6 "Sensitive directory blacklist").
var sensitiveDirs = []string{
	".ssh",
	".aws",
	".gnupg",
	".netrc",
	".docker/config.json",
	".config/google-chrome/Default/Cookies",
	".mozilla/firefox",
	".config/gh/hosts.yml",
}

// isolate runs cmd under bubblewrap or firejail, whichever is found first
// on PATH, with read-only binds for system directories, the skill
// directory, and the package environment, plus a tmpfs/blacklist overlay
// over sensitiveDirs. It falls back to raw Linux namespace isolation
// (requires CAP_SYS_ADMIN) only when neither tool is available.
func isolate(ctx context.Context, cfg Config, runtime RuntimePaths, workDir string, mode NetworkMode, proxyEnv []string) (*exec.Cmd, error) {
	entryPoint := filepath.Join(cfg.SkillDir, cfg.EntryPoint)
	program, args, err := interpreterCommand(cfg.Language, runtime, entryPoint)
	if err != nil {
		return nil, err
	}

	if bwrap, lookErr := exec.LookPath("bwrap"); lookErr == nil {
		return bwrapCommand(ctx, bwrap, cfg, runtime, workDir, mode, proxyEnv, program, args)
	}
	if firejail, lookErr := exec.LookPath("firejail"); lookErr == nil {
		return firejailCommand(ctx, firejail, cfg, runtime, workDir, mode, proxyEnv, program, args), nil
	}

	return namespaceFallbackCommand(ctx, cfg, workDir, program, args)
}

func bwrapCommand(ctx context.Context, bwrap string, cfg Config, runtime RuntimePaths, workDir string, mode NetworkMode, proxyEnv []string, program string, args []string) (*exec.Cmd, error) {
	var a []string
	a = append(a, "--unshare-all", "--die-with-parent")
	a = append(a, "--ro-bind", "/usr", "/usr")
	a = append(a, "--ro-bind", "/lib", "/lib")
	if dirExists("/lib64") {
		a = append(a, "--ro-bind", "/lib64", "/lib64")
	}
	a = append(a, "--ro-bind", "/bin", "/bin")
	if dirExists("/sbin") {
		a = append(a, "--ro-bind", "/sbin", "/sbin")
	}
	a = append(a, "--ro-bind", cfg.SkillDir, cfg.SkillDir)
	a = append(a, "--dir", "/home", "--dir", "/root")
	if runtime.EnvironmentRoot != "" && dirExists(runtime.EnvironmentRoot) {
		a = append(a, "--ro-bind", runtime.EnvironmentRoot, runtime.EnvironmentRoot)
	}
	a = append(a, "--bind", workDir, "/tmp")
	a = append(a, "--dev", "/dev")
	a = append(a, "--proc", "/proc")

	if mode == NetworkBlocked {
		a = append(a, "--unshare-net")
	} else {
		a = append(a, "--share-net")
	}

	a = append(a, "--setenv", "SKILLLITE_SANDBOX", "1")
	a = append(a, "--setenv", "TMPDIR", "/tmp")
	a = append(a, "--setenv", "HOME", "/tmp")
	for _, kv := range proxyEnv {
		if eq := strings.IndexByte(kv, '='); eq >= 0 {
			a = append(a, "--setenv", kv[:eq], kv[eq+1:])
		}
	}

	home, _ := os.UserHomeDir()
	for _, dir := range sensitiveDirs {
		full := dir
		if !filepath.IsAbs(dir) && home != "" {
			full = filepath.Join(home, dir)
		}
		if pathExists(full) {
			a = append(a, "--tmpfs", full)
		}
	}

	cmd := exec.CommandContext(ctx, bwrap)
	if seccompFile, err := openSeccompFilterFile(workDir); err == nil {
		cmd.ExtraFiles = []*os.File{seccompFile}
		a = append(a, "--seccomp", "3")
	}

	a = append(a, "--")
	a = append(a, program)
	a = append(a, args...)

	cmd.Args = append([]string{bwrap}, a...)
	cmd.Dir = cfg.SkillDir
	return cmd, nil
}

func firejailCommand(ctx context.Context, firejail string, cfg Config, runtime RuntimePaths, workDir string, mode NetworkMode, proxyEnv []string, program string, args []string) *exec.Cmd {
	var a []string
	a = append(a, "--quiet", "--noprofile", "--private", "--private-tmp", "--private-dev", "--noroot")
	a = append(a, "--caps.drop=all", "--seccomp")
	a = append(a, "--read-only=/usr", "--read-only=/lib")
	if dirExists("/lib64") {
		a = append(a, "--read-only=/lib64")
	}
	a = append(a, "--whitelist="+cfg.SkillDir, "--read-only="+cfg.SkillDir)
	if runtime.EnvironmentRoot != "" && dirExists(runtime.EnvironmentRoot) {
		a = append(a, "--whitelist="+runtime.EnvironmentRoot, "--read-only="+runtime.EnvironmentRoot)
	}
	if mode == NetworkBlocked {
		a = append(a, "--net=none")
	}
	a = append(a, "--blacklist=/etc/passwd", "--blacklist=/etc/shadow")

	home, _ := os.UserHomeDir()
	for _, dir := range sensitiveDirs {
		full := dir
		if !filepath.IsAbs(dir) && home != "" {
			full = filepath.Join(home, dir)
		}
		if pathExists(full) {
			a = append(a, "--blacklist="+full)
		}
	}

	a = append(a, "--")
	a = append(a, program)
	a = append(a, args...)

	cmd := exec.CommandContext(ctx, firejail, a...)
	cmd.Dir = cfg.SkillDir
	cmd.Env = append(os.Environ(), "SKILLLITE_SANDBOX=1", "TMPDIR="+workDir)
	cmd.Env = append(cmd.Env, proxyEnv...)
	return cmd
}

// namespaceFallbackCommand unshares UTS/PID/net namespaces via
// SysProcAttr.Cloneflags, matching the teacher's CommandContext-based
// process construction style; this path requires CAP_SYS_ADMIN and is only
// reached when neither bwrap nor firejail is installed.
func namespaceFallbackCommand(ctx context.Context, cfg Config, workDir string, program string, args []string) (*exec.Cmd, error) {
	if !filepath.IsAbs(program) {
		if _, err := exec.LookPath(program); err != nil {
			return nil, fmt.Errorf("sandbox: no sandbox tool available (bwrap or firejail) and interpreter %q not resolvable: %w", program, err)
		}
	}

	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = cfg.SkillDir
	cmd.Env = append(os.Environ(), "SKILLLITE_SANDBOX=1", "TMPDIR="+workDir)
	if !cfg.NetworkEnabled {
		cmd.Env = append(cmd.Env, "SKILLLITE_NETWORK_DISABLED=1")
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: syscall.CLONE_NEWUTS | syscall.CLONE_NEWPID | syscall.CLONE_NEWNET,
	}
	return cmd, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
