package envbuild

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/skilllite/skilllite/internal/manifest"
)

// Builder materialises environments under a shared cache root, collapsing
// concurrent builds for the same key onto a single install (teacher's
// idempotent-compile pattern from compiler.go, generalised to venv/npm).
type Builder struct {
	CacheRoot string
	group     singleflight.Group
}

func NewBuilder(cacheRoot string) *Builder {
	return &Builder{CacheRoot: cacheRoot}
}

// Build returns the RuntimePaths for language + packages, building the
// environment if it doesn't already exist. Concurrent calls with the same
// (language, packages) key share one build.
func (b *Builder) Build(ctx context.Context, language manifest.Language, packages []string) (RuntimePaths, error) {
	if language != manifest.LangPython && language != manifest.LangNode {
		return RuntimePaths{}, nil
	}
	key := cacheKey(language, packages)
	envRoot := filepath.Join(b.CacheRoot, "envs", key)

	result, err, _ := b.group.Do(key, func() (any, error) {
		if paths, ok := existingPaths(language, envRoot); ok {
			return paths, nil
		}
		paths, buildErr := buildEnv(ctx, language, envRoot, packages)
		if buildErr != nil {
			return RuntimePaths{}, buildErr
		}
		return paths, nil
	})
	if err != nil {
		return RuntimePaths{}, err
	}
	return result.(RuntimePaths), nil
}

// cacheKey hashes {language, sorted package set} per spec.md §4.3.
func cacheKey(language manifest.Language, packages []string) string {
	sorted := append([]string(nil), packages...)
	sort.Strings(sorted)
	h := sha256.New()
	h.Write([]byte(language))
	for _, p := range sorted {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func pythonBin(envRoot string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(envRoot, "Scripts", "python.exe")
	}
	return filepath.Join(envRoot, "bin", "python")
}

// existingPaths reuses envRoot if it already looks like a structurally
// valid environment for language, without re-running the builder.
func existingPaths(language manifest.Language, envRoot string) (RuntimePaths, bool) {
	switch language {
	case manifest.LangPython:
		bin := pythonBin(envRoot)
		if fileExists(bin) {
			return RuntimePaths{Interpreter: bin, ModuleSearchRoot: envRoot, EnvironmentRoot: envRoot}, true
		}
	case manifest.LangNode:
		pkgJSON := filepath.Join(envRoot, "package.json")
		if fileExists(pkgJSON) {
			return RuntimePaths{Interpreter: "node", ModuleSearchRoot: filepath.Join(envRoot, "node_modules"), EnvironmentRoot: envRoot}, true
		}
	}
	return RuntimePaths{}, false
}

func buildEnv(ctx context.Context, language manifest.Language, envRoot string, packages []string) (RuntimePaths, error) {
	switch language {
	case manifest.LangPython:
		return buildPythonEnv(ctx, envRoot, packages)
	case manifest.LangNode:
		return buildNodeEnv(ctx, envRoot, packages)
	default:
		return RuntimePaths{}, nil
	}
}

func buildPythonEnv(ctx context.Context, envRoot string, packages []string) (RuntimePaths, error) {
	pythonExe := "python3"
	if _, err := exec.LookPath(pythonExe); err != nil {
		pythonExe = "python"
	}
	if err := runWithRetry(ctx, envRoot, pythonExe, "-m", "venv", envRoot); err != nil {
		return RuntimePaths{}, &BuildError{Key: envRoot, Reason: "venv creation failed", Err: err}
	}

	bin := pythonBin(envRoot)
	if len(packages) > 0 {
		args := append([]string{"-m", "pip", "install", "--quiet"}, packages...)
		if err := runWithRetry(ctx, envRoot, bin, args...); err != nil {
			return RuntimePaths{}, &BuildError{Key: envRoot, Reason: "pip install failed", Err: err}
		}
	}
	return RuntimePaths{Interpreter: bin, ModuleSearchRoot: envRoot, EnvironmentRoot: envRoot}, nil
}

func buildNodeEnv(ctx context.Context, envRoot string, packages []string) (RuntimePaths, error) {
	if err := os.MkdirAll(envRoot, 0o755); err != nil {
		return RuntimePaths{}, &BuildError{Key: envRoot, Reason: "mkdir failed", Err: err}
	}
	pkgJSON := filepath.Join(envRoot, "package.json")
	if !fileExists(pkgJSON) {
		if err := os.WriteFile(pkgJSON, []byte(`{"name":"skilllite-env","private":true}`+"\n"), 0o644); err != nil {
			return RuntimePaths{}, &BuildError{Key: envRoot, Reason: "package.json write failed", Err: err}
		}
	}
	if len(packages) > 0 {
		args := append([]string{"install", "--no-audit", "--no-fund"}, packages...)
		if err := runWithRetry(ctx, envRoot, "npm", args...); err != nil {
			return RuntimePaths{}, &BuildError{Key: envRoot, Reason: "npm install failed", Err: err}
		}
	}
	return RuntimePaths{
		Interpreter:      "node",
		ModuleSearchRoot: filepath.Join(envRoot, "node_modules"),
		EnvironmentRoot:  envRoot,
	}, nil
}

// runWithRetry runs name(args...) in dir, retrying once after a short
// backoff on failure — spec.md §4.3's "network unreachable during install
// (retried with backoff once)".
func runWithRetry(ctx context.Context, dir, name string, args ...string) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("%s %s: %w\n%s", name, strings.Join(args, " "), err, out)
		if attempt == 0 {
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if errors.Is(lastErr, context.Canceled) {
		return lastErr
	}
	return lastErr
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

