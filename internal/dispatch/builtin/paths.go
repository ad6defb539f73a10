package builtin

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// sensitiveSuffixes mirrors the teacher's protected-file convention
// (file.go's protectedFiles map) generalized to a suffix list, per spec.md
// §4.7's "refuses writes to a hard-coded sensitive suffix list".
var sensitiveSuffixes = []string{".env", ".key", ".pem", ".git/config"}

// isSensitiveWritePath reports whether path ends with a protected suffix.
func isSensitiveWritePath(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// resolveWithinRoot resolves path against root and rejects any result that
// escapes it, following the teacher's safeResolvePath symlink- and
// prefix-collision-safe approach (internal/tool/builtin/file.go).
func resolveWithinRoot(path, root string) (string, error) {
	var resolved string
	if filepath.IsAbs(path) {
		resolved = filepath.Clean(path)
	} else {
		resolved = filepath.Clean(filepath.Join(root, path))
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		realRoot = absRoot
	}

	absResolved, err := filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	realResolved, _ := resolveExisting(absResolved)

	if runtime.GOOS == "windows" {
		realRoot = strings.ToLower(realRoot)
		realResolved = strings.ToLower(realResolved)
	}

	if realResolved != realRoot && !strings.HasPrefix(realResolved, realRoot+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes root %q", path, root)
	}
	return resolved, nil
}

// resolveExisting resolves symlinks for path, falling back to resolving its
// parent directory when path itself doesn't exist yet (e.g. a file about to
// be created).
func resolveExisting(path string) (string, error) {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real, nil
	}
	if real, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		return filepath.Join(real, filepath.Base(path)), nil
	}
	return path, nil
}

// backupBeforeEdit copies path into backupDir (bounded-retention, keep the
// 50 most recent) before an edit is applied, grounded in
// original_source/.../search_replace.rs's backup_file_before_edit.
func backupBeforeEdit(path, backupDir string) (string, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), filepath.Base(path))
	backupPath := filepath.Join(backupDir, name)
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", err
	}
	cleanupOldBackups(backupDir, maxBackupsKept)
	return backupPath, nil
}

const maxBackupsKept = 50

func cleanupOldBackups(dir string, keep int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}
	var files []fileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
	}
	if len(files) <= keep {
		return
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })
	for _, f := range files[:len(files)-keep] {
		_ = os.Remove(f.path)
	}
}
