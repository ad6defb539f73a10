package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSkillMD(t *testing.T, dir, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, skillFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestParse_MissingFrontMatter(t *testing.T) {
	dir := t.TempDir()
	path := writeSkillMD(t, dir, "# just a heading\n")
	if _, err := ParseFile(path, nil); err == nil {
		t.Fatal("expected error for missing front matter")
	}
}

func TestParse_MissingName(t *testing.T) {
	dir := t.TempDir()
	path := writeSkillMD(t, dir, "---\ndescription: does things\n---\nbody\n")
	if _, err := ParseFile(path, nil); err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("expected name-required error, got %v", err)
	}
}

func TestParse_NameTooLong(t *testing.T) {
	dir := t.TempDir()
	longName := strings.Repeat("a", 65)
	path := writeSkillMD(t, dir, "---\nname: "+longName+"\n---\n")
	if _, err := ParseFile(path, nil); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected name-too-long error, got %v", err)
	}
}

func TestParse_UnknownFieldsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := writeSkillMD(t, dir, "---\nname: widget\ndescription: d\nsome_future_field: true\n---\n")
	m, err := ParseFile(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "widget" {
		t.Errorf("expected name widget, got %q", m.Name)
	}
}

func TestParse_NetworkKeywordEnables(t *testing.T) {
	dir := t.TempDir()
	path := writeSkillMD(t, dir, "---\nname: fetcher\ndescription: d\ncompatibility: Requires network access\n---\n")
	m, err := ParseFile(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Network.Enabled {
		t.Fatal("expected network enabled")
	}
	if len(m.Network.OutboundPatterns) != 1 || m.Network.OutboundPatterns[0] != "*" {
		t.Errorf("expected wildcard outbound pattern, got %v", m.Network.OutboundPatterns)
	}
}

func TestParse_NetworkKeywordAbsent(t *testing.T) {
	dir := t.TempDir()
	path := writeSkillMD(t, dir, "---\nname: packer\ndescription: d\ncompatibility: Requires git, docker\n---\n")
	m, err := ParseFile(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Network.Enabled {
		t.Fatal("expected network disabled")
	}
}

func TestParse_BashPatterns(t *testing.T) {
	dir := t.TempDir()
	path := writeSkillMD(t, dir, "---\nname: browser\ndescription: d\nallowed-tools: \"Read, Edit, Bash(agent-browser:*), Bash(npm:*)\"\n---\n")
	m, err := ParseFile(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.BashPatterns) != 2 {
		t.Fatalf("expected 2 bash patterns, got %d: %+v", len(m.BashPatterns), m.BashPatterns)
	}
	if m.BashPatterns[0].CommandPrefix != "agent-browser" || m.BashPatterns[1].CommandPrefix != "npm" {
		t.Errorf("unexpected prefixes: %+v", m.BashPatterns)
	}
	if m.Kind() != KindBashTool {
		t.Errorf("expected bash-tool kind, got %v", m.Kind())
	}
}

func TestParse_KindMutualExclusion(t *testing.T) {
	dir := t.TempDir()
	path := writeSkillMD(t, dir, "---\nname: quiet\ndescription: d\n---\n")
	m, err := ParseFile(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Kind() != KindPromptOnly {
		t.Errorf("expected prompt-only kind, got %v", m.Kind())
	}

	os.MkdirAll(filepath.Join(dir, "scripts"), 0o755)
	os.WriteFile(filepath.Join(dir, "scripts", "main.py"), []byte("print('hi')"), 0o644)
	m2, err := ParseFile(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m2.Kind() != KindExecutable {
		t.Errorf("expected executable kind once scripts/main.py exists, got %v", m2.Kind())
	}
	if m2.Language != LangPython {
		t.Errorf("expected python language from entry extension, got %v", m2.Language)
	}
}

func TestParse_RequiresBlockMerge(t *testing.T) {
	dir := t.TempDir()
	content := "---\n" +
		"name: toolbox\n" +
		"description: d\n" +
		"metadata:\n" +
		"  openclaw:\n" +
		"    requires:\n" +
		"      bins: [git, docker]\n" +
		"      env: [GITHUB_TOKEN]\n" +
		"---\n"
	path := writeSkillMD(t, dir, content)
	m, err := ParseFile(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(m.Compatibility, "Requires bins: git, docker") {
		t.Errorf("expected bins line in compatibility, got %q", m.Compatibility)
	}
	if !strings.Contains(m.Compatibility, "Requires env: GITHUB_TOKEN") {
		t.Errorf("expected env line in compatibility, got %q", m.Compatibility)
	}
}

func TestParse_ResolvedPackagesOnlyWhenLockFresh(t *testing.T) {
	dir := t.TempDir()
	path := writeSkillMD(t, dir, "---\nname: dataproc\ndescription: d\ncompatibility: Requires pandas\n---\n")

	fresh := LockFile{"dataproc": {
		CompatibilityHash: HashCompatibility("Requires pandas"),
		ResolvedPackages:  []string{"pandas"},
		Resolver:          ResolverAllowlist,
	}}
	m, err := ParseFile(path, fresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.ResolvedPackages) != 1 || m.ResolvedPackages[0] != "pandas" {
		t.Errorf("expected resolved packages from fresh lock, got %v", m.ResolvedPackages)
	}

	stale := LockFile{"dataproc": {
		CompatibilityHash: HashCompatibility("Requires pandas and numpy"),
		ResolvedPackages:  []string{"pandas", "numpy"},
	}}
	m2, err := ParseFile(path, stale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m2.ResolvedPackages) != 0 {
		t.Errorf("expected no resolved packages from stale lock, got %v", m2.ResolvedPackages)
	}
}

func TestParse_UsesPlaywright(t *testing.T) {
	dir := t.TempDir()
	path := writeSkillMD(t, dir, "---\nname: scraper\ndescription: d\ncompatibility: Requires playwright, python\n---\n")
	m, err := ParseFile(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.UsesPlaywright {
		t.Error("expected UsesPlaywright true from compatibility string")
	}
}

func TestScanDir_MissingSkillsDir(t *testing.T) {
	dir := t.TempDir()
	manifests, errs := ScanDir(dir)
	if manifests != nil || errs != nil {
		t.Fatalf("expected nil, nil for missing skills dir, got %v, %v", manifests, errs)
	}
}

func TestScanDir_SkipsDirsWithoutSkillMD(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "skills", "empty"), 0o755)
	writeSkillMD(t, filepath.Join(dir, "skills", "real"), "---\nname: real\ndescription: d\n---\n")

	manifests, errs := ScanDir(dir)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(manifests) != 1 || manifests[0].Name != "real" {
		t.Fatalf("expected exactly one manifest named real, got %+v", manifests)
	}
}
