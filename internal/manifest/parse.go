package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	maxNameLen = 64
	frontDelim = "---"
)

var bashPatternRe = regexp.MustCompile(`Bash\(([^)]+)\)`)

var networkKeywords = []string{
	"network", "internet", "http", "api", "web",
	"网络", "联网", "网页", "在线",
}

var languageKeywords = []struct {
	keyword string
	lang    Language
}{
	{"python", LangPython},
	{"node", LangNode},
	{"javascript", LangNode},
	{"typescript", LangNode},
	{"bash", LangBash},
	{"shell", LangBash},
}

// frontMatter is the raw YAML shape of SKILL.md's delimited header.
type frontMatter struct {
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	License       string         `yaml:"license"`
	Compatibility string         `yaml:"compatibility"`
	Metadata      map[string]any `yaml:"metadata"`
	AllowedTools  string         `yaml:"allowed-tools"`
	Elevated      *bool          `yaml:"requires_elevated_permissions"`
}

// ParseFile reads and parses a SKILL.md file at path. lock, if non-nil, is
// consulted for ResolvedPackages — callers that don't have a lock file yet
// should pass nil.
func ParseFile(path string, lock LockFile) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ManifestError{Dir: filepath.Dir(path), Err: err}
	}
	return Parse(data, filepath.Dir(path), lock)
}

// Parse parses the raw bytes of a SKILL.md file whose skill directory is
// dir (used to auto-detect the entry point and to populate Manifest.Dir).
func Parse(data []byte, dir string, lock LockFile) (*Manifest, error) {
	raw, err := extractFrontMatter(data)
	if err != nil {
		return nil, &ManifestError{Dir: dir, Err: err}
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return nil, &ManifestError{Dir: dir, Err: fmt.Errorf("malformed front matter: %w", err)}
	}

	if fm.Name == "" {
		return nil, &ManifestError{Dir: dir, Err: fmt.Errorf("name is required")}
	}
	if len(fm.Name) > maxNameLen {
		return nil, &ManifestError{Dir: dir, Err: fmt.Errorf("name %q exceeds %d chars", fm.Name, maxNameLen)}
	}

	compat := mergeRequiresBlock(fm.Compatibility, fm.Metadata)

	m := &Manifest{
		Name:                        fm.Name,
		Description:                 fm.Description,
		License:                     fm.License,
		Compatibility:               compat,
		RequiresElevatedPermissions: fm.Elevated != nil && *fm.Elevated,
		BashPatterns:                parseBashPatterns(fm.AllowedTools),
		Dir:                         dir,
	}

	m.EntryPoint = detectEntryPoint(dir)
	m.Language = detectLanguage(compat, m.EntryPoint)
	m.Network = detectNetworkPolicy(compat)

	if lock != nil {
		if entry, ok := lock[m.Name]; ok && entry.IsFresh(compat) {
			m.ResolvedPackages = entry.ResolvedPackages
		}
	}

	m.UsesPlaywright = detectPlaywright(compat, m.ResolvedPackages)

	return m, nil
}

// extractFrontMatter returns the YAML body between the first pair of `---`
// delimiters. The leading delimiter must be the first non-blank line.
func extractFrontMatter(data []byte) (string, error) {
	text := strings.TrimLeft(string(data), "\r\n\t ")
	if !strings.HasPrefix(text, frontDelim) {
		return "", fmt.Errorf("no front matter: file must start with %q", frontDelim)
	}
	rest := text[len(frontDelim):]
	end := strings.Index(rest, "\n"+frontDelim)
	if end < 0 {
		return "", fmt.Errorf("no closing %q delimiter", frontDelim)
	}
	return rest[:end], nil
}

// mergeRequiresBlock appends synthesised "Requires bins: …" / "Requires
// env: …" lines from metadata.openclaw.requires.{bins,env} to compat,
// preserving format compatibility with manifest dialects that declare
// requirements structurally instead of in prose.
func mergeRequiresBlock(compat string, metadata map[string]any) string {
	if metadata == nil {
		return compat
	}
	openclaw, _ := metadata["openclaw"].(map[string]any)
	if openclaw == nil {
		return compat
	}
	requires, _ := openclaw["requires"].(map[string]any)
	if requires == nil {
		return compat
	}

	var extra []string
	if bins := stringListField(requires["bins"]); len(bins) > 0 {
		extra = append(extra, "Requires bins: "+strings.Join(bins, ", "))
	}
	if env := stringListField(requires["env"]); len(env) > 0 {
		extra = append(extra, "Requires env: "+strings.Join(env, ", "))
	}
	if len(extra) == 0 {
		return compat
	}
	if compat == "" {
		return strings.Join(extra, "\n")
	}
	return compat + "\n" + strings.Join(extra, "\n")
}

func stringListField(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// parseBashPatterns parses every `Bash(<prefix>[:*])` token in raw. Tokens
// for other tool names (Read, Edit, …) are ignored.
func parseBashPatterns(raw string) []BashPattern {
	if raw == "" {
		return nil
	}
	var patterns []BashPattern
	for _, match := range bashPatternRe.FindAllStringSubmatch(raw, -1) {
		patternStr := strings.TrimSpace(match[1])
		prefix := patternStr
		if idx := strings.Index(patternStr, ":"); idx >= 0 {
			prefix = strings.TrimSpace(patternStr[:idx])
		}
		if prefix == "" {
			continue
		}
		patterns = append(patterns, BashPattern{CommandPrefix: prefix, RawPattern: patternStr})
	}
	return patterns
}

func detectLanguage(compat, entryPoint string) Language {
	lower := strings.ToLower(compat)
	for _, kw := range languageKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.lang
		}
	}
	if entryPoint != "" {
		switch filepath.Ext(entryPoint) {
		case ".py":
			return LangPython
		case ".js", ".ts":
			return LangNode
		case ".sh":
			return LangBash
		}
	}
	return LangPython
}

func detectNetworkPolicy(compat string) NetworkPolicy {
	lower := strings.ToLower(compat)
	for _, kw := range networkKeywords {
		if strings.Contains(lower, kw) {
			return NetworkPolicy{Enabled: true, OutboundPatterns: []string{"*"}}
		}
	}
	return NetworkPolicy{}
}

func detectPlaywright(compat string, packages []string) bool {
	for _, p := range packages {
		if strings.TrimSpace(strings.ToLower(p)) == "playwright" {
			return true
		}
	}
	return strings.Contains(strings.ToLower(compat), "playwright")
}

var entryCandidateExts = []string{".py", ".js", ".ts", ".sh"}

// detectEntryPoint auto-detects the entry point among scripts/main.*, then
// scripts/index.*, then a lone script file, per spec.md §3.
func detectEntryPoint(dir string) string {
	scriptsDir := filepath.Join(dir, "scripts")
	info, err := os.Stat(scriptsDir)
	if err != nil || !info.IsDir() {
		return ""
	}

	for _, ext := range entryCandidateExts {
		candidate := filepath.Join(scriptsDir, "main"+ext)
		if fileExists(candidate) {
			return filepath.Join("scripts", "main"+ext)
		}
	}
	for _, ext := range entryCandidateExts {
		candidate := filepath.Join(scriptsDir, "index"+ext)
		if fileExists(candidate) {
			return filepath.Join("scripts", "index"+ext)
		}
	}

	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		return ""
	}
	var lone string
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if !extInList(ext) {
			continue
		}
		if strings.HasPrefix(name, "test_") || strings.HasSuffix(name, "_test.py") || name == "__init__.py" {
			continue
		}
		count++
		lone = filepath.Join("scripts", name)
	}
	if count == 1 {
		return lone
	}
	return ""
}

func extInList(ext string) bool {
	for _, c := range entryCandidateExts {
		if ext == c {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
