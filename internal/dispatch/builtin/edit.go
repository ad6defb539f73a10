package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/skilllite/skilllite/internal/tool"
)

type pathRoots struct {
	workspaceDir string
	outputDir    string
	backupDir    string
}

// resolve prefers the workspace root; a path that escapes the workspace, or
// that does not exist there but does exist under the output root, resolves
// against the output root instead.
func (p pathRoots) resolve(path string) (string, error) {
	resolved, err := resolveWithinRoot(path, p.workspaceDir)
	if err != nil {
		return resolveWithinRoot(path, p.outputDir)
	}
	if _, statErr := os.Stat(resolved); statErr != nil && p.outputDir != "" {
		if alt, altErr := resolveWithinRoot(path, p.outputDir); altErr == nil {
			if _, altStat := os.Stat(alt); altStat == nil {
				return alt, nil
			}
		}
	}
	return resolved, nil
}

// SearchReplaceTool implements both search_replace and preview_edit — the
// latter is the former with dryRun forced true (original_source's
// execute_replace_like split, spec.md §4.7).
type SearchReplaceTool struct {
	roots  pathRoots
	dryRun bool
}

func NewSearchReplaceTool(workspaceDir, outputDir, backupDir string) *SearchReplaceTool {
	return &SearchReplaceTool{roots: pathRoots{workspaceDir, outputDir, backupDir}}
}

func NewPreviewEditTool(workspaceDir, outputDir, backupDir string) *SearchReplaceTool {
	return &SearchReplaceTool{roots: pathRoots{workspaceDir, outputDir, backupDir}, dryRun: true}
}

func (t *SearchReplaceTool) Name() string {
	if t.dryRun {
		return "preview_edit"
	}
	return "search_replace"
}

func (t *SearchReplaceTool) Description() string {
	if t.dryRun {
		return "Dry-run a search_replace without writing the file; returns the same diff preview."
	}
	return "Replace old_string with new_string in a file. Requires a unique match unless replace_all is set; falls back through whitespace/blank-line/similarity fuzzy matching when no exact match exists."
}

func (t *SearchReplaceTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "path", Type: "string", Description: "file path relative to the workspace or output directory", Required: true},
		tool.SchemaParam{Name: "old_string", Type: "string", Description: "text to replace", Required: true},
		tool.SchemaParam{Name: "new_string", Type: "string", Description: "replacement text", Required: true},
		tool.SchemaParam{Name: "replace_all", Type: "boolean", Description: "replace every occurrence instead of requiring uniqueness"},
	)
}

func (t *SearchReplaceTool) Init(context.Context) error { return nil }
func (t *SearchReplaceTool) Close() error                { return nil }

type searchReplaceArgs struct {
	Path       string `json:"path"`
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
}

func (t *SearchReplaceTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a searchReplaceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if a.OldString == "" {
		return tool.ToolResult{Error: "old_string cannot be empty"}, nil
	}
	if isSensitiveWritePath(a.Path) {
		return tool.ToolResult{Error: fmt.Sprintf("blocked: editing sensitive file %q is not allowed", a.Path)}, nil
	}

	resolved, err := t.roots.resolve(a.Path)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("file not found: %s", a.Path)}, nil
	}
	if info.IsDir() {
		return tool.ToolResult{Error: fmt.Sprintf("path is a directory, not a file: %s", a.Path)}, nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("failed to read file: %v", err)}, nil
	}
	content := string(data)

	matchType, total, replaced, start, matchLen, newContent, err := replaceContent(content, a.OldString, a.NewString, a.ReplaceAll)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	if newContent == content {
		return tool.ToolResult{Error: "no changes were made: replacement produced identical content"}, nil
	}

	firstChangedLine := strings.Count(content[:start], "\n") + 1
	oldExcerpt := safeExcerpt(content, start, matchLen)
	newExcerpt := safeExcerpt(newContent, start, len(a.NewString))
	diffExcerpt := fmt.Sprintf("- %s\n+ %s", oldExcerpt, newExcerpt)

	var backup, warning string
	if !t.dryRun {
		if b, err := backupBeforeEdit(resolved, t.roots.backupDir); err == nil {
			backup = b
		}
		if err := os.WriteFile(resolved, []byte(newContent), info.Mode()); err != nil {
			return tool.ToolResult{Error: fmt.Sprintf("failed to write file: %v", err)}, nil
		}
		warning = validateSyntax(resolved, newContent)
	}

	result := map[string]any{
		"path":                a.Path,
		"match_type":          matchType,
		"occurrences":         replaced,
		"total_occurrences":   total,
		"first_changed_line":  firstChangedLine,
		"diff_excerpt":        diffExcerpt,
		"backup":              backup,
		"validation_warning":  warning,
	}
	encoded, _ := json.MarshalIndent(result, "", "  ")

	verb := "Replaced"
	if t.dryRun {
		verb = "Would replace"
	}
	return tool.ToolResult{Output: fmt.Sprintf("%s %d occurrence(s) in %s\n%s", verb, replaced, a.Path, encoded)}, nil
}

// replaceContent runs the exact match → fuzzy fallback ladder and returns
// (matchType, totalOccurrences, replacedOccurrences, firstMatchStart,
// firstMatchLen, newContent).
func replaceContent(content, old, newStr string, replaceAll bool) (string, int, int, int, int, string, error) {
	exactCount := strings.Count(content, old)
	if exactCount > 0 {
		if !replaceAll && exactCount > 1 {
			return "", 0, 0, 0, 0, "", fmt.Errorf("found %d occurrences of old_string; search_replace requires a unique match by default — add more context or set replace_all=true", exactCount)
		}
		first := strings.Index(content, old)
		var newContent string
		replaced := 1
		if replaceAll {
			newContent = strings.ReplaceAll(content, old, newStr)
			replaced = exactCount
		} else {
			newContent = strings.Replace(content, old, newStr, 1)
		}
		return "exact", exactCount, replaced, first, len(old), newContent, nil
	}

	if replaceAll {
		return "", 0, 0, 0, 0, "", fmt.Errorf("old_string not found in file; ensure it matches exactly (including whitespace and newlines)")
	}

	match := fuzzyFind(content, old)
	if match == nil {
		hint := buildFailureHint(content, old)
		return "", 0, 0, 0, 0, "", fmt.Errorf("old_string not found in file (tried exact + fuzzy matching).\n\n%s\n\ntip: copy the exact text from above into old_string, or use insert_lines with a line number", hint)
	}
	newContent := content[:match.start] + newStr + content[match.end:]
	return match.matchType, 1, 1, match.start, match.end - match.start, newContent, nil
}

func safeExcerpt(content string, start, spanLen int) string {
	const prefix, suffix, maxLen = 80, 80, 200
	begin := start - prefix
	if begin < 0 {
		begin = 0
	}
	end := start + spanLen + suffix
	if end > len(content) {
		end = len(content)
	}
	for begin > 0 && !isUTF8Boundary(content, begin) {
		begin--
	}
	for end < len(content) && !isUTF8Boundary(content, end) {
		end++
	}
	excerpt := strings.ReplaceAll(content[begin:end], "\n", "\\n")
	if len(excerpt) > maxLen {
		excerpt = excerpt[:maxLen] + "..."
	}
	return excerpt
}

func isUTF8Boundary(s string, idx int) bool {
	if idx == 0 || idx == len(s) {
		return true
	}
	return s[idx]&0xC0 != 0x80
}

// InsertLinesTool inserts content after a given line number, auto-indenting
// to match the surrounding block when the inserted text has none of its own.
type InsertLinesTool struct {
	roots pathRoots
}

func NewInsertLinesTool(workspaceDir, outputDir, backupDir string) *InsertLinesTool {
	return &InsertLinesTool{roots: pathRoots{workspaceDir, outputDir, backupDir}}
}

func (t *InsertLinesTool) Name() string { return "insert_lines" }
func (t *InsertLinesTool) Description() string {
	return "Insert content after the given line number (0 = beginning of file), auto-indenting to match the surrounding block."
}

func (t *InsertLinesTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "path", Type: "string", Description: "file path", Required: true},
		tool.SchemaParam{Name: "line", Type: "integer", Description: "line number to insert after (0 = start of file)", Required: true},
		tool.SchemaParam{Name: "content", Type: "string", Description: "text to insert", Required: true},
	)
}

func (t *InsertLinesTool) Init(context.Context) error { return nil }
func (t *InsertLinesTool) Close() error                { return nil }

type insertLinesArgs struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

func (t *InsertLinesTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a insertLinesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if a.Line < 0 {
		return tool.ToolResult{Error: "line must be >= 0"}, nil
	}
	if isSensitiveWritePath(a.Path) {
		return tool.ToolResult{Error: fmt.Sprintf("blocked: editing sensitive file %q is not allowed", a.Path)}, nil
	}

	resolved, err := t.roots.resolve(a.Path)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("file not found: %s", a.Path)}, nil
	}
	content := string(data)
	lines := splitContentLines(content)
	total := len(lines)
	if a.Line > total {
		return tool.ToolResult{Error: fmt.Sprintf("line %d is beyond end of file (%d lines)", a.Line, total)}, nil
	}

	offsets := lineByteOffsets(content)
	insertAt := 0
	if a.Line > 0 {
		if a.Line < len(offsets) {
			insertAt = offsets[a.Line]
		} else {
			insertAt = len(content)
		}
	}
	needsPrecedingNewline := a.Line > 0 && insertAt == len(content) && content != "" && !strings.HasSuffix(content, "\n")

	effective := a.Content
	if indented := autoIndent(a.Content, lines, a.Line); indented != "" {
		effective = indented
	}
	insertText := effective
	if !strings.HasSuffix(insertText, "\n") {
		insertText += "\n"
	}

	var newContent string
	if needsPrecedingNewline {
		newContent = content[:insertAt] + "\n" + insertText + content[insertAt:]
	} else {
		newContent = content[:insertAt] + insertText + content[insertAt:]
	}

	backup, err := backupBeforeEdit(resolved, t.roots.backupDir)
	if err != nil {
		backup = ""
	}
	info, _ := os.Stat(resolved)
	mode := os.FileMode(0o644)
	if info != nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(resolved, []byte(newContent), mode); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("failed to write file: %v", err)}, nil
	}
	warning := validateSyntax(resolved, newContent)

	insertedLines := len(strings.Split(a.Content, "\n"))
	if insertedLines < 1 {
		insertedLines = 1
	}
	result := map[string]any{
		"path":               a.Path,
		"inserted_after_line": a.Line,
		"lines_inserted":      insertedLines,
		"new_total_lines":     total + insertedLines,
		"backup":              backup,
		"validation_warning":  warning,
	}
	encoded, _ := json.MarshalIndent(result, "", "  ")
	return tool.ToolResult{Output: fmt.Sprintf("Inserted %d line(s) after line %d in %s\n%s", insertedLines, a.Line, a.Path, encoded)}, nil
}

// autoIndent matches insert content to the indentation of the line it lands
// next to, when the content itself has none. Returns "" when no adjustment
// is needed.
func autoIndent(content string, lines []string, afterLine int) string {
	var refLine string
	switch {
	case afterLine < len(lines):
		refLine = lines[afterLine]
	case afterLine > 0:
		refLine = lines[afterLine-1]
	case len(lines) > 0:
		refLine = lines[0]
	default:
		return ""
	}

	indent := detectIndentation(refLine)
	if indent == "" {
		return ""
	}

	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if strings.HasPrefix(l, " ") || strings.HasPrefix(l, "\t") {
			return "" // already indented
		}
	}

	contentLines := strings.Split(content, "\n")
	for i, l := range contentLines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		contentLines[i] = indent + l
	}
	return strings.Join(contentLines, "\n")
}

func detectIndentation(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	return line[:len(line)-len(trimmed)]
}
