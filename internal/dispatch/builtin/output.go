package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/skilllite/skilllite/internal/tool"
)

// WriteOutputTool writes a file into the skill's dedicated output
// directory only — unlike write_file, it never touches the workspace, so
// a skill producing deliverables cannot also overwrite workspace sources.
type WriteOutputTool struct{ outputDir string }

func NewWriteOutputTool(outputDir string) *WriteOutputTool { return &WriteOutputTool{outputDir: outputDir} }

func (t *WriteOutputTool) Name() string        { return "write_output" }
func (t *WriteOutputTool) Description() string { return "Write a file into the skill's output directory." }
func (t *WriteOutputTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "path", Type: "string", Description: "path relative to the output directory", Required: true},
		tool.SchemaParam{Name: "content", Type: "string", Description: "content to write", Required: true},
	)
}
func (t *WriteOutputTool) Init(context.Context) error { return nil }
func (t *WriteOutputTool) Close() error                { return nil }

func (t *WriteOutputTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a writeFileArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if len(a.Content) > maxWriteBytes {
		return tool.ToolResult{Error: fmt.Sprintf("content too large (%d bytes), max %d", len(a.Content), maxWriteBytes)}, nil
	}

	resolved, err := resolveWithinRoot(a.Path, t.outputDir)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("failed to create parent directory: %v", err)}, nil
	}
	if err := os.WriteFile(resolved, []byte(a.Content), 0o644); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("write failed: %v", err)}, nil
	}
	return tool.ToolResult{Output: fmt.Sprintf("written %d bytes to output/%s", len(a.Content), a.Path)}, nil
}

// ListOutputTool lists everything a skill has produced in its output
// directory so far, recursively.
type ListOutputTool struct{ outputDir string }

func NewListOutputTool(outputDir string) *ListOutputTool { return &ListOutputTool{outputDir: outputDir} }

func (t *ListOutputTool) Name() string        { return "list_output" }
func (t *ListOutputTool) Description() string { return "List files produced so far in the output directory." }
func (t *ListOutputTool) InputSchema() json.RawMessage {
	return tool.BuildSchema()
}
func (t *ListOutputTool) Init(context.Context) error { return nil }
func (t *ListOutputTool) Close() error                { return nil }

func (t *ListOutputTool) Execute(context.Context, json.RawMessage) (tool.ToolResult, error) {
	var paths []string
	err := filepath.WalkDir(t.outputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(t.outputDir, path)
		if relErr != nil {
			rel = path
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return tool.ToolResult{Output: "(no output yet)"}, nil
	}
	if len(paths) == 0 {
		return tool.ToolResult{Output: "(no output yet)"}, nil
	}
	return tool.ToolResult{Output: strings.Join(paths, "\n")}, nil
}

// readOutputFile opens an output artifact for streaming, resolved within
// outputDir, without going through the json-string Execute path.
func readOutputFile(outputDir, relPath string) (io.ReadCloser, error) {
	resolved, err := resolveWithinRoot(relPath, outputDir)
	if err != nil {
		return nil, err
	}
	return os.Open(resolved)
}
