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

const (
	maxReadBytes  = 5 << 20
	maxWriteBytes = 5 << 20
)

// ReadFileTool reads a file from the workspace or the skill's dedicated
// output directory — grounded in internal/tool/builtin/file.go's
// FileReadTool (open-then-stat to avoid a TOCTOU race, size cap).
type ReadFileTool struct{ roots pathRoots }

func NewReadFileTool(workspaceDir, outputDir string) *ReadFileTool {
	return &ReadFileTool{roots: pathRoots{workspaceDir: workspaceDir, outputDir: outputDir}}
}

func (t *ReadFileTool) Name() string        { return "read_file" }
func (t *ReadFileTool) Description() string { return "Read the contents of a file." }
func (t *ReadFileTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(tool.SchemaParam{Name: "path", Type: "string", Description: "file path", Required: true})
}
func (t *ReadFileTool) Init(context.Context) error { return nil }
func (t *ReadFileTool) Close() error                { return nil }

type pathArgs struct {
	Path string `json:"path"`
}

func (t *ReadFileTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}

	resolved, err := t.roots.resolve(a.Path)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}

	f, err := os.Open(resolved)
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("file not found: %s", a.Path)}, nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("stat failed: %v", err)}, nil
	}
	if info.IsDir() {
		return tool.ToolResult{Error: "path is a directory, use list_directory"}, nil
	}
	if info.Size() > maxReadBytes {
		return tool.ToolResult{Error: fmt.Sprintf("file too large (%d bytes), max %d", info.Size(), maxReadBytes)}, nil
	}

	data, err := io.ReadAll(io.LimitReader(f, maxReadBytes))
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("read failed: %v", err)}, nil
	}
	return tool.ToolResult{Output: string(data)}, nil
}

// WriteFileTool writes (or appends to) a file inside the workspace or
// output directory, refusing sensitive-suffix targets.
type WriteFileTool struct{ roots pathRoots }

func NewWriteFileTool(workspaceDir, outputDir string) *WriteFileTool {
	return &WriteFileTool{roots: pathRoots{workspaceDir: workspaceDir, outputDir: outputDir}}
}

func (t *WriteFileTool) Name() string        { return "write_file" }
func (t *WriteFileTool) Description() string { return "Write (or append to) a file, creating parent directories as needed." }
func (t *WriteFileTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "path", Type: "string", Description: "file path", Required: true},
		tool.SchemaParam{Name: "content", Type: "string", Description: "content to write", Required: true},
		tool.SchemaParam{Name: "append", Type: "boolean", Description: "append instead of overwrite"},
	)
}
func (t *WriteFileTool) Init(context.Context) error { return nil }
func (t *WriteFileTool) Close() error                { return nil }

type writeFileArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Append  bool   `json:"append"`
}

func (t *WriteFileTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a writeFileArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if len(a.Content) > maxWriteBytes {
		return tool.ToolResult{Error: fmt.Sprintf("content too large (%d bytes), max %d", len(a.Content), maxWriteBytes)}, nil
	}
	if isSensitiveWritePath(a.Path) {
		return tool.ToolResult{Error: fmt.Sprintf("blocked: writing sensitive file %q is not allowed", a.Path)}, nil
	}

	resolved, err := t.roots.resolve(a.Path)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("failed to create parent directory: %v", err)}, nil
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if a.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(resolved, flags, 0o644)
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("write failed: %v", err)}, nil
	}
	defer f.Close()
	if _, err := io.WriteString(f, a.Content); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("write failed: %v", err)}, nil
	}

	verb := "written"
	if a.Append {
		verb = "appended"
	}
	return tool.ToolResult{Output: fmt.Sprintf("%s %d bytes to %s", verb, len(a.Content), a.Path)}, nil
}

// ListDirectoryTool lists entries under a workspace/output-relative path.
type ListDirectoryTool struct{ roots pathRoots }

func NewListDirectoryTool(workspaceDir, outputDir string) *ListDirectoryTool {
	return &ListDirectoryTool{roots: pathRoots{workspaceDir: workspaceDir, outputDir: outputDir}}
}

func (t *ListDirectoryTool) Name() string        { return "list_directory" }
func (t *ListDirectoryTool) Description() string { return "List files and subdirectories under a path." }
func (t *ListDirectoryTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(tool.SchemaParam{Name: "path", Type: "string", Description: "directory path", Required: true})
}
func (t *ListDirectoryTool) Init(context.Context) error { return nil }
func (t *ListDirectoryTool) Close() error                { return nil }

func (t *ListDirectoryTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}

	resolved, err := t.roots.resolve(a.Path)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("directory not found: %s", a.Path)}, nil
	}
	if len(entries) == 0 {
		return tool.ToolResult{Output: "(empty directory)"}, nil
	}

	var sb strings.Builder
	for _, e := range entries {
		marker := "f"
		size := ""
		if e.IsDir() {
			marker = "d"
		} else if info, err := e.Info(); err == nil {
			size = fmt.Sprintf(" (%d bytes)", info.Size())
		}
		fmt.Fprintf(&sb, "[%s] %s%s\n", marker, e.Name(), size)
	}
	return tool.ToolResult{Output: sb.String()}, nil
}

// FileExistsTool reports whether a path resolves to an existing file or
// directory inside the workspace/output roots.
type FileExistsTool struct{ roots pathRoots }

func NewFileExistsTool(workspaceDir, outputDir string) *FileExistsTool {
	return &FileExistsTool{roots: pathRoots{workspaceDir: workspaceDir, outputDir: outputDir}}
}

func (t *FileExistsTool) Name() string        { return "file_exists" }
func (t *FileExistsTool) Description() string { return "Check whether a path exists." }
func (t *FileExistsTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(tool.SchemaParam{Name: "path", Type: "string", Description: "path to check", Required: true})
}
func (t *FileExistsTool) Init(context.Context) error { return nil }
func (t *FileExistsTool) Close() error                { return nil }

func (t *FileExistsTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	resolved, err := t.roots.resolve(a.Path)
	if err != nil {
		return tool.ToolResult{Output: "false"}, nil
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return tool.ToolResult{Output: "false"}, nil
	}
	kind := "file"
	if info.IsDir() {
		kind = "directory"
	}
	return tool.ToolResult{Output: fmt.Sprintf("true (%s)", kind)}, nil
}
