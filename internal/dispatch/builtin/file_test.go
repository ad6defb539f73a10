package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestReadFileTool(t *testing.T) {
	ws := t.TempDir()
	writeTestFile(t, ws, "hello.txt", "hello world")

	tool := NewReadFileTool(ws, t.TempDir())
	args, _ := json.Marshal(pathArgs{Path: "hello.txt"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Output != "hello world" {
		t.Errorf("got %q", result.Output)
	}
}

func TestReadFileTool_RejectsDirectory(t *testing.T) {
	ws := t.TempDir()
	if err := os.Mkdir(filepath.Join(ws, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	tool := NewReadFileTool(ws, t.TempDir())
	args, _ := json.Marshal(pathArgs{Path: "sub"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error == "" {
		t.Fatal("expected an error reading a directory")
	}
}

func TestWriteFileTool_BlocksSensitiveSuffix(t *testing.T) {
	ws := t.TempDir()
	tool := NewWriteFileTool(ws, t.TempDir())
	args, _ := json.Marshal(writeFileArgs{Path: "secrets.pem", Content: "x"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error == "" {
		t.Fatal("expected write to .pem to be blocked")
	}
	if _, err := os.Stat(filepath.Join(ws, "secrets.pem")); err == nil {
		t.Fatal("blocked write must not create the file")
	}
}

func TestWriteFileTool_AppendAndOverwrite(t *testing.T) {
	ws := t.TempDir()
	tool := NewWriteFileTool(ws, t.TempDir())

	args, _ := json.Marshal(writeFileArgs{Path: "log.txt", Content: "a\n"})
	if _, err := tool.Execute(context.Background(), args); err != nil {
		t.Fatal(err)
	}
	args, _ = json.Marshal(writeFileArgs{Path: "log.txt", Content: "b\n", Append: true})
	if _, err := tool.Execute(context.Background(), args); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(filepath.Join(ws, "log.txt"))
	if string(data) != "a\nb\n" {
		t.Errorf("got %q", data)
	}
}

func TestListDirectoryTool(t *testing.T) {
	ws := t.TempDir()
	writeTestFile(t, ws, "a.txt", "x")
	if err := os.Mkdir(filepath.Join(ws, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	tool := NewListDirectoryTool(ws, t.TempDir())
	args, _ := json.Marshal(pathArgs{Path: "."})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Output == "" {
		t.Fatal("expected non-empty listing")
	}
}

func TestFileExistsTool(t *testing.T) {
	ws := t.TempDir()
	writeTestFile(t, ws, "present.txt", "x")

	tool := NewFileExistsTool(ws, t.TempDir())

	args, _ := json.Marshal(pathArgs{Path: "present.txt"})
	result, _ := tool.Execute(context.Background(), args)
	if result.Output != "true (file)" {
		t.Errorf("got %q", result.Output)
	}

	args, _ = json.Marshal(pathArgs{Path: "missing.txt"})
	result, _ = tool.Execute(context.Background(), args)
	if result.Output != "false" {
		t.Errorf("got %q", result.Output)
	}
}

func TestFileExistsTool_FallsBackToOutputRoot(t *testing.T) {
	ws := t.TempDir()
	out := t.TempDir()
	writeTestFile(t, out, "artifact.txt", "x")

	tool := NewFileExistsTool(ws, out)
	args, _ := json.Marshal(pathArgs{Path: "artifact.txt"})
	result, _ := tool.Execute(context.Background(), args)
	if result.Output != "true (file)" {
		t.Errorf("expected fallback to output root to find the file, got %q", result.Output)
	}
}
