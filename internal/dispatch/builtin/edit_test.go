package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRoots(t *testing.T) pathRoots {
	t.Helper()
	ws := t.TempDir()
	out := t.TempDir()
	backup := t.TempDir()
	return pathRoots{workspaceDir: ws, outputDir: out, backupDir: backup}
}

func TestSearchReplaceTool_UniqueMatchRequired(t *testing.T) {
	roots := newTestRoots(t)
	writeTestFile(t, roots.workspaceDir, "dup.txt", "foo\nfoo\n")

	tool := &SearchReplaceTool{roots: roots}
	args, _ := json.Marshal(searchReplaceArgs{Path: "dup.txt", OldString: "foo", NewString: "bar"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error == "" {
		t.Fatal("expected an error for a non-unique match without replace_all")
	}
}

func TestSearchReplaceTool_ReplaceAll(t *testing.T) {
	roots := newTestRoots(t)
	path := writeTestFile(t, roots.workspaceDir, "dup.txt", "foo\nfoo\n")

	tool := &SearchReplaceTool{roots: roots}
	args, _ := json.Marshal(searchReplaceArgs{Path: "dup.txt", OldString: "foo", NewString: "bar", ReplaceAll: true})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "bar\nbar\n" {
		t.Errorf("got %q", data)
	}
}

func TestSearchReplaceTool_FuzzyFallback(t *testing.T) {
	roots := newTestRoots(t)
	path := writeTestFile(t, roots.workspaceDir, "f.go", "func main() {\n    println(\"hi\")\n}\n")

	tool := &SearchReplaceTool{roots: roots}
	args, _ := json.Marshal(searchReplaceArgs{
		Path:      "f.go",
		OldString: "func main() {\n\tprintln(\"hi\")\n}",
		NewString: "func main() {\n    println(\"bye\")\n}",
	})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error != "" {
		t.Fatalf("expected fuzzy fallback to succeed, got error: %s", result.Error)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "func main() {\n    println(\"bye\")\n}\n" {
		t.Errorf("got %q", data)
	}
}

func TestSearchReplaceTool_BlocksSensitivePath(t *testing.T) {
	roots := newTestRoots(t)
	writeTestFile(t, roots.workspaceDir, ".env", "SECRET=1")

	tool := &SearchReplaceTool{roots: roots}
	args, _ := json.Marshal(searchReplaceArgs{Path: ".env", OldString: "SECRET=1", NewString: "SECRET=2"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error == "" {
		t.Fatal("expected .env edit to be blocked")
	}
}

func TestPreviewEditTool_DoesNotWrite(t *testing.T) {
	roots := newTestRoots(t)
	path := writeTestFile(t, roots.workspaceDir, "f.txt", "hello world\n")

	tool := NewPreviewEditTool(roots.workspaceDir, roots.outputDir, roots.backupDir)
	args, _ := json.Marshal(searchReplaceArgs{Path: "f.txt", OldString: "hello", NewString: "goodbye"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "hello world\n" {
		t.Errorf("preview_edit must not modify the file, got %q", data)
	}
}

func TestInsertLinesTool_AutoIndent(t *testing.T) {
	roots := newTestRoots(t)
	path := writeTestFile(t, roots.workspaceDir, "f.py", "def f():\n    return 1\n")

	tool := &InsertLinesTool{roots: roots}
	args, _ := json.Marshal(insertLinesArgs{Path: "f.py", Line: 2, Content: "print(\"hi\")"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	data, _ := os.ReadFile(path)
	want := "def f():\n    return 1\n    print(\"hi\")\n"
	if string(data) != want {
		t.Errorf("got %q, want %q", data, want)
	}
}

func TestInsertLinesTool_RejectsBeyondEOF(t *testing.T) {
	roots := newTestRoots(t)
	writeTestFile(t, roots.workspaceDir, "f.txt", "one\ntwo\n")

	tool := &InsertLinesTool{roots: roots}
	args, _ := json.Marshal(insertLinesArgs{Path: "f.txt", Line: 99, Content: "x"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error == "" {
		t.Fatal("expected an error for an out-of-range line")
	}
}

func TestBackupBeforeEdit_CreatesCopy(t *testing.T) {
	roots := newTestRoots(t)
	path := writeTestFile(t, roots.workspaceDir, "dup.txt", "foo\n")

	tool := &SearchReplaceTool{roots: roots}
	args, _ := json.Marshal(searchReplaceArgs{Path: "dup.txt", OldString: "foo", NewString: "bar"})
	if _, err := tool.Execute(context.Background(), args); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(roots.backupDir)
	if err != nil || len(entries) == 0 {
		t.Fatalf("expected a backup to be created, entries=%v err=%v", entries, err)
	}
	_ = path
}
