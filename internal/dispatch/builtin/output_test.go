package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteOutputTool_NeverFallsBackToWorkspace(t *testing.T) {
	ws := t.TempDir()
	out := t.TempDir()
	writeTestFile(t, ws, "source.txt", "original")

	tool := NewWriteOutputTool(out)
	args, _ := json.Marshal(writeFileArgs{Path: "source.txt", Content: "overwritten"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	wsData, _ := os.ReadFile(filepath.Join(ws, "source.txt"))
	if string(wsData) != "original" {
		t.Fatal("write_output must never touch the workspace")
	}
	outData, _ := os.ReadFile(filepath.Join(out, "source.txt"))
	if string(outData) != "overwritten" {
		t.Errorf("got %q", outData)
	}
}

func TestListOutputTool_EmptyAndPopulated(t *testing.T) {
	out := t.TempDir()
	tool := NewListOutputTool(out)

	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if result.Output != "(no output yet)" {
		t.Errorf("got %q", result.Output)
	}

	writeTestFile(t, out, "report.md", "# done")
	result, err = tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if result.Output != "report.md" {
		t.Errorf("got %q", result.Output)
	}
}
