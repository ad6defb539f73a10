package builtin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

func TestPreviewServerTool_StartServeStop(t *testing.T) {
	ws := t.TempDir()
	writeTestFile(t, ws, "index.html", "<h1>hi</h1>")

	tool := NewPreviewServerTool(ws, t.TempDir())
	defer tool.Close()

	startArgs, _ := json.Marshal(previewServerArgs{Action: "start", Path: "."})
	result, err := tool.Execute(context.Background(), startArgs)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	addr := tool.addr
	if addr == "" {
		t.Fatal("expected an address to be recorded after start")
	}

	resp, err := http.Get("http://" + addr + "/index.html")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "<h1>hi</h1>" {
		t.Errorf("got %q", body)
	}

	stopArgs, _ := json.Marshal(previewServerArgs{Action: "stop"})
	result, err = tool.Execute(context.Background(), stopArgs)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected stop error: %s", result.Error)
	}
}

func TestPreviewServerTool_RejectsDoubleStart(t *testing.T) {
	ws := t.TempDir()
	tool := NewPreviewServerTool(ws, t.TempDir())
	defer tool.Close()

	startArgs, _ := json.Marshal(previewServerArgs{Action: "start", Path: "."})
	if _, err := tool.Execute(context.Background(), startArgs); err != nil {
		t.Fatal(err)
	}
	result, err := tool.Execute(context.Background(), startArgs)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error == "" {
		t.Fatal("expected an error starting a second server while one is running")
	}
}

func TestPreviewServerTool_StopWithoutStart(t *testing.T) {
	tool := NewPreviewServerTool(t.TempDir(), t.TempDir())
	stopArgs, _ := json.Marshal(previewServerArgs{Action: "stop"})
	result, err := tool.Execute(context.Background(), stopArgs)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error == "" {
		t.Fatal("expected an error stopping a server that was never started")
	}
}
