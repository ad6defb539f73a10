package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/skilllite/skilllite/internal/tool"
)

// PreviewServerTool serves a directory (workspace or output) over local
// HTTP so a skill's generated artifacts (a built site, a report) can be
// viewed in a browser — grounded in internal/web/server.go's Server
// (localhost-default host, graceful shutdown), narrowed from a full app
// server down to a scoped static file server plus start/stop actions.
type PreviewServerTool struct {
	roots pathRoots

	mu     sync.Mutex
	srv    *http.Server
	addr   string
	rootAt string
}

func NewPreviewServerTool(workspaceDir, outputDir string) *PreviewServerTool {
	return &PreviewServerTool{roots: pathRoots{workspaceDir: workspaceDir, outputDir: outputDir}}
}

func (t *PreviewServerTool) Name() string { return "preview_server" }
func (t *PreviewServerTool) Description() string {
	return "Start or stop a local read-only HTTP server over a workspace/output directory."
}
func (t *PreviewServerTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "action", Type: "string", Description: "start or stop", Required: true, Enum: []string{"start", "stop"}},
		tool.SchemaParam{Name: "path", Type: "string", Description: "directory to serve, required for action=start"},
	)
}
func (t *PreviewServerTool) Init(context.Context) error { return nil }
func (t *PreviewServerTool) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopLocked()
}

type previewServerArgs struct {
	Action string `json:"action"`
	Path   string `json:"path"`
}

func (t *PreviewServerTool) Execute(ctx context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a previewServerArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}

	switch a.Action {
	case "start":
		return t.start(a.Path)
	case "stop":
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.srv == nil {
			return tool.ToolResult{Error: "no preview server running"}, nil
		}
		addr := t.addr
		if err := t.stopLocked(); err != nil {
			return tool.ToolResult{Error: fmt.Sprintf("shutdown failed: %v", err)}, nil
		}
		return tool.ToolResult{Output: fmt.Sprintf("stopped preview server at %s", addr)}, nil
	default:
		return tool.ToolResult{Error: fmt.Sprintf("unknown action %q, expected start or stop", a.Action)}, nil
	}
}

func (t *PreviewServerTool) start(path string) (tool.ToolResult, error) {
	if path == "" {
		path = "."
	}
	resolved, err := t.roots.resolve(path)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return tool.ToolResult{Error: fmt.Sprintf("not a directory: %s", path)}, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.srv != nil {
		return tool.ToolResult{Error: fmt.Sprintf("a preview server is already running at %s (rooted at %s); stop it first", t.addr, t.rootAt)}, nil
	}

	host := os.Getenv("WEB_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	ln, err := net.Listen("tcp", host+":0")
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("failed to bind listener: %v", err)}, nil
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(resolved)))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	addr := ln.Addr().String()
	t.srv = srv
	t.addr = addr
	t.rootAt = path

	go func() {
		_ = srv.Serve(ln)
	}()

	return tool.ToolResult{Output: fmt.Sprintf("preview server serving %s at http://%s/", path, addr)}, nil
}

// stopLocked requires t.mu held.
func (t *PreviewServerTool) stopLocked() error {
	if t.srv == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := t.srv.Shutdown(shutdownCtx)
	t.srv = nil
	t.addr = ""
	t.rootAt = ""
	return err
}
