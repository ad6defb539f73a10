package mcpcompat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skilllite/skilllite/internal/tool"
)

// toolTimeout caps one remote tool call so a hung MCP server can't consume
// the agent loop's whole iteration budget.
const toolTimeout = 60 * time.Second

// ToolAdapter bridges a remote MCP tool to tool.Tool, making it
// indistinguishable from a native skill operation to the dispatcher.
//
// Naming convention: mcp_<serverName>__<toolName> — the double underscore
// cannot appear inside a valid server or tool name, so it can't collide
// with a name that itself contains single underscores.
type ToolAdapter struct {
	serverName string
	info       ToolInfo
	client     *Client // nil for per_call lifecycle; Execute rebuilds a connection
	cfg        ServerConfig
	lifecycle  string
}

func NewToolAdapter(serverName string, info ToolInfo, client *Client, cfg ServerConfig) *ToolAdapter {
	lc := cfg.Lifecycle
	if lc == "" {
		lc = "persistent"
	}
	return &ToolAdapter{serverName: serverName, info: info, client: client, cfg: cfg, lifecycle: lc}
}

func (a *ToolAdapter) Name() string {
	return fmt.Sprintf("mcp_%s__%s", a.serverName, a.info.Name)
}

func (a *ToolAdapter) Description() string { return a.info.Description }

func (a *ToolAdapter) InputSchema() json.RawMessage {
	if len(a.info.InputSchema) == 0 {
		return tool.BuildSchema()
	}
	return a.info.InputSchema
}

// Execute deserialises args and delegates to the remote server. Both
// infrastructure failures and server-reported tool errors come back as
// ToolResult.Error (nil Go error) so the agent loop can react and retry
// rather than terminating the turn.
func (a *ToolAdapter) Execute(ctx context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var params map[string]any
	if len(args) > 0 && string(args) != "null" {
		if err := json.Unmarshal(args, &params); err != nil {
			return tool.ToolResult{Error: fmt.Sprintf("mcpcompat: parse args for %q: %v", a.Name(), err)}, nil
		}
	}

	if a.lifecycle == "per_call" {
		return a.executePerCall(ctx, params)
	}
	return a.executePersistent(ctx, params)
}

func (a *ToolAdapter) executePersistent(ctx context.Context, params map[string]any) (tool.ToolResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()
	text, err := a.client.CallTool(callCtx, a.info.Name, params)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: text}, nil
}

func (a *ToolAdapter) executePerCall(ctx context.Context, params map[string]any) (tool.ToolResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()
	c := NewClient(a.cfg)
	if err := c.Connect(callCtx); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("mcpcompat: per_call connect to %q: %v", a.cfg.Name, err)}, nil
	}
	defer c.Close()

	text, err := c.CallTool(callCtx, a.info.Name, params)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: text}, nil
}

// Init satisfies tool.Tool. Connections are managed by Manager, not per
// adapter.
func (a *ToolAdapter) Init(context.Context) error { return nil }

// Close satisfies tool.Tool. Persistent connections are owned by Manager;
// per_call adapters have nothing left open between calls.
func (a *ToolAdapter) Close() error { return nil }
