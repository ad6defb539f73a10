package mcpcompat

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/skilllite/skilllite/internal/tool"
)

// Manager owns the lifecycle of every configured remote MCP server
// connection and is the single source of truth for which servers are
// active and which adapters are registered in a tool.Registry.
//
// State changes are guarded by mu; all network I/O happens outside the
// lock so a slow or hung server can't block an unrelated Manager call
// (in particular CloseAll during shutdown).
type Manager struct {
	configPath string

	mu               sync.Mutex
	configs          map[string]ServerConfig
	clients          map[string]*Client    // nil entry for a per_call server
	perCallToolInfos map[string][]ToolInfo // tool discovery cache, consumed by RegisterTools
}

func NewManager(configPath string) *Manager {
	return &Manager{
		configPath:       configPath,
		configs:          make(map[string]ServerConfig),
		clients:          make(map[string]*Client),
		perCallToolInfos: make(map[string][]ToolInfo),
	}
}

// ConnectAll loads the config file and connects to every configured
// server. per_call servers are connected only long enough to discover
// their tools, then disconnected immediately — Execute rebuilds the
// connection per invocation. Per-server failures are collected rather
// than aborting the whole batch.
func (m *Manager) ConnectAll(ctx context.Context) (int, []error) {
	configs, err := LoadConfig(m.configPath)
	if err != nil {
		return 0, []error{fmt.Errorf("mcpcompat: load config: %w", err)}
	}

	type connResult struct {
		name  string
		cfg   ServerConfig
		cli   *Client
		tools []ToolInfo
		err   error
	}
	results := make([]connResult, 0, len(configs))
	for name, cfg := range configs {
		if cfg.Lifecycle == "per_call" {
			tmp := NewClient(cfg)
			if err := tmp.Connect(ctx); err != nil {
				results = append(results, connResult{name: name, err: err})
				log.Printf("[mcpcompat] per_call probe failed: %s: %v", name, err)
				continue
			}
			tools, err := tmp.ListTools(ctx)
			_ = tmp.Close()
			if err != nil {
				results = append(results, connResult{name: name, err: err})
				log.Printf("[mcpcompat] per_call list tools failed: %s: %v", name, err)
				continue
			}
			results = append(results, connResult{name: name, cfg: cfg, tools: tools})
			log.Printf("[mcpcompat] per_call discovered: %s (%d tool(s))", name, len(tools))
		} else {
			cli := NewClient(cfg)
			if err := cli.Connect(ctx); err != nil {
				results = append(results, connResult{name: name, err: err})
				log.Printf("[mcpcompat] connect failed: %s: %v", name, err)
			} else {
				results = append(results, connResult{name: name, cfg: cfg, cli: cli})
				log.Printf("[mcpcompat] connected: %s (%s)", name, cfg.Transport)
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	connected := 0
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("server %q: %w", r.name, r.err))
			continue
		}
		m.clients[r.name] = r.cli
		m.configs[r.name] = r.cfg
		if r.cli == nil && len(r.tools) > 0 {
			m.perCallToolInfos[r.name] = r.tools
		}
		connected++
	}
	return connected, errs
}

// RegisterTools lists tools from every connected server and registers a
// ToolAdapter per tool in registry. per_call servers consume the tool
// list ConnectAll already cached, avoiding a redundant round-trip.
func (m *Manager) RegisterTools(ctx context.Context, registry *tool.Registry) error {
	m.mu.Lock()
	snap := make(map[string]*Client, len(m.clients))
	cfgSnap := make(map[string]ServerConfig, len(m.configs))
	for name, cli := range m.clients {
		snap[name] = cli
		cfgSnap[name] = m.configs[name]
	}
	m.mu.Unlock()

	type fetchResult struct {
		name  string
		cfg   ServerConfig
		tools []ToolInfo
		err   error
	}
	results := make([]fetchResult, 0, len(snap))
	for name, cli := range snap {
		cfg := cfgSnap[name]
		if cli == nil {
			m.mu.Lock()
			cached := m.perCallToolInfos[name]
			delete(m.perCallToolInfos, name)
			m.mu.Unlock()
			results = append(results, fetchResult{name: name, cfg: cfg, tools: cached})
			continue
		}
		tools, err := cli.ListTools(ctx)
		results = append(results, fetchResult{name: name, cfg: cfg, tools: tools, err: err})
	}

	for _, r := range results {
		if r.err != nil {
			return fmt.Errorf("mcpcompat: list tools for %q: %w", r.name, r.err)
		}
		for _, ti := range r.tools {
			registry.Register(NewToolAdapter(r.name, ti, snap[r.name], r.cfg))
		}
		log.Printf("[mcpcompat] registered %d tool(s) from server %q", len(r.tools), r.name)
	}
	return nil
}

// CloseAll closes every persistent connection. per_call servers have
// nothing left open between calls.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.mu.Unlock()
	for name, cli := range clients {
		if cli == nil {
			continue
		}
		if err := cli.Close(); err != nil {
			log.Printf("[mcpcompat] close %q: %v", name, err)
		}
	}
}
