package mcpcompat

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func configForTest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mcp.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_NameFromKey(t *testing.T) {
	path := configForTest(t, `{
		"mcpServers": {
			"my-server": {
				"transport": "stdio",
				"command": "python3",
				"args": ["skills/tool.py"]
			}
		}
	}`)

	configs, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg, ok := configs["my-server"]
	if !ok {
		t.Fatal("expected server 'my-server' in config")
	}
	if cfg.Name != "my-server" {
		t.Errorf("Name = %q, want %q", cfg.Name, "my-server")
	}
	if cfg.Transport != "stdio" {
		t.Errorf("Transport = %q, want stdio", cfg.Transport)
	}
	if cfg.Command != "python3" {
		t.Errorf("Command = %q, want python3", cfg.Command)
	}
}

func TestLoadConfig_Empty(t *testing.T) {
	path := configForTest(t, `{"mcpServers": {}}`)
	configs, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(configs) != 0 {
		t.Errorf("expected empty config map, got %d entries", len(configs))
	}
}

func TestLoadConfig_MissingMCPServersKey(t *testing.T) {
	path := configForTest(t, `{}`)
	configs, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if configs == nil || len(configs) != 0 {
		t.Errorf("expected empty non-nil config map, got %v", configs)
	}
}

func TestLoadConfig_Lifecycle(t *testing.T) {
	path := configForTest(t, `{
		"mcpServers": {
			"probe": {"transport": "stdio", "command": "echo", "lifecycle": "per_call"}
		}
	}`)
	configs, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if configs["probe"].Lifecycle != "per_call" {
		t.Errorf("Lifecycle = %q, want per_call", configs["probe"].Lifecycle)
	}
}

func TestLoadConfig_UnreadableFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestClient_CallTool_NotConnected(t *testing.T) {
	c := NewClient(ServerConfig{Name: "svc"})
	if _, err := c.CallTool(context.Background(), "x", nil); err == nil {
		t.Error("expected an error calling a tool before Connect")
	}
}

func TestClient_ListTools_NotConnected(t *testing.T) {
	c := NewClient(ServerConfig{Name: "svc"})
	if _, err := c.ListTools(context.Background()); err == nil {
		t.Error("expected an error listing tools before Connect")
	}
}

func TestClient_Close_NeverConnected(t *testing.T) {
	c := NewClient(ServerConfig{Name: "svc"})
	if err := c.Close(); err != nil {
		t.Errorf("Close on a never-connected client should be a no-op, got %v", err)
	}
}
