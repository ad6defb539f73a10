package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/skilllite/skilllite/internal/agentloop"
	"github.com/skilllite/skilllite/internal/audit"
	"github.com/skilllite/skilllite/internal/dispatch"
	"github.com/skilllite/skilllite/internal/dispatch/builtin"
	"github.com/skilllite/skilllite/internal/envbuild"
	"github.com/skilllite/skilllite/internal/envconfig"
	"github.com/skilllite/skilllite/internal/llm"
	"github.com/skilllite/skilllite/internal/llm/openai"
	"github.com/skilllite/skilllite/internal/manifest"
	"github.com/skilllite/skilllite/internal/mcpcompat"
	"github.com/skilllite/skilllite/internal/rules"
	"github.com/skilllite/skilllite/internal/sandbox"
	"github.com/skilllite/skilllite/internal/summarize"
	"github.com/skilllite/skilllite/internal/taskplan"
	"github.com/skilllite/skilllite/internal/tool"
	"github.com/skilllite/skilllite/internal/transcript"
)

// app bundles every long-lived component a single CLI invocation wires
// together. Each subcommand builds the subset it needs from these
// constructors rather than standing up its own copy.
type app struct {
	cfg envconfig.Config

	workspaceRoot string // <root>: plans/, prompts/, transcripts/, audit/ live here
	outputDir     string
	backupDir     string

	sandboxLevel sandbox.Level

	provider llm.Provider // nil when no API key is configured

	auditStore *audit.Store
	auditSink  *audit.FileSink

	transcriptStore *transcript.Store

	rulesEngine *rules.Engine
	planStore   *taskplan.Store
	planAdapter *taskplan.Adapter

	mcpManager *mcpcompat.Manager
}

func newApp() (*app, error) {
	envconfig.LoadDotEnv()
	cfg := envconfig.Load()

	root := cfg.WorkspaceRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve workspace root: %w", err)
		}
		root = wd
	}
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(root, "output")
	}

	level := sandbox.Level(cfg.SandboxLevel)
	if level != sandbox.LevelDirect && level != sandbox.LevelIsolated && level != sandbox.LevelScanAndGo {
		level = sandbox.LevelScanAndGo
	}

	a := &app{
		cfg:             cfg,
		workspaceRoot:   root,
		outputDir:       outputDir,
		backupDir:       filepath.Join(outputDir, ".backups"),
		sandboxLevel:    level,
		transcriptStore: transcript.NewStore(root),
		rulesEngine:     rules.NewEngine(globalPromptsDir(), filepath.Join(root, "prompts")),
		planStore:       taskplan.NewStore(),
	}
	a.planAdapter = taskplan.NewAdapter(a.planStore)

	fileSink := audit.NewFileSink(root) // appends its own "audit" subdir under root
	a.auditSink = fileSink
	a.auditStore = audit.NewStore(0, fileSink)

	if cfg.APIKey != "" {
		provider, err := newOpenAIProvider(cfg)
		if err != nil {
			return nil, fmt.Errorf("configure LLM provider: %w", err)
		}
		a.provider = provider
	}

	mcpConfigPath := filepath.Join(root, "mcp.json")
	if _, err := os.Stat(mcpConfigPath); err == nil {
		a.mcpManager = mcpcompat.NewManager(mcpConfigPath)
	}

	return a, nil
}

func globalPromptsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".skilllite", "prompts")
}

func newOpenAIProvider(cfg envconfig.Config) (llm.Provider, error) {
	oc := &openai.Config{
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		Model:           cfg.Model,
		MaxRetries:      1,
		HTTPTimeout:     300,
		ThinkingMode:    "auto",
		ToolCallMode:    "auto",
		ReasoningEffort: "medium",
	}
	if oc.Model == "" {
		oc.Model = "gpt-4o"
	}
	if oc.BaseURL == "" {
		oc.BaseURL = "https://api.openai.com/v1"
	}
	return openai.NewClient(oc)
}

// discoverSkills scans the workspace's skills/ directory, logging (not
// failing on) individual manifest errors — one bad SKILL.md must never
// block every other skill from loading.
func (a *app) discoverSkills() (map[string]*manifest.Manifest, error) {
	manifests, errs := manifest.ScanDir(a.workspaceRoot)
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "skilllite: %v\n", e)
	}
	out := make(map[string]*manifest.Manifest, len(manifests))
	for _, m := range manifests {
		out[m.Name] = m
	}
	return out, nil
}

// newRegistry builds a tool registry with every built-in wired for
// sessionID, plus any MCP-bridged tools when an mcp.json is present.
func (a *app) newRegistry(sessionID string, confirmer builtin.Confirmer) (*tool.Registry, error) {
	registry := tool.NewRegistry()
	builtin.RegisterAll(registry, builtin.Deps{
		WorkspaceDir: a.workspaceRoot,
		OutputDir:    a.outputDir,
		BackupDir:    a.backupDir,
		SessionID:    sessionID,
		Confirmer:    confirmer,
		PlanStore:    a.planAdapter,
		Transcript:   a.transcriptStore,
	})

	if a.mcpManager != nil {
		ctx := context.Background()
		if _, errs := a.mcpManager.ConnectAll(ctx); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "skilllite: mcp: %v\n", e)
			}
		}
		if err := a.mcpManager.RegisterTools(ctx, registry); err != nil {
			fmt.Fprintf(os.Stderr, "skilllite: mcp: register tools: %v\n", err)
		}
	}
	return registry, nil
}

// newSandboxRunner builds the sandbox runner for this invocation's
// security level, with confirmer wired to the given sink.
func (a *app) newSandboxRunner(confirmer sandbox.Confirmer) *sandbox.Runner {
	return sandbox.NewRunner(a.sandboxLevel, confirmer)
}

func (a *app) newEnvBuilder() *envbuild.Builder {
	return envbuild.NewBuilder(filepath.Join(a.workspaceRoot, ".skilllite", "envs"))
}

// newDispatcher wires the skill runner and summariser into a dispatcher
// over registry and the discovered skill set.
func (a *app) newDispatcher(registry *tool.Registry, skills map[string]*manifest.Manifest, runner *sandbox.Runner) *dispatch.Dispatcher {
	sr := newSkillRunner(a.workspaceRoot, a.newEnvBuilder(), runner)
	d := dispatch.New(registry, skills, sr)

	var secondary llm.Provider
	sumCfg := summarize.DefaultConfig(a.provider, secondary)
	if a.cfg.SummarizeThreshold > 0 {
		sumCfg.Threshold = a.cfg.SummarizeThreshold
	}
	if a.cfg.SummarizeStrategy != "" {
		sumCfg.Strategy = summarize.Strategy(a.cfg.SummarizeStrategy)
	}
	d.SetSummarizer(summarize.New(sumCfg))
	return d
}

func (a *app) newAgentLoop(provider llm.Provider, registry *tool.Registry, d *dispatch.Dispatcher, skills map[string]*manifest.Manifest, s agentloop.Sink) *agentloop.Loop {
	mode := agentloop.ModeSimple
	if a.provider != nil {
		mode = agentloop.ModePlanDriven
	}
	cp := agentloop.NewFileCheckpointStore(a.workspaceRoot)
	return agentloop.New(provider, registry, d, skills, s, cp, agentloop.DefaultConfig(mode))
}

func (a *app) newSessionID() string {
	return uuid.NewString()
}

func (a *app) close() {
	if a.auditSink != nil {
		_ = a.auditSink.Close()
	}
	_ = a.transcriptStore.Close()
	if a.mcpManager != nil {
		a.mcpManager.CloseAll()
	}
}
