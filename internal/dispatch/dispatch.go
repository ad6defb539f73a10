// Package dispatch routes a tool call by name to either a built-in
// implementation (internal/dispatch/builtin) or the matching skill,
// applying the long-output policy spec.md §4.7 requires in between
// (SPEC_FULL.md C7).
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/skilllite/skilllite/internal/manifest"
	"github.com/skilllite/skilllite/internal/tool"
)

const (
	// maxInlineResultChars is the small-overflow cutoff: results longer
	// than this are head-truncated with a length note.
	maxInlineResultChars = 4000
	// maxResultBeforeSummarize is the large-overflow cutoff: beyond this,
	// results are routed to the summarizer instead of merely truncated.
	maxResultBeforeSummarize = 20000
)

// Summarizer condenses long tool output. internal/summarize (C11)
// implements this; per spec.md §4.7 its output entirely replaces the
// original content rather than being appended to it.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// SkillRunner executes one resolved skill invocation end-to-end
// (environment build + sandbox run). The CLI wires the concrete
// implementation over envbuild.Builder and sandbox.Runner.
type SkillRunner interface {
	RunSkill(ctx context.Context, m *manifest.Manifest, inputJSON string) (string, error)
}

// EventEmitter reports tool_call/tool_result events to whatever sink is
// listening. internal/sink (C12) implements this.
type EventEmitter interface {
	ToolCall(name string, args json.RawMessage)
	ToolResult(name string, result tool.ToolResult)
}

type noopEmitter struct{}

func (noopEmitter) ToolCall(string, json.RawMessage)   {}
func (noopEmitter) ToolResult(string, tool.ToolResult) {}

// Dispatcher routes a tool call to a built-in implementation or, for any
// other name, to the matching skill.
type Dispatcher struct {
	registry   *tool.Registry
	skills     map[string]*manifest.Manifest
	runner     SkillRunner
	summarizer Summarizer
	emitter    EventEmitter
}

// New builds a Dispatcher over a registry already populated with
// built-ins (see builtin.RegisterAll) and a name->manifest map of the
// skills discovered in the workspace.
func New(registry *tool.Registry, skills map[string]*manifest.Manifest, runner SkillRunner) *Dispatcher {
	return &Dispatcher{registry: registry, skills: skills, runner: runner, emitter: noopEmitter{}}
}

func (d *Dispatcher) SetSummarizer(s Summarizer) { d.summarizer = s }

// Skill returns the manifest for a discovered skill name, for callers
// (the agent loop's progressive-disclosure step) that need to inject a
// skill's documentation without re-dispatching it.
func (d *Dispatcher) Skill(name string) (*manifest.Manifest, bool) {
	m, ok := d.skills[name]
	return m, ok
}

func (d *Dispatcher) SetEmitter(e EventEmitter) {
	if e == nil {
		e = noopEmitter{}
	}
	d.emitter = e
}

// IsAsync reports whether a built-in name is expected to run off the
// main turn loop (spec.md §4.7's "Execution" step 4) rather than block
// it synchronously — run_command waits on confirmation and a subprocess,
// preview_server is a long-lived background listener.
func IsAsync(name string) bool {
	return name == "run_command" || name == "preview_server"
}

// Dispatch executes a single tool call by name: built-ins run through
// the registry, anything else routes to the skill of that name.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage) (tool.ToolResult, error) {
	d.emitter.ToolCall(name, args)
	result, err := d.dispatch(ctx, name, args)
	if err == nil {
		result = d.applyLongOutputPolicy(ctx, result)
	}
	d.emitter.ToolResult(name, result)
	return result, err
}

func (d *Dispatcher) dispatch(ctx context.Context, name string, args json.RawMessage) (tool.ToolResult, error) {
	if t, ok := d.registry.Get(name); ok {
		return t.Execute(ctx, args)
	}

	m, ok := d.skills[name]
	if !ok {
		return tool.ToolResult{Error: fmt.Sprintf("unknown tool %q", name)}, nil
	}
	if d.runner == nil {
		return tool.ToolResult{Error: fmt.Sprintf("skill %q cannot be invoked: no runner configured", name)}, nil
	}
	output, err := d.runner.RunSkill(ctx, m, string(args))
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: output}, nil
}

// applyLongOutputPolicy implements spec.md §4.7's "Long-output handling":
// small overflow is head-truncated with a length note, large overflow is
// routed to the summarizer whose output replaces the content entirely.
func (d *Dispatcher) applyLongOutputPolicy(ctx context.Context, result tool.ToolResult) tool.ToolResult {
	if len(result.Output) <= maxInlineResultChars {
		return result
	}
	if len(result.Output) <= maxResultBeforeSummarize || d.summarizer == nil {
		result.Output = headTruncate(result.Output, maxInlineResultChars)
		return result
	}
	summarized, err := d.summarizer.Summarize(ctx, result.Output)
	if err != nil {
		result.Output = headTruncate(result.Output, maxInlineResultChars)
		return result
	}
	result.Output = summarized
	return result
}

// headTruncate truncates to at most max bytes without splitting a UTF-8
// rune, appending a length note stating the true total.
func headTruncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + fmt.Sprintf("\n... (truncated, %d characters total)", len(s))
}
