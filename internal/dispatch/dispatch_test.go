package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/skilllite/skilllite/internal/manifest"
	"github.com/skilllite/skilllite/internal/tool"
)

type echoTool struct{}

func (echoTool) Name() string                                                            { return "echo" }
func (echoTool) Description() string                                                     { return "echoes input" }
func (echoTool) InputSchema() json.RawMessage                                            { return tool.BuildSchema() }
func (echoTool) Init(context.Context) error                                              { return nil }
func (echoTool) Close() error                                                             { return nil }
func (echoTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	return tool.ToolResult{Output: string(args)}, nil
}

type longTool struct{ n int }

func (t longTool) Name() string                  { return "long" }
func (longTool) Description() string             { return "produces long output" }
func (longTool) InputSchema() json.RawMessage    { return tool.BuildSchema() }
func (longTool) Init(context.Context) error      { return nil }
func (longTool) Close() error                    { return nil }
func (t longTool) Execute(context.Context, json.RawMessage) (tool.ToolResult, error) {
	return tool.ToolResult{Output: strings.Repeat("x", t.n)}, nil
}

type stubRunner struct {
	output string
	err    error
	called string
}

func (s *stubRunner) RunSkill(_ context.Context, m *manifest.Manifest, input string) (string, error) {
	s.called = m.Name
	return s.output, s.err
}

type stubSummarizer struct{ called bool }

func (s *stubSummarizer) Summarize(context.Context, string) (string, error) {
	s.called = true
	return "summary", nil
}

func newTestRegistry() *tool.Registry {
	r := tool.NewRegistry()
	r.Register(echoTool{})
	return r
}

func TestDispatch_RoutesBuiltin(t *testing.T) {
	d := New(newTestRegistry(), nil, nil)
	result, err := d.Dispatch(context.Background(), "echo", json.RawMessage(`{"a":1}`))
	if err != nil {
		t.Fatal(err)
	}
	if result.Output != `{"a":1}` {
		t.Errorf("got %q", result.Output)
	}
}

func TestDispatch_RoutesToSkill(t *testing.T) {
	runner := &stubRunner{output: "skill output"}
	skills := map[string]*manifest.Manifest{"my-skill": {Name: "my-skill"}}
	d := New(newTestRegistry(), skills, runner)

	result, err := d.Dispatch(context.Background(), "my-skill", json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if result.Output != "skill output" {
		t.Errorf("got %q", result.Output)
	}
	if runner.called != "my-skill" {
		t.Errorf("runner was not invoked with the right manifest, got %q", runner.called)
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	d := New(newTestRegistry(), nil, nil)
	result, err := d.Dispatch(context.Background(), "nonexistent", json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if result.Error == "" {
		t.Fatal("expected an error for an unknown tool name")
	}
}

func TestDispatch_SkillRunnerMissing(t *testing.T) {
	skills := map[string]*manifest.Manifest{"my-skill": {Name: "my-skill"}}
	d := New(newTestRegistry(), skills, nil)
	result, err := d.Dispatch(context.Background(), "my-skill", json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if result.Error == "" {
		t.Fatal("expected an error when no runner is configured")
	}
}

func TestDispatch_SkillError(t *testing.T) {
	runner := &stubRunner{err: errors.New("boom")}
	skills := map[string]*manifest.Manifest{"my-skill": {Name: "my-skill"}}
	d := New(newTestRegistry(), skills, runner)
	result, err := d.Dispatch(context.Background(), "my-skill", json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if result.Error != "boom" {
		t.Errorf("got %q", result.Error)
	}
}

func TestApplyLongOutputPolicy_SmallOverflowTruncates(t *testing.T) {
	r := tool.NewRegistry()
	r.Register(longTool{n: maxInlineResultChars + 100})
	d := New(r, nil, nil)

	result, err := d.Dispatch(context.Background(), "long", json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Output) <= maxInlineResultChars || !strings.Contains(result.Output, "truncated") {
		t.Errorf("expected a truncated result with a length note, got len=%d", len(result.Output))
	}
}

func TestApplyLongOutputPolicy_LargeOverflowSummarizes(t *testing.T) {
	r := tool.NewRegistry()
	r.Register(longTool{n: maxResultBeforeSummarize + 100})
	d := New(r, nil, nil)
	summarizer := &stubSummarizer{}
	d.SetSummarizer(summarizer)

	result, err := d.Dispatch(context.Background(), "long", json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if !summarizer.called {
		t.Fatal("expected the summarizer to be invoked for large overflow")
	}
	if result.Output != "summary" {
		t.Errorf("summarizer output should entirely replace the original content, got %q", result.Output)
	}
}

func TestApplyLongOutputPolicy_UnderThresholdUntouched(t *testing.T) {
	r := tool.NewRegistry()
	r.Register(longTool{n: 10})
	d := New(r, nil, nil)

	result, err := d.Dispatch(context.Background(), "long", json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Output) != 10 {
		t.Errorf("short output should be untouched, got len=%d", len(result.Output))
	}
}

func TestIsAsync(t *testing.T) {
	if !IsAsync("run_command") || !IsAsync("preview_server") {
		t.Error("run_command and preview_server must be async")
	}
	if IsAsync("read_file") {
		t.Error("read_file must not be async")
	}
}
