package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/skilllite/skilllite/internal/llm"
)

type stubProvider struct {
	reply llm.Message
	err   error
	calls int
}

func (p *stubProvider) Complete(context.Context, []llm.Message, []llm.ToolDefinition) (llm.Message, error) {
	p.calls++
	if p.err != nil {
		return llm.Message{}, p.err
	}
	return p.reply, nil
}

func (p *stubProvider) CompleteStream(ctx context.Context, msgs []llm.Message, tools []llm.ToolDefinition, _ llm.StreamCallback) (llm.Message, error) {
	return p.Complete(ctx, msgs, tools)
}

func (p *stubProvider) Name() string { return "stub" }

func TestSummarize_ShortContentPassesThrough(t *testing.T) {
	cfg := DefaultConfig(&stubProvider{}, nil)
	s := New(cfg)
	out, err := s.Summarize(context.Background(), "short")
	if err != nil || out != "short" {
		t.Fatalf("expected passthrough, got %q, %v", out, err)
	}
}

func TestSummarize_HeadTailOnlyDropsMiddle(t *testing.T) {
	cfg := DefaultConfig(&stubProvider{}, nil)
	cfg.Strategy = StrategyHeadTailOnly
	cfg.ChunkSize = 10
	cfg.HeadChunks = 1
	cfg.TailChunks = 1
	cfg.Threshold = 5

	content := strings.Repeat("a", 10) + strings.Repeat("b", 10) + strings.Repeat("c", 10) + strings.Repeat("d", 10)
	out, err := New(cfg).Summarize(context.Background(), content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "aaaaaaaaaa") || !strings.Contains(out, "dddddddddd") {
		t.Errorf("expected head and tail chunks kept, got %q", out)
	}
	if strings.Contains(out, "bbbbbbbbbb") {
		t.Errorf("expected middle chunk dropped, got %q", out)
	}
	if !strings.Contains(out, "omitted") {
		t.Errorf("expected an omission note, got %q", out)
	}
}

func TestSummarize_HeadTailExtractKeepsErrorChunk(t *testing.T) {
	cfg := DefaultConfig(&stubProvider{}, nil)
	cfg.Strategy = StrategyHeadTailExtract
	cfg.ChunkSize = 20
	cfg.HeadChunks = 2
	cfg.TailChunks = 2
	cfg.ExtractRatio = 0.3
	cfg.Threshold = 5

	middle := "a normal line of filler text with nothing notable in it at all"
	errChunk := "ERROR: something failed at path /var/log/app.log with exit code 1"
	content := strings.Repeat(middle+" ", 5) + errChunk + strings.Repeat(" "+middle, 5)

	out, err := New(cfg).Summarize(context.Background(), content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "ERROR") {
		t.Errorf("expected the error-bearing chunk to survive extraction, got %q", out)
	}
}

func TestSummarize_MapReduceCallsSecondaryThenMain(t *testing.T) {
	secondary := &stubProvider{reply: llm.Message{Content: "chunk summary"}}
	main := &stubProvider{reply: llm.Message{Content: "final summary"}}
	cfg := DefaultConfig(main, secondary)
	cfg.Strategy = StrategyMapReduceFull
	cfg.ChunkSize = 10
	cfg.Threshold = 5

	content := strings.Repeat("x", 55)
	out, err := New(cfg).Summarize(context.Background(), content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "final summary" {
		t.Errorf("expected reduce-stage output, got %q", out)
	}
	if secondary.calls == 0 {
		t.Error("expected the secondary model to be used for the map stage")
	}
	if main.calls != 1 {
		t.Errorf("expected exactly one reduce call to the main model, got %d", main.calls)
	}
}

func TestSummarize_MapReduceFailureFallsBackDeterministically(t *testing.T) {
	main := &stubProvider{err: errors.New("boom")}
	cfg := DefaultConfig(main, nil)
	cfg.Strategy = StrategyMapReduceFull
	cfg.ChunkSize = 10
	cfg.HeadChunks = 1
	cfg.TailChunks = 1
	cfg.Threshold = 5

	content := strings.Repeat("a", 10) + strings.Repeat("b", 30) + strings.Repeat("c", 10)
	out, err := New(cfg).Summarize(context.Background(), content)
	if err != nil {
		t.Fatalf("Summarize itself should not error, got: %v", err)
	}
	if !strings.Contains(out, "aaaaaaaaaa") || !strings.Contains(out, "cccccccccc") {
		t.Errorf("expected deterministic head+tail fallback, got %q", out)
	}
	if !strings.Contains(out, "truncated") {
		t.Errorf("expected a length note in the fallback, got %q", out)
	}
}

func TestChunkText_SplitsEvenly(t *testing.T) {
	chunks := chunkText("abcdefghij", 3)
	want := []string{"abc", "def", "ghi", "j"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunks[i])
		}
	}
}

func TestDeterministicFallback_ShortContentUnchanged(t *testing.T) {
	out := deterministicFallback("short", 100, 100)
	if out != "short" {
		t.Errorf("expected unchanged content, got %q", out)
	}
}

func TestPositionScore_EdgesScoreHigherThanCenter(t *testing.T) {
	edge := positionScore(0, 10)
	center := positionScore(5, 10)
	if edge <= center {
		t.Errorf("expected edge score (%v) > center score (%v)", edge, center)
	}
}
