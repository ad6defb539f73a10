package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteHeader_CreatesDatedFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	defer s.Close()

	if err := s.WriteHeader("sess1"); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	day := time.Now().UTC().Format("2006-01-02")
	path := filepath.Join(dir, "transcripts", "sess1-"+day+".jsonl")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected transcript file to exist: %v", err)
	}
}

func TestAppendMessage_AssignsID(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	defer s.Close()

	m, err := s.AppendMessage("sess1", "", "user", "hello", nil)
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if m.ID == "" {
		t.Error("expected a generated ID")
	}
	if m.Role != "user" || m.Content != "hello" {
		t.Errorf("unexpected message data: %+v", m)
	}
}

func TestRender_NoCompaction_RendersAllMessagesInOrder(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	defer s.Close()

	s.WriteHeader("sess1")
	s.AppendMessage("sess1", "", "user", "what is 2+2", nil)
	s.AppendMessage("sess1", "", "assistant", "4", nil)

	out := s.Render("sess1")
	if !strings.Contains(out, "user: what is 2+2") {
		t.Errorf("expected user message in render, got %q", out)
	}
	if !strings.Contains(out, "assistant: 4") {
		t.Errorf("expected assistant message in render, got %q", out)
	}
	userIdx := strings.Index(out, "user:")
	assistantIdx := strings.Index(out, "assistant:")
	if userIdx == -1 || assistantIdx == -1 || userIdx > assistantIdx {
		t.Errorf("expected user message before assistant message, got %q", out)
	}
}

func TestRender_ToolCallsRenderedInline(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	defer s.Close()

	s.AppendMessage("sess1", "", "assistant", "checking weather", []ToolCallRef{{Name: "weather"}})

	out := s.Render("sess1")
	if !strings.Contains(out, "[called weather]") {
		t.Errorf("expected inline tool call marker, got %q", out)
	}
}

func TestRender_CompactionFoldsOlderMessages(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	defer s.Close()

	s.AppendMessage("sess1", "", "user", "turn one", nil)
	s.AppendMessage("sess1", "", "assistant", "reply one", nil)
	kept, _ := s.AppendMessage("sess1", "", "user", "turn two", nil)
	s.AppendMessage("sess1", "", "assistant", "reply two", nil)

	s.AppendCompaction("sess1", kept.ID, 5000, "earlier discussion about the first exchange")

	out := s.Render("sess1")
	if strings.Contains(out, "turn one") || strings.Contains(out, "reply one") {
		t.Errorf("expected folded messages to be dropped, got %q", out)
	}
	if !strings.Contains(out, "earlier discussion about the first exchange") {
		t.Errorf("expected summary to be present, got %q", out)
	}
	if !strings.Contains(out, "turn two") || !strings.Contains(out, "reply two") {
		t.Errorf("expected kept messages to survive, got %q", out)
	}
}

func TestRender_UnresolvableCompactionKeepsEverything(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	defer s.Close()

	s.AppendMessage("sess1", "", "user", "turn one", nil)
	s.AppendCompaction("sess1", "some-id-that-was-never-written", 5000, "bogus summary")

	out := s.Render("sess1")
	if !strings.Contains(out, "turn one") {
		t.Errorf("expected message retained when compaction boundary can't be resolved, got %q", out)
	}
	if strings.Contains(out, "bogus summary") {
		t.Errorf("expected unresolved compaction summary not to be rendered, got %q", out)
	}
}

func TestRender_UnknownSessionReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	defer s.Close()

	if out := s.Render("never-seen"); out != "" {
		t.Errorf("expected empty render for unknown session, got %q", out)
	}
}

func TestRender_OnlyLatestCompactionApplies(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	defer s.Close()

	s.AppendMessage("sess1", "", "user", "a", nil)
	second, _ := s.AppendMessage("sess1", "", "user", "b", nil)
	s.AppendCompaction("sess1", second.ID, 100, "first summary")
	third, _ := s.AppendMessage("sess1", "", "user", "c", nil)
	s.AppendCompaction("sess1", third.ID, 200, "second summary")

	out := s.Render("sess1")
	if strings.Contains(out, "first summary") {
		t.Errorf("expected only the most recent compaction to apply, got %q", out)
	}
	if !strings.Contains(out, "second summary") {
		t.Errorf("expected the most recent compaction's summary, got %q", out)
	}
	if strings.Contains(out, ": a") || strings.Contains(out, ": b") {
		t.Errorf("expected messages before the latest compaction boundary to be folded, got %q", out)
	}
	if !strings.Contains(out, ": c") {
		t.Errorf("expected the kept message to survive, got %q", out)
	}
}
