package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/skilllite/skilllite/internal/taskplan"
	"github.com/skilllite/skilllite/internal/tool"
)

// JSONLines writes one JSON object per line to w, the shape scripted
// tooling (CI, another process piping skilllite's output) consumes —
// grounded in internal/web/sse.go's event+payload framing, generalized
// from "event: name\ndata: {...}\n\n" to a single self-describing
// {"type": name, ...} line per event.
//
// ConfirmationRequest writes its event, then reads a line from r (when
// set) and treats "y"/"yes" (case-insensitive) as approval; anything
// else, EOF, or a nil r denies — matching sandbox.DenyAll's fail-closed
// default for unattended pipelines.
type JSONLines struct {
	mu sync.Mutex
	w  io.Writer
	r  *bufio.Reader
}

// NewJSONLines builds a JSONLines sink. r may be nil if confirmation
// prompts are never expected to be answered (they'll be denied).
func NewJSONLines(w io.Writer, r io.Reader) *JSONLines {
	s := &JSONLines{w: w}
	if r != nil {
		s.r = bufio.NewReader(r)
	}
	return s
}

func (s *JSONLines) emit(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.w.Write(data)
	s.w.Write([]byte("\n"))
}

func (s *JSONLines) TurnStart() {
	s.emit(map[string]any{"type": "turn_start"})
}

func (s *JSONLines) Text(text string) {
	s.emit(map[string]any{"type": "text", "text": text})
}

func (s *JSONLines) TextChunk(chunk string) {
	s.emit(map[string]any{"type": "text_chunk", "chunk": chunk})
}

func (s *JSONLines) TaskPlan(tasks []taskplan.Task) {
	s.emit(map[string]any{"type": "task_plan", "tasks": tasks})
}

func (s *JSONLines) TaskProgress(taskID int, completed bool) {
	s.emit(map[string]any{"type": "task_progress", "task_id": taskID, "completed": completed})
}

func (s *JSONLines) ToolCall(name string, args json.RawMessage) {
	s.emit(map[string]any{"type": "tool_call", "name": name, "args": args})
}

func (s *JSONLines) ToolResult(name string, result tool.ToolResult) {
	s.emit(map[string]any{
		"type":     "tool_result",
		"name":     name,
		"output":   result.Output,
		"is_error": result.Error != "",
		"error":    result.Error,
	})
}

func (s *JSONLines) ConfirmationRequest(ctx context.Context, prompt string) bool {
	s.emit(map[string]any{"type": "confirmation_request", "prompt": prompt})
	if s.r == nil {
		return false
	}

	type answerResult struct {
		line string
		err  error
	}
	answers := make(chan answerResult, 1)
	go func() {
		line, err := s.r.ReadString('\n')
		answers <- answerResult{line, err}
	}()

	select {
	case <-ctx.Done():
		return false
	case a := <-answers:
		if a.err != nil && a.line == "" {
			return false
		}
		reply := strings.ToLower(strings.TrimSpace(a.line))
		return reply == "y" || reply == "yes"
	}
}
