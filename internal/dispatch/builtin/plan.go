package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skilllite/skilllite/internal/tool"
)

// PlanStep mirrors the shape internal/plan.PlanStep already has in the
// teacher tree. Defined locally rather than imported so this package has
// no dependency on the task planner (C9), which wires its own store into
// the PlanStore interface below through taskplan.Adapter.
type PlanStep struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// PlanStore is the minimal surface update_task_plan/chat_plan need.
// internal/taskplan's Adapter implements it; any in-memory implementation
// works as well.
type PlanStore interface {
	Get(sessionID string) []PlanStep
	Set(sessionID string, steps []PlanStep)
	Update(sessionID, stepID, status, detail string) bool
}

// TranscriptRenderer renders a session's chat history as text for the
// model to read back. internal/transcript's Store implements this.
type TranscriptRenderer interface {
	Render(sessionID string) string
}

var validPlanStatuses = map[string]bool{
	"pending": true, "in_progress": true, "done": true,
	"error": true, "skipped": true,
}

// ChatHistoryTool lets a skill or the agent loop re-read the conversation
// so far — grounded in internal/tool/builtin/walkthrough.go's list
// operation, applied to the transcript instead of manual memos.
type ChatHistoryTool struct {
	renderer  TranscriptRenderer
	sessionID string
}

func NewChatHistoryTool(renderer TranscriptRenderer, sessionID string) *ChatHistoryTool {
	return &ChatHistoryTool{renderer: renderer, sessionID: sessionID}
}

func (t *ChatHistoryTool) Name() string        { return "chat_history" }
func (t *ChatHistoryTool) Description() string { return "Read back the conversation transcript so far." }
func (t *ChatHistoryTool) InputSchema() json.RawMessage {
	return tool.BuildSchema()
}
func (t *ChatHistoryTool) Init(context.Context) error { return nil }
func (t *ChatHistoryTool) Close() error                { return nil }

func (t *ChatHistoryTool) Execute(context.Context, json.RawMessage) (tool.ToolResult, error) {
	rendered := t.renderer.Render(t.sessionID)
	if rendered == "" {
		return tool.ToolResult{Output: "(no history yet)"}, nil
	}
	return tool.ToolResult{Output: rendered}, nil
}

// ChatPlanTool is a read-only view of the current task plan, distinct
// from update_task_plan's set/update mutations.
type ChatPlanTool struct {
	store     PlanStore
	sessionID string
}

func NewChatPlanTool(store PlanStore, sessionID string) *ChatPlanTool {
	return &ChatPlanTool{store: store, sessionID: sessionID}
}

func (t *ChatPlanTool) Name() string        { return "chat_plan" }
func (t *ChatPlanTool) Description() string { return "View the current task plan and step statuses." }
func (t *ChatPlanTool) InputSchema() json.RawMessage {
	return tool.BuildSchema()
}
func (t *ChatPlanTool) Init(context.Context) error { return nil }
func (t *ChatPlanTool) Close() error                { return nil }

func (t *ChatPlanTool) Execute(context.Context, json.RawMessage) (tool.ToolResult, error) {
	steps := t.store.Get(t.sessionID)
	if len(steps) == 0 {
		return tool.ToolResult{Output: "(no plan set)"}, nil
	}
	var sb strings.Builder
	for _, s := range steps {
		fmt.Fprintf(&sb, "[%s] %s: %s", s.Status, s.ID, s.Title)
		if s.Detail != "" {
			fmt.Fprintf(&sb, " (%s)", s.Detail)
		}
		sb.WriteByte('\n')
	}
	return tool.ToolResult{Output: sb.String()}, nil
}

// UpdateTaskPlanTool is the planner hand-back: set replaces the whole
// plan, update advances a single step — grounded in
// internal/tool/builtin/update_plan.go's dedup-on-repeat and
// fuzzy-step-ID-correction logic, generalized off that file's session
// store to the PlanStore interface.
type UpdateTaskPlanTool struct {
	store     PlanStore
	sessionID string
	onUpdate  func([]PlanStep)
}

func NewUpdateTaskPlanTool(store PlanStore, sessionID string, onUpdate func([]PlanStep)) *UpdateTaskPlanTool {
	return &UpdateTaskPlanTool{store: store, sessionID: sessionID, onUpdate: onUpdate}
}

func (t *UpdateTaskPlanTool) Name() string { return "update_task_plan" }
func (t *UpdateTaskPlanTool) Description() string {
	return "Set or update the task plan. set replaces the full plan; update advances one step's status."
}
func (t *UpdateTaskPlanTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"operation": {"type": "string", "enum": ["set", "update"], "description": "set replaces the full plan; update advances one step"},
			"steps": {
				"type": "array",
				"description": "full step list, required when operation=set",
				"items": {
					"type": "object",
					"properties": {
						"id": {"type": "string"},
						"title": {"type": "string"}
					},
					"required": ["id", "title"]
				}
			},
			"step_id": {"type": "string", "description": "step id, required when operation=update"},
			"status": {"type": "string", "enum": ["pending", "in_progress", "done", "error", "skipped"], "description": "required when operation=update"},
			"detail": {"type": "string", "description": "optional note or error detail"}
		},
		"required": ["operation"]
	}`)
}
func (t *UpdateTaskPlanTool) Init(context.Context) error { return nil }
func (t *UpdateTaskPlanTool) Close() error                { return nil }

type updateTaskPlanArgs struct {
	Operation string     `json:"operation"`
	Steps     []PlanStep `json:"steps"`
	StepID    string     `json:"step_id"`
	Status    string     `json:"status"`
	Detail    string     `json:"detail"`
}

func (t *UpdateTaskPlanTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a updateTaskPlanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}

	switch a.Operation {
	case "set":
		if len(a.Steps) == 0 {
			return tool.ToolResult{Error: "set requires a non-empty steps list"}, nil
		}
		if plansEqual(t.store.Get(t.sessionID), a.Steps) {
			return tool.ToolResult{Output: "plan unchanged (identical to current plan); proceed with execution instead of re-setting it"}, nil
		}
		t.store.Set(t.sessionID, a.Steps)
		t.notify()
		return tool.ToolResult{Output: fmt.Sprintf("plan set, %d steps", len(a.Steps))}, nil

	case "update":
		if a.StepID == "" || a.Status == "" {
			return tool.ToolResult{Error: "update requires step_id and status"}, nil
		}
		if !validPlanStatuses[a.Status] {
			return tool.ToolResult{Error: fmt.Sprintf("invalid status %q, expected pending/in_progress/done/error/skipped", a.Status)}, nil
		}
		if current := t.stepStatus(a.StepID); current == a.Status {
			return tool.ToolResult{Error: fmt.Sprintf("step %s is already %s; call the actual tool for this step instead of update_task_plan again", a.StepID, a.Status)}, nil
		}
		if t.store.Update(t.sessionID, a.StepID, a.Status, a.Detail) {
			t.notify()
			return tool.ToolResult{Output: fmt.Sprintf("%s -> %s", a.StepID, a.Status)}, nil
		}
		if corrected := t.fuzzyMatchStepID(a.StepID); corrected != "" {
			if t.store.Update(t.sessionID, corrected, a.Status, a.Detail) {
				t.notify()
				return tool.ToolResult{Output: fmt.Sprintf("%s -> %s (auto-corrected from %q)", corrected, a.Status, a.StepID)}, nil
			}
		}
		ids := t.stepIDs()
		return tool.ToolResult{Error: fmt.Sprintf("step %q not found, current plan step ids: [%s]", a.StepID, strings.Join(ids, ", "))}, nil

	default:
		return tool.ToolResult{Error: fmt.Sprintf("unknown operation %q, expected set/update", a.Operation)}, nil
	}
}

func (t *UpdateTaskPlanTool) notify() {
	if t.onUpdate != nil {
		t.onUpdate(t.store.Get(t.sessionID))
	}
}

func (t *UpdateTaskPlanTool) stepStatus(stepID string) string {
	for _, s := range t.store.Get(t.sessionID) {
		if s.ID == stepID {
			return s.Status
		}
	}
	return ""
}

func (t *UpdateTaskPlanTool) stepIDs() []string {
	steps := t.store.Get(t.sessionID)
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID
	}
	return ids
}

// fuzzyMatchStepID applies prefix-based correction when exactly one step
// id is a prefix extension (either direction) of the supplied id.
func (t *UpdateTaskPlanTool) fuzzyMatchStepID(input string) string {
	var candidates []string
	for _, s := range t.store.Get(t.sessionID) {
		if strings.HasPrefix(s.ID, input) || strings.HasPrefix(input, s.ID) {
			candidates = append(candidates, s.ID)
		}
	}
	if len(candidates) == 1 {
		return candidates[0]
	}
	return ""
}

// plansEqual compares id/title pairs only — status/detail change during
// execution and shouldn't count as a "different" plan.
func plansEqual(a, b []PlanStep) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Title != b[i].Title {
			return false
		}
	}
	return true
}
