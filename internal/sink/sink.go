// Package sink implements the event-sink capability spec.md §4.12 names:
// turn_start, text, text_chunk, tool_call, tool_result,
// confirmation_request, task_plan, task_progress. A single concrete type
// per implementation satisfies three previously-defined interfaces at
// once — internal/agentloop.Sink (turn framing + plan visibility),
// internal/dispatch.EventEmitter (tool_call/tool_result), and
// internal/sandbox.Confirmer (confirmation_request) — since spec.md treats
// them as one logical capability split across three call sites rather than
// three independent listeners.
//
// Grounded in internal/web/sse.go's event-name + JSON-payload framing
// (generalized from SSE wire format to the three sinks below) and
// internal/agent/state.go's OnStepComplete/OnStreamChunk callback fields.
package sink

import (
	"context"
	"encoding/json"

	"github.com/skilllite/skilllite/internal/taskplan"
	"github.com/skilllite/skilllite/internal/tool"
)

// Capability is the full event-sink surface, composed from the three
// interfaces the rest of the codebase already defines against. Concrete
// sinks in this package implement Capability directly; callers that only
// need one facet keep using the narrower interface they already have.
type Capability interface {
	TurnStart()
	Text(text string)
	TextChunk(chunk string)
	TaskPlan(tasks []taskplan.Task)
	TaskProgress(taskID int, completed bool)
	ToolCall(name string, args json.RawMessage)
	ToolResult(name string, result tool.ToolResult)
	ConfirmationRequest(ctx context.Context, prompt string) bool
}
