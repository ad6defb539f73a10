// Package llm abstracts the language-model completion capability consumed by
// the planner, the dependency resolver's model layer, and the agent loop.
// Concrete HTTP clients are external collaborators (spec §1 non-goals); this
// package only defines the capability boundary and the wire-neutral message
// model those clients must speak.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Role constants for Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a single tool invocation requested by the model inside an
// assistant message.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is a single turn in the conversation sent to / received from the
// model. It mirrors spec.md §3's "Conversation message": role, optional
// content, optional tool-calls (assistant only), optional tool-call-id
// (tool-result messages only).
type Message struct {
	Role             string     `json:"role"`
	Content          string     `json:"content,omitempty"`
	ToolCalls        []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID       string     `json:"tool_call_id,omitempty"`
	Name             string     `json:"name,omitempty"`              // tool name, set on tool-result messages
	ReasoningContent string     `json:"reasoning_content,omitempty"` // native thinking output, when the model supports it
}

// ToolDefinition describes a callable tool for Function-Calling-capable
// providers. Parameters is a JSON Schema object, matching tool.Tool's
// InputSchema().
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// StreamCallback is invoked for each chunk of streamed assistant text.
type StreamCallback func(chunk string)

// Provider is the message-completion capability. Any OpenAI-compatible
// endpoint (or a fake, in tests) can implement it.
type Provider interface {
	// Complete sends messages, optionally with tool definitions, and returns
	// the model's reply in one shot. Pass a nil/empty tools slice to disable
	// tool use for this call, as the agent loop must when the task plan is
	// empty (spec.md §4.10 step 1).
	Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (Message, error)

	// CompleteStream behaves like Complete but streams assistant text via
	// onChunk as it arrives. Providers that can't stream may fall back to
	// Complete internally.
	CompleteStream(ctx context.Context, messages []Message, tools []ToolDefinition, onChunk StreamCallback) (Message, error)

	// Name identifies the provider/model, used in log lines and audit records.
	Name() string
}

// contextOverflowMarkers are lowercase substrings that identify a context
// overflow error from the provider's error text. Detection is heuristic
// because providers don't share a typed error for this — spec.md §7
// ContextOverflow is explicitly "recognised by substring heuristics".
var contextOverflowMarkers = []string{
	"context length",
	"context_length_exceeded",
	"maximum context length",
	"too many tokens",
	"prompt is too long",
	"context window",
	"input is too long",
}

// IsContextOverflow reports whether err looks like a context-window-exceeded
// error from the provider.
func IsContextOverflow(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	for _, marker := range contextOverflowMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
