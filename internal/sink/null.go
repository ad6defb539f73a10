package sink

import (
	"context"
	"encoding/json"

	"github.com/skilllite/skilllite/internal/taskplan"
	"github.com/skilllite/skilllite/internal/tool"
)

// Null discards every event. Grounded in the teacher's test files, which
// pass a nil callback struct wherever AgentState's OnStepComplete/
// OnStreamChunk aren't exercised — Null is that same "no listener" case
// made into a real type so production code never has to nil-check a sink.
type Null struct{}

func (Null) TurnStart()                                       {}
func (Null) Text(string)                                      {}
func (Null) TextChunk(string)                                 {}
func (Null) TaskPlan([]taskplan.Task)                          {}
func (Null) TaskProgress(int, bool)                            {}
func (Null) ToolCall(string, json.RawMessage)                  {}
func (Null) ToolResult(string, tool.ToolResult)                {}

// ConfirmationRequest denies by default — an unattended run with no
// listener must never be read as an approval.
func (Null) ConfirmationRequest(context.Context, string) bool { return false }
