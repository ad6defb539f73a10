package main

import (
	"context"
	"encoding/json"

	"github.com/skilllite/skilllite/internal/audit"
	"github.com/skilllite/skilllite/internal/sink"
	"github.com/skilllite/skilllite/internal/taskplan"
	"github.com/skilllite/skilllite/internal/tool"
)

// auditingSink wraps a sink.Capability so every tool call, tool result,
// and confirmation round trip is also durably recorded through the audit
// store (spec.md §4.13), without internal/dispatch, internal/sandbox, or
// internal/agentloop needing to know the audit package exists. One
// instance satisfies agentloop.Sink, dispatch.EventEmitter, and
// sandbox.Confirmer simultaneously, same as the sink types it wraps.
type auditingSink struct {
	inner     sink.Capability
	store     *audit.Store
	sessionID string
	turnID    string // correlation id shared by every record of the current turn
}

func newAuditingSink(inner sink.Capability, store *audit.Store, sessionID string) *auditingSink {
	return &auditingSink{inner: inner, store: store, sessionID: sessionID}
}

// TurnStart mints the correlation id every record of the new turn carries.
func (a *auditingSink) TurnStart() {
	a.turnID = audit.NewCorrelationID()
	a.inner.TurnStart()
}

// correlationID returns the current turn's id, minting one when a record
// arrives before any turn has started.
func (a *auditingSink) correlationID() string {
	if a.turnID == "" {
		a.turnID = audit.NewCorrelationID()
	}
	return a.turnID
}

func (a *auditingSink) Text(text string)                      { a.inner.Text(text) }
func (a *auditingSink) TextChunk(chunk string)                { a.inner.TextChunk(chunk) }
func (a *auditingSink) TaskPlan(tasks []taskplan.Task)        { a.inner.TaskPlan(tasks) }
func (a *auditingSink) TaskProgress(id int, completed bool)   { a.inner.TaskProgress(id, completed) }

func (a *auditingSink) ToolCall(name string, args json.RawMessage) {
	a.store.Append(a.sessionID, audit.CommandInvoked, a.correlationID(), map[string]any{
		"tool": name, "args": args,
	})
	a.inner.ToolCall(name, args)
}

func (a *auditingSink) ToolResult(name string, result tool.ToolResult) {
	a.store.Append(a.sessionID, audit.ExecutionCompleted, a.correlationID(), map[string]any{
		"tool": name, "error": result.Error, "output_len": len(result.Output),
	})
	a.inner.ToolResult(name, result)
}

func (a *auditingSink) ConfirmationRequest(ctx context.Context, prompt string) bool {
	correlationID := a.correlationID()
	a.store.Append(a.sessionID, audit.ConfirmationRequested, correlationID, map[string]any{"prompt": prompt})
	approved := a.inner.ConfirmationRequest(ctx, prompt)
	a.store.Append(a.sessionID, audit.ConfirmationResponse, correlationID, map[string]any{"approved": approved})
	return approved
}
