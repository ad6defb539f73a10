package agentloop

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/skilllite/skilllite/internal/llm"
)

// CheckpointStep mirrors spec.md §6's on-disk plan shape —
// {id, description, tool_hint, status} — which is distinct from
// internal/dispatch/builtin.PlanStep's five-state execution-time model:
// the persisted checkpoint only ever records pending/running/completed.
type CheckpointStep struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	ToolHint    string `json:"tool_hint,omitempty"`
	Status      string `json:"status"`
}

// Checkpoint is the exact shape spec.md §6 names for
// <root>/plans/<session>-<date>.json.
type Checkpoint struct {
	SessionKey    string           `json:"session_key"`
	Task          string           `json:"task"`
	Steps         []CheckpointStep `json:"steps"`
	CurrentStepID int              `json:"current_step_id"`
	UpdatedAt     string           `json:"updated_at"`
}

// CheckpointStore persists a Checkpoint every iteration (spec.md §4.10
// step 9). A nil Store disables checkpointing entirely.
type CheckpointStore interface {
	Save(ctx context.Context, cp Checkpoint) error
}

// buildCheckpoint projects the live loop state into the persisted shape.
func (l *Loop) buildCheckpoint(st *loopState) Checkpoint {
	steps := make([]CheckpointStep, len(st.tasks))
	current := -1
	for i, t := range st.tasks {
		status := "pending"
		if t.Completed {
			status = "completed"
		}
		steps[i] = CheckpointStep{ID: t.ID, Description: t.Description, ToolHint: t.ToolHint, Status: status}
		if !t.Completed && current == -1 {
			current = t.ID
			steps[i].Status = "running"
		}
	}
	task := ""
	for _, m := range st.messages {
		if m.Role == llm.RoleUser {
			task = m.Content
			break
		}
	}
	return Checkpoint{
		SessionKey:    st.sessionID,
		Task:          task,
		Steps:         steps,
		CurrentStepID: current,
		UpdatedAt:     checkpointTimestamp(),
	}
}

// checkpointTimestamp is overridable in tests; production uses wall time.
var checkpointTimestamp = func() string { return time.Now().UTC().Format(time.RFC3339) }

// FileCheckpointStore writes one JSON file per session per day under
// root/plans, grounded in internal/plan/plan_store.go's on-disk
// counterpart for the transcript/session store pattern generally used in
// the teacher tree (session-scoped files keyed by date).
type FileCheckpointStore struct {
	root string
}

func NewFileCheckpointStore(root string) *FileCheckpointStore {
	return &FileCheckpointStore{root: root}
}

func (s *FileCheckpointStore) Save(_ context.Context, cp Checkpoint) error {
	dir := filepath.Join(s.root, "plans")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create plans dir: %w", err)
	}
	date := time.Now().UTC().Format("2006-01-02")
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", cp.SessionKey, date))

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
