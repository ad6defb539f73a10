package builtin

import (
	"context"
	"encoding/json"
	"testing"
)

type memoryPlanStore struct {
	plans map[string][]PlanStep
}

func newMemoryPlanStore() *memoryPlanStore {
	return &memoryPlanStore{plans: make(map[string][]PlanStep)}
}

func (s *memoryPlanStore) Get(sessionID string) []PlanStep { return s.plans[sessionID] }
func (s *memoryPlanStore) Set(sessionID string, steps []PlanStep) {
	s.plans[sessionID] = append([]PlanStep(nil), steps...)
}
func (s *memoryPlanStore) Update(sessionID, stepID, status, detail string) bool {
	steps := s.plans[sessionID]
	for i := range steps {
		if steps[i].ID == stepID {
			steps[i].Status = status
			steps[i].Detail = detail
			return true
		}
	}
	return false
}

type stubRenderer struct{ text string }

func (s stubRenderer) Render(string) string { return s.text }

func TestUpdateTaskPlanTool_SetAndDedup(t *testing.T) {
	store := newMemoryPlanStore()
	tool := NewUpdateTaskPlanTool(store, "s1", nil)

	args, _ := json.Marshal(updateTaskPlanArgs{Operation: "set", Steps: []PlanStep{
		{ID: "a", Title: "do a"}, {ID: "b", Title: "do b"},
	}})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	// Re-sending the identical plan should be a no-op warning, not an error.
	result, err = tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected error on resend: %s", result.Error)
	}
}

func TestUpdateTaskPlanTool_UpdateAndFuzzyCorrection(t *testing.T) {
	store := newMemoryPlanStore()
	store.Set("s1", []PlanStep{{ID: "check_conflicts", Title: "check", Status: "pending"}})
	tool := NewUpdateTaskPlanTool(store, "s1", nil)

	args, _ := json.Marshal(updateTaskPlanArgs{Operation: "update", StepID: "check_conflict", Status: "done"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error != "" {
		t.Fatalf("expected fuzzy step-id correction to succeed, got: %s", result.Error)
	}
	if got := store.Get("s1")[0].Status; got != "done" {
		t.Errorf("got status %q", got)
	}
}

func TestUpdateTaskPlanTool_RejectsRepeatStatus(t *testing.T) {
	store := newMemoryPlanStore()
	store.Set("s1", []PlanStep{{ID: "a", Title: "do a", Status: "done"}})
	tool := NewUpdateTaskPlanTool(store, "s1", nil)

	args, _ := json.Marshal(updateTaskPlanArgs{Operation: "update", StepID: "a", Status: "done"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error == "" {
		t.Fatal("expected an error re-setting the same status")
	}
}

func TestChatPlanTool_RendersSteps(t *testing.T) {
	store := newMemoryPlanStore()
	store.Set("s1", []PlanStep{{ID: "a", Title: "do a", Status: "pending"}})
	tool := NewChatPlanTool(store, "s1")

	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if result.Output == "" {
		t.Fatal("expected non-empty plan rendering")
	}
}

func TestChatHistoryTool(t *testing.T) {
	tool := NewChatHistoryTool(stubRenderer{text: "user: hi\nassistant: hello"}, "s1")
	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if result.Output != "user: hi\nassistant: hello" {
		t.Errorf("got %q", result.Output)
	}
}
