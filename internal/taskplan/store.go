package taskplan

import (
	"strconv"
	"sync"

	"github.com/skilllite/skilllite/internal/dispatch/builtin"
)

// Store holds the current task list per session, grounded on
// internal/plan/plan_store.go's session-keyed, defensive-copy shape.
type Store struct {
	mu    sync.RWMutex
	tasks map[string][]Task
}

func NewStore() *Store {
	return &Store{tasks: make(map[string][]Task)}
}

func (s *Store) Set(sessionID string, tasks []Task) {
	cp := make([]Task, len(tasks))
	copy(cp, tasks)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[sessionID] = cp
}

func (s *Store) Get(sessionID string) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := s.tasks[sessionID]
	if tasks == nil {
		return nil
	}
	cp := make([]Task, len(tasks))
	copy(cp, tasks)
	return cp
}

func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, sessionID)
}

// Adapter exposes a Store as a builtin.PlanStore, so update_task_plan and
// chat_plan can mutate/read the same task list the planner generated. The
// two models don't share a wire shape — builtin.PlanStep is the richer
// five-state progress model the execution-time tool speaks, while Task is
// the planner's id/description/tool_hint/completed model — so the
// conversion is lossy in one direction: PlanStep has no tool-hint field of
// its own, so Task.ToolHint round-trips through PlanStep.Detail.
type Adapter struct {
	store *Store
}

func NewAdapter(store *Store) *Adapter {
	return &Adapter{store: store}
}

func (a *Adapter) Get(sessionID string) []builtin.PlanStep {
	tasks := a.store.Get(sessionID)
	if tasks == nil {
		return nil
	}
	steps := make([]builtin.PlanStep, len(tasks))
	for i, t := range tasks {
		steps[i] = taskToStep(t)
	}
	return steps
}

func (a *Adapter) Set(sessionID string, steps []builtin.PlanStep) {
	tasks := make([]Task, len(steps))
	for i, s := range steps {
		tasks[i] = stepToTask(s, i)
	}
	a.store.Set(sessionID, tasks)
}

func (a *Adapter) Update(sessionID, stepID, status, detail string) bool {
	tasks := a.store.Get(sessionID)
	for i := range tasks {
		if strconv.Itoa(tasks[i].ID) == stepID {
			tasks[i].Completed = status == "done" || status == "skipped"
			if detail != "" {
				tasks[i].ToolHint = detail
			}
			a.store.Set(sessionID, tasks)
			return true
		}
	}
	return false
}

func taskToStep(t Task) builtin.PlanStep {
	status := "pending"
	if t.Completed {
		status = "done"
	}
	return builtin.PlanStep{
		ID:     strconv.Itoa(t.ID),
		Title:  t.Description,
		Status: status,
		Detail: t.ToolHint,
	}
}

func stepToTask(s builtin.PlanStep, fallbackID int) Task {
	id, err := strconv.Atoi(s.ID)
	if err != nil {
		id = fallbackID + 1
	}
	return Task{
		ID:          id,
		Description: s.Title,
		ToolHint:    s.Detail,
		Completed:   s.Status == "done" || s.Status == "skipped",
	}
}
