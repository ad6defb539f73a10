// Package taskplan implements the planning rule engine's consumer: it turns
// a user message plus the skill catalog into a task list, tracks completion
// as the agent loop executes it, and computes the plan-driven iteration
// budget (spec.md §4.9).
package taskplan

// Task is one step of a generated plan. ID is the planner-assigned ordinal,
// not a stable identifier across re-plans — update_task_plan's set
// operation replaces the whole list, and its update operation patches one
// task matched by this id in decimal form.
type Task struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	ToolHint    string `json:"tool_hint,omitempty"`
	Completed   bool   `json:"completed"`
}

// skillHint is the name/description pair the planning prompt lists for
// each skill. skillsList reads those two fields straight from the
// manifests it is given and does not build skillHint values.
type skillHint struct {
	Name        string
	Description string
}
