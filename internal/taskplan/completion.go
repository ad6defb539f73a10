package taskplan

import (
	"fmt"
	"strings"
)

// CheckCompletion scans content for a completion declaration for each
// uncompleted task and returns the ids it found, per spec.md §4.9's
// pattern family: "task <id> completed", "task<id> completed",
// "task <id> complete", "✅ task <id>" (case-insensitive).
func CheckCompletion(content string, tasks []Task) []int {
	if content == "" {
		return nil
	}
	lower := strings.ToLower(content)
	var found []int
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		patterns := []string{
			fmt.Sprintf("task %d completed", t.ID),
			fmt.Sprintf("task%d completed", t.ID),
			fmt.Sprintf("task %d complete", t.ID),
			fmt.Sprintf("✅ task %d", t.ID),
		}
		for _, p := range patterns {
			if strings.Contains(lower, p) {
				found = append(found, t.ID)
				break
			}
		}
	}
	return found
}

// MarkCompleted flips the Completed flag for the given task id and reports
// whether a matching task was found.
func MarkCompleted(tasks []Task, id int) bool {
	for i := range tasks {
		if tasks[i].ID == id {
			tasks[i].Completed = true
			return true
		}
	}
	return false
}

// AllCompleted reports whether every task in the list is completed. An
// empty list means no tasks were ever planned, not that the (nonexistent)
// plan is done, so it reports false rather than vacuously true.
func AllCompleted(tasks []Task) bool {
	if len(tasks) == 0 {
		return false
	}
	for _, t := range tasks {
		if !t.Completed {
			return false
		}
	}
	return true
}

// CurrentTask returns the first uncompleted task, or nil once all tasks
// are done (or the list is empty).
func CurrentTask(tasks []Task) *Task {
	for i := range tasks {
		if !tasks[i].Completed {
			return &tasks[i]
		}
	}
	return nil
}

// BuildNudgeMessage constructs the user message the agent loop injects
// when a response carries no tool calls and no completion, reminding the
// model of the plan and its current task (spec.md §4.10 step 3).
func BuildNudgeMessage(tasks []Task) string {
	current := CurrentTask(tasks)
	if current == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Continue executing the task plan. Remaining tasks:\n")
	for _, t := range tasks {
		status := "pending"
		if t.Completed {
			status = "done"
		}
		fmt.Fprintf(&sb, "- [%s] task %d: %s", status, t.ID, t.Description)
		if t.ToolHint != "" {
			fmt.Fprintf(&sb, " (tool_hint: %s)", t.ToolHint)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "\nCurrent task: %d — %s. Use the required tool now, then declare \"task %d completed\".", current.ID, current.Description, current.ID)
	return sb.String()
}
