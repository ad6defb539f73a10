package taskplan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skilllite/skilllite/internal/llm"
	"github.com/skilllite/skilllite/internal/manifest"
	"github.com/skilllite/skilllite/internal/rules"
)

// skillCreationMarkers flags a task as "about creating a skill" for
// auto-enhancement, mirroring original_source's skill-creator substring
// check but generalized off any one named skill.
var skillCreationMarkers = []string{"skill-creator", "new skill", "create skill", "creating a skill"}

const skillMDMarker = "skill.md"

// Planner generates and tracks a task list for a single agent-loop run.
// It is stateless across sessions — the caller owns the generated []Task
// and feeds it back into CheckCompletion/MarkCompleted each iteration.
type Planner struct {
	provider llm.Provider
	engine   *rules.Engine
}

func NewPlanner(provider llm.Provider, engine *rules.Engine) *Planner {
	return &Planner{provider: provider, engine: engine}
}

// GenerateTaskList builds the planning prompt from the rule engine's
// template + compacted rules + examples, asks the model for a JSON task
// array, and applies auto-enhancement. On parse failure or model error it
// falls back to a single task carrying the raw user message verbatim, per
// spec.md §4.9.
func (p *Planner) GenerateTaskList(ctx context.Context, userMessage string, skills []*manifest.Manifest) ([]Task, error) {
	prompt := p.buildPlanningPrompt(userMessage, skills)

	resp, err := p.provider.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompt},
		{Role: llm.RoleUser, Content: userMessage},
	}, nil)
	if err != nil {
		return fallbackTaskList(userMessage), nil
	}

	tasks, err := parseTaskList(resp.Content)
	if err != nil {
		return fallbackTaskList(userMessage), nil
	}
	return autoEnhance(tasks), nil
}

func fallbackTaskList(userMessage string) []Task {
	return []Task{{ID: 1, Description: userMessage, Completed: false}}
}

func (p *Planner) buildPlanningPrompt(userMessage string, skills []*manifest.Manifest) string {
	tmpl := p.engine.Template("planning.md")
	compacted := p.engine.CompactRules(userMessage)

	rendered, _ := rules.Render(tmpl, map[string]string{
		"{{RULES_SECTION}}":    rules.RulesSection(compacted),
		"{{EXAMPLES_SECTION}}": rules.ExamplesSection(p.engine.Examples()),
		"{{SKILLS_LIST}}":      skillsList(skills),
	}, nil)
	return rendered
}

func skillsList(skills []*manifest.Manifest) string {
	if len(skills) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, m := range skills {
		desc := m.Description
		if desc == "" {
			desc = "(no description)"
		}
		fmt.Fprintf(&sb, "- %s: %s\n", m.Name, desc)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// parseTaskList tolerates a response wrapped in ``` or ```json fences, per
// spec.md §4.9's "Parse, tolerating ``` fences."
func parseTaskList(raw string) ([]Task, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var tasks []Task
	if err := json.Unmarshal([]byte(cleaned), &tasks); err != nil {
		return nil, fmt.Errorf("parse task list: %w", err)
	}
	return tasks, nil
}

// autoEnhance appends a SKILL.md-writing task when any task's description
// or tool-hint suggests creating a skill but no task writes the manifest.
func autoEnhance(tasks []Task) []Task {
	var mentionsSkillCreation, hasSkillMDTask bool
	maxID := 0
	for _, t := range tasks {
		descLower := strings.ToLower(t.Description)
		hintLower := strings.ToLower(t.ToolHint)
		for _, marker := range skillCreationMarkers {
			if strings.Contains(descLower, marker) || strings.Contains(hintLower, marker) {
				mentionsSkillCreation = true
			}
		}
		if strings.Contains(descLower, skillMDMarker) {
			hasSkillMDTask = true
		}
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	if mentionsSkillCreation && !hasSkillMDTask {
		tasks = append(tasks, Task{
			ID:          maxID + 1,
			Description: "Write SKILL.md with the skill's description, usage, and parameter documentation",
			ToolHint:    "file_operation",
			Completed:   false,
		})
	}
	return tasks
}

// EffectiveMaxIterations implements the plan-driven budget formula from
// spec.md §4.9: min(global-max, task-count × per-task-max). An empty task
// list returns 0, signalling "answer directly, no tools" to the caller.
func EffectiveMaxIterations(taskCount, perTaskMax, globalMax int) int {
	if taskCount == 0 {
		return 0
	}
	budget := taskCount * perTaskMax
	if budget > globalMax {
		return globalMax
	}
	return budget
}
