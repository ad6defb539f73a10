// Package rules implements the planning rule engine (spec.md §4.8): a
// three-layer (seed / global / project) store of planning rules and
// worked examples merged by id, rendered into prompt templates for the
// task planner. Grounded on internal/prompt/loader.go's layered-load and
// disk-falls-back-to-embed shape.
package rules

// Origin marks where a rule or example came from. It is informational:
// whether a later source may overwrite a rule during merge is decided by
// Rule.Mutable (see mergeRules), not by Origin.
type Origin string

const (
	OriginSeed    Origin = "seed"
	OriginEvolved Origin = "evolved"
	OriginUser    Origin = "user"
)

// Rule is one planning directive the task planner's prompt is built from.
type Rule struct {
	ID              string   `json:"id"`
	Priority        int      `json:"priority"` // higher sorts first
	Keywords        []string `json:"keywords,omitempty"`
	ContextKeywords []string `json:"context_keywords,omitempty"`
	ToolHint        string   `json:"tool_hint,omitempty"`
	Instruction     string   `json:"instruction"`
	Mutable         bool     `json:"mutable"`
	Origin          Origin   `json:"origin"`
	Reusable        bool     `json:"reusable"`
	Effectiveness   float64  `json:"effectiveness"`
	TriggerCount    int      `json:"trigger_count"`
}

// generic reports whether the rule has no keyword gate and therefore
// always applies during compaction.
func (r Rule) generic() bool {
	return len(r.Keywords) == 0 && len(r.ContextKeywords) == 0
}

// Example is a worked task-plan pairing concatenated into the "##
// Examples" prompt section.
type Example struct {
	ID           string `json:"id"`
	TaskPattern  string `json:"task_pattern"`
	PlanTemplate string `json:"plan_template"`
	KeyInsight   string `json:"key_insight,omitempty"`
	Origin       Origin `json:"origin"`
}
