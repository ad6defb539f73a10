package rules

import (
	"fmt"
	"strings"
)

// AllPlaceholders is the full placeholder set spec.md §4.8 names.
var AllPlaceholders = []string{
	"{{TODAY}}", "{{YESTERDAY}}", "{{RULES_SECTION}}", "{{EXAMPLES_SECTION}}",
	"{{SKILLS_INFO}}", "{{OUTPUT_DIR}}", "{{SKILLS_LIST}}",
}

// Render substitutes every key in values into template (keys already
// bracketed, e.g. "{{TODAY}}"). Missing *required* placeholders (named
// in requiredPlaceholders) are reported as warnings, but the template is
// rendered as-is regardless — a user-edited template is always respected.
func Render(template string, values map[string]string, requiredPlaceholders []string) (string, []string) {
	rendered := template
	for k, v := range values {
		rendered = strings.ReplaceAll(rendered, k, v)
	}

	var warnings []string
	for _, req := range requiredPlaceholders {
		if !strings.Contains(template, req) {
			warnings = append(warnings, fmt.Sprintf("template is missing required placeholder %s", req))
		}
	}
	return rendered, warnings
}

// RulesSection renders the "## Rules" block from a rule set, one
// instruction per line prefixed with its tool-hint when present.
func RulesSection(rules []Rule) string {
	if len(rules) == 0 {
		return "(no rules apply)"
	}
	var sb strings.Builder
	for _, r := range rules {
		if r.ToolHint != "" {
			fmt.Fprintf(&sb, "- [%s] %s\n", r.ToolHint, r.Instruction)
		} else {
			fmt.Fprintf(&sb, "- %s\n", r.Instruction)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ExamplesSection concatenates examples under individual headers, per
// spec.md §4.8's "examples are simply concatenated".
func ExamplesSection(examples []Example) string {
	if len(examples) == 0 {
		return "(no examples)"
	}
	var sb strings.Builder
	for _, ex := range examples {
		fmt.Fprintf(&sb, "### %s\n%s\n\n%s\n", ex.ID, ex.TaskPattern, ex.PlanTemplate)
		if ex.KeyInsight != "" {
			fmt.Fprintf(&sb, "Key insight: %s\n", ex.KeyInsight)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
