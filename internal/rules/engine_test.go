package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEngine_LoadsSeedRules(t *testing.T) {
	e := NewEngine("", "")
	rules := e.Rules()
	if len(rules) == 0 {
		t.Fatal("expected embedded seed rules to load")
	}
	for i := 1; i < len(rules); i++ {
		if rules[i-1].Priority < rules[i].Priority {
			t.Errorf("rules not sorted by descending priority at index %d", i)
		}
	}
}

func TestEngine_ProjectOverrideMergesById(t *testing.T) {
	projectDir := t.TempDir()
	os.WriteFile(filepath.Join(projectDir, "rules.json"), []byte(`[
		{"id": "always-prefer-existing-skill", "priority": 100, "instruction": "overridden", "mutable": false, "origin": "seed"},
		{"id": "custom-rule", "priority": 10, "instruction": "a project-only rule", "mutable": true, "origin": "user"}
	]`), 0o644)

	e := NewEngine("", projectDir)
	rules := e.Rules()

	var found, customFound bool
	for _, r := range rules {
		if r.ID == "always-prefer-existing-skill" && r.Instruction == "overridden" {
			found = true
		}
		if r.ID == "custom-rule" {
			customFound = true
		}
	}
	if !found {
		t.Error("expected project override to replace the seed rule's instruction")
	}
	if !customFound {
		t.Error("expected project-only rule to be present")
	}
}

func TestEngine_MutableRuleSurvivesSeedRefresh(t *testing.T) {
	index := map[string]Rule{
		"r1": {ID: "r1", Instruction: "user tuned this", Mutable: true, Origin: OriginUser},
	}
	mergeRules(index, []Rule{{ID: "r1", Instruction: "seed default", Mutable: false, Origin: OriginSeed}})

	if index["r1"].Instruction != "user tuned this" {
		t.Errorf("expected mutable user rule to survive a seed overwrite attempt, got %q", index["r1"].Instruction)
	}
}

func TestEngine_CompactRules_FiltersByKeyword(t *testing.T) {
	e := NewEngine("", "")
	rules := e.CompactRules("please delete the old cache directory")

	var sawDestructive bool
	for _, r := range rules {
		if r.ID == "destructive-commands-need-confirmation" {
			sawDestructive = true
		}
	}
	if !sawDestructive {
		t.Error("expected the destructive-command rule to match 'delete'")
	}
}

func TestEngine_CompactRules_AlwaysIncludesGeneric(t *testing.T) {
	e := NewEngine("", "")
	rules := e.CompactRules("totally unrelated message about weather")

	var sawGeneric bool
	for _, r := range rules {
		if r.ID == "always-prefer-existing-skill" {
			sawGeneric = true
		}
	}
	if !sawGeneric {
		t.Error("expected the generic (keyword-less) rule to always apply")
	}
}

func TestRender_WarnsOnMissingRequiredPlaceholder(t *testing.T) {
	tmpl := "hello {{TODAY}}"
	_, warnings := Render(tmpl, map[string]string{"{{TODAY}}": "2026-07-30"}, AllPlaceholders)
	if len(warnings) == 0 {
		t.Error("expected warnings for placeholders absent from the template")
	}
}

func TestRender_RespectsUserEditDespiteWarnings(t *testing.T) {
	tmpl := "no placeholders here at all"
	rendered, warnings := Render(tmpl, map[string]string{"{{TODAY}}": "2026-07-30"}, AllPlaceholders)
	if rendered != tmpl {
		t.Errorf("expected rendering to pass the template through unchanged, got %q", rendered)
	}
	if len(warnings) != len(AllPlaceholders) {
		t.Errorf("expected a warning per missing placeholder, got %d", len(warnings))
	}
}

func TestRulesSection_EmptyIsPlaceholder(t *testing.T) {
	if got := RulesSection(nil); got != "(no rules apply)" {
		t.Errorf("got %q", got)
	}
}
