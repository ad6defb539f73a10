package rules

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

//go:embed seed/*
var seedFS embed.FS

// Engine holds the merged rule/example set and the template files, with
// the same disk-overrides-embed, cache-until-Reload shape as
// internal/prompt.PromptLoader.
type Engine struct {
	globalDir  string // e.g. ~/.skilllite/prompts
	projectDir string // e.g. <workspace>/prompts

	mu        sync.RWMutex
	rules     []Rule
	examples  []Example
	templates map[string]string
	loaded    bool
}

// NewEngine creates an Engine reading global and project override
// directories in addition to the compiled-in seed. Either may be empty.
func NewEngine(globalDir, projectDir string) *Engine {
	return &Engine{globalDir: globalDir, projectDir: projectDir}
}

func (e *Engine) ensureLoaded() {
	e.mu.RLock()
	loaded := e.loaded
	e.mu.RUnlock()
	if loaded {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return
	}
	e.load()
	e.loaded = true
}

// Reload clears the cache and forces the next access to re-read from
// disk + embedded seed.
func (e *Engine) Reload() {
	e.mu.Lock()
	e.loaded = false
	e.mu.Unlock()
}

func (e *Engine) load() {
	e.templates = make(map[string]string)

	seedRules := loadSeedRules()
	seedExamples := loadSeedExamples()

	ruleIndex := map[string]Rule{}
	for _, r := range seedRules {
		ruleIndex[r.ID] = r
	}
	exampleIndex := map[string]Example{}
	for _, ex := range seedExamples {
		exampleIndex[ex.ID] = ex
	}

	for _, dir := range []string{e.globalDir, e.projectDir} {
		if dir == "" {
			continue
		}
		mergeRules(ruleIndex, readRulesFile(filepath.Join(dir, "rules.json")))
		mergeExamples(exampleIndex, readExamplesFile(filepath.Join(dir, "examples.json")))
		for _, name := range []string{"system.md", "planning.md", "execution.md", "examples.md"} {
			if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
				e.templates[name] = string(data)
			}
		}
	}

	for name, content := range loadSeedTemplates() {
		if _, ok := e.templates[name]; !ok {
			e.templates[name] = content
		}
	}

	e.rules = make([]Rule, 0, len(ruleIndex))
	for _, r := range ruleIndex {
		e.rules = append(e.rules, r)
	}
	sort.Slice(e.rules, func(i, j int) bool {
		if e.rules[i].Priority != e.rules[j].Priority {
			return e.rules[i].Priority > e.rules[j].Priority
		}
		return e.rules[i].ID < e.rules[j].ID
	})

	e.examples = make([]Example, 0, len(exampleIndex))
	for _, ex := range exampleIndex {
		e.examples = append(e.examples, ex)
	}
	sort.Slice(e.examples, func(i, j int) bool { return e.examples[i].ID < e.examples[j].ID })
}

// mergeRules applies "later source overrides earlier for immutable seed
// rules; preserves mutable user/evolved rules" (spec.md §4.8): an
// override of a rule the caller has already marked mutable is dropped
// unless the incoming rule is itself mutable (a real user/evolved edit),
// so a seed refresh never silently clobbers a rule the user tuned.
func mergeRules(index map[string]Rule, incoming []Rule) {
	for _, r := range incoming {
		if existing, ok := index[r.ID]; ok && existing.Mutable && !r.Mutable {
			continue
		}
		index[r.ID] = r
	}
}

func mergeExamples(index map[string]Example, incoming []Example) {
	for _, ex := range incoming {
		index[ex.ID] = ex
	}
}

func loadSeedRules() []Rule {
	data, err := fs.ReadFile(seedFS, "seed/rules.json")
	if err != nil {
		log.Printf("[rules] failed to read embedded seed rules: %v", err)
		return nil
	}
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		log.Printf("[rules] failed to parse embedded seed rules: %v", err)
		return nil
	}
	return rules
}

func loadSeedExamples() []Example {
	data, err := fs.ReadFile(seedFS, "seed/examples.json")
	if err != nil {
		log.Printf("[rules] failed to read embedded seed examples: %v", err)
		return nil
	}
	var examples []Example
	if err := json.Unmarshal(data, &examples); err != nil {
		log.Printf("[rules] failed to parse embedded seed examples: %v", err)
		return nil
	}
	return examples
}

func loadSeedTemplates() map[string]string {
	names := []string{"system.md", "planning.md", "execution.md", "examples.md"}
	out := make(map[string]string, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(seedFS, "seed/"+name)
		if err != nil {
			continue
		}
		out[name] = string(data)
	}
	return out
}

func readRulesFile(path string) []Rule {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		log.Printf("[rules] failed to parse %s: %v", path, err)
		return nil
	}
	return rules
}

func readExamplesFile(path string) []Example {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var examples []Example
	if err := json.Unmarshal(data, &examples); err != nil {
		log.Printf("[rules] failed to parse %s: %v", path, err)
		return nil
	}
	return examples
}

// Rules returns the full merged rule set, highest priority first.
func (e *Engine) Rules() []Rule {
	e.ensureLoaded()
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Examples returns the full merged example set.
func (e *Engine) Examples() []Example {
	e.ensureLoaded()
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Example, len(e.examples))
	copy(out, e.examples)
	return out
}

// CompactRules filters the rule set down to generic rules plus those
// whose keywords/context-keywords appear in userMessage, for a
// "compact-planning capable" model (spec.md §4.8).
func (e *Engine) CompactRules(userMessage string) []Rule {
	all := e.Rules()
	lower := strings.ToLower(userMessage)

	var out []Rule
	for _, r := range all {
		if r.generic() {
			out = append(out, r)
			continue
		}
		if matchesAny(lower, r.Keywords) || matchesAny(lower, r.ContextKeywords) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAny(lower string, terms []string) bool {
	for _, k := range terms {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// Template returns the named prompt template (system.md, planning.md,
// execution.md, examples.md), disk-override-then-embedded-seed.
func (e *Engine) Template(name string) string {
	e.ensureLoaded()
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.templates[name]
}
