package scanner

import "regexp"

// defaultRules is the rule-driven detector table, generalised from the
// teacher's Python-only lineRules/sourceRules into the three script
// languages the manifest parser recognises.
var defaultRules = []Rule{
	{
		ID:             "dangerous-exec",
		Severity:       SeverityCritical,
		Kind:           KindProcessExecution,
		Pattern:        regexp.MustCompile(`\b(subprocess\.|os\.system\s*\(|os\.popen\s*\(|commands\.getoutput\s*\()`),
		Languages:      []string{"python"},
		DefaultEnabled: true,
	},
	{
		ID:             "dynamic-code",
		Severity:       SeverityCritical,
		Kind:           KindObfuscatedCode,
		Pattern:        regexp.MustCompile(`\b(exec|eval|compile)\s*\(`),
		Languages:      []string{"python"},
		DefaultEnabled: true,
	},
	{
		ID:             "dynamic-import",
		Severity:       SeverityCritical,
		Kind:           KindObfuscatedCode,
		Pattern:        regexp.MustCompile(`\b(__import__|importlib\.import_module)\s*\(`),
		Languages:      []string{"python"},
		DefaultEnabled: true,
	},
	{
		ID:             "child-process-exec",
		Severity:       SeverityCritical,
		Kind:           KindProcessExecution,
		Pattern:        regexp.MustCompile(`child_process\s*\.\s*(exec|spawn|execSync)\s*\(`),
		Languages:      []string{"node"},
		DefaultEnabled: true,
	},
	{
		ID:             "dynamic-function",
		Severity:       SeverityCritical,
		Kind:           KindObfuscatedCode,
		Pattern:        regexp.MustCompile(`\beval\s*\(|new\s+Function\s*\(`),
		Languages:      []string{"node"},
		DefaultEnabled: true,
	},
	{
		ID:             "shell-pipe-to-interpreter",
		Severity:       SeverityCritical,
		Kind:           KindProcessExecution,
		Pattern:        regexp.MustCompile(`\|\s*(sh|bash|python3?)\b`),
		Languages:      []string{"bash"},
		DefaultEnabled: true,
	},
	{
		ID:             "network-request",
		Severity:       SeverityMedium,
		Kind:           KindNetworkRequest,
		Pattern:        regexp.MustCompile(`\b(requests\.|urllib\.|httpx\.|socket\.connect|aiohttp\.)`),
		Languages:      []string{"python"},
		DefaultEnabled: true,
	},
	{
		ID:             "network-request",
		Severity:       SeverityMedium,
		Kind:           KindNetworkRequest,
		Pattern:        regexp.MustCompile(`\b(fetch\s*\(|axios\.|http\.request\s*\(|https\.request\s*\()`),
		Languages:      []string{"node"},
		DefaultEnabled: true,
	},
	{
		ID:             "network-request",
		Severity:       SeverityMedium,
		Kind:           KindNetworkRequest,
		Pattern:        regexp.MustCompile(`\b(curl|wget)\b`),
		Languages:      []string{"bash"},
		DefaultEnabled: true,
	},
	{
		ID:             "file-operation",
		Severity:       SeverityLow,
		Kind:           KindFileOperation,
		Pattern:        regexp.MustCompile(`\bopen\s*\([^)]*['"][rwab]`),
		Languages:      []string{"python"},
		DefaultEnabled: true,
	},
	{
		ID:             "file-operation",
		Severity:       SeverityLow,
		Kind:           KindFileOperation,
		Pattern:        regexp.MustCompile(`\bfs\s*\.\s*(readFile|writeFile|unlink|rm)\w*\s*\(`),
		Languages:      []string{"node"},
		DefaultEnabled: true,
	},
}

// SourceRule checks the entire file content; ContextPattern, when set, must
// also match somewhere in the file for the finding to fire (AND logic) —
// grounded in the teacher's sourceRule ("env-harvesting", "potential-exfil").
type SourceRule struct {
	ID             string
	Severity       Severity
	Kind           Kind
	Pattern        *regexp.Regexp
	ContextPattern *regexp.Regexp
	Languages      []string
}

func (r SourceRule) appliesTo(language string) bool {
	if len(r.Languages) == 0 {
		return true
	}
	for _, l := range r.Languages {
		if l == language {
			return true
		}
	}
	return false
}

var defaultSourceRules = []SourceRule{
	{
		ID:             "env-harvesting",
		Severity:       SeverityHigh,
		Kind:           KindNetworkRequest,
		Pattern:        regexp.MustCompile(`os\.environ`),
		ContextPattern: regexp.MustCompile(`\b(requests\.|urllib\.|httpx\.|socket\.connect|aiohttp\.)`),
		Languages:      []string{"python"},
	},
	{
		ID:             "potential-exfil",
		Severity:       SeverityMedium,
		Kind:           KindFileOperation,
		Pattern:        regexp.MustCompile(`\bopen\s*\([^)]*['"][rb]`),
		ContextPattern: regexp.MustCompile(`\b(requests\.|urllib\.|httpx\.|socket\.connect|aiohttp\.)`),
		Languages:      []string{"python"},
	},
}
