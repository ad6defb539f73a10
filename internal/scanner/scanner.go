package scanner

import (
	"os"
	"path/filepath"
	"strings"
)

// Options gates which rule-driven kinds report findings when the caller
// has pre-authorised that capability class (§4.4a).
type Options struct {
	AllowNetwork     bool
	AllowFileOps     bool
	AllowProcessExec bool
	DisabledRules    []string
}

// Scanner runs the four detector families over script source.
type Scanner struct {
	opts  Options
	rules []Rule
}

func New(opts Options) *Scanner {
	return &Scanner{opts: opts, rules: defaultRules}
}

// ScanFile detects the language from path's extension and scans its
// contents.
func (s *Scanner) ScanFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	return s.ScanContent(string(data), detectLanguage(path)), nil
}

// ScanContent runs all four detector families over content and unions
// their issues. Result.IsSafe is true iff no issue exceeds Low.
func (s *Scanner) ScanContent(content, language string) Result {
	lines := strings.Split(content, "\n")

	var issues []Issue
	add := func(i Issue) { issues = append(issues, i) }

	s.scanWithRules(lines, language, add)
	s.scanSourceRules(content, language, add)
	scanEntropy(lines, language, add)
	scanBase64(lines, language, add)
	scanMultistage(lines, language, add)

	safe := true
	for _, i := range issues {
		if i.Severity != SeverityLow {
			safe = false
			break
		}
	}
	return Result{IsSafe: safe, Issues: issues}
}

func (s *Scanner) scanWithRules(lines []string, language string, add func(Issue)) {
	disabled := make(map[string]bool, len(s.opts.DisabledRules))
	for _, id := range s.opts.DisabledRules {
		disabled[id] = true
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isCommentLine(trimmed, language) {
			continue
		}
		for _, rule := range s.rules {
			if disabled[rule.ID] || !rule.appliesTo(language) {
				continue
			}
			if !rule.Pattern.MatchString(line) {
				continue
			}
			if !s.shouldReport(rule.Kind) {
				continue
			}
			add(Issue{
				RuleID:   rule.ID,
				Severity: rule.Severity,
				Kind:     rule.Kind,
				Line:     i + 1,
				Snippet:  truncate(trimmed, 120),
			})
		}
	}
}

func (s *Scanner) scanSourceRules(content, language string, add func(Issue)) {
	for _, rule := range defaultSourceRules {
		if !rule.appliesTo(language) {
			continue
		}
		if !rule.Pattern.MatchString(content) {
			continue
		}
		if rule.ContextPattern != nil && !rule.ContextPattern.MatchString(content) {
			continue
		}
		add(Issue{
			RuleID:   rule.ID,
			Severity: rule.Severity,
			Kind:     rule.Kind,
			Line:     0,
			Snippet:  "(full-source match)",
		})
	}
}

func (s *Scanner) shouldReport(kind Kind) bool {
	switch kind {
	case KindNetworkRequest:
		return !s.opts.AllowNetwork
	case KindFileOperation:
		return !s.opts.AllowFileOps
	case KindProcessExecution:
		return !s.opts.AllowProcessExec
	default:
		return true
	}
}

// isCommentLine is a simple, language-aware heuristic — not full parsing.
func isCommentLine(trimmed, language string) bool {
	switch language {
	case "python", "bash":
		return strings.HasPrefix(trimmed, "#")
	case "node":
		return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*")
	default:
		return false
	}
}

func detectLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return "python"
	case ".js", ".ts":
		return "node"
	case ".sh":
		return "bash"
	default:
		return "unknown"
	}
}

// truncate returns the first maxRunes runes of s, rune-safe, matching the
// teacher's safeRuneTruncate pattern in shell.go.
func truncate(s string, maxRunes int) string {
	count := 0
	for i := range s {
		count++
		if count > maxRunes {
			return s[:i]
		}
	}
	return s
}
