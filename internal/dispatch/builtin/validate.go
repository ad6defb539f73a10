package builtin

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// validateSyntax runs a best-effort post-edit check: JSON/YAML parseability
// by extension, then bracket balance for everything else. It never fails the
// write — callers attach the result as a warning (spec.md §4.7).
func validateSyntax(path, content string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var v any
		if err := json.Unmarshal([]byte(content), &v); err != nil {
			return fmt.Sprintf("JSON syntax warning: %v", err)
		}
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal([]byte(content), &v); err != nil {
			return fmt.Sprintf("YAML syntax warning: %v", err)
		}
	}
	return checkBracketBalance(content)
}

type bracketFrame struct {
	char byte
	line int
}

// checkBracketBalance walks content tracking (), [], {} nesting while
// skipping quoted-string contents, mirroring search_replace.rs's
// check_bracket_balance line for line.
func checkBracketBalance(content string) string {
	var stack []bracketFrame
	inString := false
	var stringChar byte
	escaped := false
	line := 1

	for i := 0; i < len(content); i++ {
		ch := content[i]
		if ch == '\n' {
			line++
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if inString {
			if ch == stringChar {
				inString = false
			}
			continue
		}

		switch ch {
		case '"', '\'':
			inString = true
			stringChar = ch
		case '(', '[', '{':
			stack = append(stack, bracketFrame{ch, line})
		case ')', ']', '}':
			expected := map[byte]byte{')': '(', ']': '[', '}': '{'}[ch]
			if len(stack) == 0 {
				return fmt.Sprintf("Unmatched closing '%c' at line %d", ch, line)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.char != expected {
				return fmt.Sprintf("Bracket mismatch: '%c' at line %d does not match '%c' at line %d", ch, line, top.char, top.line)
			}
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return fmt.Sprintf("Unclosed '%c' at line %d", top.char, top.line)
	}
	return ""
}
