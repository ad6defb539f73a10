package summarize

import "fmt"

// deterministicFallback implements spec.md §4.11's "On any failure, fall
// back to a deterministic head+tail textual slice with a length note" —
// grounded in the teacher's safeRuneTruncate (internal/tool/builtin/shell.go),
// generalized to keep both ends of the content instead of only the head.
func deterministicFallback(content string, headChars, tailChars int) string {
	runes := []rune(content)
	total := len(runes)
	if total <= headChars+tailChars {
		return content
	}
	head := string(runes[:headChars])
	tail := string(runes[total-tailChars:])
	return fmt.Sprintf("%s\n... (truncated, %d characters total) ...\n%s", head, total, tail)
}
