package summarize

import (
	"regexp"
	"strings"
)

// discourseMarkers are phrases that tend to flag a chunk as carrying a
// conclusion, a problem report, or a transition — the kind of sentence a
// skimming reader would not want cut.
var discourseMarkers = []string{
	"error", "warning", "fail", "exception", "traceback", "panic",
	"however", "therefore", "in summary", "in conclusion", "note that",
	"result:", "important", "critical", "deprecated", "todo", "fixme",
}

// entityPattern approximates "looks like a named thing": capitalized
// identifiers, dotted paths, and quoted tokens, which correlate with the
// chunk mentioning files, types, or commands worth keeping.
var entityPattern = regexp.MustCompile(`\b[A-Z][A-Za-z0-9_]{2,}\b|\b[\w./-]+\.\w{1,5}\b|"[^"]{2,40}"`)

// chunkScore combines three signals into a single relevance score used to
// rank chunks for head_tail_extract:
//   - position: edge chunks (the part of a log most likely to hold the
//     command line and the final result) score higher than middle chunks.
//   - discourse: presence of markers that typically flag noteworthy content.
//   - entity: density of file paths, identifiers, and quoted literals.
func chunkScore(chunk string, index, total int) float64 {
	position := positionScore(index, total)
	discourse := discourseScore(chunk)
	entity := entityScore(chunk)
	return position + discourse + entity
}

// positionScore tops out at 0.5 (at either edge) and bottoms out at 0 (dead
// center) — capped well under discourseScore/entityScore's reach so a
// chunk buried in the middle can still win a slot when it actually says
// something, rather than position alone always deciding the ranking.
func positionScore(index, total int) float64 {
	if total <= 1 {
		return 0.5
	}
	distFromStart := float64(index) / float64(total-1)
	distFromEnd := float64(total-1-index) / float64(total-1)
	edge := distFromStart
	if distFromEnd < edge {
		edge = distFromEnd
	}
	return 0.5 - edge
}

func discourseScore(chunk string) float64 {
	lower := strings.ToLower(chunk)
	hits := 0
	for _, marker := range discourseMarkers {
		hits += strings.Count(lower, marker)
	}
	return float64(hits) * 0.5
}

func entityScore(chunk string) float64 {
	matches := entityPattern.FindAllString(chunk, -1)
	// Diminishing returns past a handful of entities per chunk.
	score := float64(len(matches)) * 0.1
	if score > 0.5 {
		score = 0.5
	}
	return score
}
