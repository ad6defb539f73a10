package scanner

import (
	"regexp"
	"strings"
)

type stageFamily struct {
	download *regexp.Regexp
	decode   *regexp.Regexp
	execute  *regexp.Regexp
}

var stageFamilies = map[string]stageFamily{
	"python": {
		download: regexp.MustCompile(`urllib\.request|requests\s*\.\s*(?:get|post|Session)|httplib|http\.client|wget\.download|urlopen\s*\(`),
		decode:   regexp.MustCompile(`base64\s*\.\s*(?:b64decode|decodebytes|decode)|codecs\s*\.\s*decode|bytes\.fromhex\s*\(`),
		execute:  regexp.MustCompile(`(?:^|[^.\w])exec\s*\(|eval\s*\(|subprocess\s*\.\s*(?:run|call|Popen)|os\s*\.\s*system\s*\(`),
	},
	"node": {
		download: regexp.MustCompile(`fetch\s*\(|axios\s*\.\s*(?:get|post)|http\s*\.\s*(?:get|request)\s*\(|https\s*\.\s*(?:get|request)\s*\(|require\s*\(\s*['"]node-fetch['"]`),
		decode:   regexp.MustCompile(`atob\s*\(|Buffer\s*\.\s*from\s*\([^)]*['"]base64['"]|\.toString\s*\(\s*['"]base64['"]`),
		execute:  regexp.MustCompile(`eval\s*\(|new\s+Function\s*\(|child_process\s*\.\s*(?:exec|spawn|execSync)|require\s*\(\s*['"]vm['"]`),
	},
}

// scanMultistage implements §4.4(d): first occurrence of each of
// download/decode/execute across the whole file; two-of-three → High,
// three-of-three → Critical.
func scanMultistage(lines []string, language string, add func(Issue)) {
	families, ok := stageFamilies[language]
	if !ok {
		return
	}

	var dlLine, decLine, execLine int
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isCommentLine(trimmed, language) {
			continue
		}
		if dlLine == 0 && families.download.MatchString(line) {
			dlLine = i + 1
		}
		if decLine == 0 && families.decode.MatchString(line) {
			decLine = i + 1
		}
		if execLine == 0 && families.execute.MatchString(line) {
			execLine = i + 1
		}
	}

	type stage struct {
		name string
		line int
	}
	var matched []stage
	if dlLine > 0 {
		matched = append(matched, stage{"download", dlLine})
	}
	if decLine > 0 {
		matched = append(matched, stage{"decode", decLine})
	}
	if execLine > 0 {
		matched = append(matched, stage{"execute", execLine})
	}
	if len(matched) < 2 {
		return
	}

	severity := SeverityHigh
	if len(matched) == 3 {
		severity = SeverityCritical
	}
	first := matched[0].line
	var names []string
	for _, s := range matched {
		names = append(names, s.name)
		if s.line < first {
			first = s.line
		}
	}

	add(Issue{
		RuleID:      "multistage-payload",
		Severity:    severity,
		Kind:        KindMultiStagePayload,
		Line:        first,
		Snippet:     "stages: " + strings.Join(names, ", "),
		Description: "multi-stage payload chain detected across download/decode/execute",
	})
}
