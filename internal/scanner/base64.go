package scanner

import (
	"encoding/base64"
	"regexp"
	"strings"
)

var b64LiteralRe = regexp.MustCompile(`['"]([A-Za-z0-9+/]{50,}={0,2})['"]`)

var base64DecodeRe = map[string]*regexp.Regexp{
	"python": regexp.MustCompile(`base64\s*\.\s*(?:b64decode|decodebytes|decode)\s*\(|codecs\s*\.\s*decode\s*\(`),
	"node":   regexp.MustCompile(`atob\s*\(|Buffer\s*\.\s*from\s*\([^)]*['"]base64['"]`),
}

var dangerousDecodedMarkers = []string{
	"/bin/sh", "/bin/bash", "cmd.exe",
	"wget ", "curl ", "powershell",
	"chmod +x", "chmod 777", "sudo ",
	"exec(", "eval(", "import socket",
	"subprocess", "os.system",
}

// scanBase64 implements §4.4(c): quoted base64 literals ≥ 50 chars plus
// language-specific decode-call patterns on the same line, tiered by
// whether the decoded bytes look dangerous.
func scanBase64(lines []string, language string, add func(Issue)) {
	decodeRe, ok := base64DecodeRe[language]
	if !ok {
		return
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isCommentLine(trimmed, language) {
			continue
		}

		hasDecodeCall := decodeRe.MatchString(line)
		match := b64LiteralRe.FindStringSubmatch(line)

		switch {
		case hasDecodeCall && match != nil:
			literal := match[1]
			if reason, dangerous := analyzeDecodedBase64(literal); dangerous {
				add(Issue{
					RuleID:      "base64-encoded-payload",
					Severity:    SeverityCritical,
					Kind:        KindEncodedPayload,
					Line:        i + 1,
					Snippet:     truncate(trimmed, 120),
					Description: "base64 decode call with literal that decodes to dangerous content: " + reason,
				})
			} else {
				add(Issue{
					RuleID:      "base64-encoded-payload",
					Severity:    SeverityHigh,
					Kind:        KindEncodedPayload,
					Line:        i + 1,
					Snippet:     truncate(trimmed, 120),
					Description: "base64 decode call with embedded literal — possible encoded payload",
				})
			}
		case hasDecodeCall:
			add(Issue{
				RuleID:      "base64-decode-call",
				Severity:    SeverityMedium,
				Kind:        KindEncodedPayload,
				Line:        i + 1,
				Snippet:     truncate(trimmed, 120),
				Description: "base64/codec decode call detected — verify the decoded content is safe",
			})
		case match != nil:
			add(Issue{
				RuleID:      "base64-literal",
				Severity:    SeverityMedium,
				Kind:        KindEncodedPayload,
				Line:        i + 1,
				Snippet:     truncate(trimmed, 120),
				Description: "long base64-encoded string literal — possible encoded payload",
			})
		}
	}
}

// analyzeDecodedBase64 attempts to base64-decode literal and checks the
// decoded bytes for known-dangerous substrings.
func analyzeDecodedBase64(literal string) (reason string, dangerous bool) {
	decoded, err := base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(literal, "="))
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(literal)
		if err != nil {
			return "", false
		}
	}
	lower := strings.ToLower(string(decoded))
	for _, marker := range dangerousDecodedMarkers {
		if strings.Contains(lower, marker) {
			return marker, true
		}
	}
	if strings.Contains(lower, "connect(") && (strings.Contains(lower, "socket") || strings.Contains(lower, "127.0.0")) {
		return "socket connect — possible reverse shell", true
	}
	return "", false
}
