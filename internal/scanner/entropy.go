package scanner

import (
	"math"
	"strings"
)

// entropyMinLen and entropyThreshold match original_source's scanner.rs
// constants exactly (MIN_LEN, THRESHOLD).
const (
	entropyMinLen    = 20
	entropyThreshold = 4.5
)

// shannonEntropy computes H = -Σ pᵢ·log₂(pᵢ) over byte frequencies.
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	var freq [256]int
	for i := 0; i < len(s); i++ {
		freq[s[i]]++
	}
	total := float64(len(s))
	var h float64
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		h -= p * math.Log2(p)
	}
	return h
}

func scanEntropy(lines []string, language string, add func(Issue)) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < entropyMinLen || isCommentLine(trimmed, language) {
			continue
		}
		h := shannonEntropy(trimmed)
		if h > entropyThreshold {
			add(Issue{
				RuleID:      "entropy-obfuscation",
				Severity:    SeverityMedium,
				Kind:        KindObfuscatedCode,
				Line:        i + 1,
				Snippet:     truncate(trimmed, 120),
				Description: "high-entropy line, possible obfuscated or encoded payload",
			})
		}
	}
}
