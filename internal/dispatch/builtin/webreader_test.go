package builtin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractWebContentBasic(t *testing.T) {
	htmlStr := `<html><head><title>Test Page</title></head>
	<body><p>first paragraph</p><p>second paragraph</p></body></html>`

	title, _, content, err := extractWebContent(strings.NewReader(htmlStr))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title != "Test Page" {
		t.Errorf("title = %q, want %q", title, "Test Page")
	}
	if !strings.Contains(content, "first paragraph") || !strings.Contains(content, "second paragraph") {
		t.Errorf("content missing paragraphs: %q", content)
	}
}

func TestExtractWebContentSkipsScriptStyleNav(t *testing.T) {
	htmlStr := `<html><body>
	<script>var x = 1;</script>
	<style>.hidden{display:none}</style>
	<p>visible content</p>
	<nav>site nav</nav>
	</body></html>`

	_, _, content, _ := extractWebContent(strings.NewReader(htmlStr))

	if strings.Contains(content, "var x") {
		t.Error("script content should be skipped")
	}
	if strings.Contains(content, ".hidden") {
		t.Error("style content should be skipped")
	}
	if strings.Contains(content, "site nav") {
		t.Error("nav content should be skipped")
	}
	if !strings.Contains(content, "visible content") {
		t.Error("body text should be extracted")
	}
}

func TestExtractWebContentNestedSkip(t *testing.T) {
	htmlStr := `<html><body>
	<nav><div><a href="#">link</a></div></nav>
	<p>body text</p>
	</body></html>`

	_, _, content, _ := extractWebContent(strings.NewReader(htmlStr))

	if strings.Contains(content, "link") {
		t.Error("nested nav content should be skipped")
	}
	if !strings.Contains(content, "body text") {
		t.Error("body text should be extracted")
	}
}

func TestExtractWebContentMetaDescription(t *testing.T) {
	htmlStr := `<html><head>
	<title>Test</title>
	<meta name="description" content="a page summary">
	</head><body><p>body</p></body></html>`

	_, desc, _, _ := extractWebContent(strings.NewReader(htmlStr))
	if desc != "a page summary" {
		t.Errorf("description = %q, want %q", desc, "a page summary")
	}
}

func TestExtractWebContentOGDescriptionFallback(t *testing.T) {
	htmlStr := `<html><head>
	<title>OG Test</title>
	<meta property="og:description" content="open graph summary">
	</head><body><p>body</p></body></html>`

	_, desc, _, _ := extractWebContent(strings.NewReader(htmlStr))
	if desc != "open graph summary" {
		t.Errorf("description = %q, want %q", desc, "open graph summary")
	}
}

func TestExtractWebContentArticleHeaderPreserved(t *testing.T) {
	htmlStr := `<html><body>
	<header>site chrome</header>
	<article><header>byline</header><p>article body</p></article>
	</body></html>`

	_, _, content, _ := extractWebContent(strings.NewReader(htmlStr))
	if strings.Contains(content, "site chrome") {
		t.Error("page-level header should be skipped")
	}
	if !strings.Contains(content, "byline") {
		t.Error("header inside article should be preserved")
	}
	if !strings.Contains(content, "article body") {
		t.Error("article body should be extracted")
	}
}

func TestWebReaderToolInterface(t *testing.T) {
	rt := NewWebReaderTool()
	if rt.Name() != "web_reader" {
		t.Errorf("Name() = %q, want %q", rt.Name(), "web_reader")
	}
	if rt.Description() == "" {
		t.Error("Description() should not be empty")
	}
	schema := rt.InputSchema()
	if !strings.Contains(string(schema), `"url"`) {
		t.Error("InputSchema() should mention the url field")
	}
}

func TestWebReaderExecute_RejectsNonHTTPScheme(t *testing.T) {
	rt := NewWebReaderTool()
	result, err := rt.Execute(context.Background(), []byte(`{"url":"ftp://example.com"}`))
	if err != nil {
		t.Fatalf("Execute should not return a Go error: %v", err)
	}
	if result.Error == "" {
		t.Error("expected an error result for a non-http(s) URL")
	}
}

func TestWebReaderExecute_RejectsEmptyURL(t *testing.T) {
	rt := NewWebReaderTool()
	result, err := rt.Execute(context.Background(), []byte(`{"url":""}`))
	if err != nil {
		t.Fatalf("Execute should not return a Go error: %v", err)
	}
	if result.Error == "" {
		t.Error("expected an error result for an empty URL")
	}
}

func TestWebReaderExecute_RejectsMalformedArgs(t *testing.T) {
	rt := NewWebReaderTool()
	result, err := rt.Execute(context.Background(), []byte(`not json`))
	if err != nil {
		t.Fatalf("Execute should not return a Go error: %v", err)
	}
	if result.Error == "" {
		t.Error("expected an error result for malformed arguments")
	}
}

func TestWebReaderExecute_EndToEndHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Fetched Page</title></head><body><p>hello from the fixture server</p></body></html>`))
	}))
	defer server.Close()

	rt := NewWebReaderTool()
	result, err := rt.Execute(context.Background(), []byte(`{"url":"`+server.URL+`"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected tool error: %s", result.Error)
	}
	if !strings.Contains(result.Output, "Fetched Page") {
		t.Errorf("expected title in output, got: %s", result.Output)
	}
	if !strings.Contains(result.Output, "hello from the fixture server") {
		t.Errorf("expected body text in output, got: %s", result.Output)
	}
}

func TestWebReaderExecute_JSONContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	rt := NewWebReaderTool()
	result, err := rt.Execute(context.Background(), []byte(`{"url":"`+server.URL+`"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected tool error: %s", result.Error)
	}
	if !strings.Contains(result.Output, `"ok": true`) {
		t.Errorf("expected pretty-printed JSON, got: %s", result.Output)
	}
}

func TestWebReaderExecute_UnsupportedContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG"))
	}))
	defer server.Close()

	rt := NewWebReaderTool()
	result, err := rt.Execute(context.Background(), []byte(`{"url":"`+server.URL+`"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" {
		t.Error("expected an error result for an unsupported content type")
	}
}

func TestTruncateWebContent(t *testing.T) {
	long := strings.Repeat("x", webReaderMaxRunes+500)
	got := truncateWebContent(long)
	if !strings.HasSuffix(got, "...(truncated)") {
		t.Error("expected truncation marker on overlong content")
	}
}
