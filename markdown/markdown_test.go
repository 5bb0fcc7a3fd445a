package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func render(t *testing.T, md string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, md); err != nil {
		t.Fatalf("RenderMarkdown(%q) error: %v", md, err)
	}
	return buf.String()
}

func TestRenderMarkdownInline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"__bold__", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"_italic_", "<em>italic</em>"},
		{"**bold *italic* text**", "<strong>bold <em>italic</em> text</strong>"},
		{"use `go test`", "<code>go test</code>"},
		{"~~gone~~", "<del>gone</del>"},
	}
	for _, tt := range tests {
		got := render(t, tt.input)
		if !strings.Contains(got, tt.expected) {
			t.Errorf("RenderMarkdown(%q) = %q, want it to contain %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderMarkdownHeadingIDs(t *testing.T) {
	got := render(t, "## Getting Started\n\ntext\n")
	if !strings.Contains(got, `<h2 id="getting-started">Getting Started</h2>`) {
		t.Errorf("heading id missing: %q", got)
	}
}

func TestRenderMarkdownCodeBlockWithLanguage(t *testing.T) {
	got := render(t, "```go\nfmt.Println(1)\n```")
	if !strings.Contains(got, `<code class="language-go">`) {
		t.Errorf("code block language class missing: %q", got)
	}
	if !strings.Contains(got, "fmt.Println(1)") {
		t.Errorf("code block content missing: %q", got)
	}
}

func TestRenderMarkdownImagesLoading(t *testing.T) {
	got := render(t, "![one](/a.png)\n\n![two](/b.png)\n")
	eager := strings.Index(got, `loading="eager"`)
	lazy := strings.Index(got, `loading="lazy"`)
	if eager < 0 || lazy < 0 || eager > lazy {
		t.Errorf("expected first image eager and second lazy: %q", got)
	}
}

func TestRenderMarkdownExternalLink(t *testing.T) {
	got := render(t, "[site](https://example.com)")
	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("external link should open in a new tab: %q", got)
	}
	got = render(t, "[home](/posts/a)")
	if strings.Contains(got, `target="_blank"`) {
		t.Errorf("internal link should not open in a new tab: %q", got)
	}
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	tests := []string{
		"<script>alert(1)</script>",
		"[x](javascript:alert(1))",
		`<img src=x onerror="alert(1)">`,
	}
	for _, md := range tests {
		got := render(t, md)
		for _, bad := range []string{"<script", "javascript:", "onerror"} {
			if strings.Contains(got, bad) {
				t.Errorf("RenderMarkdown(%q) = %q, contains %q", md, got, bad)
			}
		}
	}
}

func TestRenderMarkdownTable(t *testing.T) {
	got := render(t, "| a | b |\n|---|---|\n| 1 | 2 |\n")
	if !strings.Contains(got, "<table>") || !strings.Contains(got, "<td>1</td>") {
		t.Errorf("table not rendered: %q", got)
	}
}

func TestHeadings(t *testing.T) {
	src := []byte("# Title\n\nintro\n\n## Install `pubnav`\n\n### Notes\n")
	got := Default.Headings(src)
	want := []Heading{
		{Level: 1, ID: "title", Text: "Title"},
		{Level: 2, ID: "install-pubnav", Text: "Install pubnav"},
		{Level: 3, ID: "notes", Text: "Notes"},
	}
	if len(got) != len(want) {
		t.Fatalf("Headings() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Headings()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown("hello *world*").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !strings.Contains(buf.String(), "<p>hello <em>world</em></p>") {
		t.Errorf("component output = %q", buf.String())
	}
}
