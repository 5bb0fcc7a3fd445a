package views

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/eringen/pubnav/markdown"
	"github.com/eringen/pubnav/registry"
)

func renderString(t *testing.T, render func(context.Context, *bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	if err := render(context.Background(), &buf); err != nil {
		t.Fatalf("render error: %v", err)
	}
	return buf.String()
}

func samplePost() registry.Descriptor {
	return registry.Descriptor{
		Path: "/posts/hello",
		Metadata: registry.Metadata{
			Title:    "Hello <World>",
			Tags:     []string{"go", "web"},
			Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Duration: 7 * time.Minute,
			Type:     registry.TypePost,
			TOC:      true,
		},
		Source: "posts/hello.md",
	}
}

func TestPagePartialEscapesAndRendersTOC(t *testing.T) {
	data := PageData{
		Route: samplePost(),
		HTML:  []byte(`<h2 id="intro">Intro</h2>`),
		Headings: []markdown.Heading{
			{Level: 1, ID: "title", Text: "Title"},
			{Level: 2, ID: "intro", Text: "Intro"},
		},
	}
	got := renderString(t, func(ctx context.Context, buf *bytes.Buffer) error {
		return PagePartial(data).Render(ctx, buf)
	})

	if !strings.Contains(got, "Hello &lt;World&gt;") {
		t.Errorf("title not escaped: %q", got)
	}
	if !strings.Contains(got, `<a href="#intro">Intro</a>`) {
		t.Errorf("toc entry missing: %q", got)
	}
	if strings.Contains(got, `href="#title"`) {
		t.Errorf("h1 should not appear in toc: %q", got)
	}
	if !strings.Contains(got, "7 min read") || !strings.Contains(got, `datetime="2024-03-01"`) {
		t.Errorf("byline missing: %q", got)
	}
	if !strings.Contains(got, `<h2 id="intro">Intro</h2>`) {
		t.Errorf("body missing: %q", got)
	}
}

func TestPageIncludesHead(t *testing.T) {
	data := PageData{
		Site:      SiteConfig{Name: "Site", Author: "Ada"},
		Meta:      PageMeta{Title: "Hello", URL: "https://example.com/posts/hello", OGType: "article"},
		Route:     samplePost(),
		JSONLD:    `{"@type":"BlogPosting"}`,
		CSRFToken: "tok",
	}
	got := renderString(t, func(ctx context.Context, buf *bytes.Buffer) error {
		return Page(data).Render(ctx, buf)
	})
	for _, want := range []string{
		"<title>Hello | Site</title>",
		`<link rel="canonical" href="https://example.com/posts/hello">`,
		`<meta name="csrf-token" content="tok">`,
		`<script type="application/ld+json">{"@type":"BlogPosting"}</script>`,
		`<script src="/public/pubnav.js" defer></script>`,
		`<main id="content"><article`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestNotFoundUsesDescription(t *testing.T) {
	data := PageData{
		Route: registry.Descriptor{Path: "/404", Metadata: registry.Metadata{Title: "Not Found", Description: "Nothing here."}},
		Recent: []registry.Descriptor{samplePost()},
	}
	got := renderString(t, func(ctx context.Context, buf *bytes.Buffer) error {
		return NotFound(data).Render(ctx, buf)
	})
	if !strings.Contains(got, "<p>Nothing here.</p>") {
		t.Errorf("description missing: %q", got)
	}
	if !strings.Contains(got, `href="/posts/hello"`) {
		t.Errorf("recent routes missing: %q", got)
	}
}

func TestArticleJsonLD(t *testing.T) {
	cfg := SiteConfig{Name: "Site", URL: "https://example.com", Author: "Ada"}
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(ArticleJsonLD(cfg, samplePost())), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data["@type"] != "BlogPosting" {
		t.Errorf("@type = %v", data["@type"])
	}
	if data["url"] != "https://example.com/posts/hello" {
		t.Errorf("url = %v", data["url"])
	}
	if data["datePublished"] != "2024-03-01" {
		t.Errorf("datePublished = %v", data["datePublished"])
	}

	page := registry.Descriptor{Path: "/about", Metadata: registry.Metadata{Title: "About", Type: registry.TypePage}}
	if err := json.Unmarshal([]byte(ArticleJsonLD(cfg, page)), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data["@type"] != "WebPage" {
		t.Errorf("@type = %v", data["@type"])
	}
}

func TestWebsiteJsonLD(t *testing.T) {
	var data map[string]interface{}
	cfg := SiteConfig{Name: "Site", URL: "https://example.com", Description: "Notes"}
	if err := json.Unmarshal([]byte(WebsiteJsonLD(cfg)), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data["@type"] != "WebSite" || data["url"] != "https://example.com" {
		t.Errorf("got %v", data)
	}
	if _, ok := data["author"]; ok {
		t.Error("author should be omitted when unset")
	}
}

func TestFilterRelated(t *testing.T) {
	current := samplePost()
	other := registry.Descriptor{Path: "/posts/other", Metadata: registry.Metadata{Tags: []string{"web"}}}
	unrelated := registry.Descriptor{Path: "/posts/x", Metadata: registry.Metadata{Tags: []string{"art"}}}
	got := FilterRelated(current, []registry.Descriptor{current, other, unrelated})
	if len(got) != 1 || got[0].Path != "/posts/other" {
		t.Errorf("FilterRelated = %+v", got)
	}
}
