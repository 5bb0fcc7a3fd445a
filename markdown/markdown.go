// Package markdown renders content bodies to sanitized HTML as templ components.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Heading is an anchor target in a rendered body.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Renderer converts markdown to sanitized HTML. A Renderer is safe for
// concurrent use.
type Renderer struct {
	engine goldmark.Markdown
	policy *bluemonday.Policy
}

// Default is the renderer used by Markdown and RenderMarkdown.
var Default = New()

// New returns a renderer with GFM extensions, automatic heading IDs and a
// user-content sanitizing policy.
func New() *Renderer {
	engine := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(imageLoading{}, 500)),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("loading").Matching(regexp.MustCompile(`^(lazy|eager)$`)).OnElements("img")
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+#-]+$`)).OnElements("code")
	policy.AllowAttrs("type", "checked", "disabled").OnElements("input")
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{engine: engine, policy: policy}
}

// Render converts source to sanitized HTML.
func (r *Renderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("markdown: convert: %w", err)
	}
	return r.policy.SanitizeBytes(buf.Bytes()), nil
}

// Headings lists the headings of source in document order with the IDs the
// rendered HTML carries.
func (r *Renderer) Headings(source []byte) []Heading {
	doc := r.engine.Parser().Parse(text.NewReader(source))
	var out []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		heading := Heading{Level: h.Level, Text: plainText(h, source)}
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				heading.ID = string(b)
			}
		}
		out = append(out, heading)
		return ast.WalkSkipChildren, nil
	})
	return out
}

// Markdown returns a templ.Component that renders md as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := RenderMarkdown(&buf, content); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// RenderMarkdown writes the HTML representation of md to buf.
func RenderMarkdown(buf *bytes.Buffer, md string) error {
	out, err := Default.Render([]byte(md))
	if err != nil {
		return err
	}
	buf.Write(out)
	return nil
}

func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.CodeSpan:
			for child := t.FirstChild(); child != nil; child = child.NextSibling() {
				if s, ok := child.(*ast.Text); ok {
					buf.Write(s.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// imageLoading marks the first image eager and the rest lazy.
type imageLoading struct{}

func (imageLoading) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	first := true
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		img, ok := n.(*ast.Image)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		if first {
			img.SetAttributeString("loading", []byte("eager"))
			first = false
		} else {
			img.SetAttributeString("loading", []byte("lazy"))
		}
		return ast.WalkContinue, nil
	})
}
