// Package views holds the default page components served by pubnav.
// Sites can replace any of them through pubnav.ViewFuncs.
package views

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/pubnav/registry"
)

type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(parts ...string) {
	for _, p := range parts {
		if w.err != nil {
			return
		}
		_, w.err = io.WriteString(w.w, p)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) bytes(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

// Page renders a full HTML document for a route.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		head(w, data)
		w.raw(`<body><header class="site-header"><a href="/" data-nav>`)
		w.text(data.Site.Name)
		w.raw(`</a></header><main id="content">`)
		if w.err != nil {
			return w.err
		}
		if err := PagePartial(data).Render(ctx, out); err != nil {
			return err
		}
		w.raw(`</main>`)
		footer(w, data)
		w.raw(`</body></html>`)
		return w.err
	})
}

// PagePartial renders only the article, for HX-Request swaps and the
// navigate API.
func PagePartial(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		meta := data.Route.Metadata
		class := "page"
		if meta.Wide {
			class += " page-wide"
		}
		w.raw(`<article class="`, class, `" data-path="`)
		w.text(data.Route.Path)
		w.raw(`"><h1>`)
		w.text(meta.Title)
		w.raw(`</h1>`)
		if meta.HasDate() || meta.Duration > 0 {
			w.raw(`<p class="byline">`)
			if meta.HasDate() {
				w.raw(`<time datetime="`, meta.Date.Format("2006-01-02"), `">`)
				w.text(meta.Date.Format("January 2, 2006"))
				w.raw(`</time>`)
			}
			if meta.Duration > 0 {
				w.raw(` <span class="duration">`)
				w.text(fmt.Sprintf("%d min read", int(meta.Duration.Minutes())))
				w.raw(`</span>`)
			}
			w.raw(`</p>`)
		}
		if len(meta.Tags) > 0 {
			w.raw(`<ul class="tags">`)
			for _, t := range meta.Tags {
				w.raw(`<li class="`, TagClass(false), `">`)
				w.text(t)
				w.raw(`</li>`)
			}
			w.raw(`</ul>`)
		}
		if meta.TOC && len(data.Headings) > 0 {
			w.raw(`<nav class="toc"><ol>`)
			for _, h := range data.Headings {
				if h.Level < 2 || h.Level > 3 {
					continue
				}
				w.raw(`<li class="toc-`, strconv.Itoa(h.Level), `"><a href="#`)
				w.text(h.ID)
				w.raw(`">`)
				w.text(h.Text)
				w.raw(`</a></li>`)
			}
			w.raw(`</ol></nav>`)
		}
		w.raw(`<div class="body">`)
		w.bytes(data.HTML)
		w.raw(`</div>`)
		routeList(w, "Related", data.Related)
		w.raw(`</article>`)
		return w.err
	})
}

// NotFound renders the fallback page for unresolved paths.
func NotFound(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		head(w, data)
		w.raw(`<body><main id="content"><article class="page not-found" data-path="`)
		w.text(data.Route.Path)
		w.raw(`"><h1>`)
		w.text(data.Route.Metadata.Title)
		w.raw(`</h1>`)
		if len(data.HTML) > 0 {
			w.bytes(data.HTML)
		} else {
			w.raw(`<p>`)
			w.text(data.Route.Metadata.Description)
			w.raw(`</p>`)
		}
		routeList(w, "Recent", data.Recent)
		w.raw(`<p><a href="/" data-nav>Back home</a></p></article></main>`)
		footer(w, data)
		w.raw(`</body></html>`)
		return w.err
	})
}

// ServerError renders the 5xx page.
func ServerError() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Server Error</title></head>`,
			`<body><main><h1>Something went wrong</h1><p>Please try again later.</p></main></body></html>`)
		return w.err
	})
}

func head(w *writer, data PageData) {
	title := data.Meta.Title
	if title == "" {
		title = data.Site.Name
	} else if data.Site.Name != "" {
		title += " | " + data.Site.Name
	}
	w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
		`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
	w.text(title)
	w.raw(`</title>`)
	if data.Meta.Description != "" {
		w.raw(`<meta name="description" content="`)
		w.text(data.Meta.Description)
		w.raw(`"><meta property="og:description" content="`)
		w.text(data.Meta.Description)
		w.raw(`">`)
	}
	w.raw(`<meta property="og:title" content="`)
	w.text(data.Meta.Title)
	w.raw(`">`)
	if data.Meta.URL != "" {
		w.raw(`<link rel="canonical" href="`)
		w.text(data.Meta.URL)
		w.raw(`"><meta property="og:url" content="`)
		w.text(data.Meta.URL)
		w.raw(`">`)
	}
	if data.Meta.OGType != "" {
		w.raw(`<meta property="og:type" content="`)
		w.text(data.Meta.OGType)
		w.raw(`">`)
	}
	if data.Meta.Image != "" {
		w.raw(`<meta property="og:image" content="`)
		w.text(data.Meta.Image)
		w.raw(`">`)
		if data.Meta.ImageWidth > 0 && data.Meta.ImageHeight > 0 {
			w.raw(`<meta property="og:image:width" content="`, strconv.Itoa(data.Meta.ImageWidth), `">`,
				`<meta property="og:image:height" content="`, strconv.Itoa(data.Meta.ImageHeight), `">`)
		}
	}
	if data.CSRFToken != "" {
		w.raw(`<meta name="csrf-token" content="`)
		w.text(data.CSRFToken)
		w.raw(`">`)
	}
	w.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml">`)
	if data.JSONLD != "" {
		w.raw(`<script type="application/ld+json">`, data.JSONLD, `</script>`)
	}
	w.raw(`<script src="/public/pubnav.js" defer></script></head>`)
}

func footer(w *writer, data PageData) {
	w.raw(`<footer class="site-footer">`)
	if data.Site.Author != "" {
		w.raw(`<span>`)
		w.text(data.Site.Author)
		w.raw(`</span>`)
	}
	w.raw(`</footer>`)
}

func routeList(w *writer, title string, routes []registry.Descriptor) {
	if len(routes) == 0 {
		return
	}
	w.raw(`<section class="routes"><h2>`)
	w.text(title)
	w.raw(`</h2><ul>`)
	for _, d := range routes {
		w.raw(`<li><a href="`)
		w.text(d.Path)
		w.raw(`" data-nav>`)
		w.text(d.Metadata.Title)
		w.raw(`</a></li>`)
	}
	w.raw(`</ul></section>`)
}
