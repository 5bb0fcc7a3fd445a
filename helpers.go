package pubnav

import (
	"net/url"
	"path"
	"strings"

	"github.com/eringen/pubnav/registry"
	"github.com/eringen/pubnav/views"
)

// BuildURL joins a base URL with path segments. Route paths carry no
// trailing slash, so neither does the result.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	return u.String()
}

// AbsoluteURL resolves a site-relative reference against base. Absolute
// URLs are returned unchanged.
func AbsoluteURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return BuildURL(base, ref)
}

// PageMetaFor returns the head metadata for a route.
func PageMetaFor(cfg SiteConfig, d registry.Descriptor) views.PageMeta {
	meta := d.Metadata
	m := views.PageMeta{
		Title:       meta.Title,
		Description: meta.Description,
		URL:         BuildURL(cfg.URL, d.Path),
		OGType:      "website",
		ImageWidth:  meta.ImageWidth,
		ImageHeight: meta.ImageHeight,
	}
	if m.Description == "" {
		m.Description = cfg.Description
	}
	if meta.HasDate() {
		m.OGType = "article"
	}
	if meta.Image != "" {
		m.Image = AbsoluteURL(cfg.URL, meta.Image)
	}
	return m
}
