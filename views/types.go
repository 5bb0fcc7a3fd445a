package views

import (
	"github.com/eringen/pubnav/markdown"
	"github.com/eringen/pubnav/registry"
)

// SiteConfig holds the site-wide settings templates need.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	ImageWidth  int
	ImageHeight int
}

// PageData is everything a page component renders.
type PageData struct {
	Site      SiteConfig
	Meta      PageMeta
	Route     registry.Descriptor
	HTML      []byte // sanitized body
	Headings  []markdown.Heading
	Related   []registry.Descriptor
	Recent    []registry.Descriptor
	JSONLD    string
	CSRFToken string
	NotFound  bool
}
