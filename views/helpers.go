package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/eringen/pubnav/registry"
)

// buildURL joins path segments onto a base URL.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	return u.String()
}

// FilterRelated returns routes that share at least one tag with current.
func FilterRelated(current registry.Descriptor, routes []registry.Descriptor) []registry.Descriptor {
	tagSet := make(map[string]struct{})
	for _, t := range current.Metadata.Tags {
		tagSet[t] = struct{}{}
	}
	var related []registry.Descriptor
	for _, d := range routes {
		if d.Path == current.Path {
			continue
		}
		for _, t := range d.Metadata.Tags {
			if _, ok := tagSet[t]; ok {
				related = append(related, d)
				break
			}
		}
	}
	return related
}

// PathEscape wraps url.PathEscape for use in templates.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	base := "tag"
	if active {
		base += " tag-active"
	}
	return base
}

// JoinTags formats a tag slice as a comma-separated string.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      buildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ArticleJsonLD produces a Schema.org BlogPosting JSON-LD block for a dated
// route and a WebPage block otherwise.
func ArticleJsonLD(cfg SiteConfig, d registry.Descriptor) string {
	pageURL := buildURL(cfg.URL, d.Path)
	meta := d.Metadata
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "WebPage",
		"name":        meta.Title,
		"description": meta.Description,
		"url":         pageURL,
	}
	if meta.HasDate() {
		data["@type"] = "BlogPosting"
		data["headline"] = meta.Title
		data["datePublished"] = meta.Date.Format("2006-01-02")
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
		data["mainEntityOfPage"] = map[string]string{
			"@type": "WebPage",
			"@id":   pageURL,
		}
		delete(data, "name")
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	if meta.Image != "" {
		data["image"] = absoluteURL(cfg.URL, meta.Image)
	}
	if len(meta.Tags) > 0 {
		data["keywords"] = JoinTags(meta.Tags)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func absoluteURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return buildURL(base, ref)
}
