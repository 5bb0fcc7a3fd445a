package registry

import (
	"path"
	"strings"
)

// CleanPath normalizes a request or route path: leading slash, no query or
// fragment, no trailing slash except for the root.
func CleanPath(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// SplitFragment separates an in-page anchor from a requested path. The
// query string is dropped.
func SplitFragment(raw string) (p, fragment string) {
	p = raw
	if i := strings.IndexByte(p, '#'); i >= 0 {
		fragment = p[i+1:]
		p = p[:i]
	}
	return CleanPath(p), fragment
}

// Slugify converts a title or file name to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// routePath derives the route for a content file name such as
// "posts/new-post.md". An index file maps to its directory.
func routePath(name, slug string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	dir, file := path.Split(name)
	base := strings.TrimSuffix(file, path.Ext(file))

	var segments []string
	for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
		if s := Slugify(seg); s != "" {
			segments = append(segments, s)
		}
	}
	switch {
	case strings.TrimSpace(slug) != "":
		segments = append(segments, Slugify(slug))
	case base != "index":
		segments = append(segments, Slugify(base))
	}
	return CleanPath(strings.Join(segments, "/"))
}
