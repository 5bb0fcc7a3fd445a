// Package registry builds the immutable route registry of a content site from
// markdown files carrying a frontmatter header.
//
// A Registry is constructed once by Build and never mutated afterwards; it is
// shared by reference with the redirect table, the navigation resolver and
// the HTTP layer.
package registry

import (
	"io/fs"
	"log/slog"
	"sort"
	"time"
)

// DefaultNotFoundPath is the route committed when a navigation cannot be
// resolved.
const DefaultNotFoundPath = "/404"

// ContentFile is one raw content file. Name is the slash-separated path
// relative to the content root and doubles as the body reference.
type ContentFile struct {
	Name    string
	Source  []byte
	ModTime time.Time
}

// Descriptor describes one route.
type Descriptor struct {
	Path     string
	Metadata Metadata
	// Source is the content file backing the route; empty for synthesized
	// routes.
	Source  string
	ModTime time.Time
}

// Synthetic reports whether the descriptor has no backing content file.
func (d Descriptor) Synthetic() bool {
	return d.Source == ""
}

func (d Descriptor) clone() Descriptor {
	d.Metadata = d.Metadata.clone()
	return d
}

// Alias is a frontmatter-declared alternative path for a route.
type Alias struct {
	From string
	To   string
	File string
}

// Registry maps paths to descriptors.
type Registry struct {
	routes   map[string]Descriptor
	paths    []string
	aliases  []Alias
	notFound Descriptor
}

type config struct {
	development  bool
	notFoundPath string
	imageFS      fs.FS
	logger       *slog.Logger
}

// Option configures Build.
type Option func(*config)

// WithDevelopment includes files flagged "development: true".
func WithDevelopment(include bool) Option {
	return func(c *config) {
		c.development = include
	}
}

// WithNotFoundPath sets the path of the fallback route (default "/404").
func WithNotFoundPath(p string) Option {
	return func(c *config) {
		if p != "" {
			c.notFoundPath = CleanPath(p)
		}
	}
}

// WithImageFS enables dimension probing of site-relative header images
// against fsys (usually the public asset directory).
func WithImageFS(fsys fs.FS) Option {
	return func(c *config) {
		c.imageFS = fsys
	}
}

// WithLogger sets the logger used for build diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Build parses every file's header and returns the registry. Files are
// processed in lexical order of Name so errors are deterministic.
func Build(files []ContentFile, opts ...Option) (*Registry, error) {
	cfg := config{
		notFoundPath: DefaultNotFoundPath,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	sorted := make([]ContentFile, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	r := &Registry{routes: make(map[string]Descriptor, len(sorted))}
	for _, f := range sorted {
		meta, _, err := ParseMetadata(f.Name, f.Source)
		if err != nil {
			return nil, err
		}
		if meta.Development && !cfg.development {
			cfg.logger.Debug("skipping development content", "file", f.Name)
			continue
		}
		p := routePath(f.Name, meta.Slug)
		if existing, ok := r.routes[p]; ok {
			return nil, &DuplicateRouteError{Path: p, First: existing.Source, Second: f.Name}
		}
		if cfg.imageFS != nil {
			meta.ImageWidth, meta.ImageHeight = probeImage(cfg.imageFS, meta.Image, cfg.logger)
		}
		r.routes[p] = Descriptor{Path: p, Metadata: meta, Source: f.Name, ModTime: f.ModTime}
		r.paths = append(r.paths, p)
	}
	sort.Strings(r.paths)

	claimed := make(map[string]string)
	for _, p := range r.paths {
		d := r.routes[p]
		for _, from := range d.Metadata.Aliases {
			if existing, ok := r.routes[from]; ok {
				return nil, &DuplicateRouteError{Path: from, First: existing.Source, Second: d.Source + " (alias)"}
			}
			if other, ok := claimed[from]; ok {
				return nil, &DuplicateRouteError{Path: from, First: other + " (alias)", Second: d.Source + " (alias)"}
			}
			claimed[from] = d.Source
			r.aliases = append(r.aliases, Alias{From: from, To: p, File: d.Source})
		}
	}

	if d, ok := r.routes[cfg.notFoundPath]; ok {
		r.notFound = d
	} else {
		r.notFound = Descriptor{
			Path: cfg.notFoundPath,
			Metadata: Metadata{
				Title:       "Not Found",
				Description: "The page you are looking for does not exist.",
				Type:        TypePage,
			},
		}
	}
	return r, nil
}

// Lookup returns the descriptor registered at path.
func (r *Registry) Lookup(path string) (Descriptor, bool) {
	d, ok := r.routes[CleanPath(path)]
	if !ok {
		return Descriptor{}, false
	}
	return d.clone(), true
}

// Has reports whether path is a registered route.
func (r *Registry) Has(path string) bool {
	_, ok := r.routes[CleanPath(path)]
	return ok
}

// Routes returns every descriptor ordered by path.
func (r *Registry) Routes() []Descriptor {
	out := make([]Descriptor, 0, len(r.paths))
	for _, p := range r.paths {
		out = append(out, r.routes[p].clone())
	}
	return out
}

// Len returns the number of routes.
func (r *Registry) Len() int {
	return len(r.paths)
}

// NotFound returns the fallback descriptor committed for unresolved paths.
func (r *Registry) NotFound() Descriptor {
	return r.notFound.clone()
}

// Aliases returns the alias declarations ordered by target route.
func (r *Registry) Aliases() []Alias {
	out := make([]Alias, len(r.aliases))
	copy(out, r.aliases)
	return out
}

// Dated returns routes carrying a publish date, newest first. Used for feeds.
func (r *Registry) Dated() []Descriptor {
	var out []Descriptor
	for _, p := range r.paths {
		if d := r.routes[p]; d.Metadata.HasDate() {
			out = append(out, d.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Metadata.Date.After(out[j].Metadata.Date)
	})
	return out
}

// WithTag returns routes tagged with tag, ordered by path.
func (r *Registry) WithTag(tag string) []Descriptor {
	var out []Descriptor
	for _, p := range r.paths {
		d := r.routes[p]
		for _, t := range d.Metadata.Tags {
			if t == tag {
				out = append(out, d.clone())
				break
			}
		}
	}
	return out
}
