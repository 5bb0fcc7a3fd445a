package pubnav

import (
	"context"
	"io/fs"
	"sync"
	"time"

	"github.com/eringen/pubnav/markdown"
	"github.com/eringen/pubnav/registry"
)

// Rendered is a route body converted to sanitized HTML.
type Rendered struct {
	HTML     []byte
	Headings []markdown.Heading
}

type cacheEntry struct {
	rendered Rendered
	source   string
	modTime  time.Time
	fetched  time.Time
}

// ContentCache is an in-memory cache of rendered route bodies with TTL. Each
// site snapshot owns one, so entries never cross content filesystems.
type ContentCache struct {
	mu       sync.RWMutex
	entries  map[string]cacheEntry
	ttl      time.Duration
	content  fs.FS
	renderer *markdown.Renderer
}

// NewContentCache creates a cache rendering bodies read from content.
func NewContentCache(content fs.FS, ttl time.Duration) *ContentCache {
	if ttl <= 0 {
		ttl = defaultContentCacheTTL
	}
	return &ContentCache{
		entries:  make(map[string]cacheEntry),
		ttl:      ttl,
		content:  content,
		renderer: markdown.Default,
	}
}

func (c *ContentCache) valid(e cacheEntry, d registry.Descriptor) bool {
	return time.Since(e.fetched) < c.ttl && e.source == d.Source && e.modTime.Equal(d.ModTime)
}

// Get returns the rendered body of d. It tries a read lock first; only takes
// a write lock if a render is needed.
func (c *ContentCache) Get(ctx context.Context, d registry.Descriptor) (Rendered, error) {
	if d.Synthetic() {
		return Rendered{}, nil
	}
	c.mu.RLock()
	if e, ok := c.entries[d.Path]; ok && c.valid(e, d) {
		c.mu.RUnlock()
		return e.rendered, nil
	}
	c.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return Rendered{}, err
	}
	body, err := registry.ReadBody(c.content, ".", d)
	if err != nil {
		return Rendered{}, err
	}
	html, err := c.renderer.Render(body)
	if err != nil {
		return Rendered{}, err
	}
	r := Rendered{HTML: html, Headings: c.renderer.Headings(body)}

	c.mu.Lock()
	c.entries[d.Path] = cacheEntry{rendered: r, source: d.Source, modTime: d.ModTime, fetched: time.Now()}
	c.mu.Unlock()
	return r, nil
}

// Len returns the number of cached bodies.
func (c *ContentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
