package pubnav

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SiteConfig holds all configuration for a pubnav site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Site")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for JSON-LD

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite path (default "data/pubnav.db")

	ContentDir    string `yaml:"content_dir"`    // Markdown root (default "content")
	RedirectsFile string `yaml:"redirects_file"` // Redirect definitions (default "redirects.yaml")
	StaticDir     string `yaml:"static_dir"`     // User static assets (default "public")
	NotFoundPath  string `yaml:"not_found_path"` // Route used as the not-found page (default "/404")
	Development   bool   `yaml:"development"`    // Serve development-only content

	MaxHops            int    `yaml:"max_hops"`            // Redirect chain bound (default 5)
	RedirectPrecedence string `yaml:"redirect_precedence"` // "exact-first" (default) or "prefix-first"
	HistoryDepth       int    `yaml:"history_depth"`       // Default history bound (default 50)

	SessionSecret string        `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool          `yaml:"cookie_secure"`  // Set true for HTTPS
	SessionIdle   time.Duration `yaml:"session_idle"`   // Idle navigation sessions are reaped (default 30m)

	NavRate  float64 `yaml:"nav_rate"`  // Navigate requests per second per session (default 10)
	NavBurst int     `yaml:"nav_burst"` // Burst allowance (default 20)

	ContentCacheTTL time.Duration `yaml:"content_cache_ttl"` // Rendered body cache TTL (default 5min)
	Watch           bool          `yaml:"watch"`             // Rebuild on content changes
}

const defaultContentCacheTTL = 5 * time.Minute

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Site"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pubnav.db"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.RedirectsFile == "" {
		c.RedirectsFile = "redirects.yaml"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.NotFoundPath == "" {
		c.NotFoundPath = "/404"
	}
	if c.MaxHops == 0 {
		c.MaxHops = 5
	}
	if c.HistoryDepth == 0 {
		c.HistoryDepth = 50
	}
	if c.SessionIdle == 0 {
		c.SessionIdle = 30 * time.Minute
	}
	if c.NavRate == 0 {
		c.NavRate = 10
	}
	if c.NavBurst == 0 {
		c.NavBurst = 20
	}
	if c.ContentCacheTTL == 0 {
		c.ContentCacheTTL = defaultContentCacheTTL
	}
}

// LoadConfigFile reads a YAML site configuration. Missing fields keep their
// defaults.
func LoadConfigFile(path string) (SiteConfig, error) {
	var cfg SiteConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("pubnav: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("pubnav: parse config %s: %w", path, err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithSite serves a prebuilt site snapshot instead of building one from
// ContentDir at Init.
func WithSite(s *Site) Option {
	return func(a *App) {
		a.site.Store(s)
	}
}
