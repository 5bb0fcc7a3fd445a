package pubnav

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/eringen/pubnav/redirects"
	"github.com/eringen/pubnav/registry"
)

// Site is an immutable snapshot of the route registry and redirect table.
// Navigation sessions keep the snapshot they were created with.
type Site struct {
	Registry  *registry.Registry
	Redirects *redirects.Table
	// Content is the filesystem route bodies are read from.
	Content fs.FS
	// Cache holds bodies rendered from Content. It lives and dies with the
	// snapshot.
	Cache   *ContentCache
	BuiltAt time.Time
}

// BuildSite loads the content directory and redirect definitions named by
// cfg and validates them together. Any error is a build failure.
func BuildSite(ctx context.Context, cfg SiteConfig, logger *slog.Logger) (*Site, error) {
	cfg.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(cfg.ContentDir); err != nil {
		return nil, fmt.Errorf("pubnav: content dir: %w", err)
	}
	content := os.DirFS(cfg.ContentDir)
	var imageFS fs.FS
	if _, err := os.Stat(cfg.StaticDir); err == nil {
		imageFS = os.DirFS(filepath.Dir(filepath.Clean(cfg.StaticDir)))
	}

	rules, err := redirects.Load(cfg.RedirectsFile)
	if err != nil {
		return nil, err
	}
	return BuildSiteFS(ctx, content, rules, cfg, imageFS, logger)
}

// BuildSiteFS builds a snapshot from an already opened content filesystem
// and parsed redirect rules.
func BuildSiteFS(ctx context.Context, content fs.FS, rules []redirects.Rule, cfg SiteConfig, imageFS fs.FS, logger *slog.Logger) (*Site, error) {
	cfg.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	files, err := registry.Load(ctx, content, ".")
	if err != nil {
		return nil, err
	}

	regOpts := []registry.Option{
		registry.WithDevelopment(cfg.Development),
		registry.WithNotFoundPath(cfg.NotFoundPath),
		registry.WithLogger(logger),
	}
	if imageFS != nil {
		regOpts = append(regOpts, registry.WithImageFS(imageFS))
	}
	reg, err := registry.Build(files, regOpts...)
	if err != nil {
		return nil, err
	}

	precedence, err := redirects.ParsePrecedence(cfg.RedirectPrecedence)
	if err != nil {
		return nil, fmt.Errorf("pubnav: %w", err)
	}
	all := append(append([]redirects.Rule(nil), rules...), redirects.FromAliases(reg.Aliases())...)
	table, err := redirects.New(all,
		redirects.WithMaxHops(cfg.MaxHops),
		redirects.WithPrecedence(precedence),
		redirects.WithRoutes(reg),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("site built", "routes", reg.Len(), "redirects", table.Len())
	return &Site{
		Registry:  reg,
		Redirects: table,
		Content:   content,
		Cache:     NewContentCache(content, cfg.ContentCacheTTL),
		BuiltAt:   time.Now(),
	}, nil
}
