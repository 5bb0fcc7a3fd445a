// Package pubnav serves a markdown content site with server-tracked
// navigation: every route comes from the page registry, requests pass
// through the redirect table, and each client gets a navigation session
// whose history and scroll records live on the server.
//
// Users can provide their own templ components via the ViewFuncs struct;
// pubnav handles routing, redirects, history, scroll restoration and
// diagnostics.
package pubnav

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/atomic"

	"github.com/eringen/pubnav/navigation"
	"github.com/eringen/pubnav/registry"
	"github.com/eringen/pubnav/scroll"
	"github.com/eringen/pubnav/views"
)

// ViewFuncs holds the templ components pubnav renders. Nil fields fall back
// to the defaults from the views package.
type ViewFuncs struct {
	Page        func(data views.PageData) templ.Component
	PagePartial func(data views.PageData) templ.Component
	NotFound    func(data views.PageData) templ.Component
	ServerError func() templ.Component
}

func (v *ViewFuncs) setDefaults() {
	if v.Page == nil {
		v.Page = views.Page
	}
	if v.PagePartial == nil {
		v.PagePartial = views.PagePartial
	}
	if v.NotFound == nil {
		v.NotFound = views.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = views.ServerError
	}
}

// App is the central pubnav application. It wires together the site
// snapshot, store, navigation sessions, handlers and middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Views  ViewFuncs

	site         atomic.Pointer[Site]
	limiter      *NavLimiter
	sessions     *sessionRegistry
	watcher      *Watcher
	logger       *slog.Logger
	customRoutes []func(*App)
	cancel       context.CancelFunc
	initialized  bool
}

// New creates a pubnav App with the given configuration and views.
func New(cfg SiteConfig, v ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()
	v.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  v,
		logger: slog.Default(),
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init builds the site if none was supplied, opens the store and registers
// middleware and routes. Start calls it; tests call it directly and drive
// a.Echo as an http.Handler.
func (a *App) Init(ctx context.Context) error {
	if a.initialized {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("pubnav: SessionSecret is required")
	}

	if a.site.Load() == nil {
		site, err := BuildSite(ctx, a.Config, a.logger)
		if err != nil {
			return fmt.Errorf("pubnav: build site: %w", err)
		}
		a.site.Store(site)
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("pubnav: init store: %w", err)
	}
	store.logger = a.logger
	a.Store = store

	a.limiter = NewNavLimiter(a.Config.NavRate, a.Config.NavBurst, a.Config.SessionIdle)
	a.sessions = newSessionRegistry(a.Config.SessionIdle, a.newNavigation, a.logger)

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	if a.Config.Watch {
		w, err := NewWatcher(a.Config, a.SwapSite, a.logger)
		if err != nil {
			return fmt.Errorf("pubnav: init watcher: %w", err)
		}
		a.watcher = w
		go w.Run(runCtx)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// Start initializes the app and starts the server.
func (a *App) Start() error {
	if err := a.Init(context.Background()); err != nil {
		return err
	}
	a.logger.Info("listening", "addr", a.Config.Addr, "url", a.Config.URL)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	a.Close()
	return err
}

func (a *App) setupRoutes() {
	e := a.Echo

	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/pubnav.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.Config.StaticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	api := e.Group("/api")
	api.POST("/navigate", a.handleNavigate)
	api.GET("/scroll/:entry", a.handleScroll)
	api.GET("/history", a.handleHistory)
	api.GET("/events", a.handleEvents)

	e.GET("/*", a.handlePage)
}

// Site returns the current site snapshot.
func (a *App) Site() *Site {
	return a.site.Load()
}

// SwapSite replaces the site snapshot. Existing navigation sessions keep
// the snapshot they started with.
func (a *App) SwapSite(s *Site) {
	a.site.Store(s)
	a.logger.Info("site snapshot swapped", "routes", s.Registry.Len(), "redirects", s.Redirects.Len())
}

func (a *App) newNavigation(site *Site, depth int) (*navigation.Resolver, *scroll.Manager, *clientViewport) {
	if depth <= 0 {
		depth = a.Config.HistoryDepth
	}
	vp := &clientViewport{}
	opts := []navigation.Option{
		navigation.WithRedirects(site.Redirects),
		navigation.WithFetcher(navigation.FetcherFunc(func(ctx context.Context, d registry.Descriptor) ([]byte, error) {
			r, err := site.Cache.Get(ctx, d)
			return r.HTML, err
		})),
		navigation.WithHistoryDepth(depth),
		navigation.WithLogger(a.logger),
	}
	if a.Store != nil {
		opts = append(opts, navigation.WithReporter(a.Store))
	}
	res := navigation.New(site.Registry, opts...)
	m := scroll.New(vp, depth, scroll.WithExplicitCapture(), scroll.WithLogger(a.logger))
	m.Attach(res)
	return res, m, vp
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.sessions != nil {
		a.sessions.close()
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	return nil
}

// WithLogger sets the structured logger used outside the request log.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("pubnav: required environment variable %s is not set", key)
	}
	return v
}
