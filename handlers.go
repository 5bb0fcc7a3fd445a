package pubnav

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubnav/markdown"
	"github.com/eringen/pubnav/navigation"
	"github.com/eringen/pubnav/registry"
	"github.com/eringen/pubnav/views"
)

const (
	relatedLimit = 5
	eventBuffer  = 32
	keepAlive    = 30 * time.Second
)

func (a *App) handlePage(c echo.Context) error {
	site := a.Site()
	ctx := c.Request().Context()
	raw := c.Request().URL.Path

	res, err := site.Redirects.Resolve(raw)
	if err != nil {
		a.reportMiss(ctx, raw, raw, err)
		return a.renderNotFound(c, site)
	}
	if res.Matched {
		target := res.Path
		if !res.External && c.QueryString() != "" {
			target += "?" + c.QueryString()
		}
		return c.Redirect(res.Intent.StatusCode(), target)
	}

	d, ok := site.Registry.Lookup(res.Path)
	if !ok {
		a.reportMiss(ctx, raw, res.Path, &navigation.NotFoundError{Path: res.Path})
		return a.renderNotFound(c, site)
	}
	if d.Path == site.Registry.NotFound().Path {
		return a.renderNotFound(c, site)
	}
	rendered, err := site.Cache.Get(ctx, d)
	if err != nil {
		return err
	}
	if !isCrawler(c.Request().UserAgent()) {
		a.recordView(ctx, d.Path)
	}

	data := a.pageData(c, site, d, rendered)
	if c.Request().Header.Get("HX-Request") == "true" {
		return Render(c, a.Views.PagePartial(data))
	}
	return Render(c, a.Views.Page(data))
}

func (a *App) renderNotFound(c echo.Context, site *Site) error {
	d := site.Registry.NotFound()
	rendered, err := site.Cache.Get(c.Request().Context(), d)
	if err != nil {
		c.Logger().Errorf("not-found body: %v", err)
	}
	data := a.pageData(c, site, d, rendered)
	data.NotFound = true
	data.Related = nil
	data.Recent = limit(site.Registry.Dated(), relatedLimit)
	return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(data))
}

func (a *App) handleNavigate(c echo.Context) error {
	var req NavigateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid navigate request")
	}
	if req.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "path is required")
	}
	kind, err := navigation.ParseKind(req.Kind)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	s, err := a.navSession(c, req.Depth)
	if err != nil {
		return err
	}
	if !a.limiter.Allow(s.id) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many navigations"})
	}

	ctx := c.Request().Context()
	s.saveOffset(req.From, req.Scroll)
	entry, committed, err := s.resolver.Navigate(ctx, req.Path, navigation.Options{Kind: kind, EntryID: req.EntryID})
	if err != nil {
		if errors.Is(err, navigation.ErrInvalidKind) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	if entry.External {
		return c.JSON(http.StatusOK, NavigateResponse{External: true, URL: entry.Path})
	}
	if !committed {
		return c.JSON(http.StatusConflict, NavigateResponse{})
	}

	rendered, err := s.site.Cache.Get(ctx, entry.Route)
	if err != nil {
		c.Logger().Errorf("navigate body %s: %v", entry.Route.Path, err)
	}
	data := a.pageData(c, s.site, entry.Route, rendered)
	data.NotFound = entry.NotFound
	var buf bytes.Buffer
	if err := a.Views.PagePartial(data).Render(ctx, &buf); err != nil {
		return err
	}
	// A replace follows the page load that was already counted.
	if !entry.NotFound && kind != navigation.Replace {
		a.recordView(ctx, entry.Route.Path)
	}

	ej := entryJSON(entry)
	resp := NavigateResponse{
		Committed: true,
		Entry:     &ej,
		Scroll:    s.scroll.Offset(entry.ID),
		HTML:      buf.String(),
	}
	if kind != navigation.Pop && entry.Fragment != "" && hasHeading(rendered.Headings, entry.Fragment) {
		resp.Anchor = entry.Fragment
	}
	return c.JSON(http.StatusOK, resp)
}

func hasHeading(headings []markdown.Heading, id string) bool {
	for _, h := range headings {
		if h.ID == id {
			return true
		}
	}
	return false
}

func (a *App) handleScroll(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("entry"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}
	s, err := a.navSession(c, 0)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.scroll.Offset(id))
}

func (a *App) handleHistory(c echo.Context) error {
	s, err := a.navSession(c, 0)
	if err != nil {
		return err
	}
	entries, cursor := s.resolver.History()
	out := HistoryResponse{Entries: make([]EntryJSON, 0, len(entries)), Cursor: cursor, Depth: s.resolver.Depth()}
	for _, e := range entries {
		out.Entries = append(out.Entries, entryJSON(e))
	}
	return c.JSON(http.StatusOK, out)
}

// handleEvents streams commit events of the caller's session as
// server-sent events until the client disconnects.
func (a *App) handleEvents(c echo.Context) error {
	s, err := a.navSession(c, 0)
	if err != nil {
		return err
	}

	events := make(chan navigation.Event, eventBuffer)
	unsubscribe := s.resolver.Subscribe(func(ev navigation.Event) {
		select {
		case events <- ev:
		default:
			a.logger.Warn("event stream full, dropping commit", "session", s.id, "seq", ev.Sequence)
		}
	})
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-store")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			payload, err := json.Marshal(eventJSON(ev))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: commit\ndata: %s\n\n", ev.Sequence, payload); err != nil {
				return nil
			}
			w.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.renderSitemap(c, a.Site())
}

func (a *App) handleFeed(c echo.Context) error {
	return a.renderRSS(c, a.Site())
}

func (a *App) handleRobots(c echo.Context) error {
	file := filepath.Join(a.Config.StaticDir, "robots.txt")
	if _, err := os.Stat(file); err == nil {
		return c.File(file)
	}
	body := "User-agent: *\nAllow: /\nSitemap: " + BuildURL(a.Config.URL, "sitemap.xml") + "\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound && a.Site() != nil {
		_ = a.renderNotFound(c, a.Site())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

func (a *App) pageData(c echo.Context, site *Site, d registry.Descriptor, r Rendered) views.PageData {
	cfg := a.viewConfig()
	jsonLD := views.ArticleJsonLD(cfg, d)
	if d.Path == "/" {
		jsonLD = views.WebsiteJsonLD(cfg)
	}
	return views.PageData{
		Site:      cfg,
		Meta:      PageMetaFor(a.Config, d),
		Route:     d,
		HTML:      r.HTML,
		Headings:  r.Headings,
		Related:   limit(views.FilterRelated(d, site.Registry.Dated()), relatedLimit),
		JSONLD:    jsonLD,
		CSRFToken: CsrfToken(c),
	}
}

func (a *App) viewConfig() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}

func (a *App) reportMiss(ctx context.Context, requested, resolved string, cause error) {
	if a.Store == nil {
		return
	}
	a.Store.ReportMiss(ctx, navigation.Miss{Requested: requested, Resolved: resolved, Err: cause, At: time.Now()})
}

func (a *App) recordView(ctx context.Context, path string) {
	if a.Store == nil {
		return
	}
	if err := a.Store.RecordView(ctx, path); err != nil {
		a.logger.Error("record view", "path", path, "error", err)
	}
}

func limit(routes []registry.Descriptor, n int) []registry.Descriptor {
	if len(routes) > n {
		return routes[:n]
	}
	return routes
}
