package pubnav

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) renderSitemap(c echo.Context, site *Site) error {
	base := a.Config.URL
	notFound := site.Registry.NotFound().Path
	var urls []sitemapURL
	for _, d := range site.Registry.Routes() {
		if d.Path == notFound {
			continue
		}
		u := sitemapURL{Loc: BuildURL(base, d.Path)}
		switch {
		case d.Metadata.HasDate():
			u.LastMod = d.Metadata.Date.Format("2006-01-02")
		case !d.ModTime.IsZero():
			u.LastMod = d.ModTime.UTC().Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
