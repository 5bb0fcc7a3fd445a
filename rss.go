package pubnav

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubnav/registry"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
	Categories  []string `xml:"category,omitempty"`
}

func (a *App) renderRSS(c echo.Context, site *Site) error {
	base := a.Config.URL
	var items []rssItem
	for _, d := range site.Registry.Dated() {
		if d.Metadata.Type != registry.TypePost {
			continue
		}
		link := BuildURL(base, d.Path)
		items = append(items, rssItem{
			Title:       d.Metadata.Title,
			Link:        link,
			Description: d.Metadata.Description,
			PubDate:     d.Metadata.Date.Format(time.RFC1123Z),
			GUID:        link,
			Categories:  d.Metadata.Tags,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Description,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
