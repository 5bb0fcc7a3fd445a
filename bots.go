package pubnav

import "strings"

var crawlerTokens = []string{
	"bot", "crawler", "spider", "crawl", "slurp", "scrape",
	"googlebot", "bingbot", "yandex", "baidu", "duckduckbot",
	"facebookexternalhit", "twitterbot", "linkedinbot",
	"ahrefsbot", "semrushbot", "mj12bot", "dotbot",
}

// isCrawler reports whether the User-Agent is likely a bot or crawler.
// Crawler page loads are not counted as views.
func isCrawler(ua string) bool {
	ua = strings.ToLower(ua)
	for _, tok := range crawlerTokens {
		if strings.Contains(ua, tok) {
			return true
		}
	}
	return false
}
