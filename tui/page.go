package tui

import (
	"regexp"
	"strings"

	"github.com/eringen/pubnav/markdown"
)

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)

// link is an in-site link found in the page body.
type link struct {
	Text   string
	Target string
	Line   int
}

// page is a route body laid out for the terminal.
type page struct {
	lines   []string
	anchors map[string]int
	links   []link
}

// layoutPage renders markdown source line by line. Heading lines become
// anchors under the IDs the HTML renderer assigns, so fragments resolve to
// the same targets in both front ends.
func layoutPage(title string, source []byte, st *Styles) page {
	p := page{anchors: make(map[string]int)}
	p.lines = append(p.lines, st.Title.Render(title), "")

	headings := markdown.Default.Headings(source)
	next := 0
	fenced := false
	for _, raw := range strings.Split(strings.TrimRight(string(source), "\n"), "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fenced = !fenced
			p.lines = append(p.lines, st.Muted.Render(trimmed))
			continue
		}
		if fenced {
			p.lines = append(p.lines, st.Code.Render(line))
			continue
		}
		if level, text := atxHeading(trimmed); level > 0 {
			if next < len(headings) {
				p.anchors[headings[next].ID] = len(p.lines)
				text = headings[next].Text
				next++
			}
			p.lines = append(p.lines, st.Heading.Render(strings.Repeat("#", level)+" "+text))
			continue
		}
		p.lines = append(p.lines, p.renderLinks(line, st))
	}
	return p
}

func (p *page) renderLinks(line string, st *Styles) string {
	matches := linkPattern.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return st.Normal.Render(line)
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		text, target := line[m[2]:m[3]], line[m[4]:m[5]]
		b.WriteString(st.Normal.Render(line[last:m[0]]))
		b.WriteString(st.Link.Render(text))
		if strings.HasPrefix(target, "/") || strings.HasPrefix(target, "#") {
			p.links = append(p.links, link{Text: text, Target: target, Line: len(p.lines)})
		}
		last = m[1]
	}
	b.WriteString(st.Normal.Render(line[last:]))
	return b.String()
}

func atxHeading(line string) (int, string) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, ""
	}
	if level < len(line) && line[level] != ' ' && line[level] != '\t' {
		return 0, ""
	}
	return level, strings.TrimSpace(strings.TrimRight(line[level:], "# "))
}

func (p page) content() string {
	return strings.Join(p.lines, "\n")
}
