package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains the lipgloss styles used by the browser.
type Styles struct {
	Title    lipgloss.Style
	Heading  lipgloss.Style
	Link     lipgloss.Style
	Selected lipgloss.Style
	Code     lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
	Address  lipgloss.Style
}

// DefaultStyles returns the default browser styles.
func DefaultStyles() *Styles {
	primary := lipgloss.Color("#7C3AED")
	secondary := lipgloss.Color("#06B6D4")
	muted := lipgloss.Color("#6C7086")

	return &Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(primary),
		Heading:  lipgloss.NewStyle().Bold(true).Foreground(secondary),
		Link:     lipgloss.NewStyle().Underline(true).Foreground(secondary),
		Selected: lipgloss.NewStyle().Bold(true).Reverse(true),
		Code:     lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Normal:   lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4")),
		Muted:    lipgloss.NewStyle().Foreground(muted),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		Help:     lipgloss.NewStyle().Foreground(muted).Italic(true),
		Address: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("#45475A")),
	}
}
