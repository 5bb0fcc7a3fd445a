// Package tui provides an interactive terminal browser for a content site.
// It drives the same navigation resolver and scroll manager as the HTTP
// server, so history and scroll restoration behave identically.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/eringen/pubnav/navigation"
	"github.com/eringen/pubnav/redirects"
	"github.com/eringen/pubnav/registry"
	"github.com/eringen/pubnav/scroll"
)

// Config configures a Browser.
type Config struct {
	Registry  *registry.Registry
	Redirects *redirects.Table
	// Content is the filesystem route bodies are read from.
	Content  fs.FS
	Depth    int
	Start    string
	Reporter navigation.Reporter
	Logger   *slog.Logger
}

type navigatedMsg struct {
	entry     navigation.Entry
	committed bool
	event     navigation.Event
	err       error
}

type scrolledMsg scroll.Offset

// Browser is the bubbletea model of the terminal browser.
type Browser struct {
	resolver *navigation.Resolver
	scroll   *scroll.Manager
	vp       *Viewport
	start    string
	ctx      context.Context

	pane    viewport.Model
	address textinput.Model
	help    help.Model
	keys    KeyMap
	styles  *Styles

	current  navigation.Entry
	page     page
	selected int
	editing  bool
	status   string
	err      error
	width    int
	height   int

	mu     sync.Mutex
	events map[uint64]navigation.Event
}

// NewBrowser builds a browser over cfg.Registry.
func NewBrowser(cfg Config) (*Browser, error) {
	if cfg.Registry == nil {
		return nil, errors.New("tui: registry is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Start == "" {
		cfg.Start = "/"
	}

	content := cfg.Content
	opts := []navigation.Option{
		navigation.WithHistoryDepth(cfg.Depth),
		navigation.WithLogger(cfg.Logger),
		navigation.WithFetcher(navigation.FetcherFunc(func(ctx context.Context, d registry.Descriptor) ([]byte, error) {
			if content == nil || d.Synthetic() {
				return []byte(d.Metadata.Description), nil
			}
			return registry.ReadBody(content, ".", d)
		})),
	}
	if cfg.Redirects != nil {
		opts = append(opts, navigation.WithRedirects(cfg.Redirects))
	}
	if cfg.Reporter != nil {
		opts = append(opts, navigation.WithReporter(cfg.Reporter))
	}

	b := &Browser{
		resolver: navigation.New(cfg.Registry, opts...),
		vp:       NewViewport(),
		start:    cfg.Start,
		ctx:      context.Background(),
		pane:     viewport.New(80, 20),
		address:  textinput.New(),
		help:     help.New(),
		keys:     DefaultKeyMap(),
		styles:   DefaultStyles(),
		events:   make(map[uint64]navigation.Event),
	}
	b.address.Prompt = "open: "
	b.address.Placeholder = "/path#fragment"

	b.resolver.Subscribe(func(ev navigation.Event) {
		b.mu.Lock()
		b.events[ev.Entry.ID] = ev
		b.mu.Unlock()
	})
	b.scroll = scroll.New(b.vp, b.resolver.Depth(), scroll.WithLogger(cfg.Logger))
	b.scroll.Attach(b.resolver)
	return b, nil
}

// WithContext sets the context navigation runs under.
func (b *Browser) WithContext(ctx context.Context) {
	if ctx != nil {
		b.ctx = ctx
	}
}

// Resolver exposes the browser's navigation resolver.
func (b *Browser) Resolver() *navigation.Resolver {
	return b.resolver
}

// Viewport exposes the scroll adapter of the content pane.
func (b *Browser) Viewport() *Viewport {
	return b.vp
}

// Close waits for pending scroll restoration.
func (b *Browser) Close() {
	b.scroll.Close()
}

// Run starts the bubbletea program and blocks until the user quits.
func Run(ctx context.Context, cfg Config) error {
	b, err := NewBrowser(cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	b.WithContext(ctx)

	p := tea.NewProgram(b, tea.WithAltScreen(), tea.WithContext(ctx))
	b.vp.OnScroll(func(off scroll.Offset) { p.Send(scrolledMsg(off)) })
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// Init opens the start path.
func (b *Browser) Init() tea.Cmd {
	return b.navigate(func(ctx context.Context) (navigation.Entry, bool, error) {
		return b.resolver.Navigate(ctx, b.start, navigation.Options{Kind: navigation.Replace})
	})
}

// navigate records the pane offset for the leaving entry and runs fn off
// the update loop.
func (b *Browser) navigate(fn func(context.Context) (navigation.Entry, bool, error)) tea.Cmd {
	b.vp.record(b.pane.YOffset)
	b.vp.beginLayout()
	b.status = ""
	ctx := b.ctx
	return func() tea.Msg {
		entry, committed, err := fn(ctx)
		msg := navigatedMsg{entry: entry, committed: committed, err: err}
		if committed {
			msg.event, _ = b.takeEvent(entry.ID)
		}
		return msg
	}
}

// takeEvent returns and forgets the commit event of entry id. Commands run
// concurrently, so the event is matched by entry rather than taken as the
// latest one.
func (b *Browser) takeEvent(id uint64) (navigation.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev, ok := b.events[id]
	delete(b.events, id)
	return ev, ok
}

func (b *Browser) open(path string) tea.Cmd {
	return b.navigate(func(ctx context.Context) (navigation.Entry, bool, error) {
		return b.resolver.Navigate(ctx, path, navigation.Options{Kind: navigation.Push})
	})
}

// Update handles messages.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		b.pane.Width = msg.Width
		b.pane.Height = max(msg.Height-4, 1)
		b.relayout()
		return b, nil

	case navigatedMsg:
		return b, b.handleNavigated(msg)

	case scrolledMsg:
		b.pane.SetYOffset(msg.Y)
		return b, nil

	case tea.KeyMsg:
		if b.editing {
			return b, b.handleAddressKey(msg)
		}
		return b, b.handleKey(msg)
	}

	var cmd tea.Cmd
	b.pane, cmd = b.pane.Update(msg)
	return b, cmd
}

func (b *Browser) handleNavigated(msg navigatedMsg) tea.Cmd {
	switch {
	case errors.Is(msg.err, navigation.ErrNoHistory):
		b.status = "no history in that direction"
		b.vp.layout(b.page.anchors, b.maxOffset())
		return nil
	case msg.err != nil:
		b.err = msg.err
		b.vp.layout(b.page.anchors, b.maxOffset())
		return nil
	case msg.entry.External:
		b.status = "external link: " + msg.entry.Path
		b.vp.layout(b.page.anchors, b.maxOffset())
		return nil
	case !msg.committed:
		return nil
	}

	b.err = nil
	b.current = msg.entry
	if msg.entry.NotFound {
		b.status = "not found: " + msg.entry.Path
	}
	b.page = layoutPage(msg.entry.Route.Metadata.Title, msg.event.Content, b.styles)
	b.selected = -1
	b.relayout()
	return nil
}

// relayout pushes the page into the pane and releases pending scroll
// restorations.
func (b *Browser) relayout() {
	b.pane.SetContent(b.page.content())
	b.vp.layout(b.page.anchors, b.maxOffset())
	b.pane.SetYOffset(b.vp.Offset().Y)
}

func (b *Browser) maxOffset() int {
	return len(b.page.lines) - b.pane.Height
}

func (b *Browser) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, b.keys.Quit):
		return tea.Quit
	case key.Matches(msg, b.keys.Back):
		return b.navigate(b.resolver.Back)
	case key.Matches(msg, b.keys.Forward):
		return b.navigate(b.resolver.Forward)
	case key.Matches(msg, b.keys.Open):
		b.editing = true
		b.address.SetValue("")
		return b.address.Focus()
	case key.Matches(msg, b.keys.NextLink):
		b.cycleLink(1)
		return nil
	case key.Matches(msg, b.keys.PrevLink):
		b.cycleLink(-1)
		return nil
	case key.Matches(msg, b.keys.Follow):
		if b.selected < 0 || b.selected >= len(b.page.links) {
			return nil
		}
		target := b.page.links[b.selected].Target
		if strings.HasPrefix(target, "#") {
			target = b.current.Route.Path + target
		}
		return b.open(target)
	}

	var cmd tea.Cmd
	b.pane, cmd = b.pane.Update(msg)
	return cmd
}

func (b *Browser) handleAddressKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, b.keys.Cancel):
		b.editing = false
		b.address.Blur()
		return nil
	case key.Matches(msg, b.keys.Follow):
		b.editing = false
		b.address.Blur()
		path := strings.TrimSpace(b.address.Value())
		if path == "" {
			return nil
		}
		return b.open(path)
	}
	var cmd tea.Cmd
	b.address, cmd = b.address.Update(msg)
	return cmd
}

func (b *Browser) cycleLink(step int) {
	n := len(b.page.links)
	if n == 0 {
		return
	}
	b.selected = ((b.selected+step)%n + n) % n
	l := b.page.links[b.selected]
	b.status = fmt.Sprintf("link %d/%d: %s -> %s", b.selected+1, n, l.Text, l.Target)
	if l.Line < b.pane.YOffset || l.Line >= b.pane.YOffset+b.pane.Height {
		b.pane.SetYOffset(l.Line)
	}
}

// View renders the browser.
func (b *Browser) View() string {
	var s strings.Builder

	if b.editing {
		s.WriteString(b.styles.Address.Render(b.address.View()))
	} else {
		loc := b.current.Path
		if b.current.Fragment != "" {
			loc += "#" + b.current.Fragment
		}
		entries, cursor := b.resolver.History()
		s.WriteString(b.styles.Address.Render(fmt.Sprintf("%s  %s", loc,
			b.styles.Muted.Render(fmt.Sprintf("[%d/%d]", cursor+1, len(entries))))))
	}
	s.WriteString("\n")
	s.WriteString(b.pane.View())
	s.WriteString("\n")

	switch {
	case b.err != nil:
		s.WriteString(b.styles.Error.Render("Error: " + b.err.Error()))
	case b.status != "":
		s.WriteString(b.styles.Muted.Render(b.status))
	}
	s.WriteString("\n")
	s.WriteString(b.styles.Help.Render(b.help.ShortHelpView(b.keys.help())))
	return s.String()
}
