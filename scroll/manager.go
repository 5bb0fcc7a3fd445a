// Package scroll records viewport offsets per history entry and restores
// them when navigation commits.
package scroll

import (
	"context"
	"log/slog"
	"sync"

	"github.com/eringen/pubnav/navigation"
)

// Offset is a viewport scroll position in pixels.
type Offset struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Viewport is the scrollable surface being managed.
type Viewport interface {
	Offset() Offset
	ScrollTo(Offset)
	// AnchorOffset locates an in-page anchor in the current layout.
	AnchorOffset(fragment string) (Offset, bool)
}

// LayoutWaiter is implemented by viewports whose layout settles after the
// commit. AfterLayout returns once the new content can be measured.
type LayoutWaiter interface {
	AfterLayout(ctx context.Context) error
}

// Manager owns the scroll record table. Records are keyed by entry ID and
// never outnumber the history depth.
type Manager struct {
	viewport Viewport
	depth    int
	logger   *slog.Logger
	explicit bool

	mu      sync.Mutex
	records map[uint64]Offset
	order   []uint64
	pending context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithExplicitCapture stops Handle from reading the viewport for the entry
// being left. Offsets are recorded through Save instead, for viewports that
// live in another process and report their offset with each request.
func WithExplicitCapture() Option {
	return func(m *Manager) { m.explicit = true }
}

// New returns a manager for viewport keeping at most depth records.
func New(viewport Viewport, depth int, opts ...Option) *Manager {
	if depth <= 0 {
		depth = navigation.DefaultHistoryDepth
	}
	m := &Manager{
		viewport: viewport,
		depth:    depth,
		records:  make(map[uint64]Offset),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Attach subscribes the manager to r's commit events.
func (m *Manager) Attach(r *navigation.Resolver) (detach func()) {
	return r.Subscribe(m.Handle)
}

// Handle applies a commit event: the leaving entry's offset is recorded,
// evicted entries are forgotten and the viewport is moved to the offset for
// the new entry. A pop restores the entry's record, or the origin when there
// is none; anchors only apply to push and replace.
func (m *Manager) Handle(ev navigation.Event) {
	m.mu.Lock()
	if ev.HasPrevious && !m.explicit {
		m.store(ev.Previous.ID, m.viewport.Offset())
	}
	for _, id := range ev.Evicted {
		m.forget(id)
	}
	var saved Offset
	if ev.Kind == navigation.Pop {
		saved = m.records[ev.Entry.ID]
	}
	if m.pending != nil {
		m.pending()
		m.pending = nil
	}

	restore := func() {
		switch {
		case ev.Kind == navigation.Pop:
			m.viewport.ScrollTo(saved)
		case ev.Entry.Fragment != "":
			off, ok := m.viewport.AnchorOffset(ev.Entry.Fragment)
			if !ok {
				m.logger.Debug("anchor not found", "path", ev.Entry.Path, "fragment", ev.Entry.Fragment)
			}
			m.viewport.ScrollTo(off)
		default:
			m.viewport.ScrollTo(Offset{})
		}
	}

	waiter, deferred := m.viewport.(LayoutWaiter)
	if !deferred {
		m.mu.Unlock()
		restore()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.pending = cancel
	m.wg.Add(1)
	m.mu.Unlock()
	go func() {
		defer m.wg.Done()
		defer cancel()
		if err := waiter.AfterLayout(ctx); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		restore()
	}()
}

// Save records off for the entry id.
func (m *Manager) Save(id uint64, off Offset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(id, off)
}

// Offset returns the recorded offset for an entry, or the origin.
func (m *Manager) Offset(id uint64) Offset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id]
}

// Len returns the number of records held.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Wait blocks until no deferred restoration is running.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close cancels any pending restoration.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.pending != nil {
		m.pending()
		m.pending = nil
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) store(id uint64, off Offset) {
	if _, ok := m.records[id]; ok {
		m.records[id] = off
		return
	}
	m.records[id] = off
	m.order = append(m.order, id)
	for len(m.order) > m.depth {
		delete(m.records, m.order[0])
		m.order = m.order[1:]
	}
}

func (m *Manager) forget(id uint64) {
	if _, ok := m.records[id]; !ok {
		return
	}
	delete(m.records, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
