package pubnav

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eringen/pubnav/navigation"
	"github.com/eringen/pubnav/scroll"
)

const maxClientDepth = 1000

// clientViewport stands in for a browser viewport. The browser reports the
// offset it is leaving with each request and scrolls itself to the offset
// and anchor returned; the viewport only keeps the last offset applied.
type clientViewport struct {
	mu      sync.Mutex
	current scroll.Offset
}

func (v *clientViewport) Offset() scroll.Offset {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

func (v *clientViewport) ScrollTo(off scroll.Offset) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = off
}

// AnchorOffset reports every anchor as found at the origin; the browser
// locates it after the body is swapped in.
func (v *clientViewport) AnchorOffset(string) (scroll.Offset, bool) {
	return scroll.Offset{}, true
}

// navSession is one client's navigation state: a resolver bound to the site
// snapshot current at creation and the scroll manager following it.
type navSession struct {
	id       string
	site     *Site
	resolver *navigation.Resolver
	scroll   *scroll.Manager
	viewport *clientViewport

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *navSession) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// saveOffset records off for the entry the client is leaving. from names
// that entry; zero means the resolver's current entry. Entries no longer in
// history are ignored.
func (s *navSession) saveOffset(from uint64, off scroll.Offset) {
	if from == 0 {
		cur, ok := s.resolver.Current()
		if !ok {
			return
		}
		from = cur.ID
	}
	if _, ok := s.resolver.Entry(from); !ok {
		return
	}
	s.scroll.Save(from, off)
}

func (s *navSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type sessionFactory func(site *Site, depth int) (*navigation.Resolver, *scroll.Manager, *clientViewport)

// sessionRegistry holds live navigation sessions keyed by uuid.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*navSession
	idle     time.Duration
	factory  sessionFactory
	logger   *slog.Logger
	stop     chan struct{}
	once     sync.Once
}

func newSessionRegistry(idle time.Duration, factory sessionFactory, logger *slog.Logger) *sessionRegistry {
	r := &sessionRegistry{
		sessions: make(map[string]*navSession),
		idle:     idle,
		factory:  factory,
		logger:   logger,
		stop:     make(chan struct{}),
	}
	go r.reapLoop()
	return r
}

// get returns the session for id, or false when it does not exist.
func (r *sessionRegistry) get(id string) (*navSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// create starts a session over site with the given history depth.
func (r *sessionRegistry) create(site *Site, depth int) *navSession {
	if depth <= 0 || depth > maxClientDepth {
		depth = 0
	}
	resolver, manager, viewport := r.factory(site, depth)
	s := &navSession{
		id:       uuid.NewString(),
		site:     site,
		resolver: resolver,
		scroll:   manager,
		viewport: viewport,
		lastSeen: time.Now(),
	}
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	r.logger.Debug("navigation session created", "session", s.id)
	return s
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *sessionRegistry) reapLoop() {
	ticker := time.NewTicker(r.idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.reap(now)
		}
	}
}

func (r *sessionRegistry) reap(now time.Time) {
	cutoff := now.Add(-r.idle)
	var expired []*navSession
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for _, s := range expired {
		s.scroll.Close()
		r.logger.Debug("navigation session reaped", "session", s.id)
	}
}

func (r *sessionRegistry) close() {
	r.once.Do(func() { close(r.stop) })
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		s.scroll.Close()
		delete(r.sessions, id)
	}
}
