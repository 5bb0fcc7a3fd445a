package navigation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/eringen/pubnav/redirects"
	"github.com/eringen/pubnav/registry"
)

// Fetcher loads the rendered body of a route. It is the resolver's only
// suspension point and must honour ctx cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, route registry.Descriptor) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, route registry.Descriptor) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, route registry.Descriptor) ([]byte, error) {
	return f(ctx, route)
}

// Reporter receives recovered routing failures.
type Reporter interface {
	ReportMiss(ctx context.Context, m Miss)
}

// StateObserver is called on every state transition of the newest request.
type StateObserver func(seq uint64, from, to State)

// Resolver turns navigation requests into committed history entries.
// Navigate may be called from any goroutine; only the newest request is
// ever committed.
type Resolver struct {
	registry  *registry.Registry
	redirects *redirects.Table
	fetcher   Fetcher
	reporter  Reporter
	observer  StateObserver
	logger    *slog.Logger
	now       func() time.Time
	bus       Bus

	seq atomic.Uint64

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	history *History

	// emitMu is taken before mu is released at a commit, so events leave
	// in commit order.
	emitMu sync.Mutex
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRedirects sets the redirect table consulted before registry lookup.
func WithRedirects(t *redirects.Table) Option {
	return func(r *Resolver) { r.redirects = t }
}

// WithFetcher sets the body fetcher. Without one entries carry no content.
func WithFetcher(f Fetcher) Option {
	return func(r *Resolver) { r.fetcher = f }
}

// WithReporter sets the diagnostics sink for recovered failures.
func WithReporter(rep Reporter) Option {
	return func(r *Resolver) { r.reporter = rep }
}

// WithHistoryDepth bounds the history stack.
func WithHistoryDepth(depth int) Option {
	return func(r *Resolver) { r.history = NewHistory(depth) }
}

// WithStateObserver registers a callback for state transitions.
func WithStateObserver(fn StateObserver) Option {
	return func(r *Resolver) { r.observer = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithClock overrides the time source for CommittedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// New returns an idle resolver over reg.
func New(reg *registry.Registry, opts ...Option) *Resolver {
	r := &Resolver{registry: reg}
	for _, opt := range opts {
		opt(r)
	}
	if r.history == nil {
		r.history = NewHistory(DefaultHistoryDepth)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Subscribe registers fn for commit events.
func (r *Resolver) Subscribe(fn Handler) func() {
	return r.bus.Subscribe(fn)
}

// State returns the state left by the newest request.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Sequence returns the sequence number of the newest request.
func (r *Resolver) Sequence() uint64 {
	return r.seq.Load()
}

// Current returns the current history entry.
func (r *Resolver) Current() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.Current()
}

// Entry returns the history entry with id while it is still in history.
func (r *Resolver) Entry(id uint64) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.Find(id)
}

// History returns the history stack, oldest first, and the cursor index.
func (r *Resolver) History() ([]Entry, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.Entries(), r.history.Cursor()
}

// Depth returns the history bound.
func (r *Resolver) Depth() int {
	return r.history.Depth()
}

type target struct {
	requested string
	path      string
	fragment  string
	route     registry.Descriptor
	notFound  bool
	external  bool
	revisit   bool
	entry     Entry
	cause     error
}

// Navigate resolves rawPath and commits it to history according to opts.
//
// It returns the committed entry and true on commit. A request superseded by
// a newer one returns a zero Entry, false and a nil error. A redirect chain
// that leaves the site returns an uncommitted entry with External set.
func (r *Resolver) Navigate(ctx context.Context, rawPath string, opts Options) (Entry, bool, error) {
	if !opts.Kind.Valid() {
		return Entry{}, false, fmt.Errorf("%w: %s", ErrInvalidKind, opts.Kind)
	}
	parent := ctx

	r.mu.Lock()
	seq := r.seq.Inc()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.setState(seq, Resolving)
	var revisit Entry
	var hasRevisit bool
	if opts.Kind == Pop && opts.EntryID != 0 {
		revisit, hasRevisit = r.history.Find(opts.EntryID)
	}
	r.mu.Unlock()
	defer cancel()

	var t target
	if hasRevisit {
		t = target{
			requested: revisit.Path,
			path:      revisit.Path,
			fragment:  revisit.Fragment,
			route:     revisit.Route,
			notFound:  revisit.NotFound,
			revisit:   true,
			entry:     revisit,
		}
	} else {
		t = r.resolve(rawPath)
	}

	if t.external {
		r.mu.Lock()
		if seq == r.seq.Load() {
			r.setState(seq, Idle)
			r.cancel = nil
		}
		r.mu.Unlock()
		r.logger.Debug("navigation left site", "path", t.requested, "target", t.path)
		return Entry{Path: t.path, Fragment: t.fragment, Kind: opts.Kind, External: true}, false, nil
	}

	content, err := r.fetch(ctx, t.route)
	if err != nil {
		if ctx.Err() != nil {
			return r.abandon(parent, seq)
		}
		if t.cause == nil {
			t.cause = fmt.Errorf("navigation: fetch %s: %w", t.route.Path, err)
			t.route = r.registry.NotFound()
			t.notFound = true
			t.revisit = false
			content, err = r.fetch(ctx, t.route)
			if err != nil && ctx.Err() != nil {
				return r.abandon(parent, seq)
			}
		}
		if err != nil {
			r.logger.Warn("not-found body unavailable", "path", t.route.Path, "error", err)
			content = nil
		}
	}

	r.mu.Lock()
	if seq != r.seq.Load() {
		r.mu.Unlock()
		r.logger.Debug("navigation superseded", "seq", seq, "path", t.requested)
		return Entry{}, false, nil
	}
	if err := parent.Err(); err != nil {
		r.setState(seq, Idle)
		r.cancel = nil
		r.mu.Unlock()
		return Entry{}, false, err
	}
	if t.cause != nil {
		r.setState(seq, Failed)
	}
	ev := r.commit(seq, t, opts)
	ev.Content = content
	r.setState(seq, Committed)
	r.cancel = nil
	r.emitMu.Lock()
	r.mu.Unlock()

	r.bus.Publish(ev)
	r.emitMu.Unlock()

	if t.cause != nil && r.reporter != nil {
		r.reporter.ReportMiss(context.WithoutCancel(parent), Miss{
			Requested: t.requested,
			Resolved:  t.path,
			Err:       t.cause,
			At:        ev.Entry.CommittedAt,
		})
	}
	r.logger.Debug("navigation committed",
		"seq", seq, "kind", opts.Kind.String(), "path", ev.Entry.Path, "not_found", ev.Entry.NotFound)
	return ev.Entry, true, nil
}

// Back pops to the entry before the cursor.
func (r *Resolver) Back(ctx context.Context) (Entry, bool, error) {
	return r.Go(ctx, -1)
}

// Forward pops to the entry after the cursor.
func (r *Resolver) Forward(ctx context.Context) (Entry, bool, error) {
	return r.Go(ctx, 1)
}

// Go pops delta entries away from the cursor.
func (r *Resolver) Go(ctx context.Context, delta int) (Entry, bool, error) {
	r.mu.Lock()
	e, ok := r.history.At(delta)
	r.mu.Unlock()
	if !ok || delta == 0 {
		return Entry{}, false, ErrNoHistory
	}
	return r.Navigate(ctx, e.Path, Options{Kind: Pop, EntryID: e.ID})
}

func (r *Resolver) resolve(rawPath string) target {
	p, fragment := registry.SplitFragment(rawPath)
	t := target{requested: p, path: p, fragment: fragment}

	if r.redirects != nil {
		res, err := r.redirects.Resolve(p)
		switch {
		case err != nil:
			return r.fallback(t, err)
		case res.External:
			t.path = res.Path
			t.external = true
			return t
		default:
			t.path = res.Path
		}
	}

	d, ok := r.registry.Lookup(t.path)
	if !ok {
		return r.fallback(t, &NotFoundError{Path: t.path})
	}
	t.route = d
	return t
}

func (r *Resolver) fallback(t target, cause error) target {
	t.route = r.registry.NotFound()
	t.notFound = true
	t.cause = cause
	return t
}

func (r *Resolver) fetch(ctx context.Context, d registry.Descriptor) ([]byte, error) {
	if r.fetcher == nil {
		return nil, ctx.Err()
	}
	return r.fetcher.Fetch(ctx, d)
}

func (r *Resolver) abandon(parent context.Context, seq uint64) (Entry, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.seq.Load() {
		return Entry{}, false, nil
	}
	r.setState(seq, Idle)
	r.cancel = nil
	if err := parent.Err(); err != nil {
		return Entry{}, false, err
	}
	return Entry{}, false, context.Canceled
}

// commit mutates history for t. Callers hold mu.
func (r *Resolver) commit(seq uint64, t target, opts Options) Event {
	ev := Event{Sequence: seq, Kind: opts.Kind, Cause: t.cause}
	if prev, ok := r.history.Current(); ok {
		ev.Previous = prev
		ev.HasPrevious = true
	}

	if t.revisit && r.history.Seek(t.entry.ID) {
		ev.Entry = t.entry
		ev.Revisit = true
		return ev
	}

	entry := Entry{
		ID:          seq,
		Path:        t.path,
		Fragment:    t.fragment,
		Route:       t.route,
		Kind:        opts.Kind,
		NotFound:    t.notFound,
		CommittedAt: r.now(),
	}
	switch opts.Kind {
	case Replace:
		ev.Evicted = r.history.Replace(entry)
	default:
		ev.Evicted = r.history.Push(entry)
	}
	ev.Entry = entry
	return ev
}

// setState records a transition. Callers hold mu.
func (r *Resolver) setState(seq uint64, to State) {
	from := r.state
	r.state = to
	if r.observer != nil {
		r.observer(seq, from, to)
	}
}

