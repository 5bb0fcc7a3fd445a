package pubnav

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// NavLimiter rate-limits navigation requests per session.
type NavLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idle     time.Duration
	stop     chan struct{}
	once     sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewNavLimiter creates a NavLimiter allowing perSecond requests with the
// given burst. Limiters unused for idle are dropped.
func NewNavLimiter(perSecond float64, burst int, idle time.Duration) *NavLimiter {
	l := &NavLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idle:     idle,
		stop:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *NavLimiter) cleanup() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep(time.Now())
		}
	}
}

func (l *NavLimiter) sweep(now time.Time) {
	cutoff := now.Add(-l.idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
}

// Allow reports whether key may navigate now and consumes a token if so.
func (l *NavLimiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = time.Now()
	l.mu.Unlock()
	return e.limiter.Allow()
}

// Len returns the number of tracked keys.
func (l *NavLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Close stops the cleanup goroutine.
func (l *NavLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}
