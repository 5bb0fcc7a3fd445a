package navigation

import "sync"

// Handler receives commit events. Handlers run synchronously on the
// committing goroutine, in subscription order, and must not call Navigate.
type Handler func(Event)

type subscription struct {
	id uint64
	fn Handler
}

// Bus is a publish/subscribe channel for commit events.
type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs []subscription
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Handler) func() {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers ev to every current subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
