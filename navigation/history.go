package navigation

// DefaultHistoryDepth is used when no platform depth is reported.
const DefaultHistoryDepth = 50

// History is the bounded, ordered stack of committed entries with a cursor
// at the current entry. It is not safe for concurrent use; the Resolver
// owns it.
type History struct {
	entries []Entry
	cursor  int
	depth   int
}

// NewHistory returns an empty history holding at most depth entries.
func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &History{cursor: -1, depth: depth}
}

// Current returns the entry at the cursor.
func (h *History) Current() (Entry, bool) {
	if h.cursor < 0 {
		return Entry{}, false
	}
	return h.entries[h.cursor], true
}

// Push drops every entry after the cursor, appends e and trims the oldest
// entries beyond depth. It returns the IDs of dropped entries.
func (h *History) Push(e Entry) []uint64 {
	var evicted []uint64
	for _, fwd := range h.entries[h.cursor+1:] {
		evicted = append(evicted, fwd.ID)
	}
	h.entries = append(h.entries[:h.cursor+1], e)
	h.cursor = len(h.entries) - 1
	if over := len(h.entries) - h.depth; over > 0 {
		for _, old := range h.entries[:over] {
			evicted = append(evicted, old.ID)
		}
		h.entries = append([]Entry(nil), h.entries[over:]...)
		h.cursor -= over
	}
	return evicted
}

// Replace swaps the current entry for e, returning the replaced ID. On an
// empty history it behaves like Push.
func (h *History) Replace(e Entry) []uint64 {
	if h.cursor < 0 {
		return h.Push(e)
	}
	old := h.entries[h.cursor].ID
	h.entries[h.cursor] = e
	return []uint64{old}
}

// Seek moves the cursor to the entry with the given ID.
func (h *History) Seek(id uint64) bool {
	for i, e := range h.entries {
		if e.ID == id {
			h.cursor = i
			return true
		}
	}
	return false
}

// Find returns the entry with the given ID.
func (h *History) Find(id uint64) (Entry, bool) {
	for _, e := range h.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// At returns the entry delta steps from the cursor (negative is back).
func (h *History) At(delta int) (Entry, bool) {
	i := h.cursor + delta
	if h.cursor < 0 || i < 0 || i >= len(h.entries) {
		return Entry{}, false
	}
	return h.entries[i], true
}

// Entries returns a copy of the stack, oldest first.
func (h *History) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// Depth returns the maximum number of entries.
func (h *History) Depth() int { return h.depth }

// Cursor returns the index of the current entry, or -1.
func (h *History) Cursor() int { return h.cursor }
