package pubnav

import (
	"time"

	"github.com/eringen/pubnav/navigation"
	"github.com/eringen/pubnav/scroll"
)

// NavigateRequest is the body of POST /api/navigate.
type NavigateRequest struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	EntryID uint64 `json:"entry_id"`
	// From is the entry the client is leaving and Scroll its offset. Zero
	// means the session's current entry.
	From   uint64        `json:"from"`
	Scroll scroll.Offset `json:"scroll"`
	// Depth is the client's history bound; it applies when the session is
	// created.
	Depth int `json:"depth"`
}

// EntryJSON is the wire form of a history entry.
type EntryJSON struct {
	ID          uint64    `json:"id"`
	Path        string    `json:"path"`
	Fragment    string    `json:"fragment,omitempty"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Route       string    `json:"route"`
	NotFound    bool      `json:"not_found,omitempty"`
	CommittedAt time.Time `json:"committed_at"`
}

// NavigateResponse is returned by POST /api/navigate.
type NavigateResponse struct {
	Committed bool          `json:"committed"`
	External  bool          `json:"external,omitempty"`
	URL       string        `json:"url,omitempty"`
	Entry     *EntryJSON    `json:"entry,omitempty"`
	Scroll    scroll.Offset `json:"scroll"`
	Anchor    string        `json:"anchor,omitempty"`
	HTML      string        `json:"html,omitempty"`
}

// HistoryResponse is returned by GET /api/history.
type HistoryResponse struct {
	Entries []EntryJSON `json:"entries"`
	Cursor  int         `json:"cursor"`
	Depth   int         `json:"depth"`
}

// EventJSON is one server-sent commit event.
type EventJSON struct {
	Sequence uint64    `json:"sequence"`
	Kind     string    `json:"kind"`
	Entry    EntryJSON `json:"entry"`
	Previous *uint64   `json:"previous,omitempty"`
	Evicted  []uint64  `json:"evicted,omitempty"`
	Revisit  bool      `json:"revisit,omitempty"`
	Cause    string    `json:"cause,omitempty"`
}

func entryJSON(e navigation.Entry) EntryJSON {
	return EntryJSON{
		ID:          e.ID,
		Path:        e.Path,
		Fragment:    e.Fragment,
		Kind:        e.Kind.String(),
		Title:       e.Route.Metadata.Title,
		Route:       e.Route.Path,
		NotFound:    e.NotFound,
		CommittedAt: e.CommittedAt,
	}
}

func eventJSON(ev navigation.Event) EventJSON {
	out := EventJSON{
		Sequence: ev.Sequence,
		Kind:     ev.Kind.String(),
		Entry:    entryJSON(ev.Entry),
		Evicted:  ev.Evicted,
		Revisit:  ev.Revisit,
	}
	if ev.HasPrevious {
		id := ev.Previous.ID
		out.Previous = &id
	}
	if ev.Cause != nil {
		out.Cause = ev.Cause.Error()
	}
	return out
}
