// Package navigation arbitrates navigation requests against the route
// registry and redirect table, maintains the bounded history stack and
// publishes one commit event per committed navigation.
package navigation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eringen/pubnav/registry"
)

var (
	ErrInvalidKind = errors.New("navigation: invalid navigation kind")
	ErrNoHistory   = errors.New("navigation: no history entry in that direction")
	ErrNotFound    = errors.New("navigation: route not found")
)

// NotFoundError is reported to diagnostics when a path resolves to no route.
// It never reaches Navigate callers.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound.Error(), e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Kind is how a navigation affects history.
type Kind int

const (
	Push Kind = iota
	Replace
	Pop
)

func (k Kind) String() string {
	switch k {
	case Push:
		return "push"
	case Replace:
		return "replace"
	case Pop:
		return "pop"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= Push && k <= Pop
}

// ParseKind reads "push", "replace" or "pop"; empty means push.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "push":
		return Push, nil
	case "replace":
		return Replace, nil
	case "pop":
		return Pop, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// State of the resolver, reflecting its most recent request.
type State int

const (
	Idle State = iota
	Resolving
	Committed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Resolving:
		return "resolving"
	case Committed:
		return "committed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Entry is a committed point in history. ID is the sequence number of the
// request that created it and identifies the entry for its whole life, even
// when the same path appears several times in history.
type Entry struct {
	ID       uint64
	Path     string
	Fragment string
	Route    registry.Descriptor
	Kind     Kind
	// NotFound marks entries committed to the fallback route.
	NotFound bool
	// External is set on the uncommitted result of a navigation whose
	// redirect chain left the site; Path then holds the absolute URL.
	External    bool
	CommittedAt time.Time
}

// Event is published once per committed navigation.
type Event struct {
	// Sequence is the sequence number of the committing request. It equals
	// Entry.ID except for pops that revisit an existing entry.
	Sequence uint64
	Kind     Kind
	Entry    Entry
	// Previous is the entry that was current before the commit.
	Previous    Entry
	HasPrevious bool
	// Revisit is set when a pop moved to an entry already in history.
	Revisit bool
	// Evicted lists entry IDs dropped from history by this commit.
	Evicted []uint64
	// Cause is the recovered routing failure behind a fallback commit.
	Cause   error
	Content []byte
}

// Options qualifies a navigation request.
type Options struct {
	Kind Kind
	// EntryID names the history entry a pop revisits. Unknown or zero IDs
	// make the pop resolve Path as a fresh entry.
	EntryID uint64
}

// Miss describes a recovered routing failure.
type Miss struct {
	Requested string
	Resolved  string
	Err       error
	At        time.Time
}
