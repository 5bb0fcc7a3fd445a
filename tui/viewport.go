package tui

import (
	"context"
	"sync"

	"github.com/eringen/pubnav/scroll"
)

// Viewport adapts the terminal content pane to scroll.Viewport. Offsets are
// measured in lines. Layout happens on the bubbletea goroutine after a
// commit, so restoration waits for it through AfterLayout.
type Viewport struct {
	mu      sync.Mutex
	y       int
	max     int
	anchors map[string]int
	settled chan struct{}
	notify  func(scroll.Offset)
}

// NewViewport returns a viewport with no content laid out.
func NewViewport() *Viewport {
	settled := make(chan struct{})
	close(settled)
	return &Viewport{settled: settled}
}

func (v *Viewport) Offset() scroll.Offset {
	v.mu.Lock()
	defer v.mu.Unlock()
	return scroll.Offset{Y: v.y}
}

// ScrollTo moves the pane. Offsets past the end of the content are clamped.
func (v *Viewport) ScrollTo(off scroll.Offset) {
	v.mu.Lock()
	y := clamp(off.Y, 0, v.max)
	v.y = y
	notify := v.notify
	v.mu.Unlock()
	if notify != nil {
		notify(scroll.Offset{Y: y})
	}
}

func (v *Viewport) AnchorOffset(fragment string) (scroll.Offset, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	line, ok := v.anchors[fragment]
	if !ok {
		return scroll.Offset{}, false
	}
	return scroll.Offset{Y: clamp(line, 0, v.max)}, true
}

// AfterLayout blocks until the content of the pending commit is laid out.
func (v *Viewport) AfterLayout(ctx context.Context) error {
	v.mu.Lock()
	settled := v.settled
	v.mu.Unlock()
	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnScroll registers fn to be called whenever the offset is moved by
// ScrollTo.
func (v *Viewport) OnScroll(fn func(scroll.Offset)) {
	v.mu.Lock()
	v.notify = fn
	v.mu.Unlock()
}

// record stores the offset the user scrolled to without notifying.
func (v *Viewport) record(y int) {
	v.mu.Lock()
	v.y = y
	v.mu.Unlock()
}

// beginLayout marks the content as stale until the next layout.
func (v *Viewport) beginLayout() {
	v.mu.Lock()
	defer v.mu.Unlock()
	select {
	case <-v.settled:
		v.settled = make(chan struct{})
	default:
	}
}

// layout publishes the measured page and releases pending restorations.
func (v *Viewport) layout(anchors map[string]int, maxOffset int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.anchors = anchors
	v.max = max(maxOffset, 0)
	v.y = clamp(v.y, 0, v.max)
	select {
	case <-v.settled:
	default:
		close(v.settled)
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
