package scroll

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubnav/navigation"
	"github.com/eringen/pubnav/registry"
)

type fakeViewport struct {
	mu      sync.Mutex
	current Offset
	anchors map[string]Offset
	moves   []Offset
}

func (v *fakeViewport) Offset() Offset {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

func (v *fakeViewport) ScrollTo(off Offset) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = off
	v.moves = append(v.moves, off)
}

func (v *fakeViewport) AnchorOffset(fragment string) (Offset, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	off, ok := v.anchors[fragment]
	return off, ok
}

func (v *fakeViewport) scroll(off Offset) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = off
}

type layoutViewport struct {
	*fakeViewport
	settled chan struct{}
}

func (v *layoutViewport) AfterLayout(ctx context.Context) error {
	select {
	case <-v.settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func testResolver(t *testing.T, depth int) *navigation.Resolver {
	t.Helper()
	var files []registry.ContentFile
	for _, name := range []string{"a", "b", "c", "d"} {
		files = append(files, registry.ContentFile{
			Name:   name + ".md",
			Source: []byte("---\ntitle: " + name + "\ntype: page\n---\nbody\n"),
		})
	}
	reg, err := registry.Build(files)
	require.NoError(t, err)
	return navigation.New(reg, navigation.WithHistoryDepth(depth))
}

func TestManager_RestoresOnPop(t *testing.T) {
	res := testResolver(t, 10)
	vp := &fakeViewport{}
	m := New(vp, res.Depth())
	m.Attach(res)
	ctx := context.Background()

	a, _, err := res.Navigate(ctx, "/a", navigation.Options{})
	require.NoError(t, err)
	vp.scroll(Offset{X: 0, Y: 820})

	_, _, err = res.Navigate(ctx, "/b", navigation.Options{})
	require.NoError(t, err)
	assert.Equal(t, Offset{}, vp.Offset())
	assert.Equal(t, Offset{X: 0, Y: 820}, m.Offset(a.ID))

	_, _, err = res.Back(ctx)
	require.NoError(t, err)
	assert.Equal(t, Offset{X: 0, Y: 820}, vp.Offset())
}

func TestManager_ForwardRestoresLeavingEntry(t *testing.T) {
	res := testResolver(t, 10)
	vp := &fakeViewport{}
	m := New(vp, res.Depth())
	m.Attach(res)
	ctx := context.Background()

	res.Navigate(ctx, "/a", navigation.Options{})
	b, _, _ := res.Navigate(ctx, "/b", navigation.Options{})
	vp.scroll(Offset{Y: 300})
	res.Back(ctx)
	assert.Equal(t, Offset{Y: 300}, m.Offset(b.ID))

	res.Forward(ctx)
	assert.Equal(t, Offset{Y: 300}, vp.Offset())
}

func TestManager_UnknownEntryIsOrigin(t *testing.T) {
	m := New(&fakeViewport{}, 5)
	assert.Equal(t, Offset{}, m.Offset(42))
}

func TestManager_PopToUnknownEntryScrollsToOrigin(t *testing.T) {
	res := testResolver(t, 10)
	vp := &fakeViewport{}
	New(vp, res.Depth()).Attach(res)
	ctx := context.Background()

	res.Navigate(ctx, "/a", navigation.Options{})
	vp.scroll(Offset{Y: 50})
	_, ok, err := res.Navigate(ctx, "/c", navigation.Options{Kind: navigation.Pop, EntryID: 77})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Offset{}, vp.Offset())
}

func TestManager_PopWithoutRecordIgnoresFragment(t *testing.T) {
	res := testResolver(t, 10)
	vp := &fakeViewport{anchors: map[string]Offset{"intro": {Y: 300}}}
	m := New(vp, res.Depth())
	ctx := context.Background()

	res.Navigate(ctx, "/a", navigation.Options{})
	vp.scroll(Offset{Y: 50})
	m.Handle(navigation.Event{Kind: navigation.Pop, Entry: navigation.Entry{ID: 99, Path: "/c", Fragment: "intro"}})
	assert.Equal(t, Offset{}, vp.Offset())

	entry, ok, err := res.Navigate(ctx, "/c#intro", navigation.Options{Kind: navigation.Pop, EntryID: 77})
	require.NoError(t, err)
	require.True(t, ok)
	m.Handle(navigation.Event{Kind: navigation.Pop, Entry: entry})
	assert.Equal(t, Offset{}, vp.Offset())
}

func TestManager_ExplicitCapture(t *testing.T) {
	res := testResolver(t, 10)
	vp := &fakeViewport{}
	m := New(vp, res.Depth(), WithExplicitCapture())
	m.Attach(res)
	ctx := context.Background()

	first, _, err := res.Navigate(ctx, "/a", navigation.Options{})
	require.NoError(t, err)
	vp.scroll(Offset{Y: 999})
	m.Save(first.ID, Offset{Y: 820})
	_, _, err = res.Navigate(ctx, "/b", navigation.Options{})
	require.NoError(t, err)
	assert.Equal(t, Offset{Y: 820}, m.Offset(first.ID), "viewport offset must not overwrite the saved record")

	_, _, err = res.Navigate(ctx, "/a", navigation.Options{Kind: navigation.Pop, EntryID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, Offset{Y: 820}, vp.Offset())
}

func TestManager_AnchorOnPush(t *testing.T) {
	res := testResolver(t, 10)
	vp := &fakeViewport{anchors: map[string]Offset{"install": {Y: 1200}}}
	New(vp, res.Depth()).Attach(res)
	ctx := context.Background()

	res.Navigate(ctx, "/a#install", navigation.Options{})
	assert.Equal(t, Offset{Y: 1200}, vp.Offset())

	res.Navigate(ctx, "/b#missing", navigation.Options{})
	assert.Equal(t, Offset{}, vp.Offset())
}

func TestManager_EvictionBoundsRecords(t *testing.T) {
	res := testResolver(t, 2)
	vp := &fakeViewport{}
	m := New(vp, res.Depth())
	m.Attach(res)
	ctx := context.Background()

	for i, p := range []string{"/a", "/b", "/c", "/d"} {
		vp.scroll(Offset{Y: i * 100})
		res.Navigate(ctx, p, navigation.Options{})
		assert.LessOrEqual(t, m.Len(), res.Depth())
	}
}

func TestManager_ReplaceDropsReplacedRecord(t *testing.T) {
	res := testResolver(t, 10)
	vp := &fakeViewport{}
	m := New(vp, res.Depth())
	m.Attach(res)
	ctx := context.Background()

	a, _, _ := res.Navigate(ctx, "/a", navigation.Options{})
	vp.scroll(Offset{Y: 10})
	res.Navigate(ctx, "/b", navigation.Options{Kind: navigation.Replace})
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, Offset{}, m.Offset(a.ID))
}

func TestManager_DeferredRestoration(t *testing.T) {
	res := testResolver(t, 10)
	base := &fakeViewport{}
	vp := &layoutViewport{fakeViewport: base, settled: make(chan struct{})}
	m := New(vp, res.Depth())
	m.Attach(res)
	ctx := context.Background()

	res.Navigate(ctx, "/a", navigation.Options{})
	base.scroll(Offset{Y: 640})
	res.Navigate(ctx, "/b", navigation.Options{})
	res.Back(ctx)
	base.scroll(Offset{Y: 5})
	assert.Equal(t, Offset{Y: 5}, vp.Offset(), "restoration waits for layout")

	close(vp.settled)
	m.Wait()
	assert.Equal(t, Offset{Y: 640}, vp.Offset())
}

func TestManager_NewerCommitCancelsPendingRestore(t *testing.T) {
	base := &fakeViewport{}
	vp := &layoutViewport{fakeViewport: base, settled: make(chan struct{})}
	m := New(vp, 10)

	m.Save(1, Offset{Y: 999})
	m.Handle(navigation.Event{Kind: navigation.Pop, Entry: navigation.Entry{ID: 1}})
	m.Handle(navigation.Event{Kind: navigation.Push, Entry: navigation.Entry{ID: 2}})
	close(vp.settled)
	m.Wait()

	base.mu.Lock()
	defer base.mu.Unlock()
	assert.Equal(t, []Offset{{}}, base.moves)
}
