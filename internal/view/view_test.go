package view

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/hometree/internal/router"
	"github.com/mesh-intelligence/hometree/pkg/tree"
	"github.com/mesh-intelligence/hometree/pkg/types"
)

// fakeStore serves a fixed snapshot and routes published changes.
type fakeStore struct {
	*router.Router
	snap    types.Snapshot
	queries int
}

func (f *fakeStore) Query(context.Context, string) (types.Snapshot, error) {
	f.queries++
	return f.snap, nil
}

func newFakeStore(t *testing.T, snap types.Snapshot) *fakeStore {
	t.Helper()
	r := router.New(8)
	t.Cleanup(func() { r.Close() })
	return &fakeStore{Router: r, snap: snap}
}

var homeSnap = types.Snapshot{
	"/home":              {Tag: "home", Attrs: map[string]string{"name": "main"}},
	"/home/kitchen":      {Tag: "room", Attrs: map[string]string{"name": "kitchen", "activity": "cooking", "w": "12ft"}},
	"/home/kitchen/note": {Tag: "property", Text: "  buy milk \n"},
	"/hue/light":         {Tag: "Hue", Attrs: map[string]string{"kind": "bulb", "on": "false"}},
}

func buildOutline(t *testing.T, store *fakeStore) *Outline {
	t.Helper()
	snap, err := store.Query(context.Background(), "*")
	require.NoError(t, err)
	root, err := tree.Build(snap)
	require.NoError(t, err)
	o := New(root)
	require.NoError(t, o.Attach(store))
	t.Cleanup(func() { o.Close() })
	return o
}

func TestRenderInitialOutline(t *testing.T) {
	store := newFakeStore(t, homeSnap)
	o := buildOutline(t, store)

	var buf bytes.Buffer
	require.NoError(t, o.Render(&buf))
	assert.Equal(t, `- home (home)
  - kitchen (room)
      { activity: cooking }
      { w: 12ft }
    - note (property)
        <text>: buy milk
- hue
  - light (hue)
      { on: false }
`, buf.String())
	assert.Equal(t, 5, o.Len())
}

func TestAttachSubscribesOnlyDataElements(t *testing.T) {
	store := newFakeStore(t, homeSnap)
	buildOutline(t, store)

	assert.Equal(t, 1, store.Count("/home/kitchen"))
	assert.Equal(t, 1, store.Count("/hue/light"))
	assert.Zero(t, store.Count("/hue"))
}

func TestUpdateAppliesWithoutRequery(t *testing.T) {
	store := newFakeStore(t, homeSnap)
	o := buildOutline(t, store)

	require.NoError(t, store.Publish("/home/kitchen", &types.Node{
		Tag:   "room",
		Attrs: map[string]string{"name": "kitchen", "activity": "dishes", "w": "12ft"},
	}))
	require.NoError(t, store.Flush())

	e, ok := o.Element("/home/kitchen")
	require.True(t, ok)
	assert.Equal(t, "dishes", e.Attrs["activity"])
	assert.True(t, e.Changed["activity"])
	assert.False(t, e.Changed["w"])
	assert.Equal(t, 1, store.queries)

	var buf bytes.Buffer
	require.NoError(t, o.Render(&buf))
	assert.Contains(t, buf.String(), "{ activity: *dishes }")
	assert.Contains(t, buf.String(), "{ w: 12ft }")
}

func TestUpdateUnknownPathIgnored(t *testing.T) {
	store := newFakeStore(t, homeSnap)
	o := buildOutline(t, store)

	o.update("/garage", types.Node{Tag: "room"})
	_, ok := o.Element("/garage")
	assert.False(t, ok)
}

func TestCloseReleasesSubscriptions(t *testing.T) {
	store := newFakeStore(t, homeSnap)
	o := buildOutline(t, store)

	require.NoError(t, o.Close())
	require.NoError(t, o.Close())
	assert.Zero(t, store.Count("/home/kitchen"))

	require.NoError(t, store.Publish("/home/kitchen", &types.Node{Tag: "room", Attrs: map[string]string{"activity": "late"}}))
	require.NoError(t, store.Flush())

	e, _ := o.Element("/home/kitchen")
	assert.Equal(t, "cooking", e.Attrs["activity"])
}

func TestAttachTwice(t *testing.T) {
	store := newFakeStore(t, homeSnap)
	o := buildOutline(t, store)
	assert.Error(t, o.Attach(store))
}

func TestEmptyTree(t *testing.T) {
	root, err := tree.Build(types.Snapshot{})
	require.NoError(t, err)
	o := New(root)

	var buf bytes.Buffer
	require.NoError(t, o.Render(&buf))
	assert.Empty(t, buf.String())
	assert.NoError(t, o.Close())
}
