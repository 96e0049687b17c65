// Package view renders a rebuilt home tree as an indented outline and keeps
// it current from subscription callbacks.
//
// The element index is built once from the tree. After Attach, callbacks
// are the only source of change: the tree is never rebuilt and the store is
// never queried again.
package view

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/golang/glog"

	"github.com/mesh-intelligence/hometree/pkg/tree"
	"github.com/mesh-intelligence/hometree/pkg/types"
)

// hiddenAttrs are shown in the element label rather than the attr list.
var hiddenAttrs = map[string]bool{"name": true, "kind": true}

// Element is the view state for one tree node.
type Element struct {
	Path    string
	Segment string
	Depth   int
	Tag     string // Empty when the tree node carries no data.
	Attrs   map[string]string
	Text    string
	Changed map[string]bool // Attrs updated since the initial snapshot.
}

// attrKeys returns the displayed attribute keys in sorted order.
func (e *Element) attrKeys() []string {
	var ks []string
	for k := range e.Attrs {
		if !hiddenAttrs[k] {
			ks = append(ks, k)
		}
	}
	slices.Sort(ks)
	return ks
}

// Outline is a live outline view.
type Outline struct {
	mu       sync.Mutex
	order    []*Element
	index    map[string]*Element
	store    types.Store
	handles  []types.Handle
	attached bool
}

// New builds the view state for root.
func New(root *tree.Tree) *Outline {
	o := &Outline{index: make(map[string]*Element)}
	root.Walk(func(t *tree.Tree) bool {
		if t == root {
			return true
		}
		e := &Element{
			Path:    t.Path,
			Segment: t.Path[strings.LastIndex(t.Path, tree.Separator)+1:],
			Depth:   strings.Count(t.Path, tree.Separator) - 1,
			Changed: make(map[string]bool),
		}
		if t.Data != nil {
			e.Tag = t.Data.Tag
			e.Attrs = t.Data.Clone().Attrs
			e.Text = t.Data.Text
		}
		o.order = append(o.order, e)
		o.index[e.Path] = e
		return true
	})
	return o
}

// Attach subscribes every element that carries data. Attaching twice is
// an error; Close releases the subscriptions.
func (o *Outline) Attach(store types.Store) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.attached {
		return fmt.Errorf("outline already attached")
	}
	o.attached = true
	o.store = store
	for _, e := range o.order {
		if e.Tag == "" {
			continue
		}
		h, err := store.Subscribe(e.Path, o.update)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", e.Path, err)
		}
		o.handles = append(o.handles, h)
	}
	glog.V(2).Infof("[view]attached %d subscriptions\n", len(o.handles))
	return nil
}

// update applies a change to the element at path. Values that differ from
// what is shown are marked changed.
func (o *Outline) update(path string, node types.Node) {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.index[path]
	if !ok {
		return
	}
	for k, v := range node.Attrs {
		if old, had := e.Attrs[k]; !had || old != v {
			e.Changed[k] = true
		}
	}
	e.Tag = node.Tag
	e.Attrs = node.Attrs
	e.Text = node.Text
}

// Element returns a copy of the element at path.
func (o *Outline) Element(path string) (Element, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.index[path]
	if !ok {
		return Element{}, false
	}
	out := *e
	out.Attrs = maps.Clone(e.Attrs)
	out.Changed = maps.Clone(e.Changed)
	return out, true
}

// Len returns the number of elements.
func (o *Outline) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.order)
}

// Render writes the outline to w. Changed values are prefixed with "*".
//
//	- kitchen (room)
//	    { activity: *dishes }
//	    <text>: remember the plants
func (o *Outline) Render(w io.Writer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, e := range o.order {
		indent := strings.Repeat("  ", e.Depth)
		label := e.Segment
		if e.Tag != "" {
			label = fmt.Sprintf("%s (%s)", e.Segment, strings.ToLower(e.Tag))
		}
		if _, err := fmt.Fprintf(w, "%s- %s\n", indent, label); err != nil {
			return err
		}
		for _, k := range e.attrKeys() {
			v := e.Attrs[k]
			if e.Changed[k] {
				v = "*" + v
			}
			if _, err := fmt.Fprintf(w, "%s    { %s: %s }\n", indent, k, v); err != nil {
				return err
			}
		}
		if text := strings.TrimSpace(e.Text); text != "" {
			if _, err := fmt.Fprintf(w, "%s    <text>: %s\n", indent, text); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases every subscription. It is safe to call more than once.
func (o *Outline) Close() error {
	o.mu.Lock()
	handles, store := o.handles, o.store
	o.handles = nil
	o.mu.Unlock()

	var firstErr error
	for _, h := range handles {
		if err := store.Unsubscribe(h); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
