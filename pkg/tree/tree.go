package tree

import (
	"sort"

	"github.com/mesh-intelligence/hometree/pkg/types"
)

// Tree is one level of a rebuilt snapshot. For every child,
// Children[s].Path == Join(Path, s).
//
// The tree built from an empty snapshot is the zero Tree: no path, no
// data, and a nil Children map. Callers treat it as a leaf.
type Tree struct {
	Path     string           `json:"path,omitempty"`
	Data     *types.Node      `json:"data,omitempty"`
	Children map[string]*Tree `json:"children,omitempty"`

	order []string
}

// Build rebuilds snapshot into a tree rooted at the empty path.
//
// Keys are visited in ascending lexicographic order and children are
// constructed in that order, so equivalent snapshots always produce the
// same tree. When two keys resolve to the same slot (for example "/a" and
// "/a/" both address the data of child "a"), the key that sorts last wins.
func Build(snapshot types.Snapshot) (*Tree, error) {
	return build("", snapshot)
}

func build(path string, snapshot types.Snapshot) (*Tree, error) {
	if len(snapshot) == 0 {
		return &Tree{}, nil
	}

	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := &Tree{Path: path, Children: make(map[string]*Tree)}
	subs := make(map[string]types.Snapshot)
	for _, key := range keys {
		first, err := FirstComponent(key)
		if err != nil {
			return nil, err
		}
		rem, err := Remainder(key)
		if err != nil {
			return nil, err
		}

		if first == "" {
			node := snapshot[key]
			t.Data = &node
			continue
		}
		sub, ok := subs[first]
		if !ok {
			sub = make(types.Snapshot)
			subs[first] = sub
			t.order = append(t.order, first)
		}
		sub[rem] = snapshot[key]
	}

	for _, seg := range t.order {
		child, err := build(Join(path, seg), subs[seg])
		if err != nil {
			return nil, err
		}
		t.Children[seg] = child
	}
	return t, nil
}

// Segments returns the child segment names in construction order.
func (t *Tree) Segments() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// IsLeaf reports whether t has no children.
func (t *Tree) IsLeaf() bool {
	return len(t.Children) == 0
}

// Walk visits t and then every descendant depth-first, children in
// construction order. Returning false from fn skips that subtree.
func (t *Tree) Walk(fn func(*Tree) bool) {
	if !fn(t) {
		return
	}
	for _, seg := range t.order {
		t.Children[seg].Walk(fn)
	}
}

// Find returns the subtree at path, or nil if no such subtree exists.
// The root is found at both "" and "/".
func (t *Tree) Find(path string) *Tree {
	if path == "" || path == Separator {
		return t
	}
	segs, err := Segments(path)
	if err != nil {
		return nil
	}
	cur := t
	for _, s := range segs {
		next, ok := cur.Children[s]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}
