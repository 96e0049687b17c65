package types

import "maps"

// Node is a tagged attribute bag. Attribute values are always strings:
// geometry is encoded as measurement strings ("12ft6in") and booleans as
// "true"/"false". Nodes are replaced on update, never mutated in place.
type Node struct {
	Tag   string            `json:"tag"`
	Attrs map[string]string `json:"attrs,omitempty"`
	Text  string            `json:"text,omitempty"` // Empty means the node carries no text.
}

// Attr returns the value of key and whether it was present.
func (n Node) Attr(key string) (string, bool) {
	v, ok := n.Attrs[key]
	return v, ok
}

// WithAttr returns a copy of n with key set to value. The receiver's
// attribute map is left untouched.
func (n Node) WithAttr(key, value string) Node {
	attrs := make(map[string]string, len(n.Attrs)+1)
	maps.Copy(attrs, n.Attrs)
	attrs[key] = value
	return Node{Tag: n.Tag, Attrs: attrs, Text: n.Text}
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	out := Node{Tag: n.Tag, Text: n.Text}
	if n.Attrs != nil {
		out.Attrs = maps.Clone(n.Attrs)
	}
	return out
}

// Snapshot is the flat path -> node mapping returned by one query.
type Snapshot map[string]Node
