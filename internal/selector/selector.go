// Package selector parses and evaluates the CSS-like selectors used to
// query the home state tree, e.g. "home > room", "[activity]", or
// "room[name=kitchen] motion, room[name=kitchen] switch".
//
// Selectors match a node by its tag and attributes, and relate it to the
// nodes above it in the path hierarchy through the child (">") and
// descendant (whitespace) combinators.
package selector

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/hometree/pkg/tree"
	"github.com/mesh-intelligence/hometree/pkg/types"
)

// Combinator relates a compound to the compound on its left.
type Combinator int

const (
	Descendant Combinator = iota
	Child
)

// Filter is one [attr] or [attr=value] test.
type Filter struct {
	Attr     string
	Value    string
	HasValue bool
}

// Compound matches a single node. An empty Tag matches any tag.
type Compound struct {
	Tag     string
	Filters []Filter

	// Combinator links this compound to the previous one in its group.
	// It is unused on the first compound.
	Combinator Combinator
}

// Group is one comma-separated alternative, leftmost compound first.
type Group []Compound

// Selector is a parsed selector: a node matches when any group matches.
type Selector struct {
	Groups []Group
	text   string
}

// Lookup returns the node stored at path, if any.
type Lookup func(path string) (types.Node, bool)

// String returns the source text of the selector.
func (s Selector) String() string {
	return s.text
}

// MatchNode reports whether node satisfies c, ignoring combinators.
func (c Compound) MatchNode(node types.Node) bool {
	if c.Tag != "" && !strings.EqualFold(c.Tag, node.Tag) {
		return false
	}
	for _, f := range c.Filters {
		v, ok := node.Attrs[f.Attr]
		if !ok {
			return false
		}
		if f.HasValue && v != f.Value {
			return false
		}
	}
	return true
}

// Match reports whether the node at path matches s. lookup resolves the
// node at path and at each of its ancestors.
func (s Selector) Match(path string, lookup Lookup) bool {
	node, ok := lookup(path)
	if !ok {
		return false
	}
	ancestors := ancestorsOf(path)
	for _, g := range s.Groups {
		if len(g) == 0 {
			continue
		}
		last := len(g) - 1
		if g[last].MatchNode(node) && matchUp(g, last, ancestors, lookup) {
			return true
		}
	}
	return false
}

// matchUp checks compounds g[:i] against ancestors, nearest ancestor
// first, given that g[i] already matched the node below ancestors[0].
func matchUp(g Group, i int, ancestors []string, lookup Lookup) bool {
	if i == 0 {
		return true
	}
	want := g[i-1]
	switch g[i].Combinator {
	case Child:
		if len(ancestors) == 0 {
			return false
		}
		n, ok := lookup(ancestors[0])
		return ok && want.MatchNode(n) && matchUp(g, i-1, ancestors[1:], lookup)
	default:
		for j, a := range ancestors {
			n, ok := lookup(a)
			if ok && want.MatchNode(n) && matchUp(g, i-1, ancestors[j+1:], lookup) {
				return true
			}
		}
		return false
	}
}

// ancestorsOf lists the proper ancestors of path, nearest first. The root
// "/" is included last.
func ancestorsOf(path string) []string {
	var out []string
	for p := path; p != tree.Separator; {
		p = tree.Parent(p)
		out = append(out, p)
	}
	return out
}

// Parse parses text into a Selector.
func Parse(text string) (Selector, error) {
	sel := Selector{text: text}
	parts, err := splitGroups(text)
	if err != nil {
		return Selector{}, fmt.Errorf("%w: %q: %v", types.ErrInvalidSelector, text, err)
	}
	for _, part := range parts {
		g, err := parseGroup(part)
		if err != nil {
			return Selector{}, fmt.Errorf("%w: %q: %v", types.ErrInvalidSelector, text, err)
		}
		sel.Groups = append(sel.Groups, g)
	}
	return sel, nil
}

// MustParse is like Parse but panics on error. It is intended for
// selectors built from constants.
func MustParse(text string) Selector {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// splitGroups splits text on the commas that separate groups. Commas inside
// an attribute filter belong to the filter.
func splitGroups(text string) ([]string, error) {
	var parts []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '[':
			end := closingBracket(text[i+1:])
			if end < 0 {
				return nil, fmt.Errorf("unterminated attribute filter")
			}
			i += end + 1
		case ',':
			parts = append(parts, text[start:i])
			start = i + 1
		}
	}
	return append(parts, text[start:]), nil
}

func parseGroup(text string) (Group, error) {
	p := &parser{src: strings.TrimSpace(text)}
	if p.src == "" {
		return nil, fmt.Errorf("empty group")
	}

	var g Group
	comb := Descendant
	for {
		c, err := p.compound()
		if err != nil {
			return nil, err
		}
		c.Combinator = comb
		g = append(g, c)

		sawSpace := p.skipSpace()
		if p.done() {
			return g, nil
		}
		switch {
		case p.peek() == '>':
			p.pos++
			p.skipSpace()
			comb = Child
		case sawSpace:
			comb = Descendant
		default:
			return nil, fmt.Errorf("unexpected %q at offset %d", p.peek(), p.pos)
		}
		if p.done() {
			return nil, fmt.Errorf("missing compound after combinator")
		}
	}
}

type parser struct {
	src string
	pos int
}

func (p *parser) done() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) skipSpace() bool {
	start := p.pos
	for !p.done() && (p.peek() == ' ' || p.peek() == '\t' || p.peek() == '\n') {
		p.pos++
	}
	return p.pos > start
}

func (p *parser) compound() (Compound, error) {
	var c Compound
	switch {
	case p.done():
		return c, fmt.Errorf("expected compound at end of input")
	case p.peek() == '*':
		p.pos++
	case isIdent(p.peek()):
		c.Tag = p.ident()
	case p.peek() != '[':
		return c, fmt.Errorf("unexpected %q at offset %d", p.peek(), p.pos)
	}

	for !p.done() && p.peek() == '[' {
		f, err := p.filter()
		if err != nil {
			return c, err
		}
		c.Filters = append(c.Filters, f)
	}
	return c, nil
}

func (p *parser) filter() (Filter, error) {
	p.pos++ // '['
	end := closingBracket(p.src[p.pos:])
	if end < 0 {
		return Filter{}, fmt.Errorf("unterminated attribute filter")
	}
	body := p.src[p.pos : p.pos+end]
	p.pos += end + 1

	attr, value, hasValue := strings.Cut(body, "=")
	attr = strings.TrimSpace(attr)
	if attr == "" {
		return Filter{}, fmt.Errorf("empty attribute name")
	}
	for i := 0; i < len(attr); i++ {
		if !isIdent(attr[i]) {
			return Filter{}, fmt.Errorf("invalid attribute name %q", attr)
		}
	}
	return Filter{Attr: attr, Value: unquote(strings.TrimSpace(value)), HasValue: hasValue}, nil
}

// closingBracket returns the index of the ']' ending the filter body s, or
// -1. A value that opens with a quote runs to the matching quote, so it may
// contain ']' and ','.
func closingBracket(s string) int {
	var quote, prev byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case (c == '"' || c == '\'') && prev == '=':
			quote = c
		case c == ']':
			return i
		}
		if c != ' ' && c != '\t' {
			prev = c
		}
	}
	return -1
}

func (p *parser) ident() string {
	start := p.pos
	for !p.done() && isIdent(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isIdent(b byte) bool {
	return b == '-' || b == '_' || b == '.' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
