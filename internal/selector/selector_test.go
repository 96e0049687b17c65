package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/hometree/pkg/types"
)

func n(tag string, attrs ...string) types.Node {
	m := make(map[string]string)
	for i := 0; i+1 < len(attrs); i += 2 {
		m[attrs[i]] = attrs[i+1]
	}
	return types.Node{Tag: tag, Attrs: m}
}

var homeNodes = types.Snapshot{
	"/home":                       n("home", "name", "main", "w", "40ft"),
	"/home/kitchen":               n("room", "name", "kitchen", "activity", "cooking"),
	"/home/kitchen/pantry":        n("closet", "name", "pantry"),
	"/home/kitchen/motion":        n("motion", "name", "km", "raw-state", "false"),
	"/home/kitchen/pantry/switch": n("switch", "name", "pantry-light"),
	"/home/den":                   n("room", "name", "den"),
	"/home/den/switch":            n("switch", "name", "tv"),
	"/hue-bridge":                 n("hue-bridge", "name", "bridge"),
	"/hue-bridge/light":           n("hue", "name", "lamp", "activity", "yes"),
}

func lookup(path string) (types.Node, bool) {
	node, ok := homeNodes[path]
	return node, ok
}

func matching(t *testing.T, text string) []string {
	t.Helper()
	sel, err := Parse(text)
	require.NoError(t, err)
	var out []string
	for p := range homeNodes {
		if sel.Match(p, lookup) {
			out = append(out, p)
		}
	}
	return out
}

func TestMatch(t *testing.T) {
	tests := []struct {
		selector string
		want     []string
	}{
		{"home", []string{"/home"}},
		{"HOME", []string{"/home"}},
		{"*", []string{
			"/home", "/home/kitchen", "/home/kitchen/pantry", "/home/kitchen/motion",
			"/home/kitchen/pantry/switch", "/home/den", "/home/den/switch",
			"/hue-bridge", "/hue-bridge/light",
		}},
		{"[activity]", []string{"/home/kitchen", "/hue-bridge/light"}},
		{"home > room", []string{"/home/kitchen", "/home/den"}},
		{"room[name=kitchen]", []string{"/home/kitchen"}},
		{`room[name="kitchen"] > closet`, []string{"/home/kitchen/pantry"}},
		{"room[name=kitchen] switch", []string{"/home/kitchen/pantry/switch"}},
		{"room[name=kitchen] > switch", nil},
		{"room[name=kitchen] motion, room[name=kitchen] switch", []string{
			"/home/kitchen/motion", "/home/kitchen/pantry/switch",
		}},
		{"home switch", []string{"/home/kitchen/pantry/switch", "/home/den/switch"}},
		{"home>room>switch", []string{"/home/den/switch"}},
		{"room closet > switch", []string{"/home/kitchen/pantry/switch"}},
		{"[name=tv]", []string{"/home/den/switch"}},
		{"motion[raw-state=true]", nil},
		{"garage", nil},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, matching(t, tt.selector))
		})
	}
}

func TestMatchMissingNode(t *testing.T) {
	sel := MustParse("*")
	assert.False(t, sel.Match("/nowhere", lookup))
}

func TestParseStructure(t *testing.T) {
	sel, err := Parse("home > room[name=den][activity] switch")
	require.NoError(t, err)
	require.Len(t, sel.Groups, 1)

	g := sel.Groups[0]
	require.Len(t, g, 3)
	assert.Equal(t, "home", g[0].Tag)
	assert.Equal(t, "room", g[1].Tag)
	assert.Equal(t, Child, g[1].Combinator)
	assert.Equal(t, []Filter{
		{Attr: "name", Value: "den", HasValue: true},
		{Attr: "activity"},
	}, g[1].Filters)
	assert.Equal(t, Descendant, g[2].Combinator)
	assert.Equal(t, "home > room[name=den][activity] switch", sel.String())
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{
		"",
		" , home",
		"home >",
		"room[name=kitchen",
		"room[]",
		"room[=x]",
		"room[na me=x]",
		"home + room",
		"> room",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text)
			assert.ErrorIs(t, err, types.ErrInvalidSelector)
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("room[") })
}

func TestParseQuotedValueKeepsCommasAndBrackets(t *testing.T) {
	sel, err := Parse(`room[name="living, dining"] > closet, room[name='a]b'] switch`)
	require.NoError(t, err)
	require.Len(t, sel.Groups, 2)

	assert.Equal(t, []Filter{{Attr: "name", Value: "living, dining", HasValue: true}}, sel.Groups[0][0].Filters)
	assert.Equal(t, "closet", sel.Groups[0][1].Tag)
	assert.Equal(t, []Filter{{Attr: "name", Value: "a]b", HasValue: true}}, sel.Groups[1][0].Filters)
	assert.Equal(t, "switch", sel.Groups[1][1].Tag)
}

func TestParseUnquotedApostrophe(t *testing.T) {
	sel, err := Parse(`room[name=bob's], home`)
	require.NoError(t, err)
	require.Len(t, sel.Groups, 2)
	assert.Equal(t, "bob's", sel.Groups[0][0].Filters[0].Value)
}

func TestParseUnterminatedQuote(t *testing.T) {
	_, err := Parse(`room[name="open] > closet`)
	assert.ErrorIs(t, err, types.ErrInvalidSelector)
}
