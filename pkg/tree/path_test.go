package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/hometree/pkg/types"
)

func TestFirstComponent(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", ""},
		{"/home", "home"},
		{"/home/room[name=kitchen]/motion", "home"},
		{"/room[name=kitchen]/closet", "room[name=kitchen]"},
		{"//x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FirstComponent(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemainder(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/home", "/"},
		{"/home/", "/"},
		{"/home/room", "/room"},
		{"/home/room[name=kitchen]/motion", "/room[name=kitchen]/motion"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Remainder(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathHelpersRejectRelativePaths(t *testing.T) {
	for _, p := range []string{"", "home", "home/room", "room[name=kitchen]/"} {
		t.Run(p, func(t *testing.T) {
			_, err := FirstComponent(p)
			assert.True(t, errors.Is(err, types.ErrInvalidPath), "FirstComponent(%q) err = %v", p, err)

			_, err = Remainder(p)
			assert.True(t, errors.Is(err, types.ErrInvalidPath), "Remainder(%q) err = %v", p, err)

			_, err = Segments(p)
			assert.ErrorIs(t, err, types.ErrInvalidPath)
		})
	}
}

func TestFirstAndRemainderReconstructPath(t *testing.T) {
	for _, p := range []string{"/a/b", "/home/room[name=den]/switch", "/x/y/z/w"} {
		first, err := FirstComponent(p)
		require.NoError(t, err)
		rem, err := Remainder(p)
		require.NoError(t, err)

		require.NotEqual(t, "/", rem)
		assert.Equal(t, p, "/"+first+"/"+rem[1:])
	}
}

func TestJoinAndParent(t *testing.T) {
	assert.Equal(t, "/home", Join("", "home"))
	assert.Equal(t, "/home/room", Join("/home", "room"))

	assert.Equal(t, "/home", Parent("/home/room"))
	assert.Equal(t, "/", Parent("/home"))
	assert.Equal(t, "/", Parent("/"))
}

func TestSegments(t *testing.T) {
	segs, err := Segments("/home/room[name=kitchen]/motion")
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "room[name=kitchen]", "motion"}, segs)

	segs, err = Segments("/")
	require.NoError(t, err)
	assert.Empty(t, segs)
}
