// Package tree rebuilds a flat path -> node snapshot into a nested tree
// keyed by path segment, and provides the path helpers it is built on.
//
// Paths have the form /seg0/seg1/.../segN. A segment may carry selector
// syntax such as room[name=kitchen]; it is never interpreted here.
package tree

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/hometree/pkg/types"
)

// Separator delimits path segments.
const Separator = "/"

// Validate returns ErrInvalidPath unless path begins with a separator.
func Validate(path string) error {
	if !strings.HasPrefix(path, Separator) {
		return fmt.Errorf("%w: %q does not start with %q", types.ErrInvalidPath, path, Separator)
	}
	return nil
}

// FirstComponent returns the segment following the leading separator.
// For "/" the result is the empty string.
func FirstComponent(path string) (string, error) {
	if err := Validate(path); err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(path[1:], Separator)
	return first, nil
}

// Remainder returns the path made of every segment after the first. A
// single-segment path has remainder "/".
func Remainder(path string) (string, error) {
	if err := Validate(path); err != nil {
		return "", err
	}
	_, rest, _ := strings.Cut(path[1:], Separator)
	return Separator + rest, nil
}

// Join appends segment to parent. The root parent is the empty string, so
// Join("", "home") is "/home".
func Join(parent, segment string) string {
	return parent + Separator + segment
}

// Parent drops the last segment of path. Single-segment paths and the root
// have parent "/".
func Parent(path string) string {
	i := strings.LastIndex(path, Separator)
	if i <= 0 {
		return Separator
	}
	return path[:i]
}

// Segments splits path into its segments. "/" has no segments.
func Segments(path string) ([]string, error) {
	if err := Validate(path); err != nil {
		return nil, err
	}
	if path == Separator {
		return nil, nil
	}
	return strings.Split(path[1:], Separator), nil
}
