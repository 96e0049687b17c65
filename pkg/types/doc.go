// Package types defines the node, snapshot, and store interfaces shared by
// the hometree packages, together with the standard error values.
//
// A Node is an immutable snapshot of one addressable entity in the home
// state tree. A Snapshot maps absolute paths to nodes and is what a single
// query returns. Stores answer queries and deliver per-path change
// notifications to registered callbacks.
package types
