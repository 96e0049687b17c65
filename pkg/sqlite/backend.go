// Package sqlite provides the public API for the SQLite home store.
// This package exposes the factory function for creating stores while
// keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/hometree/internal/sqlite"
	"github.com/mesh-intelligence/hometree/pkg/types"
)

// NewStore creates a new SQLite-backed store.
// The store is not open; call Open with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewStore()
//	err := store.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    Seed:    "home.jsonl",
//	})
//	defer store.Close()
func NewStore() types.Backend {
	return sqlite.NewStore()
}
