package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/mesh-intelligence/hometree/internal/sqlite"
	"github.com/mesh-intelligence/hometree/pkg/tree"
	"github.com/mesh-intelligence/hometree/pkg/types"
)

// openStore opens the store described by the configuration. The caller
// must defer store.Close().
func (a *app) openStore() (*sqlite.Store, error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, err
	}
	store := sqlite.NewStore()
	if err := store.Open(cfg); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// queryTree runs sel and rebuilds the result into a tree.
func queryTree(ctx context.Context, store types.Store, sel string) (*tree.Tree, error) {
	snap, err := store.Query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", sel, err)
	}
	root, err := tree.Build(snap)
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}
	return root, nil
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedKeys(snap types.Snapshot) []string {
	out := make([]string, 0, len(snap))
	for k := range snap {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
