package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"

	"github.com/mesh-intelligence/hometree/internal/selector"
	"github.com/mesh-intelligence/hometree/pkg/tree"
	"github.com/mesh-intelligence/hometree/pkg/types"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const upsertNode = `INSERT INTO nodes (path, tag, attrs, text) VALUES (?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET tag = excluded.tag, attrs = excluded.attrs, text = excluded.text`

func putNode(ctx context.Context, db execer, path string, node types.Node) error {
	attrs := node.Attrs
	if attrs == nil {
		attrs = map[string]string{}
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("marshal attrs for %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, upsertNode, path, node.Tag, string(b), node.Text); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// insertNodes loads seed records in one transaction: all succeed or the
// table is left untouched.
func insertNodes(db *sql.DB, records []seedRecord) error {
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		if err := putNode(ctx, tx, rec.Path, rec.node()); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// scanNode decodes one nodes row.
func scanNode(rows interface{ Scan(...any) error }) (string, types.Node, error) {
	var path, tag, attrs, text string
	if err := rows.Scan(&path, &tag, &attrs, &text); err != nil {
		return "", types.Node{}, err
	}
	n := types.Node{Tag: tag, Text: text}
	if err := json.Unmarshal([]byte(attrs), &n.Attrs); err != nil {
		return "", types.Node{}, fmt.Errorf("decode attrs for %s: %w", path, err)
	}
	if len(n.Attrs) == 0 {
		n.Attrs = nil
	}
	return path, n, nil
}

// allNodes reads the whole table. The caller must hold s.mu.
func (s *Store) allNodes(ctx context.Context) (types.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, tag, attrs, text FROM nodes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	all := make(types.Snapshot)
	for rows.Next() {
		path, n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		all[path] = n
	}
	return all, rows.Err()
}

// match evaluates text against the whole table. The caller must hold s.mu.
func (s *Store) match(ctx context.Context, text string) (types.Snapshot, error) {
	sel, err := selector.Parse(text)
	if err != nil {
		return nil, err
	}
	all, err := s.allNodes(ctx)
	if err != nil {
		return nil, err
	}
	lookup := func(p string) (types.Node, bool) {
		n, ok := all[p]
		return n, ok
	}

	out := make(types.Snapshot)
	for p, n := range all {
		if sel.Match(p, lookup) {
			out[p] = n
		}
	}
	return out, nil
}

// Query returns a snapshot of every node matched by sel.
func (s *Store) Query(ctx context.Context, sel string) (types.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return nil, types.ErrStoreClosed
	}
	return s.match(ctx, sel)
}

// Get returns the node stored at path.
// Returns ErrNodeNotFound if there is none.
func (s *Store) Get(ctx context.Context, path string) (types.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return types.Node{}, types.ErrStoreClosed
	}
	row := s.db.QueryRowContext(ctx, `SELECT path, tag, attrs, text FROM nodes WHERE path = ?`, path)
	_, n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Node{}, fmt.Errorf("%w: %s", types.ErrNodeNotFound, path)
	}
	return n, err
}

// Load inserts or replaces every node in snapshot and notifies
// subscribers of each path.
func (s *Store) Load(ctx context.Context, snapshot types.Snapshot) error {
	for p := range snapshot {
		if err := tree.Validate(p); err != nil {
			return err
		}
	}

	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return types.ErrStoreClosed
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for p, n := range snapshot {
			if err := putNode(ctx, tx, p, n); err != nil {
				return err
			}
		}
		return nil
	})
	r := s.router
	s.mu.Unlock()
	if err != nil {
		return err
	}

	for p, n := range snapshot {
		if err := r.Publish(p, &n); err != nil {
			return err
		}
	}
	return nil
}

// Put inserts or replaces the node at path and notifies its subscribers.
func (s *Store) Put(ctx context.Context, path string, node types.Node) error {
	return s.Load(ctx, types.Snapshot{path: node})
}

// SetAttr sets key to value on every node matched by sel and
// publishes each new node value. Matching nothing is not an error.
func (s *Store) SetAttr(ctx context.Context, sel, key, value string) error {
	if key == "" {
		return fmt.Errorf("set attr: empty key")
	}

	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return types.ErrStoreClosed
	}
	matched, err := s.match(ctx, sel)
	updated := make(types.Snapshot, len(matched))
	if err == nil {
		err = s.inTx(ctx, func(tx *sql.Tx) error {
			for p, n := range matched {
				next := n.WithAttr(key, value)
				if err := putNode(ctx, tx, p, next); err != nil {
					return err
				}
				updated[p] = next
			}
			return nil
		})
	}
	r := s.router
	s.mu.Unlock()
	if err != nil {
		return err
	}

	glog.V(2).Infof("[store]set %s=%s on %d nodes matching %q\n", key, value, len(updated), sel)
	for p, n := range updated {
		if err := r.Publish(p, &n); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the node at path and every node below it. Subscriptions
// on removed paths stay registered but receive nothing until the node is
// stored again.
func (s *Store) Remove(ctx context.Context, path string) error {
	if err := tree.Validate(path); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return types.ErrStoreClosed
	}
	var removed []string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		prefix := strings.TrimSuffix(path, tree.Separator) + tree.Separator
		rows, err := tx.QueryContext(ctx, `SELECT path FROM nodes`)
		if err != nil {
			return err
		}
		for rows.Next() {
			var p string
			if err := rows.Scan(&p); err != nil {
				rows.Close()
				return err
			}
			if p == path || strings.HasPrefix(p, prefix) {
				removed = append(removed, p)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, p := range removed {
			if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE path = ?`, p); err != nil {
				return err
			}
		}
		return nil
	})
	r := s.router
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}

	for _, p := range removed {
		if err := r.Publish(p, nil); err != nil {
			return err
		}
	}
	return nil
}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
