package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/golang/glog"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/hometree/internal/router"
	"github.com/mesh-intelligence/hometree/pkg/types"
)

// memoryDSN opens a private in-memory database. The pool is limited to one
// connection so every statement sees the same database.
const memoryDSN = ":memory:"

var _ types.Backend = (*Store)(nil)

// Store implements types.Backend.
type Store struct {
	mu     sync.RWMutex
	open   bool
	config types.Config
	db     *sql.DB
	router *router.Router
}

// NewStore creates a store that is not yet open; call Open to initialize it.
func NewStore() *Store {
	return &Store{}
}

// Open validates config, creates the schema, starts the router, and loads
// the seed file when one is configured.
// Returns ErrAlreadyOpen if already open.
func (s *Store) Open(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return types.ErrAlreadyOpen
	}
	if err := config.Validate(); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", memoryDSN)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if config.Seed != "" {
		records, err := readSeed(config.Seed)
		if err != nil {
			db.Close()
			return fmt.Errorf("load seed: %w", err)
		}
		if err := insertNodes(db, records); err != nil {
			db.Close()
			return fmt.Errorf("load seed: %w", err)
		}
		glog.V(2).Infof("[store]seeded %d nodes from %s\n", len(records), config.Seed)
	}

	s.db = db
	s.config = config
	s.router = router.New(config.GetQueueSize())
	s.open = true
	return nil
}

// Close stops the router, delivering any queued events, and closes the
// database. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil // idempotent
	}
	s.open = false
	r, db := s.router, s.db
	s.mu.Unlock()

	// Queued callbacks may still query the store, so the lock is not held
	// while the router drains.
	if err := r.Close(); err != nil {
		return err
	}
	return db.Close()
}

// Subscribe registers cb for changes at exactly path.
func (s *Store) Subscribe(path string, cb types.Callback) (types.Handle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return "", types.ErrStoreClosed
	}
	return s.router.Subscribe(path, cb)
}

// Unsubscribe releases h. Releasing on a closed store succeeds.
func (s *Store) Unsubscribe(h types.Handle) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.router == nil {
		return nil
	}
	return s.router.Unsubscribe(h)
}

// Flush waits until every change made so far has been delivered to
// subscribers. It must not be called from a callback.
func (s *Store) Flush() error {
	s.mu.RLock()
	r := s.router
	open := s.open
	s.mu.RUnlock()

	if !open {
		return types.ErrStoreClosed
	}
	return r.Flush()
}
