package types

import (
	"context"
	"errors"
)

// Callback receives the path and the new node value after a change.
type Callback func(path string, node Node)

// Handle identifies one live subscription.
type Handle string

// Store is the query and notification surface a renderer depends on.
type Store interface {
	// Query resolves selector to a snapshot of every matching node.
	Query(ctx context.Context, selector string) (Snapshot, error)

	// Subscribe registers cb for changes at exactly path. The
	// subscription stays live until Unsubscribe is called.
	Subscribe(path string, cb Callback) (Handle, error)

	// Unsubscribe releases a subscription. Idempotent: releasing an
	// unknown or already released handle succeeds.
	Unsubscribe(h Handle) error
}

// Writer applies fire-and-forget attribute updates.
type Writer interface {
	// SetAttr sets key to value on every node matched by selector.
	SetAttr(ctx context.Context, selector, key, value string) error
}

// Backend is a Store that can be opened from a Config, written to, and
// drained. Close delivers queued notifications before releasing resources.
type Backend interface {
	Store
	Writer
	Open(config Config) error
	Close() error

	// Flush blocks until every change published so far has been delivered.
	Flush() error
}

// Path and selector errors.
var (
	ErrInvalidPath     = errors.New("invalid path")
	ErrInvalidSelector = errors.New("invalid selector")
)

// Store and router lifecycle errors.
var (
	ErrStoreClosed  = errors.New("store is closed")
	ErrAlreadyOpen  = errors.New("store is already open")
	ErrRouterClosed = errors.New("router is closed")
	ErrNilCallback  = errors.New("callback must not be nil")
	ErrNodeNotFound = errors.New("node not found")
)
