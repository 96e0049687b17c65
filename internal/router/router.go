// Package router keeps the binding table from node paths to subscriber
// callbacks and delivers change events to them.
//
// Events are queued by Publish and delivered by a single goroutine, so
// callbacks never run concurrently with each other. Callbacks registered on
// the same path run in registration order; there is no ordering between
// different paths beyond publish order.
package router

import (
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/hometree/pkg/types"
)

// binding is one live subscription.
type binding struct {
	handle types.Handle
	path   string
	cb     types.Callback
	active bool // guarded by Router.mu
}

// event is one queued notification. A nil node means the node was
// removed; a non-nil done channel marks a flush barrier.
type event struct {
	path string
	node *types.Node
	done chan struct{}
}

// Router maps paths to ordered lists of callbacks.
type Router struct {
	mu       sync.Mutex
	shut     bool
	bindings map[string][]*binding
	byHandle map[types.Handle]*binding

	// sendMu is held shared by senders and exclusively by Close, so the
	// queue is never closed under a pending send.
	sendMu  sync.RWMutex
	closed  bool
	queue   chan event
	stopped chan struct{}
}

// New creates a Router whose queue holds up to queueSize pending events and
// starts its delivery goroutine. Call Close to stop it.
func New(queueSize int) *Router {
	if queueSize <= 0 {
		queueSize = types.DefaultQueueSize
	}
	r := &Router{
		bindings: make(map[string][]*binding),
		byHandle: make(map[types.Handle]*binding),
		queue:    make(chan event, queueSize),
		stopped:  make(chan struct{}),
	}
	go r.run()
	return r
}

// Subscribe registers cb for changes at exactly path and returns the handle
// that releases it.
func (r *Router) Subscribe(path string, cb types.Callback) (types.Handle, error) {
	if cb == nil {
		return "", types.ErrNilCallback
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shut {
		return "", types.ErrRouterClosed
	}
	b := &binding{
		handle: newHandle(),
		path:   path,
		cb:     cb,
		active: true,
	}
	r.bindings[path] = append(r.bindings[path], b)
	r.byHandle[b.handle] = b

	glog.V(2).Infof("[router]subscribe %s %s\n", b.handle, path)
	return b.handle, nil
}

// Unsubscribe releases h. It is idempotent: unknown and already released
// handles succeed, as does releasing after Close. Events still queued when
// Unsubscribe returns are not delivered to the callback. When called from
// another goroutine, a delivery that has already passed its active check
// may still complete; called from a callback, Unsubscribe takes effect
// before the next delivery.
func (r *Router) Unsubscribe(h types.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byHandle[h]
	if !ok {
		return nil
	}
	b.active = false
	delete(r.byHandle, h)

	list := r.bindings[b.path]
	for i, other := range list {
		if other == b {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(r.bindings, b.path)
	} else {
		r.bindings[b.path] = list
	}

	glog.V(2).Infof("[router]unsubscribe %s %s\n", h, b.path)
	return nil
}

// Publish queues a change at path. node is copied, so later changes by the
// caller are not observed by subscribers. A nil node records that the node
// was removed and fires no callbacks.
//
// Publish blocks only while the queue is full, so callbacks that publish
// need a queue deep enough for the events they generate.
func (r *Router) Publish(path string, node *types.Node) error {
	var ev event
	ev.path = path
	if node != nil {
		n := node.Clone()
		ev.node = &n
	}
	return r.enqueue(ev)
}

// Flush blocks until every event published before the call has been
// delivered. Like Close, it must not be called from a callback.
func (r *Router) Flush() error {
	done := make(chan struct{})
	if err := r.enqueue(event{done: done}); err != nil {
		return err
	}
	select {
	case <-done:
	case <-r.stopped:
	}
	return nil
}

// Count returns the number of live subscriptions on path.
func (r *Router) Count(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bindings[path])
}

// Close delivers every queued event, stops the delivery goroutine, and
// drops all subscriptions. Close is idempotent. It must not be called from
// a callback.
func (r *Router) Close() error {
	r.mu.Lock()
	r.shut = true
	r.mu.Unlock()

	r.sendMu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.sendMu.Unlock()

	<-r.stopped

	r.mu.Lock()
	for _, b := range r.byHandle {
		b.active = false
	}
	r.bindings = make(map[string][]*binding)
	r.byHandle = make(map[types.Handle]*binding)
	r.mu.Unlock()
	return nil
}

// enqueue never holds mu, so a full queue does not block Subscribe,
// Unsubscribe, or the delivery goroutine.
func (r *Router) enqueue(ev event) error {
	r.sendMu.RLock()
	defer r.sendMu.RUnlock()

	if r.closed {
		glog.Infof("[router]drop %s after close\n", ev.path)
		return types.ErrRouterClosed
	}
	r.queue <- ev
	return nil
}

func (r *Router) run() {
	defer close(r.stopped)

	for ev := range r.queue {
		if ev.done != nil {
			close(ev.done)
			continue
		}
		r.deliver(ev)
	}
}

func (r *Router) deliver(ev event) {
	if ev.node == nil {
		glog.V(2).Infof("[router]removed %s\n", ev.path)
		return
	}

	r.mu.Lock()
	list := make([]*binding, len(r.bindings[ev.path]))
	copy(list, r.bindings[ev.path])
	r.mu.Unlock()

	for _, b := range list {
		if !r.isActive(b) {
			continue
		}
		glog.V(2).Infof("[router]dispatch %s %s\n", b.handle, ev.path)
		b.cb(ev.path, ev.node.Clone())
	}
}

func (r *Router) isActive(b *binding) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return b.active
}

// newHandle generates a time-ordered UUID v7 handle.
func newHandle() types.Handle {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return types.Handle(uuid.New().String())
	}
	return types.Handle(id.String())
}
