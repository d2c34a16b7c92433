package session

import (
	"log/slog"
	"sync"
)

// Router delivers response events to the step waiting for them. Waiters
// are keyed by correlation id and user, so only the user a step is waiting
// on can answer it. A waiter receives at most one event and is removed as
// soon as it does.
type Router struct {
	mu      sync.Mutex
	waiters map[waiterKey]*waiter
	logger  *slog.Logger
}

type waiterKey struct {
	correlationID string
	userID        string
}

type waiter struct {
	ch chan Event
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger for dropped events.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewRouter creates a router with no waiters.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		waiters: make(map[waiterKey]*waiter),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// subscribe registers a waiter for key that accepts events from userID.
// The returned cancel func removes it; calling it after delivery is a no-op.
func (r *Router) subscribe(key, userID string) (<-chan Event, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := waiterKey{correlationID: key, userID: userID}
	if _, taken := r.waiters[k]; taken {
		return nil, nil, ErrKeyInUse
	}
	w := &waiter{ch: make(chan Event, 1)}
	r.waiters[k] = w

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.waiters[k] == w {
			delete(r.waiters, k)
		}
	}
	return w.ch, cancel, nil
}

// Deliver hands ev to the waiter for its correlation id and user. Events
// with no such waiter, including late ones for finished steps, are dropped.
// Reports whether the event was delivered.
func (r *Router) Deliver(ev Event) bool {
	key, ok := correlationID(ev)
	if !ok {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := waiterKey{correlationID: key, userID: ev.Actor().ID}
	w, ok := r.waiters[k]
	if !ok {
		r.logger.Debug("dropping event with no waiter", "key", key, "user", k.userID)
		return false
	}
	delete(r.waiters, k)
	w.ch <- ev
	return true
}

// Pending returns the number of registered waiters.
func (r *Router) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}
