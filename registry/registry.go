package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/graftdb/graft"
)

// Registry keeps the transaction event listeners registered for each
// database. Registration, unregistration and snapshots may race freely
// from different goroutines; a snapshot handed out is never affected by
// later mutation.
type Registry struct {
	mu        sync.Mutex
	listeners map[string][]entry
}

type entry struct {
	token    string
	listener graft.TransactionEventListener
}

func New() *Registry {
	return &Registry{
		listeners: map[string][]entry{},
	}
}

// Register adds the listener to the database's dispatch order and returns
// a func that removes it again. Listeners must be comparable values,
// typically pointers: registering a listener that is already present for
// the database is a no-op, and the returned func then removes the
// original registration.
func (r *Registry) Register(database string, l graft.TransactionEventListener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.listeners[database] {
		if e.listener == l {
			token := e.token
			return func() {
				r.unregister(database, token)
			}
		}
	}

	token := uuid.NewString()

	// copy on write, snapshots handed out earlier stay untouched
	next := make([]entry, 0, len(r.listeners[database])+1)
	next = append(next, r.listeners[database]...)
	next = append(next, entry{token: token, listener: l})
	r.listeners[database] = next

	return func() {
		r.unregister(database, token)
	}
}

func (r *Registry) unregister(database, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.listeners[database]
	next := make([]entry, 0, len(old))
	for _, e := range old {
		if e.token != token {
			next = append(next, e)
		}
	}

	if len(next) == 0 {
		delete(r.listeners, database)
		return
	}

	r.listeners[database] = next
}

// Snapshot returns the point-in-time dispatch order for the database,
// in registration order.
func (r *Registry) Snapshot(database string) []graft.TransactionEventListener {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.listeners[database]
	if len(entries) == 0 {
		return nil
	}

	out := make([]graft.TransactionEventListener, len(entries))
	for i, e := range entries {
		out[i] = e.listener
	}
	return out
}
