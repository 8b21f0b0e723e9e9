package local

import (
	"sync"

	"github.com/graftdb/graft"
	"github.com/graftdb/graft/registry"
)

// observer turns committed transactions into ObservedChanges batches for
// everybody watching the database. It is itself a transaction event
// listener: the batch is computed during BeforeCommit, carried through
// the opaque state slot and broadcast only once the commit is certain.
// It registers with the listener registry lazily, on the first Observe
// call, so databases nobody watches keep the zero-listener fast path.
type observer struct {
	mu       *sync.Mutex
	database string
	registry *registry.Registry

	receivers       map[int]*receiver
	nextReceiverKey int
	registered      bool
}

func newObserver(database string, reg *registry.Registry) *observer {
	return &observer{
		mu:        new(sync.Mutex),
		database:  database,
		registry:  reg,
		receivers: make(map[int]*receiver),
	}
}

func (o *observer) observe() (<-chan graft.ObservedChanges, func()) {
	o.mu.Lock()

	if !o.registered {
		o.registry.Register(o.database, o)
		o.registered = true
	}

	r, changesChan := newReceiver()
	receiverKey := o.nextReceiverKey
	o.receivers[receiverKey] = r
	o.nextReceiverKey++
	o.mu.Unlock()

	closed := false

	return changesChan, func() {
		o.mu.Lock()
		defer o.mu.Unlock()

		if closed {
			return
		}

		delete(o.receivers, receiverKey)
		r.close()
		closed = true
	}
}

func (o *observer) BeforeCommit(data graft.TransactionData, db graft.Database) (any, error) {
	changes := graft.ObservedChanges{}

	for _, id := range data.CreatedNodes() {
		changes = changes.Update(uint64(id), graft.ChangeTypeNodeCreated)
	}
	for _, e := range data.AssignedNodeProperties() {
		changes = changes.Update(uint64(e.Node), graft.ChangeTypeNodeUpdated)
	}
	for _, e := range data.RemovedNodeProperties() {
		changes = changes.Update(uint64(e.Node), graft.ChangeTypeNodeUpdated)
	}
	for _, e := range data.AssignedLabels() {
		changes = changes.Update(uint64(e.Node), graft.ChangeTypeNodeUpdated)
	}
	for _, e := range data.RemovedLabels() {
		changes = changes.Update(uint64(e.Node), graft.ChangeTypeNodeUpdated)
	}
	for _, id := range data.DeletedNodes() {
		changes = changes.Update(uint64(id), graft.ChangeTypeNodeDeleted)
	}

	for _, id := range data.CreatedRelationships() {
		changes = changes.Update(uint64(id), graft.ChangeTypeRelationshipCreated)
	}
	for _, e := range data.AssignedRelationshipProperties() {
		changes = changes.Update(uint64(e.Relationship), graft.ChangeTypeRelationshipUpdated)
	}
	for _, e := range data.RemovedRelationshipProperties() {
		changes = changes.Update(uint64(e.Relationship), graft.ChangeTypeRelationshipUpdated)
	}
	for _, id := range data.DeletedRelationships() {
		changes = changes.Update(uint64(id), graft.ChangeTypeRelationshipDeleted)
	}

	return changes, nil
}

func (o *observer) AfterCommit(data graft.TransactionData, state any, db graft.Database) error {
	changes, isChanges := state.(graft.ObservedChanges)
	if !isChanges || len(changes) == 0 {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, r := range o.receivers {
		r.notify(changes)
	}

	return nil
}

func (o *observer) AfterRollback(data graft.TransactionData, state any, db graft.Database) error {
	// nothing became visible
	return nil
}

type receiver struct {
	incoming chan<- graft.ObservedChanges
}

func (r *receiver) notify(changes graft.ObservedChanges) {
	r.incoming <- changes
}

func newReceiver() (*receiver, <-chan graft.ObservedChanges) {
	ch := make(chan graft.ObservedChanges, 1)
	ch <- graft.ObservedChanges{}

	incoming := make(chan graft.ObservedChanges, 1)

	go func() {
		buffer := []graft.ObservedChanges{}

		for {
			if len(buffer) == 0 {
				ev, ok := <-incoming
				if !ok {
					// reading cancelled
					close(ch)
					return
				}
				select {
				case ch <- ev:
					// all good
				default:
					// ok, have to wait
					buffer = append(buffer, ev)
				}
				continue
			}
			select {
			case ch <- buffer[0]:
				buffer = buffer[1:]
			case ev, ok := <-incoming:
				if !ok {
					// reading cancelled
					close(ch)
					return
				}
				buffer = append(buffer, ev)
			}
		}
	}()

	return &receiver{incoming: incoming}, ch
}

func (r *receiver) close() {
	close(r.incoming)
}
