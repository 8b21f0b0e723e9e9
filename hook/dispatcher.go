package hook

import (
	"fmt"

	"github.com/graftdb/graft"
)

// Registry supplies the point-in-time listener snapshot for one commit
// attempt. The returned slice must not be mutated by later registrations.
type Registry interface {
	Snapshot(database string) []graft.TransactionEventListener
}

// State is the raw change capture of a write transaction, opaque to the
// dispatcher apart from the no-changes check.
type State interface {
	HasChanges() bool
}

// SnapshotFunc materializes the listener-facing TransactionData view over
// the raw state. It must release anything it allocated before returning a
// non-nil error.
type SnapshotFunc func(state State, reader graft.StorageReader) (graft.TransactionData, error)

// Disposable is implemented by TransactionData views that hold resources
// which must be released when the commit path is done with them. It is
// deliberately not part of the listener-facing TransactionData surface.
type Disposable interface {
	Dispose() error
}

// Dispatcher drives the three listener phases around one commit attempt
// of a database. The caller invokes BeforeCommit while deciding whether
// to commit and then, based on the outcome and its own state, exactly one
// of AfterCommit and AfterRollback with the same Outcome.
type Dispatcher struct {
	registry Registry
	database string
	handle   graft.Database
	snapshot SnapshotFunc
}

func New(registry Registry, database string, handle graft.Database, snapshot SnapshotFunc) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		database: database,
		handle:   handle,
		snapshot: snapshot,
	}
}

// BeforeCommit asks every listener registered at this point whether the
// transaction may commit. Every listener in the snapshot is called
// exactly once, in snapshot order, even when an earlier one fails; only
// the first failure is retained on the Outcome. The returned Outcome is
// never nil.
func (d *Dispatcher) BeforeCommit(state State, reader graft.StorageReader) *Outcome {
	listeners := d.registry.Snapshot(d.database)
	if len(listeners) == 0 {
		// no listener registered after this point will ever observe
		// this transaction
		return noDispatch
	}

	var data graft.TransactionData
	if state == nil || !state.HasChanges() {
		data = graft.EmptyData
	} else {
		var err error
		data, err = d.snapshot(state, reader)
		if err != nil {
			return &Outcome{
				data:       graft.EmptyData,
				dispatched: true,
				failure:    fmt.Errorf("while building transaction data: %w", err),
			}
		}
	}

	o := &Outcome{data: data, dispatched: true}

	for _, l := range listeners {
		r := o.add(l)
		st, err := callBeforeCommit(l, data, d.handle)
		if err != nil {
			o.failed(err)
			continue
		}
		r.state = st
	}

	return o
}

// AfterCommit tells every listener that ran BeforeCommit that the
// transaction has been committed. A listener failure propagates
// immediately and skips the remaining listeners. The transaction data is
// disposed exactly once on every exit path of this call.
func (d *Dispatcher) AfterCommit(o *Outcome) (err error) {
	if !o.dispatched {
		return nil
	}

	defer func() {
		disp, isDisposable := o.data.(Disposable)
		if !isDisposable {
			// EmptyData has nothing to release
			return
		}
		derr := disp.Dispose()
		if err == nil {
			err = derr
		}
	}()

	for _, r := range o.records {
		err = r.listener.AfterCommit(o.data, r.state, d.handle)
		if err != nil {
			return err
		}
	}

	return nil
}

// AfterRollback tells every listener that ran BeforeCommit that the
// transaction has been rolled back. Failure propagation matches
// AfterCommit. The transaction data is not disposed here: the storage
// rollback already released the underlying view.
func (d *Dispatcher) AfterRollback(o *Outcome) error {
	if !o.dispatched {
		return nil
	}

	for _, r := range o.records {
		err := r.listener.AfterRollback(o.data, r.state, d.handle)
		if err != nil {
			return err
		}
	}

	return nil
}

// callBeforeCommit contains a panicking listener to a veto, so that the
// remaining listeners still get asked.
func callBeforeCommit(l graft.TransactionEventListener, data graft.TransactionData, db graft.Database) (st any, err error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}

		re, isError := v.(error)
		if isError {
			err = re
			return
		}

		err = fmt.Errorf("panic: %v", v)
	}()

	return l.BeforeCommit(data, db)
}
