package hook

import (
	"github.com/graftdb/graft"
)

// record pairs one listener with the opaque state it returned from
// BeforeCommit. The slice order in Outcome is fixed when the records are
// appended and is the order of every later phase.
type record struct {
	listener graft.TransactionEventListener
	state    any
}

// Outcome is the result of dispatching BeforeCommit for one commit
// attempt. A commit attempt that found no registered listeners yields the
// shared no-dispatch Outcome, for which both after phases are no-ops.
type Outcome struct {
	data       graft.TransactionData
	records    []*record
	failure    error
	dispatched bool
}

var noDispatch = &Outcome{}

// Dispatched reports whether any listeners were registered at
// BeforeCommit time.
func (o *Outcome) Dispatched() bool {
	return o.dispatched
}

// Successful is false iff at least one listener vetoed the commit.
func (o *Outcome) Successful() bool {
	return o.failure == nil
}

// Failure returns the first veto encountered, in listener order.
func (o *Outcome) Failure() error {
	return o.failure
}

func (o *Outcome) failed(err error) {
	// first failure wins, later ones abort the commit all the same
	if o.failure == nil {
		o.failure = err
	}
}

func (o *Outcome) add(l graft.TransactionEventListener) *record {
	r := &record{listener: l}
	o.records = append(o.records, r)
	return r
}
