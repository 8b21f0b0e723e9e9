package graft

// TransactionEventListener will receive the following callbacks around
// every write transaction of the database it is registered for:
//
// BeforeCommit is called while the transaction is still open, before any
// data hits the store. Returning an error vetoes the commit. The returned
// state value is opaque to the database and is passed back, unchanged, to
// the same listener's AfterCommit or AfterRollback call.
//
// Exactly one of AfterCommit and AfterRollback is called afterwards,
// depending on the outcome of the commit.
type TransactionEventListener interface {
	BeforeCommit(data TransactionData, db Database) (any, error)
	AfterCommit(data TransactionData, state any, db Database) error
	AfterRollback(data TransactionData, state any, db Database) error
}
