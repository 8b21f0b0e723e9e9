package hook_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graftdb/graft"
	"github.com/graftdb/graft/hook"
)

type staticRegistry []graft.TransactionEventListener

func (r staticRegistry) Snapshot(database string) []graft.TransactionEventListener {
	return append([]graft.TransactionEventListener{}, r...)
}

type fakeState struct {
	hasChanges bool
}

func (s *fakeState) HasChanges() bool {
	return s.hasChanges
}

type disposableData struct {
	graft.TransactionData
	disposeCount int
	disposeErr   error
}

func (d *disposableData) Dispose() error {
	d.disposeCount++
	return d.disposeErr
}

type recordingListener struct {
	name string
	log  *[]string

	beforeState any
	beforeErr   error
	beforePanic any

	afterCommitErr   error
	afterRollbackErr error
}

func (l *recordingListener) BeforeCommit(data graft.TransactionData, db graft.Database) (any, error) {
	*l.log = append(*l.log, l.name+".beforeCommit")
	if l.beforePanic != nil {
		panic(l.beforePanic)
	}
	return l.beforeState, l.beforeErr
}

func (l *recordingListener) AfterCommit(data graft.TransactionData, state any, db graft.Database) error {
	*l.log = append(*l.log, fmt.Sprintf("%s.afterCommit(%v)", l.name, state))
	return l.afterCommitErr
}

func (l *recordingListener) AfterRollback(data graft.TransactionData, state any, db graft.Database) error {
	*l.log = append(*l.log, fmt.Sprintf("%s.afterRollback(%v)", l.name, state))
	return l.afterRollbackErr
}

type dispatcherFixture struct {
	log           *[]string
	data          *disposableData
	snapshotCalls int
	snapshotErr   error
}

func (f *dispatcherFixture) snapshot(state hook.State, reader graft.StorageReader) (graft.TransactionData, error) {
	f.snapshotCalls++
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	return f.data, nil
}

func newFixture(log *[]string, listeners ...graft.TransactionEventListener) (*dispatcherFixture, *hook.Dispatcher) {
	f := &dispatcherFixture{
		log:  log,
		data: &disposableData{TransactionData: graft.EmptyData},
	}
	return f, hook.New(staticRegistry(listeners), "testdb", nil, f.snapshot)
}

func changedState() *fakeState {
	return &fakeState{hasChanges: true}
}

func TestBeforeCommitWithoutListeners(t *testing.T) {
	log := &[]string{}
	f, d := newFixture(log)

	o := d.BeforeCommit(changedState(), nil)

	require.NotNil(t, o)
	require.False(t, o.Dispatched())
	require.True(t, o.Successful())
	require.NoError(t, o.Failure())

	// no transaction data may be built when there is nothing to dispatch
	require.Equal(t, 0, f.snapshotCalls)

	require.NoError(t, d.AfterCommit(o))
	require.NoError(t, d.AfterRollback(o))
	require.Equal(t, 0, f.data.disposeCount)
}

func TestCommitNotifications(t *testing.T) {
	log := &[]string{}
	l1 := &recordingListener{name: "l1", log: log, beforeState: "X"}
	l2 := &recordingListener{name: "l2", log: log, beforeState: "Y"}

	f, d := newFixture(log, l1, l2)

	o := d.BeforeCommit(changedState(), nil)
	require.True(t, o.Dispatched())
	require.True(t, o.Successful())
	require.Equal(t, 1, f.snapshotCalls)

	err := d.AfterCommit(o)
	require.NoError(t, err)

	require.Equal(t, []string{
		"l1.beforeCommit",
		"l2.beforeCommit",
		"l1.afterCommit(X)",
		"l2.afterCommit(Y)",
	}, *log)

	require.Equal(t, 1, f.data.disposeCount)
}

func TestVetoIsContained(t *testing.T) {
	vetoErr := errors.New("nope")

	t.Run("remaining listeners are still asked", func(t *testing.T) {
		log := &[]string{}
		l1 := &recordingListener{name: "l1", log: log, beforeErr: vetoErr}
		l2 := &recordingListener{name: "l2", log: log, beforeState: "Y"}

		f, d := newFixture(log, l1, l2)

		o := d.BeforeCommit(changedState(), nil)
		require.True(t, o.Dispatched())
		require.False(t, o.Successful())
		require.Equal(t, vetoErr, o.Failure())

		require.Equal(t, []string{"l1.beforeCommit", "l2.beforeCommit"}, *log)

		err := d.AfterRollback(o)
		require.NoError(t, err)

		require.Equal(t, []string{
			"l1.beforeCommit",
			"l2.beforeCommit",
			"l1.afterRollback(<nil>)",
			"l2.afterRollback(Y)",
		}, *log)

		// rollback path never disposes the transaction data
		require.Equal(t, 0, f.data.disposeCount)
	})

	t.Run("first failure wins", func(t *testing.T) {
		laterErr := errors.New("also nope")
		log := &[]string{}
		l1 := &recordingListener{name: "l1", log: log, beforeErr: vetoErr}
		l2 := &recordingListener{name: "l2", log: log, beforeErr: laterErr}

		_, d := newFixture(log, l1, l2)

		o := d.BeforeCommit(changedState(), nil)
		require.False(t, o.Successful())
		require.Equal(t, vetoErr, o.Failure())
		require.Equal(t, []string{"l1.beforeCommit", "l2.beforeCommit"}, *log)
	})

	t.Run("panicking listener is contained", func(t *testing.T) {
		log := &[]string{}
		l1 := &recordingListener{name: "l1", log: log, beforePanic: "boom"}
		l2 := &recordingListener{name: "l2", log: log, beforeState: "Y"}

		_, d := newFixture(log, l1, l2)

		o := d.BeforeCommit(changedState(), nil)
		require.False(t, o.Successful())
		require.EqualError(t, o.Failure(), "panic: boom")
		require.Equal(t, []string{"l1.beforeCommit", "l2.beforeCommit"}, *log)
	})
}

func TestAfterCommitFailurePropagates(t *testing.T) {
	afterErr := errors.New("listener broke")

	log := &[]string{}
	l1 := &recordingListener{name: "l1", log: log, beforeState: "a"}
	l2 := &recordingListener{name: "l2", log: log, beforeState: "b", afterCommitErr: afterErr}
	l3 := &recordingListener{name: "l3", log: log, beforeState: "c"}

	f, d := newFixture(log, l1, l2, l3)

	o := d.BeforeCommit(changedState(), nil)
	require.True(t, o.Successful())

	err := d.AfterCommit(o)
	require.Equal(t, afterErr, err)

	// l3 is skipped, but the transaction data is disposed regardless
	require.Equal(t, []string{
		"l1.beforeCommit",
		"l2.beforeCommit",
		"l3.beforeCommit",
		"l1.afterCommit(a)",
		"l2.afterCommit(b)",
	}, *log)
	require.Equal(t, 1, f.data.disposeCount)
}

func TestAfterRollbackFailurePropagates(t *testing.T) {
	afterErr := errors.New("listener broke")

	log := &[]string{}
	l1 := &recordingListener{name: "l1", log: log, afterRollbackErr: afterErr}
	l2 := &recordingListener{name: "l2", log: log}

	_, d := newFixture(log, l1, l2)

	o := d.BeforeCommit(changedState(), nil)

	err := d.AfterRollback(o)
	require.Equal(t, afterErr, err)
	require.Equal(t, []string{
		"l1.beforeCommit",
		"l2.beforeCommit",
		"l1.afterRollback(<nil>)",
	}, *log)
}

func TestEmptyTransactionData(t *testing.T) {
	t.Run("nil state", func(t *testing.T) {
		log := &[]string{}
		l := &recordingListener{name: "l", log: log}
		f, d := newFixture(log, l)

		o := d.BeforeCommit(nil, nil)
		require.True(t, o.Dispatched())
		require.Equal(t, 0, f.snapshotCalls)

		require.NoError(t, d.AfterCommit(o))
		require.Equal(t, 0, f.data.disposeCount)
	})

	t.Run("state without changes", func(t *testing.T) {
		log := &[]string{}
		l := &recordingListener{name: "l", log: log}
		f, d := newFixture(log, l)

		o := d.BeforeCommit(&fakeState{hasChanges: false}, nil)
		require.True(t, o.Dispatched())
		require.Equal(t, 0, f.snapshotCalls)
		require.NoError(t, d.AfterCommit(o))
	})
}

func TestSnapshotFailure(t *testing.T) {
	snapErr := errors.New("reader gone")

	log := &[]string{}
	l := &recordingListener{name: "l", log: log}
	f, d := newFixture(log, l)
	f.snapshotErr = snapErr

	o := d.BeforeCommit(changedState(), nil)
	require.True(t, o.Dispatched())
	require.False(t, o.Successful())
	require.ErrorIs(t, o.Failure(), snapErr)

	// no listener gets asked about data that could not be built
	require.Empty(t, *log)

	require.NoError(t, d.AfterRollback(o))
	require.Empty(t, *log)
}

func TestDisposeFailureIsReported(t *testing.T) {
	disposeErr := errors.New("release failed")

	log := &[]string{}
	l := &recordingListener{name: "l", log: log}
	f, d := newFixture(log, l)
	f.data.disposeErr = disposeErr

	o := d.BeforeCommit(changedState(), nil)

	err := d.AfterCommit(o)
	require.Equal(t, disposeErr, err)
	require.Equal(t, 1, f.data.disposeCount)
}
