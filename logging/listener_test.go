package logging_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/graftdb/graft"
	"github.com/graftdb/graft/local"
	"github.com/graftdb/graft/logging"
)

func openEmptyDatabase(t *testing.T, opts local.Options) (*local.DB, func()) {
	td := t.TempDir()

	db, err := local.Open(filepath.Join(td, "db"), 0700, opts)
	require.NoError(t, err)

	return db, func() {
		err = db.Close()
		require.NoError(t, err)
	}
}

type vetoListener struct {
	err error
}

func (l *vetoListener) BeforeCommit(data graft.TransactionData, db graft.Database) (any, error) {
	return nil, l.err
}

func (l *vetoListener) AfterCommit(data graft.TransactionData, state any, db graft.Database) error {
	return nil
}

func (l *vetoListener) AfterRollback(data graft.TransactionData, state any, db graft.Database) error {
	return nil
}

func TestCommitIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	db, cleanup := openEmptyDatabase(t, local.Options{
		Listeners: []graft.TransactionEventListener{logging.NewListener("main", logger)},
	})
	defer cleanup()

	err := db.WriteAs("ada", func(tx graft.WriteTx) error {
		_, err := tx.CreateNode([]string{"Person"}, nil)
		return err
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("transaction committed").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	require.Equal(t, "main", fields["database"])
	require.Equal(t, int64(1), fields["createdNodes"])
	require.Equal(t, "ada", fields["username"])
	require.Contains(t, fields, "commitDuration")
}

func TestRollbackIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	db, cleanup := openEmptyDatabase(t, local.Options{
		Listeners: []graft.TransactionEventListener{
			logging.NewListener("main", logger),
			&vetoListener{err: errors.New("nope")},
		},
	})
	defer cleanup()

	err := db.Write(func(tx graft.WriteTx) error {
		_, err := tx.CreateNode(nil, nil)
		return err
	})
	require.Error(t, err)

	require.Len(t, logs.FilterMessage("transaction rolled back").All(), 1)
	require.Empty(t, logs.FilterMessage("transaction committed").All())
}
