package local

import (
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/graftdb/graft"
	"github.com/graftdb/graft/hook"
	"github.com/graftdb/graft/registry"
)

type DB struct {
	db         *bbolt.DB
	name       string
	registry   *registry.Registry
	dispatcher *hook.Dispatcher
	obs        *observer
	logger     *zap.Logger
}

type Options struct {
	bbolt.Options

	// Name identifies the database in the listener registry and in log
	// output. Defaults to the file name.
	Name string

	// Registry to share between databases. A private one is created
	// when nil.
	Registry *registry.Registry

	// Listeners registered before the database accepts transactions.
	Listeners []graft.TransactionEventListener

	Logger *zap.Logger
}

func Open(path string, mode os.FileMode, options Options) (*DB, error) {
	db, err := bbolt.Open(path, mode, &options.Options)
	if err != nil {
		return nil, fmt.Errorf("while opening bolt db: %w", err)
	}

	{
		tx, err := db.Begin(false)
		if err != nil {
			return nil, fmt.Errorf("while opening read tx: %w", err)
		}

		bucketsExist := tx.Bucket([]byte(nodesBucketName)) != nil &&
			tx.Bucket([]byte(relsBucketName)) != nil

		err = tx.Rollback()
		if err != nil {
			return nil, fmt.Errorf("while rolling back read transaction: %w", err)
		}

		if !bucketsExist {
			err = db.Update(func(tx *bbolt.Tx) error {
				for _, name := range []string{nodesBucketName, relsBucketName} {
					if tx.Bucket([]byte(name)) == nil {
						_, err := tx.CreateBucket([]byte(name))
						if err != nil {
							return err
						}
					}
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("while creating graph buckets: %w", err)
			}
		}
	}

	name := options.Name
	if name == "" {
		name = filepath.Base(path)
	}

	reg := options.Registry
	if reg == nil {
		reg = registry.New()
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &DB{
		db:       db,
		name:     name,
		registry: reg,
		logger:   logger,
	}

	d.dispatcher = hook.New(reg, name, d, newSnapshot)
	d.obs = newObserver(name, reg)

	for _, l := range options.Listeners {
		if l == nil {
			return nil, fmt.Errorf("transaction event listener must not be nil")
		}
		reg.Register(name, l)
	}

	return d, nil
}

func (d *DB) Close() error {
	err := d.db.Close()
	if err != nil {
		return err
	}
	return nil
}

func (d *DB) Stats() (*bbolt.Stats, error) {
	st := d.db.Stats()
	return &st, nil
}

// Name returns the name this database registers its listeners under.
func (d *DB) Name() string {
	return d.name
}

// Register adds a transaction event listener for this database and
// returns a func removing it again. Transactions already past their
// BeforeCommit point will not observe the listener.
func (d *DB) Register(l graft.TransactionEventListener) func() {
	return d.registry.Register(d.name, l)
}

func (d *DB) Write(fn func(tx graft.WriteTx) error) error {
	return d.WriteAs("", fn)
}

// WriteAs runs fn inside a managed write transaction attributed to
// username. Once fn succeeds, every registered listener is asked whether
// the transaction may commit; a veto rolls the storage transaction back.
// Exactly one of the listeners' AfterCommit/AfterRollback rounds runs
// afterwards, matching what the storage engine did.
func (d *DB) WriteAs(username string, fn func(tx graft.WriteTx) error) error {
	btx, err := d.db.Begin(true)
	if err != nil {
		return fmt.Errorf("while starting write transaction: %w", err)
	}

	finished := false
	defer func() {
		if !finished {
			btx.Rollback()
		}
	}()

	wtx, err := newWriteTx(btx, false, username)
	if err != nil {
		return err
	}

	err = runWriteFn(fn, wtx)
	if err != nil {
		// the transaction never reached its commit point, listeners
		// don't get to see it
		return err
	}

	outcome := d.dispatcher.BeforeCommit(wtx.state, wtx)

	if !outcome.Successful() {
		err = btx.Rollback()
		finished = true
		if err != nil {
			return fmt.Errorf("while rolling back vetoed transaction: %w", err)
		}

		d.logger.Info("transaction vetoed",
			zap.String("database", d.name),
			zap.Error(outcome.Failure()),
		)

		err = d.dispatcher.AfterRollback(outcome)
		if err != nil {
			return fmt.Errorf("while notifying listeners of rollback: %w", err)
		}

		return fmt.Errorf("transaction vetoed: %w", outcome.Failure())
	}

	err = btx.Commit()
	finished = true
	if err != nil {
		aerr := d.dispatcher.AfterRollback(outcome)
		if aerr != nil {
			return fmt.Errorf("while notifying listeners of rollback: %w", aerr)
		}
		return fmt.Errorf("while committing transaction: %w", err)
	}

	d.logger.Debug("transaction committed", zap.String("database", d.name))

	err = d.dispatcher.AfterCommit(outcome)
	if err != nil {
		return fmt.Errorf("while notifying listeners of commit: %w", err)
	}

	return nil
}

func (d *DB) Read(fn func(tx graft.ReadTx) error) error {
	return d.db.View(func(btx *bbolt.Tx) error {
		wtx, err := newWriteTx(btx, true, "")
		if err != nil {
			return err
		}
		return fn(wtx)
	})
}

func (d *DB) Observe() (<-chan graft.ObservedChanges, func()) {
	return d.obs.observe()
}

func runWriteFn(fn func(tx graft.WriteTx) error, wtx *writeTx) (err error) {
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

	return fn(wtx)
}
