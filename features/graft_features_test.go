package features

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/draganm/senfgurke/step"
	"github.com/draganm/senfgurke/testrunner"
	"github.com/draganm/senfgurke/world"

	"github.com/graftdb/graft"
	"github.com/graftdb/graft/local"
)

func TestFeatures(t *testing.T) {
	testrunner.RunScenarios(t, steps)
}

var steps = step.NewRegistry()

type recordingListener struct {
	createdNodes int
	commits      int
	rollbacks    int
}

func (l *recordingListener) BeforeCommit(data graft.TransactionData, db graft.Database) (any, error) {
	l.createdNodes += len(data.CreatedNodes())
	return nil, nil
}

func (l *recordingListener) AfterCommit(data graft.TransactionData, state any, db graft.Database) error {
	l.commits++
	return nil
}

func (l *recordingListener) AfterRollback(data graft.TransactionData, state any, db graft.Database) error {
	l.rollbacks++
	return nil
}

type vetoingListener struct{}

func (l *vetoingListener) BeforeCommit(data graft.TransactionData, db graft.Database) (any, error) {
	return nil, fmt.Errorf("vetoed")
}

func (l *vetoingListener) AfterCommit(data graft.TransactionData, state any, db graft.Database) error {
	return nil
}

func (l *vetoingListener) AfterRollback(data graft.TransactionData, state any, db graft.Database) error {
	return nil
}

var _ = steps.Then("the database is open", func(w *world.World) error {
	td, err := os.MkdirTemp("", "*")
	if err != nil {
		return fmt.Errorf("while creating temp dir: %w", err)
	}

	w.AddCleanup(func() error {
		return os.RemoveAll(td)
	})

	db, err := local.Open(filepath.Join(td, "db"), 0700, local.Options{})
	if err != nil {
		return err
	}

	w.Attributes["db"] = db
	w.AddCleanup(db.Close)

	return nil
})

func getDB(w *world.World) *local.DB {
	return w.Attributes["db"].(*local.DB)
}

var _ = steps.Then("a recording listener is registered", func(w *world.World) error {
	l := &recordingListener{}
	getDB(w).Register(l)
	w.Attributes["listener"] = l
	return nil
})

var _ = steps.Then("a vetoing listener is registered", func(w *world.World) error {
	getDB(w).Register(&vetoingListener{})
	return nil
})

func getListener(w *world.World) *recordingListener {
	return w.Attributes["listener"].(*recordingListener)
}

var _ = steps.Then("I create a node labeled {string}", func(w *world.World, label string) error {
	return getDB(w).Write(func(tx graft.WriteTx) error {
		_, err := tx.CreateNode([]string{label}, nil)
		return err
	})
})

var _ = steps.Then("I try to create a node labeled {string}", func(w *world.World, label string) error {
	err := getDB(w).Write(func(tx graft.WriteTx) error {
		_, err := tx.CreateNode([]string{label}, nil)
		return err
	})
	w.Attributes["writeError"] = err
	return nil
})

var _ = steps.Then("the write should fail", func(w *world.World) error {
	err, _ := w.Attributes["writeError"].(error)
	w.Assert.Error(err)
	return nil
})

var _ = steps.Then("the listener should have observed {int} created node", func(w *world.World, expected int) error {
	w.Assert.Equal(expected, getListener(w).createdNodes)
	return nil
})

var _ = steps.Then("the listener should have been notified of the commit", func(w *world.World) error {
	w.Assert.Equal(1, getListener(w).commits)
	w.Assert.Equal(0, getListener(w).rollbacks)
	return nil
})

var _ = steps.Then("the database should contain {int} nodes", func(w *world.World, expected int) error {
	count := 0
	err := getDB(w).Read(func(tx graft.ReadTx) error {
		it, err := tx.Nodes()
		if err != nil {
			return err
		}
		for ; !it.IsDone(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.Assert.Equal(expected, count)
	return nil
})
