package dump_test

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graftdb/graft"
	"github.com/graftdb/graft/dump"
	"github.com/graftdb/graft/local"
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

func TestReader(t *testing.T) {
	bb := new(bytes.Buffer)
	dw := dump.NewWriter(bb)

	err := dw.Node(graft.Node{ID: 1, Labels: []string{"Person"}, Properties: map[string]any{"name": "Ada"}})
	require.NoError(t, err)

	err = dw.Relationship(graft.Relationship{ID: 1, Type: "KNOWS", From: 1, To: 1})
	require.NoError(t, err)

	dr := dump.NewReader(bb)

	it, err := dr.Next()
	require.NoError(t, err)
	require.Equal(t, dump.ItemTypeNode, it.Type)
	require.Equal(t, graft.NodeID(1), it.Node.ID)
	require.Equal(t, "Ada", it.Node.Properties["name"])

	it, err = dr.Next()
	require.NoError(t, err)
	require.Equal(t, dump.ItemTypeRelationship, it.Type)
	require.Equal(t, "KNOWS", it.Relationship.Type)

	_, err = dr.Next()
	require.Same(t, io.EOF, err)
}

func TestReaderRejectsUnknownItemType(t *testing.T) {
	dr := dump.NewReader(strings.NewReader(`{"type":"banana"}`))

	_, err := dr.Next()
	require.Error(t, err)
}

func TestDumpAndRestore(t *testing.T) {
	src, cleanupSrc := openEmptyDatabase(t, local.Options{})
	defer cleanupSrc()

	err := src.Write(func(tx graft.WriteTx) error {
		a, err := tx.CreateNode([]string{"Person"}, map[string]any{"name": "Ada"})
		require.NoError(t, err)

		b, err := tx.CreateNode([]string{"Person"}, map[string]any{"name": "Grace"})
		require.NoError(t, err)

		_, err = tx.CreateRelationship(a, b, "KNOWS", map[string]any{"since": "school"})
		return err
	})
	require.NoError(t, err)

	bb := new(bytes.Buffer)
	err = dump.Dump(src, bb)
	require.NoError(t, err)

	dst, cleanupDst := openEmptyDatabase(t, local.Options{})
	defer cleanupDst()

	err = dump.Restore(dst, bb)
	require.NoError(t, err)

	err = dst.Read(func(tx graft.ReadTx) error {
		names := map[string]graft.NodeID{}

		nodes, err := tx.Nodes()
		require.NoError(t, err)

		for ; !nodes.IsDone(); nodes.Next() {
			n, err := nodes.GetNode()
			require.NoError(t, err)
			require.True(t, n.HasLabel("Person"))
			names[n.Properties["name"].(string)] = n.ID
		}

		require.Len(t, names, 2)

		rels, err := tx.Relationships()
		require.NoError(t, err)

		count := 0
		for ; !rels.IsDone(); rels.Next() {
			r, err := rels.GetRelationship()
			require.NoError(t, err)
			require.Equal(t, "KNOWS", r.Type)
			require.Equal(t, names["Ada"], r.From)
			require.Equal(t, names["Grace"], r.To)
			count++
		}

		require.Equal(t, 1, count)
		return nil
	})
	require.NoError(t, err)
}

func TestRestoreWithDanglingRelationship(t *testing.T) {
	db, cleanup := openEmptyDatabase(t, local.Options{})
	defer cleanup()

	in := strings.NewReader(`{"type":"relationship","relationship":{"ID":1,"Type":"KNOWS","From":7,"To":8}}` + "\n")

	err := dump.Restore(db, in)
	require.Error(t, err)

	err = db.Read(func(tx graft.ReadTx) error {
		rels, err := tx.Relationships()
		require.NoError(t, err)
		require.True(t, rels.IsDone())
		return nil
	})
	require.NoError(t, err)
}
