package dump

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/graftdb/graft"
)

type Reader struct {
	dec *json.Decoder
}

func NewReader(r io.Reader) Reader {
	return Reader{dec: json.NewDecoder(r)}
}

// Next returns the next item of the dump, io.EOF once it is exhausted.
func (r Reader) Next() (Item, error) {
	it := Item{}

	err := r.dec.Decode(&it)
	if err == io.EOF {
		return Item{}, io.EOF
	}
	if err != nil {
		return Item{}, fmt.Errorf("while decoding dump item: %w", err)
	}

	switch it.Type {
	case ItemTypeNode:
		if it.Node == nil {
			return Item{}, fmt.Errorf("node item without node")
		}
	case ItemTypeRelationship:
		if it.Relationship == nil {
			return Item{}, fmt.Errorf("relationship item without relationship")
		}
	default:
		return Item{}, fmt.Errorf("unknown item type %q", it.Type)
	}

	return it, nil
}

// Restore replays a dump into the database within a single write
// transaction. Entity IDs are assigned fresh; relationship endpoints are
// remapped accordingly, so the dump must list nodes before the
// relationships connecting them.
func Restore(db graft.Database, r io.Reader) error {
	dr := NewReader(r)

	return db.Write(func(tx graft.WriteTx) error {
		nodeIDs := map[graft.NodeID]graft.NodeID{}

		for {
			it, err := dr.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}

			switch it.Type {
			case ItemTypeNode:
				id, err := tx.CreateNode(it.Node.Labels, it.Node.Properties)
				if err != nil {
					return err
				}
				nodeIDs[it.Node.ID] = id
			case ItemTypeRelationship:
				from, found := nodeIDs[it.Relationship.From]
				if !found {
					return fmt.Errorf("relationship %d references unknown node %d", it.Relationship.ID, it.Relationship.From)
				}

				to, found := nodeIDs[it.Relationship.To]
				if !found {
					return fmt.Errorf("relationship %d references unknown node %d", it.Relationship.ID, it.Relationship.To)
				}

				_, err := tx.CreateRelationship(from, to, it.Relationship.Type, it.Relationship.Properties)
				if err != nil {
					return err
				}
			}
		}
	})
}
