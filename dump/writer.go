package dump

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/graftdb/graft"
)

type ItemType string

const ItemTypeNode ItemType = "node"
const ItemTypeRelationship ItemType = "relationship"

// Item is one line of a dump: either a node or a relationship.
type Item struct {
	Type         ItemType            `json:"type"`
	Node         *graft.Node         `json:"node,omitempty"`
	Relationship *graft.Relationship `json:"relationship,omitempty"`
}

type Writer struct {
	enc *json.Encoder
}

func NewWriter(w io.Writer) Writer {
	return Writer{enc: json.NewEncoder(w)}
}

func (w Writer) Node(n graft.Node) error {
	err := w.enc.Encode(Item{Type: ItemTypeNode, Node: &n})
	if err != nil {
		return fmt.Errorf("while writing node %d: %w", n.ID, err)
	}
	return nil
}

func (w Writer) Relationship(r graft.Relationship) error {
	err := w.enc.Encode(Item{Type: ItemTypeRelationship, Relationship: &r})
	if err != nil {
		return fmt.Errorf("while writing relationship %d: %w", r.ID, err)
	}
	return nil
}

// Dump writes every node followed by every relationship of the database,
// one JSON object per line. Nodes come first so that a restore can remap
// relationship endpoints in a single pass.
func Dump(db graft.Database, w io.Writer) error {
	dw := NewWriter(w)

	return db.Read(func(tx graft.ReadTx) error {
		nodes, err := tx.Nodes()
		if err != nil {
			return err
		}

		for ; !nodes.IsDone(); nodes.Next() {
			n, err := nodes.GetNode()
			if err != nil {
				return err
			}

			err = dw.Node(n)
			if err != nil {
				return err
			}
		}

		rels, err := tx.Relationships()
		if err != nil {
			return err
		}

		for ; !rels.IsDone(); rels.Next() {
			r, err := rels.GetRelationship()
			if err != nil {
				return err
			}

			err = dw.Relationship(r)
			if err != nil {
				return err
			}
		}

		return nil
	})
}
