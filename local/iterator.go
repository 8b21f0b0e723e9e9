package local

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/graftdb/graft"
)

type nodeIterator struct {
	c     *bolt.Cursor
	key   []byte
	value []byte
	done  bool
}

func newNodeIterator(c *bolt.Cursor) *nodeIterator {
	k, v := c.First()
	return &nodeIterator{
		c:     c,
		key:   k,
		value: v,
		done:  k == nil,
	}
}

func (i *nodeIterator) GetNode() (graft.Node, error) {
	if i.done {
		return graft.Node{}, graft.ErrNotFound
	}

	rec := nodeRecord{}
	err := json.Unmarshal(i.value, &rec)
	if err != nil {
		return graft.Node{}, fmt.Errorf("while decoding node record: %w", err)
	}

	return graft.Node{
		ID:         graft.NodeID(binary.BigEndian.Uint64(i.key)),
		Labels:     rec.Labels,
		Properties: rec.Properties,
	}, nil
}

func (i *nodeIterator) IsDone() bool {
	return i.done
}

func (i *nodeIterator) Next() {
	k, v := i.c.Next()
	i.key = k
	i.value = v
	i.done = k == nil
}

func (i *nodeIterator) Prev() {
	k, v := i.c.Prev()
	i.key = k
	i.value = v
	i.done = k == nil
}

func (i *nodeIterator) Seek(id graft.NodeID) {
	k, v := i.c.Seek(entityKey(uint64(id)))
	i.key = k
	i.value = v
	i.done = k == nil
}

func (i *nodeIterator) First() {
	k, v := i.c.First()
	i.key = k
	i.value = v
	i.done = k == nil
}

func (i *nodeIterator) Last() {
	k, v := i.c.Last()
	i.key = k
	i.value = v
	i.done = k == nil
}

type relationshipIterator struct {
	c     *bolt.Cursor
	key   []byte
	value []byte
	done  bool
}

func newRelationshipIterator(c *bolt.Cursor) *relationshipIterator {
	k, v := c.First()
	return &relationshipIterator{
		c:     c,
		key:   k,
		value: v,
		done:  k == nil,
	}
}

func (i *relationshipIterator) GetRelationship() (graft.Relationship, error) {
	if i.done {
		return graft.Relationship{}, graft.ErrNotFound
	}

	rec := relationshipRecord{}
	err := json.Unmarshal(i.value, &rec)
	if err != nil {
		return graft.Relationship{}, fmt.Errorf("while decoding relationship record: %w", err)
	}

	return graft.Relationship{
		ID:         graft.RelationshipID(binary.BigEndian.Uint64(i.key)),
		Type:       rec.Type,
		From:       graft.NodeID(rec.From),
		To:         graft.NodeID(rec.To),
		Properties: rec.Properties,
	}, nil
}

func (i *relationshipIterator) IsDone() bool {
	return i.done
}

func (i *relationshipIterator) Next() {
	k, v := i.c.Next()
	i.key = k
	i.value = v
	i.done = k == nil
}

func (i *relationshipIterator) Prev() {
	k, v := i.c.Prev()
	i.key = k
	i.value = v
	i.done = k == nil
}

func (i *relationshipIterator) Seek(id graft.RelationshipID) {
	k, v := i.c.Seek(entityKey(uint64(id)))
	i.key = k
	i.value = v
	i.done = k == nil
}

func (i *relationshipIterator) First() {
	k, v := i.c.First()
	i.key = k
	i.value = v
	i.done = k == nil
}

func (i *relationshipIterator) Last() {
	k, v := i.c.Last()
	i.key = k
	i.value = v
	i.done = k == nil
}
