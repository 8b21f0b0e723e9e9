package local

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/graftdb/graft"
)

const (
	nodesBucketName = "nodes"
	relsBucketName  = "rels"
)

type nodeRecord struct {
	Labels     []string       `json:"labels,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

type relationshipRecord struct {
	Type       string         `json:"type"`
	From       uint64         `json:"from"`
	To         uint64         `json:"to"`
	Properties map[string]any `json:"properties,omitempty"`
}

type writeTx struct {
	btx      *bbolt.Tx
	readOnly bool
	nodes    *bbolt.Bucket
	rels     *bbolt.Bucket
	state    *txState
}

func newWriteTx(btx *bbolt.Tx, readOnly bool, username string) (*writeTx, error) {
	nodes := btx.Bucket([]byte(nodesBucketName))
	if nodes == nil {
		return nil, errors.New("nodes bucket not found")
	}

	rels := btx.Bucket([]byte(relsBucketName))
	if rels == nil {
		return nil, errors.New("relationships bucket not found")
	}

	wtx := &writeTx{
		btx:      btx,
		readOnly: readOnly,
		nodes:    nodes,
		rels:     rels,
	}

	if !readOnly {
		wtx.state = newTxState(username)
	}

	return wtx, nil
}

func entityKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

func (w *writeTx) getNodeRecord(id graft.NodeID) (nodeRecord, error) {
	v := w.nodes.Get(entityKey(uint64(id)))
	if v == nil {
		return nodeRecord{}, graft.ErrNotFound
	}

	rec := nodeRecord{}
	err := json.Unmarshal(v, &rec)
	if err != nil {
		return nodeRecord{}, fmt.Errorf("while decoding node record: %w", err)
	}

	return rec, nil
}

func (w *writeTx) putNodeRecord(id graft.NodeID, rec nodeRecord) error {
	d, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("while encoding node record: %w", err)
	}

	return w.nodes.Put(entityKey(uint64(id)), d)
}

func (w *writeTx) getRelationshipRecord(id graft.RelationshipID) (relationshipRecord, error) {
	v := w.rels.Get(entityKey(uint64(id)))
	if v == nil {
		return relationshipRecord{}, graft.ErrNotFound
	}

	rec := relationshipRecord{}
	err := json.Unmarshal(v, &rec)
	if err != nil {
		return relationshipRecord{}, fmt.Errorf("while decoding relationship record: %w", err)
	}

	return rec, nil
}

func (w *writeTx) putRelationshipRecord(id graft.RelationshipID, rec relationshipRecord) error {
	d, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("while encoding relationship record: %w", err)
	}

	return w.rels.Put(entityKey(uint64(id)), d)
}

func (w *writeTx) CreateNode(labels []string, properties map[string]any) (id graft.NodeID, err error) {

	defer func() {
		if err != nil {
			err = fmt.Errorf("CreateNode: %w", err)
		}
	}()

	seq, err := w.nodes.NextSequence()
	if err != nil {
		return 0, err
	}

	id = graft.NodeID(seq)

	err = w.putNodeRecord(id, nodeRecord{
		Labels:     append([]string{}, labels...),
		Properties: copyProperties(properties),
	})
	if err != nil {
		return 0, err
	}

	w.state.nodeCreated(id)

	return id, nil
}

func (w *writeTx) DeleteNode(id graft.NodeID) (err error) {

	defer func() {
		if err != nil {
			err = fmt.Errorf("DeleteNode(%d): %w", id, err)
		}
	}()

	rec, err := w.getNodeRecord(id)
	if err != nil {
		return err
	}

	// a node with attached relationships cannot go away
	c := w.rels.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		rel := relationshipRecord{}
		err = json.Unmarshal(v, &rel)
		if err != nil {
			return fmt.Errorf("while decoding relationship record: %w", err)
		}
		if rel.From == uint64(id) || rel.To == uint64(id) {
			return graft.ErrConflict
		}
	}

	err = w.nodes.Delete(entityKey(uint64(id)))
	if err != nil {
		return err
	}

	w.state.nodeDeleted(graft.Node{ID: id, Labels: rec.Labels, Properties: rec.Properties})

	return nil
}

func (w *writeTx) SetNodeProperty(id graft.NodeID, key string, value any) (err error) {

	defer func() {
		if err != nil {
			err = fmt.Errorf("SetNodeProperty(%d, %s): %w", id, key, err)
		}
	}()

	rec, err := w.getNodeRecord(id)
	if err != nil {
		return err
	}

	previous := rec.Properties[key]

	if rec.Properties == nil {
		rec.Properties = map[string]any{}
	}
	rec.Properties[key] = value

	err = w.putNodeRecord(id, rec)
	if err != nil {
		return err
	}

	w.state.nodePropertyAssigned(id, key, value, previous)

	return nil
}

func (w *writeTx) RemoveNodeProperty(id graft.NodeID, key string) (err error) {

	defer func() {
		if err != nil {
			err = fmt.Errorf("RemoveNodeProperty(%d, %s): %w", id, key, err)
		}
	}()

	rec, err := w.getNodeRecord(id)
	if err != nil {
		return err
	}

	previous, hasProperty := rec.Properties[key]
	if !hasProperty {
		return graft.ErrNotFound
	}

	delete(rec.Properties, key)

	err = w.putNodeRecord(id, rec)
	if err != nil {
		return err
	}

	w.state.nodePropertyRemoved(id, key, previous)

	return nil
}

func (w *writeTx) AddLabel(id graft.NodeID, label string) (err error) {

	defer func() {
		if err != nil {
			err = fmt.Errorf("AddLabel(%d, %s): %w", id, label, err)
		}
	}()

	rec, err := w.getNodeRecord(id)
	if err != nil {
		return err
	}

	for _, l := range rec.Labels {
		if l == label {
			return nil
		}
	}

	rec.Labels = append(rec.Labels, label)

	err = w.putNodeRecord(id, rec)
	if err != nil {
		return err
	}

	w.state.labelAssigned(id, label)

	return nil
}

func (w *writeTx) RemoveLabel(id graft.NodeID, label string) (err error) {

	defer func() {
		if err != nil {
			err = fmt.Errorf("RemoveLabel(%d, %s): %w", id, label, err)
		}
	}()

	rec, err := w.getNodeRecord(id)
	if err != nil {
		return err
	}

	labelIndex := -1
	for i, l := range rec.Labels {
		if l == label {
			labelIndex = i
			break
		}
	}

	if labelIndex == -1 {
		return nil
	}

	rec.Labels = append(rec.Labels[:labelIndex], rec.Labels[labelIndex+1:]...)

	err = w.putNodeRecord(id, rec)
	if err != nil {
		return err
	}

	w.state.labelRemoved(id, label)

	return nil
}

func (w *writeTx) CreateRelationship(from, to graft.NodeID, relType string, properties map[string]any) (id graft.RelationshipID, err error) {

	defer func() {
		if err != nil {
			err = fmt.Errorf("CreateRelationship(%d, %d, %s): %w", from, to, relType, err)
		}
	}()

	for _, n := range []graft.NodeID{from, to} {
		if w.nodes.Get(entityKey(uint64(n))) == nil {
			return 0, fmt.Errorf("node %d: %w", n, graft.ErrNotFound)
		}
	}

	seq, err := w.rels.NextSequence()
	if err != nil {
		return 0, err
	}

	id = graft.RelationshipID(seq)

	err = w.putRelationshipRecord(id, relationshipRecord{
		Type:       relType,
		From:       uint64(from),
		To:         uint64(to),
		Properties: copyProperties(properties),
	})
	if err != nil {
		return 0, err
	}

	w.state.relationshipCreated(id)

	return id, nil
}

func (w *writeTx) DeleteRelationship(id graft.RelationshipID) (err error) {

	defer func() {
		if err != nil {
			err = fmt.Errorf("DeleteRelationship(%d): %w", id, err)
		}
	}()

	rec, err := w.getRelationshipRecord(id)
	if err != nil {
		return err
	}

	err = w.rels.Delete(entityKey(uint64(id)))
	if err != nil {
		return err
	}

	w.state.relationshipDeleted(graft.Relationship{
		ID:         id,
		Type:       rec.Type,
		From:       graft.NodeID(rec.From),
		To:         graft.NodeID(rec.To),
		Properties: rec.Properties,
	})

	return nil
}

func (w *writeTx) SetRelationshipProperty(id graft.RelationshipID, key string, value any) (err error) {

	defer func() {
		if err != nil {
			err = fmt.Errorf("SetRelationshipProperty(%d, %s): %w", id, key, err)
		}
	}()

	rec, err := w.getRelationshipRecord(id)
	if err != nil {
		return err
	}

	previous := rec.Properties[key]

	if rec.Properties == nil {
		rec.Properties = map[string]any{}
	}
	rec.Properties[key] = value

	err = w.putRelationshipRecord(id, rec)
	if err != nil {
		return err
	}

	w.state.relationshipPropertyAssigned(id, key, value, previous)

	return nil
}

func (w *writeTx) RemoveRelationshipProperty(id graft.RelationshipID, key string) (err error) {

	defer func() {
		if err != nil {
			err = fmt.Errorf("RemoveRelationshipProperty(%d, %s): %w", id, key, err)
		}
	}()

	rec, err := w.getRelationshipRecord(id)
	if err != nil {
		return err
	}

	previous, hasProperty := rec.Properties[key]
	if !hasProperty {
		return graft.ErrNotFound
	}

	delete(rec.Properties, key)

	err = w.putRelationshipRecord(id, rec)
	if err != nil {
		return err
	}

	w.state.relationshipPropertyRemoved(id, key, previous)

	return nil
}

func (w *writeTx) SetMetadata(key string, value any) {
	if w.state == nil {
		return
	}
	w.state.setMetadata(key, value)
}

func (w *writeTx) Node(id graft.NodeID) (n graft.Node, err error) {

	defer func() {
		if err != nil {
			err = fmt.Errorf("Node(%d): %w", id, err)
		}
	}()

	rec, err := w.getNodeRecord(id)
	if err != nil {
		return graft.Node{}, err
	}

	return graft.Node{ID: id, Labels: rec.Labels, Properties: rec.Properties}, nil
}

func (w *writeTx) Relationship(id graft.RelationshipID) (r graft.Relationship, err error) {

	defer func() {
		if err != nil {
			err = fmt.Errorf("Relationship(%d): %w", id, err)
		}
	}()

	rec, err := w.getRelationshipRecord(id)
	if err != nil {
		return graft.Relationship{}, err
	}

	return graft.Relationship{
		ID:         id,
		Type:       rec.Type,
		From:       graft.NodeID(rec.From),
		To:         graft.NodeID(rec.To),
		Properties: rec.Properties,
	}, nil
}

func (w *writeTx) NodeExists(id graft.NodeID) (bool, error) {
	return w.nodes.Get(entityKey(uint64(id))) != nil, nil
}

func (w *writeTx) RelationshipExists(id graft.RelationshipID) (bool, error) {
	return w.rels.Get(entityKey(uint64(id))) != nil, nil
}

func (w *writeTx) Nodes() (graft.NodeIterator, error) {
	return newNodeIterator(w.nodes.Cursor()), nil
}

func (w *writeTx) Relationships() (graft.RelationshipIterator, error) {
	return newRelationshipIterator(w.rels.Cursor()), nil
}

func copyProperties(properties map[string]any) map[string]any {
	if properties == nil {
		return nil
	}

	c := make(map[string]any, len(properties))
	for k, v := range properties {
		c[k] = v
	}
	return c
}
