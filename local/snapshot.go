package local

import (
	"fmt"

	"github.com/graftdb/graft"
	"github.com/graftdb/graft/hook"
)

// snapshot is the listener-facing view of one transaction's changes. All
// collections are materialized at construction time, while the storage
// transaction is still open: afterwards the underlying view is gone. The
// dispatcher disposes the snapshot when the commit path is done with it;
// listeners observing it after that see empty collections.
type snapshot struct {
	createdNodes []graft.NodeID
	deletedNodes []graft.NodeID

	createdRels []graft.RelationshipID
	deletedRels []graft.RelationshipID

	deletedNodeSet map[graft.NodeID]bool
	deletedRelSet  map[graft.RelationshipID]bool

	assignedNodeProps []graft.NodePropertyEntry
	removedNodeProps  []graft.NodePropertyEntry

	assignedRelProps []graft.RelationshipPropertyEntry
	removedRelProps  []graft.RelationshipPropertyEntry

	assignedLabels []graft.LabelEntry
	removedLabels  []graft.LabelEntry

	username string
	metadata map[string]any

	reader   graft.StorageReader
	released bool
}

// newSnapshot builds the transaction data over the raw change capture.
// Properties and labels of entities created within the transaction are
// resolved through the reader against the still-uncommitted store view.
func newSnapshot(state hook.State, reader graft.StorageReader) (graft.TransactionData, error) {
	st, isTxState := state.(*txState)
	if !isTxState {
		return nil, fmt.Errorf("unexpected transaction state %T", state)
	}

	s := &snapshot{
		createdNodes:      append([]graft.NodeID{}, st.createdNodes...),
		deletedNodes:      append([]graft.NodeID{}, st.deletedNodes...),
		createdRels:       append([]graft.RelationshipID{}, st.createdRels...),
		deletedRels:       append([]graft.RelationshipID{}, st.deletedRels...),
		assignedNodeProps: append([]graft.NodePropertyEntry{}, st.assignedNodeProps...),
		removedNodeProps:  append([]graft.NodePropertyEntry{}, st.removedNodeProps...),
		assignedRelProps:  append([]graft.RelationshipPropertyEntry{}, st.assignedRelProps...),
		removedRelProps:   append([]graft.RelationshipPropertyEntry{}, st.removedRelProps...),
		assignedLabels:    append([]graft.LabelEntry{}, st.assignedLabels...),
		removedLabels:     append([]graft.LabelEntry{}, st.removedLabels...),
		username:          st.username,
		metadata:          st.metadata,
		deletedNodeSet:    map[graft.NodeID]bool{},
		deletedRelSet:     map[graft.RelationshipID]bool{},
		reader:            reader,
	}

	for _, id := range st.deletedNodes {
		s.deletedNodeSet[id] = true
	}
	for _, id := range st.deletedRels {
		s.deletedRelSet[id] = true
	}

	for _, id := range st.createdNodes {
		n, err := reader.Node(id)
		if err != nil {
			return nil, fmt.Errorf("while resolving created node %d: %w", id, err)
		}

		for _, k := range sortedKeys(n.Properties) {
			s.assignedNodeProps = append(s.assignedNodeProps, graft.NodePropertyEntry{
				Node:  id,
				Key:   k,
				Value: n.Properties[k],
			})
		}

		for _, l := range n.Labels {
			s.assignedLabels = append(s.assignedLabels, graft.LabelEntry{Node: id, Label: l})
		}
	}

	for _, id := range st.createdRels {
		r, err := reader.Relationship(id)
		if err != nil {
			return nil, fmt.Errorf("while resolving created relationship %d: %w", id, err)
		}

		for _, k := range sortedKeys(r.Properties) {
			s.assignedRelProps = append(s.assignedRelProps, graft.RelationshipPropertyEntry{
				Relationship: id,
				Key:          k,
				Value:        r.Properties[k],
			})
		}
	}

	return s, nil
}

func (s *snapshot) CreatedNodes() []graft.NodeID {
	return s.createdNodes
}

func (s *snapshot) DeletedNodes() []graft.NodeID {
	return s.deletedNodes
}

func (s *snapshot) NodeIsDeleted(id graft.NodeID) bool {
	return s.deletedNodeSet[id]
}

func (s *snapshot) CreatedRelationships() []graft.RelationshipID {
	return s.createdRels
}

func (s *snapshot) DeletedRelationships() []graft.RelationshipID {
	return s.deletedRels
}

func (s *snapshot) RelationshipIsDeleted(id graft.RelationshipID) bool {
	return s.deletedRelSet[id]
}

func (s *snapshot) AssignedNodeProperties() []graft.NodePropertyEntry {
	return s.assignedNodeProps
}

func (s *snapshot) RemovedNodeProperties() []graft.NodePropertyEntry {
	return s.removedNodeProps
}

func (s *snapshot) AssignedRelationshipProperties() []graft.RelationshipPropertyEntry {
	return s.assignedRelProps
}

func (s *snapshot) RemovedRelationshipProperties() []graft.RelationshipPropertyEntry {
	return s.removedRelProps
}

func (s *snapshot) AssignedLabels() []graft.LabelEntry {
	return s.assignedLabels
}

func (s *snapshot) RemovedLabels() []graft.LabelEntry {
	return s.removedLabels
}

func (s *snapshot) Username() string {
	return s.username
}

func (s *snapshot) Metadata() map[string]any {
	if s.metadata == nil {
		return map[string]any{}
	}
	return s.metadata
}

// Dispose releases everything the snapshot holds. Safe to call once per
// snapshot only; the dispatcher guarantees that.
func (s *snapshot) Dispose() error {
	if s.released {
		return fmt.Errorf("transaction data already released")
	}

	s.released = true
	s.reader = nil

	s.createdNodes = nil
	s.deletedNodes = nil
	s.createdRels = nil
	s.deletedRels = nil
	s.deletedNodeSet = nil
	s.deletedRelSet = nil
	s.assignedNodeProps = nil
	s.removedNodeProps = nil
	s.assignedRelProps = nil
	s.removedRelProps = nil
	s.assignedLabels = nil
	s.removedLabels = nil
	s.metadata = nil

	return nil
}
