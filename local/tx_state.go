package local

import (
	"sort"

	"github.com/graftdb/graft"
)

// txState is the raw change capture of one write transaction. For
// entities created within the transaction only the fact of creation is
// recorded here; their final properties and labels are resolved against
// the uncommitted store view when the listener-facing snapshot is built.
type txState struct {
	createdNodes   []graft.NodeID
	createdNodeSet map[graft.NodeID]bool
	deletedNodes   []graft.NodeID

	createdRels   []graft.RelationshipID
	createdRelSet map[graft.RelationshipID]bool
	deletedRels   []graft.RelationshipID

	assignedNodeProps []graft.NodePropertyEntry
	removedNodeProps  []graft.NodePropertyEntry

	assignedRelProps []graft.RelationshipPropertyEntry
	removedRelProps  []graft.RelationshipPropertyEntry

	assignedLabels []graft.LabelEntry
	removedLabels  []graft.LabelEntry

	username string
	metadata map[string]any
}

func newTxState(username string) *txState {
	return &txState{
		createdNodeSet: map[graft.NodeID]bool{},
		createdRelSet:  map[graft.RelationshipID]bool{},
		username:       username,
	}
}

func (s *txState) HasChanges() bool {
	return len(s.createdNodes) > 0 ||
		len(s.deletedNodes) > 0 ||
		len(s.createdRels) > 0 ||
		len(s.deletedRels) > 0 ||
		len(s.assignedNodeProps) > 0 ||
		len(s.removedNodeProps) > 0 ||
		len(s.assignedRelProps) > 0 ||
		len(s.removedRelProps) > 0 ||
		len(s.assignedLabels) > 0 ||
		len(s.removedLabels) > 0
}

func (s *txState) nodeCreated(id graft.NodeID) {
	s.createdNodes = append(s.createdNodes, id)
	s.createdNodeSet[id] = true
}

func (s *txState) nodeDeleted(n graft.Node) {
	if s.createdNodeSet[n.ID] {
		// created and deleted within the same transaction, nothing
		// observable remains
		delete(s.createdNodeSet, n.ID)
		for i, id := range s.createdNodes {
			if id == n.ID {
				s.createdNodes = append(s.createdNodes[:i], s.createdNodes[i+1:]...)
				break
			}
		}
		s.dropNodeEntries(n.ID)
		return
	}

	s.dropNodeEntries(n.ID)
	s.deletedNodes = append(s.deletedNodes, n.ID)

	for _, k := range sortedKeys(n.Properties) {
		s.removedNodeProps = append(s.removedNodeProps, graft.NodePropertyEntry{
			Node:     n.ID,
			Key:      k,
			Previous: n.Properties[k],
		})
	}

	for _, l := range n.Labels {
		s.removedLabels = append(s.removedLabels, graft.LabelEntry{Node: n.ID, Label: l})
	}
}

// dropNodeEntries forgets all property and label entries recorded for the
// node so far.
func (s *txState) dropNodeEntries(id graft.NodeID) {
	assigned := s.assignedNodeProps[:0]
	for _, e := range s.assignedNodeProps {
		if e.Node != id {
			assigned = append(assigned, e)
		}
	}
	s.assignedNodeProps = assigned

	removed := s.removedNodeProps[:0]
	for _, e := range s.removedNodeProps {
		if e.Node != id {
			removed = append(removed, e)
		}
	}
	s.removedNodeProps = removed

	assignedLabels := s.assignedLabels[:0]
	for _, e := range s.assignedLabels {
		if e.Node != id {
			assignedLabels = append(assignedLabels, e)
		}
	}
	s.assignedLabels = assignedLabels

	removedLabels := s.removedLabels[:0]
	for _, e := range s.removedLabels {
		if e.Node != id {
			removedLabels = append(removedLabels, e)
		}
	}
	s.removedLabels = removedLabels
}

func (s *txState) nodePropertyAssigned(id graft.NodeID, key string, value, previous any) {
	if s.createdNodeSet[id] {
		// resolved from the store view when the snapshot is built
		return
	}

	for i, e := range s.assignedNodeProps {
		if e.Node == id && e.Key == key {
			// keep the value the property had before the transaction
			s.assignedNodeProps[i].Value = value
			return
		}
	}

	for i, e := range s.removedNodeProps {
		if e.Node == id && e.Key == key {
			// assignment supersedes the earlier removal
			s.removedNodeProps = append(s.removedNodeProps[:i], s.removedNodeProps[i+1:]...)
			previous = e.Previous
			break
		}
	}

	s.assignedNodeProps = append(s.assignedNodeProps, graft.NodePropertyEntry{
		Node:     id,
		Key:      key,
		Value:    value,
		Previous: previous,
	})
}

func (s *txState) nodePropertyRemoved(id graft.NodeID, key string, previous any) {
	if s.createdNodeSet[id] {
		return
	}

	for i, e := range s.assignedNodeProps {
		if e.Node == id && e.Key == key {
			s.assignedNodeProps = append(s.assignedNodeProps[:i], s.assignedNodeProps[i+1:]...)
			if e.Previous == nil {
				// the property never existed outside this transaction
				return
			}
			previous = e.Previous
			break
		}
	}

	s.removedNodeProps = append(s.removedNodeProps, graft.NodePropertyEntry{
		Node:     id,
		Key:      key,
		Previous: previous,
	})
}

func (s *txState) labelAssigned(id graft.NodeID, label string) {
	if s.createdNodeSet[id] {
		return
	}

	for i, e := range s.removedLabels {
		if e.Node == id && e.Label == label {
			// removing and re-adding a label cancels out
			s.removedLabels = append(s.removedLabels[:i], s.removedLabels[i+1:]...)
			return
		}
	}

	s.assignedLabels = append(s.assignedLabels, graft.LabelEntry{Node: id, Label: label})
}

func (s *txState) labelRemoved(id graft.NodeID, label string) {
	if s.createdNodeSet[id] {
		return
	}

	for i, e := range s.assignedLabels {
		if e.Node == id && e.Label == label {
			s.assignedLabels = append(s.assignedLabels[:i], s.assignedLabels[i+1:]...)
			return
		}
	}

	s.removedLabels = append(s.removedLabels, graft.LabelEntry{Node: id, Label: label})
}

func (s *txState) relationshipCreated(id graft.RelationshipID) {
	s.createdRels = append(s.createdRels, id)
	s.createdRelSet[id] = true
}

func (s *txState) relationshipDeleted(r graft.Relationship) {
	if s.createdRelSet[r.ID] {
		delete(s.createdRelSet, r.ID)
		for i, id := range s.createdRels {
			if id == r.ID {
				s.createdRels = append(s.createdRels[:i], s.createdRels[i+1:]...)
				break
			}
		}
		s.dropRelationshipEntries(r.ID)
		return
	}

	s.dropRelationshipEntries(r.ID)
	s.deletedRels = append(s.deletedRels, r.ID)

	for _, k := range sortedKeys(r.Properties) {
		s.removedRelProps = append(s.removedRelProps, graft.RelationshipPropertyEntry{
			Relationship: r.ID,
			Key:          k,
			Previous:     r.Properties[k],
		})
	}
}

func (s *txState) dropRelationshipEntries(id graft.RelationshipID) {
	assigned := s.assignedRelProps[:0]
	for _, e := range s.assignedRelProps {
		if e.Relationship != id {
			assigned = append(assigned, e)
		}
	}
	s.assignedRelProps = assigned

	removed := s.removedRelProps[:0]
	for _, e := range s.removedRelProps {
		if e.Relationship != id {
			removed = append(removed, e)
		}
	}
	s.removedRelProps = removed
}

func (s *txState) relationshipPropertyAssigned(id graft.RelationshipID, key string, value, previous any) {
	if s.createdRelSet[id] {
		return
	}

	for i, e := range s.assignedRelProps {
		if e.Relationship == id && e.Key == key {
			s.assignedRelProps[i].Value = value
			return
		}
	}

	for i, e := range s.removedRelProps {
		if e.Relationship == id && e.Key == key {
			s.removedRelProps = append(s.removedRelProps[:i], s.removedRelProps[i+1:]...)
			previous = e.Previous
			break
		}
	}

	s.assignedRelProps = append(s.assignedRelProps, graft.RelationshipPropertyEntry{
		Relationship: id,
		Key:          key,
		Value:        value,
		Previous:     previous,
	})
}

func (s *txState) relationshipPropertyRemoved(id graft.RelationshipID, key string, previous any) {
	if s.createdRelSet[id] {
		return
	}

	for i, e := range s.assignedRelProps {
		if e.Relationship == id && e.Key == key {
			s.assignedRelProps = append(s.assignedRelProps[:i], s.assignedRelProps[i+1:]...)
			if e.Previous == nil {
				return
			}
			previous = e.Previous
			break
		}
	}

	s.removedRelProps = append(s.removedRelProps, graft.RelationshipPropertyEntry{
		Relationship: id,
		Key:          key,
		Previous:     previous,
	})
}

func (s *txState) setMetadata(key string, value any) {
	if s.metadata == nil {
		s.metadata = map[string]any{}
	}
	s.metadata[key] = value
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
