package graft

// NodeID identifies a node within one database. IDs are assigned from a
// per-database sequence and are never reused.
type NodeID uint64

// RelationshipID identifies a relationship within one database.
type RelationshipID uint64

type Node struct {
	ID         NodeID
	Labels     []string
	Properties map[string]any
}

func (n Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

type Relationship struct {
	ID         RelationshipID
	Type       string
	From       NodeID
	To         NodeID
	Properties map[string]any
}
