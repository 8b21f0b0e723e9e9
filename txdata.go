package graft

// NodePropertyEntry describes one property change on a node. For removed
// properties Value is nil and Previous holds the value at removal time.
type NodePropertyEntry struct {
	Node     NodeID
	Key      string
	Value    any
	Previous any
}

type RelationshipPropertyEntry struct {
	Relationship RelationshipID
	Key          string
	Value        any
	Previous     any
}

type LabelEntry struct {
	Node  NodeID
	Label string
}

// TransactionData is the read-only view of the mutations one write
// transaction performed, handed to transaction event listeners. It is
// valid only until the matching AfterCommit/AfterRollback call returns;
// listeners must not retain it.
type TransactionData interface {
	CreatedNodes() []NodeID
	DeletedNodes() []NodeID
	NodeIsDeleted(id NodeID) bool

	CreatedRelationships() []RelationshipID
	DeletedRelationships() []RelationshipID
	RelationshipIsDeleted(id RelationshipID) bool

	AssignedNodeProperties() []NodePropertyEntry
	RemovedNodeProperties() []NodePropertyEntry
	AssignedRelationshipProperties() []RelationshipPropertyEntry
	RemovedRelationshipProperties() []RelationshipPropertyEntry

	AssignedLabels() []LabelEntry
	RemovedLabels() []LabelEntry

	Username() string
	Metadata() map[string]any
}

// EmptyData is the TransactionData used for transactions that carried no
// observable changes. It holds no resources.
var EmptyData TransactionData = emptyData{}

type emptyData struct{}

func (emptyData) CreatedNodes() []NodeID                                  { return nil }
func (emptyData) DeletedNodes() []NodeID                                  { return nil }
func (emptyData) NodeIsDeleted(id NodeID) bool                            { return false }
func (emptyData) CreatedRelationships() []RelationshipID                  { return nil }
func (emptyData) DeletedRelationships() []RelationshipID                  { return nil }
func (emptyData) RelationshipIsDeleted(id RelationshipID) bool            { return false }
func (emptyData) AssignedNodeProperties() []NodePropertyEntry             { return nil }
func (emptyData) RemovedNodeProperties() []NodePropertyEntry              { return nil }
func (emptyData) AssignedRelationshipProperties() []RelationshipPropertyEntry {
	return nil
}
func (emptyData) RemovedRelationshipProperties() []RelationshipPropertyEntry {
	return nil
}
func (emptyData) AssignedLabels() []LabelEntry { return nil }
func (emptyData) RemovedLabels() []LabelEntry  { return nil }
func (emptyData) Username() string             { return "" }
func (emptyData) Metadata() map[string]any     { return map[string]any{} }
