package graft

type ChangeType int

const (
	ChangeTypeNoChange ChangeType = iota
	ChangeTypeNodeCreated
	ChangeTypeNodeUpdated
	ChangeTypeNodeDeleted
	ChangeTypeRelationshipCreated
	ChangeTypeRelationshipUpdated
	ChangeTypeRelationshipDeleted
)

func (t ChangeType) isNodeChange() bool {
	switch t {
	case ChangeTypeNodeCreated, ChangeTypeNodeUpdated, ChangeTypeNodeDeleted:
		return true
	}
	return false
}

func (t ChangeType) isDelete() bool {
	return t == ChangeTypeNodeDeleted || t == ChangeTypeRelationshipDeleted
}

func (t ChangeType) isCreate() bool {
	return t == ChangeTypeNodeCreated || t == ChangeTypeRelationshipCreated
}

type ObservedChange struct {
	ID   uint64
	Type ChangeType
}

type ObservedChanges []ObservedChange

func (o ObservedChanges) TypeOfChange(id uint64, nodeChange bool) ChangeType {
	for _, oc := range o {
		if oc.ID == id && oc.Type.isNodeChange() == nodeChange {
			return oc.Type
		}
	}
	return ChangeTypeNoChange
}

// Update merges one more change into the batch. Updates never downgrade a
// create, deletes replace whatever was recorded for the entity before.
func (o ObservedChanges) Update(id uint64, t ChangeType) ObservedChanges {
	if t == ChangeTypeNoChange {
		return o
	}

	for i, oc := range o {
		if oc.ID != id || oc.Type.isNodeChange() != t.isNodeChange() {
			continue
		}

		switch {
		case t.isDelete():
			if oc.Type.isCreate() {
				// created and deleted within the same transaction,
				// nothing observable remains
				return append(o[:i], o[i+1:]...)
			}
			o[i].Type = t
		case oc.Type.isCreate():
			// keep the create
		default:
			o[i].Type = t
		}
		return o
	}

	return append(o, ObservedChange{ID: id, Type: t})
}
