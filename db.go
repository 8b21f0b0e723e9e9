package graft

import (
	"errors"

	"go.etcd.io/bbolt"
)

type Database interface {
	Write(fn func(tx WriteTx) error) error
	WriteAs(username string, fn func(tx WriteTx) error) error
	Read(fn func(tx ReadTx) error) error

	Observe() (<-chan ObservedChanges, func())
	Close() error
	Stats() (*bbolt.Stats, error)
}

type WriteTx interface {
	CreateNode(labels []string, properties map[string]any) (NodeID, error)
	DeleteNode(id NodeID) error
	SetNodeProperty(id NodeID, key string, value any) error
	RemoveNodeProperty(id NodeID, key string) error
	AddLabel(id NodeID, label string) error
	RemoveLabel(id NodeID, label string) error

	CreateRelationship(from, to NodeID, relType string, properties map[string]any) (RelationshipID, error)
	DeleteRelationship(id RelationshipID) error
	SetRelationshipProperty(id RelationshipID, key string, value any) error
	RemoveRelationshipProperty(id RelationshipID, key string) error

	SetMetadata(key string, value any)

	ReadTx
}

type ReadTx interface {
	Node(id NodeID) (Node, error)
	Relationship(id RelationshipID) (Relationship, error)
	NodeExists(id NodeID) (bool, error)
	RelationshipExists(id RelationshipID) (bool, error)
	Nodes() (NodeIterator, error)
	Relationships() (RelationshipIterator, error)
}

// StorageReader resolves entities referenced by a change set against the
// current, uncommitted view of the transaction that produced it.
type StorageReader interface {
	Node(id NodeID) (Node, error)
	Relationship(id RelationshipID) (Relationship, error)
}

type NodeIterator interface {
	GetNode() (Node, error)
	IsDone() bool
	Prev()
	Next()
	Seek(id NodeID)
	First()
	Last()
}

type RelationshipIterator interface {
	GetRelationship() (Relationship, error)
	IsDone() bool
	Prev()
	Next()
	Seek(id RelationshipID)
	First()
	Last()
}

var ErrNotFound = errors.New("not found")

func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, ErrNotFound)
}

var ErrConflict = errors.New("conflict")

func IsConflict(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, ErrConflict)
}
