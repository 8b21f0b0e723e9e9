package logging

import (
	"time"

	"go.uber.org/zap"

	"github.com/graftdb/graft"
)

type loggingListener struct {
	database string
	logger   *zap.Logger
}

// NewListener returns a transaction event listener logging a one-line
// summary of every transaction that reached its commit point.
func NewListener(database string, logger *zap.Logger) graft.TransactionEventListener {
	return &loggingListener{
		database: database,
		logger:   logger,
	}
}

func (l *loggingListener) BeforeCommit(data graft.TransactionData, db graft.Database) (any, error) {
	return time.Now(), nil
}

func (l *loggingListener) AfterCommit(data graft.TransactionData, state any, db graft.Database) error {
	l.logger.Info("transaction committed", l.fields(data, state)...)
	return nil
}

func (l *loggingListener) AfterRollback(data graft.TransactionData, state any, db graft.Database) error {
	l.logger.Info("transaction rolled back", l.fields(data, state)...)
	return nil
}

func (l *loggingListener) fields(data graft.TransactionData, state any) []zap.Field {
	fields := []zap.Field{
		zap.String("database", l.database),
		zap.Int("createdNodes", len(data.CreatedNodes())),
		zap.Int("deletedNodes", len(data.DeletedNodes())),
		zap.Int("createdRelationships", len(data.CreatedRelationships())),
		zap.Int("deletedRelationships", len(data.DeletedRelationships())),
	}

	if data.Username() != "" {
		fields = append(fields, zap.String("username", data.Username()))
	}

	start, isTime := state.(time.Time)
	if isTime {
		fields = append(fields, zap.Duration("commitDuration", time.Since(start)))
	}

	return fields
}
