package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/graftdb/graft"
)

const instrumentationName = "github.com/graftdb/graft/tracing"

type tracingListener struct {
	database string
	tracer   trace.Tracer
}

// NewListener returns a transaction event listener creating one span per
// commit attempt, using the globally registered tracer provider. The span
// is started when the transaction reaches its commit point and ended once
// its fate is known.
func NewListener(database string) graft.TransactionEventListener {
	return NewListenerWithProvider(database, otel.GetTracerProvider())
}

func NewListenerWithProvider(database string, tp trace.TracerProvider) graft.TransactionEventListener {
	return &tracingListener{
		database: database,
		tracer:   tp.Tracer(instrumentationName),
	}
}

func (l *tracingListener) BeforeCommit(data graft.TransactionData, db graft.Database) (any, error) {
	_, span := l.tracer.Start(context.Background(), "graft.commit",
		trace.WithAttributes(
			attribute.String("db.name", l.database),
			attribute.String("db.user", data.Username()),
			attribute.Int("graft.nodes.created", len(data.CreatedNodes())),
			attribute.Int("graft.nodes.deleted", len(data.DeletedNodes())),
			attribute.Int("graft.relationships.created", len(data.CreatedRelationships())),
			attribute.Int("graft.relationships.deleted", len(data.DeletedRelationships())),
		),
	)

	return span, nil
}

func (l *tracingListener) AfterCommit(data graft.TransactionData, state any, db graft.Database) error {
	span, isSpan := state.(trace.Span)
	if !isSpan {
		return nil
	}

	span.SetStatus(codes.Ok, "committed")
	span.End()

	return nil
}

func (l *tracingListener) AfterRollback(data graft.TransactionData, state any, db graft.Database) error {
	span, isSpan := state.(trace.Span)
	if !isSpan {
		return nil
	}

	span.SetStatus(codes.Error, "rolled back")
	span.End()

	return nil
}
