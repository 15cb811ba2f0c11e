package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StoredEvent es una fila del event store: el sobre persistido más los
// metadatos de inserción.
type StoredEvent struct {
	ID            uuid.UUID      `json:"id"`
	EventType     string         `json:"event_type"`
	AggregateID   string         `json:"aggregate_id"`
	AggregateType string         `json:"aggregate_type"`
	Data          map[string]any `json:"event_data"`
	UserID        string         `json:"user_id,omitempty"`
	CorrelationID string         `json:"correlation_id"`
	// OccurredAt es el timestamp del sobre tal cual se emitió (ISO-8601);
	// CreatedAt es el instante de inserción en el store.
	OccurredAt string    `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store es el log append-only de eventos de dominio. Se usa para auditoría
// y replay, nunca en el flujo de control síncrono: un fallo de Append se
// loguea y no bloquea la publicación al broker.
type Store interface {
	Append(ctx context.Context, evt DomainEvent) error

	// EventsByAggregate devuelve los eventos del agregado en orden de creación.
	EventsByAggregate(ctx context.Context, aggregateID string) ([]StoredEvent, error)

	// EventsByType devuelve los eventos de un tipo, más recientes primero.
	EventsByType(ctx context.Context, eventType string) ([]StoredEvent, error)

	// RecentEvents devuelve los últimos N eventos, más recientes primero.
	RecentEvents(ctx context.Context, limit int) ([]StoredEvent, error)
}
