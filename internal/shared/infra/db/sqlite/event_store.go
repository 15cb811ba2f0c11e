package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	"github.com/davicafu/imagelab/internal/shared/events"
)

// EventStore implementa el log de eventos sobre SQLite para despliegues
// locales sin PostgreSQL.
type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// InitSchema crea la tabla de eventos si no existe.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			aggregate_type TEXT NOT NULL,
			event_data TEXT NOT NULL,
			user_id TEXT,
			correlation_id TEXT,
			occurred_at TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_aggregate_id ON events (aggregate_id);
		CREATE INDEX IF NOT EXISTS idx_events_event_type ON events (event_type);
	`)
	if err != nil {
		return fmt.Errorf("failed to init events schema: %w", err)
	}
	return nil
}

func (s *EventStore) Append(ctx context.Context, evt events.DomainEvent) error {
	dataBytes, err := json.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, event_type, aggregate_id, aggregate_type, event_data, user_id, correlation_id, occurred_at, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		uuid.New().String(), evt.Type, evt.AggregateID, evt.AggregateType, string(dataBytes),
		evt.UserID, evt.CorrelationID, evt.Timestamp, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (s *EventStore) EventsByAggregate(ctx context.Context, aggregateID string) ([]events.StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, aggregate_id, aggregate_type, event_data, user_id, correlation_id, occurred_at, created_at
		 FROM events WHERE aggregate_id=? ORDER BY created_at ASC`, aggregateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *EventStore) EventsByType(ctx context.Context, eventType string) ([]events.StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, aggregate_id, aggregate_type, event_data, user_id, correlation_id, occurred_at, created_at
		 FROM events WHERE event_type=? ORDER BY created_at DESC`, eventType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *EventStore) RecentEvents(ctx context.Context, limit int) ([]events.StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, aggregate_id, aggregate_type, event_data, user_id, correlation_id, occurred_at, created_at
		 FROM events ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]events.StoredEvent, error) {
	var out []events.StoredEvent
	for rows.Next() {
		var evt events.StoredEvent
		var id string
		var dataStr string
		var userID, correlationID sql.NullString

		if err := rows.Scan(&id, &evt.EventType, &evt.AggregateID, &evt.AggregateType,
			&dataStr, &userID, &correlationID, &evt.OccurredAt, &evt.CreatedAt); err != nil {
			return nil, err
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid id in event row: %w", err)
		}
		evt.ID = parsed

		if err := json.Unmarshal([]byte(dataStr), &evt.Data); err != nil {
			return nil, fmt.Errorf("invalid JSON payload in event row %s: %w", id, err)
		}
		evt.UserID = userID.String
		evt.CorrelationID = correlationID.String
		out = append(out, evt)
	}
	return out, rows.Err()
}

// Verificación en tiempo de compilación.
var _ events.Store = (*EventStore)(nil)
