package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/imagelab/internal/shared/events"
)

// InMemoryEventStore simula el event store append-only.
type InMemoryEventStore struct {
	Events   []events.StoredEvent
	FailWith error
	mu       sync.Mutex
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{}
}

// Verificación estática del port.
var _ events.Store = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) Append(ctx context.Context, evt events.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.Events = append(s.Events, events.StoredEvent{
		ID:            uuid.New(),
		EventType:     evt.Type,
		AggregateID:   evt.AggregateID,
		AggregateType: evt.AggregateType,
		Data:          evt.Data,
		UserID:        evt.UserID,
		CorrelationID: evt.CorrelationID,
		OccurredAt:    evt.Timestamp,
		CreatedAt:     time.Now().UTC(),
	})
	return nil
}

func (s *InMemoryEventStore) EventsByAggregate(ctx context.Context, aggregateID string) ([]events.StoredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []events.StoredEvent
	for _, evt := range s.Events {
		if evt.AggregateID == aggregateID {
			out = append(out, evt)
		}
	}
	return out, nil
}

func (s *InMemoryEventStore) EventsByType(ctx context.Context, eventType string) ([]events.StoredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []events.StoredEvent
	for _, evt := range s.Events {
		if evt.EventType == eventType {
			out = append(out, evt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryEventStore) RecentEvents(ctx context.Context, limit int) ([]events.StoredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]events.StoredEvent(nil), s.Events...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
