package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/davicafu/imagelab/internal/shared/events"
)

// EventStore implementa el log de eventos sobre MongoDB.
type EventStore struct {
	coll *mongo.Collection
}

func NewEventStore(client *mongo.Client, dbName string) *EventStore {
	return &EventStore{coll: client.Database(dbName).Collection("events")}
}

// mongoEvent es un helper para mapear los documentos de la colección a un struct.
type mongoEvent struct {
	ID            uuid.UUID `bson:"_id"`
	EventType     string    `bson:"eventType"`
	AggregateID   string    `bson:"aggregateId"`
	AggregateType string    `bson:"aggregateType"`
	EventData     string    `bson:"eventData"` // JSON serializado, mismo payload que en SQL
	UserID        string    `bson:"userId,omitempty"`
	CorrelationID string    `bson:"correlationId,omitempty"`
	OccurredAt    string    `bson:"occurredAt"` // timestamp del sobre, verbatim
	CreatedAt     time.Time `bson:"createdAt"`
}

func (s *EventStore) Append(ctx context.Context, evt events.DomainEvent) error {
	dataBytes, err := json.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	doc := mongoEvent{
		ID:            uuid.New(),
		EventType:     evt.Type,
		AggregateID:   evt.AggregateID,
		AggregateType: evt.AggregateType,
		EventData:     string(dataBytes),
		UserID:        evt.UserID,
		CorrelationID: evt.CorrelationID,
		OccurredAt:    evt.Timestamp,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (s *EventStore) EventsByAggregate(ctx context.Context, aggregateID string) ([]events.StoredEvent, error) {
	filter := bson.M{"aggregateId": aggregateID}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return s.find(ctx, filter, opts)
}

func (s *EventStore) EventsByType(ctx context.Context, eventType string) ([]events.StoredEvent, error) {
	filter := bson.M{"eventType": eventType}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.find(ctx, filter, opts)
}

func (s *EventStore) RecentEvents(ctx context.Context, limit int) ([]events.StoredEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	return s.find(ctx, bson.M{}, opts)
}

func (s *EventStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]events.StoredEvent, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []events.StoredEvent
	for cursor.Next(ctx) {
		var me mongoEvent
		if err := cursor.Decode(&me); err != nil {
			return nil, err
		}
		evt, err := fromMongoEvent(&me)
		if err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, cursor.Err()
}

// fromMongoEvent convierte el documento BSON a nuestro tipo de dominio.
func fromMongoEvent(me *mongoEvent) (events.StoredEvent, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(me.EventData), &data); err != nil {
		return events.StoredEvent{}, fmt.Errorf("invalid JSON payload in event %s: %w", me.ID, err)
	}
	return events.StoredEvent{
		ID:            me.ID,
		EventType:     me.EventType,
		AggregateID:   me.AggregateID,
		AggregateType: me.AggregateType,
		Data:          data,
		UserID:        me.UserID,
		CorrelationID: me.CorrelationID,
		OccurredAt:    me.OccurredAt,
		CreatedAt:     me.CreatedAt,
	}, nil
}

// Verificación en tiempo de compilación.
var _ events.Store = (*EventStore)(nil)
