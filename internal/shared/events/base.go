package events

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Tipos de eventos de dominio conocidos por el sistema.
const (
	ImageUploadedType    = "ImageUploadedEvent"
	ImageProcessedType   = "ImageProcessedEvent"
	ProcessingFailedType = "ProcessingFailedEvent"
	UserRegisteredType   = "UserRegisteredEvent"
)

// UnknownRoutingKey señala un tipo de evento sin entrada en la tabla de routing.
// Si aparece en el broker es un defecto del código, no un caso a ignorar.
const UnknownRoutingKey = "unknown"

// routingKeys mapea cada tipo de evento a su routing key `entidad.acción`.
// Tabla explícita: nada de derivar la key por heurísticas sobre el nombre.
var routingKeys = map[string]string{
	ImageUploadedType:    "image.uploaded",
	ImageProcessedType:   "image.processed",
	ProcessingFailedType: "processing.failed",
	UserRegisteredType:   "user.registered",
}

// RoutingKeyFor devuelve la routing key del tipo de evento, o UnknownRoutingKey
// si el tipo no está registrado.
func RoutingKeyFor(eventType string) string {
	if key, ok := routingKeys[eventType]; ok {
		return key
	}
	return UnknownRoutingKey
}

// DomainEvent es el registro inmutable de algo que ya ocurrió.
// Se persiste tal cual en el event store y se publica tal cual al broker:
// nunca se muta tras su construcción.
type DomainEvent struct {
	Type          string         `json:"type"`
	AggregateID   string         `json:"aggregateId"`
	AggregateType string         `json:"aggregateType"`
	Data          map[string]any `json:"data"`
	UserID        string         `json:"userId,omitempty"`
	Timestamp     string         `json:"timestamp"`
	CorrelationID string         `json:"correlationId"`
}

// NewDomainEvent construye un evento con timestamp ISO-8601 y correlation id.
func NewDomainEvent(eventType, aggregateID, aggregateType string, data map[string]any, userID string) DomainEvent {
	return DomainEvent{
		Type:          eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Data:          data,
		UserID:        userID,
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		CorrelationID: newCorrelationID(),
	}
}

// newCorrelationID genera `{epochMillis}-{8 hex}` para trazar el evento
// entre el store y el broker.
func newCorrelationID() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
