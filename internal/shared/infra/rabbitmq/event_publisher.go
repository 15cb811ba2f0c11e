package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/davicafu/imagelab/internal/shared/events"
)

// ErrNotInitialized se devuelve si se publica antes de llamar a Init.
var ErrNotInitialized = errors.New("event publisher not initialized")

// EventPublisher difunde eventos de dominio por un topic exchange,
// desacoplado de las colas de trabajo particionadas.
type EventPublisher struct {
	ch       Channel
	exchange string
	ready    bool
	log      *zap.Logger
}

func NewEventPublisher(ch Channel, exchange string, log *zap.Logger) *EventPublisher {
	return &EventPublisher{ch: ch, exchange: exchange, log: log}
}

// Init declara el exchange de eventos. Debe llamarse antes de Publish.
func (p *EventPublisher) Init() error {
	if err := p.ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare event exchange %q: %w", p.exchange, err)
	}
	p.ready = true
	p.log.Info("EventPublisher inicializado", zap.String("exchange", p.exchange))
	return nil
}

// Publish serializa el sobre completo del evento y lo envía con persistencia.
// Los fallos se propagan: hay consumidores aguas abajo que dependen de estos
// eventos, no se tragan en silencio.
func (p *EventPublisher) Publish(ctx context.Context, evt events.DomainEvent) error {
	if !p.ready {
		return ErrNotInitialized
	}

	routingKey := events.RoutingKeyFor(evt.Type)
	if routingKey == events.UnknownRoutingKey {
		// Tipo sin entrada en la tabla: defecto de código, no lo ocultamos.
		p.log.Warn("Evento sin routing key registrada", zap.String("type", evt.Type))
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal domain event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish domain event %s: %w", evt.Type, err)
	}

	p.log.Debug("Evento de dominio publicado",
		zap.String("type", evt.Type),
		zap.String("routing_key", routingKey),
		zap.String("correlation_id", evt.CorrelationID),
	)
	return nil
}
