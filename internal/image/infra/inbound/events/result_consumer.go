package events

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/davicafu/imagelab/internal/image/domain"
	sharedEvents "github.com/davicafu/imagelab/internal/shared/events"
)

// ResultHandler es el servicio de aplicación que aplica transiciones terminales.
type ResultHandler interface {
	HandleImageProcessed(ctx context.Context, p sharedEvents.ProcessedPayload) error
	HandleProcessingFailed(ctx context.Context, p sharedEvents.FailedPayload) error
}

// ResultConsumer consume la cola de resultados y decide el destino de cada
// mensaje: ack en éxito o error permanente, nack+requeue en error transitorio.
// Con prefetch 1 el procesado es estrictamente en serie por instancia; el
// escalado horizontal se consigue con más instancias sobre la misma cola.
type ResultConsumer struct {
	ch      *amqp.Channel
	queue   string
	handler ResultHandler
	log     *zap.Logger
}

func NewResultConsumer(ch *amqp.Channel, queue string, handler ResultHandler, log *zap.Logger) *ResultConsumer {
	return &ResultConsumer{ch: ch, queue: queue, handler: handler, log: log}
}

// Start registra el consumidor y lanza el bucle en una goroutine.
func (c *ResultConsumer) Start(ctx context.Context) error {
	if err := c.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	deliveries, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume from %q: %w", c.queue, err)
	}

	c.log.Info("🎧 Consumidor de resultados iniciado", zap.String("queue", c.queue))
	go c.loop(ctx, deliveries)
	return nil
}

func (c *ResultConsumer) loop(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			c.log.Info("Consumidor de resultados detenido")
			return
		case d, ok := <-deliveries:
			if !ok {
				c.log.Warn("Canal de entregas cerrado por el broker")
				return
			}
			c.handleDelivery(ctx, d)
		}
	}
}

func (c *ResultConsumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	evt, err := sharedEvents.DecodeResult(d.Body)
	if err != nil {
		// Payload malformado: ningún reintento arregla un JSON inválido.
		c.log.Error("Mensaje de resultado malformado, descartado", zap.Error(err))
		_ = d.Ack(false)
		return
	}

	var handleErr error
	switch evt.Kind {
	case sharedEvents.ResultImageProcessed:
		handleErr = c.handler.HandleImageProcessed(ctx, *evt.Processed)
	case sharedEvents.ResultProcessingFailed:
		handleErr = c.handler.HandleProcessingFailed(ctx, *evt.Failed)
	default:
		// Bien formado pero no reconocido: ack para no envenenar la cola.
		c.log.Warn("Tipo de resultado desconocido", zap.String("event_type", evt.EventType))
		_ = d.Ack(false)
		return
	}

	if handleErr != nil {
		if errors.Is(handleErr, domain.ErrImageNotFound) || errors.Is(handleErr, domain.ErrInvalidImageID) {
			// Agregado inexistente: permanente, la reentrega no lo resuelve.
			c.log.Warn("Resultado para agregado desconocido, descartado",
				zap.String("event_type", evt.EventType),
				zap.Error(handleErr),
			)
			_ = d.Ack(false)
			return
		}

		// Transitorio (repo o broker caídos): requeue y que el TTL/DLX de la
		// cola gobierne los reintentos.
		c.log.Error("Error procesando resultado, reencolado",
			zap.String("event_type", evt.EventType),
			zap.Error(handleErr),
		)
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
}
