package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	connectAttempts = 3
	connectDelay    = 5 * time.Second
)

// Channel es el subconjunto de *amqp.Channel que necesitan los publishers.
// Permite fakes en tests sin levantar un broker.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Connection mantiene la conexión y el canal compartido del proceso.
// Todos los publish/consume del servicio pasan por este canal.
type Connection struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *zap.Logger
}

// Connect abre la conexión con reintentos de intervalo fijo.
// Un broker inaccesible tras agotar los intentos es fatal para el arranque.
func Connect(ctx context.Context, url string, log *zap.Logger) (*Connection, error) {
	var lastErr error

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			ch, chErr := conn.Channel()
			if chErr == nil {
				log.Info("✅ RabbitMQ conectado", zap.Int("attempt", attempt))
				return &Connection{conn: conn, channel: ch, log: log}, nil
			}
			conn.Close()
			err = chErr
		}

		lastErr = err
		log.Warn("⚠️ Intento de conexión a RabbitMQ fallido",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", connectAttempts),
			zap.Error(err),
		)

		if attempt < connectAttempts {
			select {
			case <-time.After(connectDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", connectAttempts, lastErr)
}

// Channel devuelve el canal compartido.
func (c *Connection) Channel() *amqp.Channel {
	return c.channel
}

// Close cierra canal y conexión en orden.
func (c *Connection) Close() error {
	if err := c.channel.Close(); err != nil {
		return fmt.Errorf("failed to close channel: %w", err)
	}
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	c.log.Info("RabbitMQ connection closed")
	return nil
}
