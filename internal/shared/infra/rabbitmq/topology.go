package rabbitmq

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Nombres fijos del contrato de mensajería. Deben coincidir con los del worker.
const (
	ResultsExchange = "image.results"
	DeadLetterQueue = "dlq.processing"

	partitionQueueFmt = "image.processing.partition.%d"
	partitionKeyFmt   = "image.uploaded.partition.%d"
	deadLetterKey     = "dlq.processing"
	deadLetterBind    = "dlq.#"

	maxPriority  = 10
	dlqMaxLength = 10000
)

// PartitionQueueName devuelve el nombre de la cola de la partición i.
func PartitionQueueName(i int) string {
	return fmt.Sprintf(partitionQueueFmt, i)
}

// PartitionRoutingKey devuelve la routing key de la partición i.
func PartitionRoutingKey(i int) string {
	return fmt.Sprintf(partitionKeyFmt, i)
}

// Topology declara exchanges, colas y bindings de los caminos de comando y
// resultado. Todas las declaraciones son idempotentes: se reaplica completa
// en cada arranque. Cambiar Partitions invalida la asignación estable de
// particiones y es un cambio de topología incompatible.
type Topology struct {
	WorkExchange string
	DLXExchange  string
	Partitions   int
	MessageTTL   time.Duration
	DLQTTL       time.Duration
	ResultsQueue string
}

// Apply declara la topología completa sobre el canal. Cualquier fallo se
// devuelve al caller: una topología a medias es peor que ninguna.
func (t Topology) Apply(ch *amqp.Channel, log *zap.Logger) error {
	if err := ch.ExchangeDeclare(t.WorkExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare work exchange %q: %w", t.WorkExchange, err)
	}
	if err := ch.ExchangeDeclare(t.DLXExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead letter exchange %q: %w", t.DLXExchange, err)
	}

	// Colas particionadas para repartir carga preservando orden por imagen.
	for i := 0; i < t.Partitions; i++ {
		queueName := PartitionQueueName(i)
		_, err := ch.QueueDeclare(queueName, true, false, false, false, amqp.Table{
			"x-dead-letter-exchange":    t.DLXExchange,
			"x-dead-letter-routing-key": deadLetterKey,
			"x-max-priority":            int32(maxPriority),
			"x-message-ttl":             int32(t.MessageTTL.Milliseconds()),
		})
		if err != nil {
			return fmt.Errorf("failed to declare partition queue %q: %w", queueName, err)
		}
		if err := ch.QueueBind(queueName, PartitionRoutingKey(i), t.WorkExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind partition queue %q: %w", queueName, err)
		}
	}

	// DLQ acotada: TTL propio y longitud máxima con expulsión del más antiguo.
	_, err := ch.QueueDeclare(DeadLetterQueue, true, false, false, false, amqp.Table{
		"x-message-ttl": int32(t.DLQTTL.Milliseconds()),
		"x-max-length":  int32(dlqMaxLength),
	})
	if err != nil {
		return fmt.Errorf("failed to declare dead letter queue: %w", err)
	}
	if err := ch.QueueBind(DeadLetterQueue, deadLetterBind, t.DLXExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind dead letter queue: %w", err)
	}

	// Camino de resultados: fanout para que cada instancia del API reciba
	// su copia en una cola propia.
	if err := ch.ExchangeDeclare(ResultsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare results exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(t.ResultsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare results queue %q: %w", t.ResultsQueue, err)
	}
	if err := ch.QueueBind(t.ResultsQueue, "", ResultsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind results queue: %w", err)
	}

	log.Info("✅ Topología RabbitMQ declarada",
		zap.String("work_exchange", t.WorkExchange),
		zap.String("dlx_exchange", t.DLXExchange),
		zap.Int("partitions", t.Partitions),
		zap.String("results_queue", t.ResultsQueue),
	)
	return nil
}
