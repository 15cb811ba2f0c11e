package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/davicafu/imagelab/internal/shared/events"
)

// PartitionFor calcula la partición de un imageId: hash rodante de 32 bits
// sobre los bytes UTF-8, en valor absoluto, módulo el número de particiones.
// Determinista y estable: los reintentos de un mismo id caen siempre en la
// misma partición.
func PartitionFor(imageID string, partitions int) int {
	if partitions <= 0 {
		return 0
	}
	var h int32
	for _, b := range []byte(imageID) {
		h = (h << 5) - h + int32(b)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % int64(partitions))
}

// JobPublisher enruta cada job de procesado a exactamente una de las N
// colas particionadas del exchange de trabajo.
type JobPublisher struct {
	ch         Channel
	exchange   string
	partitions int
	log        *zap.Logger
}

func NewJobPublisher(ch Channel, exchange string, partitions int, log *zap.Logger) *JobPublisher {
	return &JobPublisher{ch: ch, exchange: exchange, partitions: partitions, log: log}
}

// PublishJob publica el job con persistencia y cabeceras de partición.
// Un fallo se devuelve al caller: el registro de la imagen ya está persistido
// en estado processing, así que el caller puede reintentar sin perder nada.
func (p *JobPublisher) PublishJob(ctx context.Context, evt events.ImageJobEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}

	partition := PartitionFor(evt.Payload.ImageID, p.partitions)
	routingKey := PartitionRoutingKey(partition)

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Headers: amqp.Table{
			"x-partition":   int32(partition),
			"x-retry-count": int32(0),
		},
	})
	if err != nil {
		p.log.Error("Error publicando job de procesado",
			zap.String("event_id", evt.EventID),
			zap.String("image_id", evt.Payload.ImageID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish job event: %w", err)
	}

	p.log.Info("Job de procesado publicado",
		zap.String("event_id", evt.EventID),
		zap.String("image_id", evt.Payload.ImageID),
		zap.Int("partition", partition),
		zap.String("routing_key", routingKey),
	)
	return nil
}
