package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/davicafu/imagelab/internal/shared/events"
)

// fakeChannel captura las publicaciones sin broker.
type fakeChannel struct {
	declared  []string
	published []publishedMsg
	failWith  error
}

type publishedMsg struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.declared = append(f.declared, name)
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.published = append(f.published, publishedMsg{exchange: exchange, key: key, msg: msg})
	return nil
}

// -------------------- PartitionFor --------------------

func TestPartitionFor_Deterministic(t *testing.T) {
	// Mismo id, misma partición, siempre.
	for _, id := range []string{"img-42", "a", "", "550e8400-e29b-41d4-a716-446655440000"} {
		first := PartitionFor(id, 4)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, PartitionFor(id, 4), "id %q", id)
		}
	}
}

func TestPartitionFor_WithinRange(t *testing.T) {
	ids := []string{"img-1", "img-2", "img-42", "ü-unicode", "long-identifier-with-many-bytes-0123456789"}
	for _, partitions := range []int{1, 2, 4, 7} {
		for _, id := range ids {
			p := PartitionFor(id, partitions)
			assert.GreaterOrEqual(t, p, 0)
			assert.Less(t, p, partitions)
		}
	}
}

func TestPartitionFor_KnownValue(t *testing.T) {
	// Valor de referencia del contrato con el worker: "img-42" con 4
	// particiones desborda el acumulador de 32 bits y cae en la 0.
	assert.Equal(t, 0, PartitionFor("img-42", 4))
}

func TestPartitionFor_ZeroPartitions(t *testing.T) {
	assert.Equal(t, 0, PartitionFor("anything", 0))
}

// -------------------- PublishJob --------------------

func TestPublishJob_RoutesToPartition(t *testing.T) {
	ch := &fakeChannel{}
	pub := NewJobPublisher(ch, "image.processing", 4, zap.NewNop())

	job := events.NewImageJobEvent(events.JobPayload{
		ImageID:          "img-42",
		UserID:           "user-1",
		OriginalImageURL: "https://storage.test/orig",
		Style:            "ghibli",
	})

	err := pub.PublishJob(context.Background(), job)
	assert.NoError(t, err)
	assert.Len(t, ch.published, 1)

	got := ch.published[0]
	expected := PartitionFor("img-42", 4)
	assert.Equal(t, "image.processing", got.exchange)
	assert.Equal(t, PartitionRoutingKey(expected), got.key)
	assert.Equal(t, uint8(amqp.Persistent), got.msg.DeliveryMode)
	assert.Equal(t, int32(expected), got.msg.Headers["x-partition"])
	assert.Equal(t, int32(0), got.msg.Headers["x-retry-count"])

	var decoded events.ImageJobEvent
	assert.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, events.JobEventType, decoded.EventType)
	assert.Equal(t, "img-42", decoded.Payload.ImageID)
}

func TestPublishJob_SameImageSamePartition(t *testing.T) {
	ch := &fakeChannel{}
	pub := NewJobPublisher(ch, "image.processing", 4, zap.NewNop())

	for i := 0; i < 3; i++ {
		job := events.NewImageJobEvent(events.JobPayload{ImageID: "img-stable"})
		assert.NoError(t, pub.PublishJob(context.Background(), job))
	}

	assert.Len(t, ch.published, 3)
	assert.Equal(t, ch.published[0].key, ch.published[1].key)
	assert.Equal(t, ch.published[1].key, ch.published[2].key)
}

func TestPublishJob_BrokerError(t *testing.T) {
	ch := &fakeChannel{failWith: assert.AnError}
	pub := NewJobPublisher(ch, "image.processing", 4, zap.NewNop())

	err := pub.PublishJob(context.Background(), events.NewImageJobEvent(events.JobPayload{ImageID: "img-1"}))
	assert.Error(t, err)
}
