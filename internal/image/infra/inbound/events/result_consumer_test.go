package events

import (
	"context"
	"fmt"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/davicafu/imagelab/internal/image/domain"
	sharedEvents "github.com/davicafu/imagelab/internal/shared/events"
)

// fakeAcknowledger registra la decisión ack/nack tomada sobre la entrega.
type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

// fakeHandler responde con los errores configurados por tipo de resultado.
type fakeHandler struct {
	processedErr error
	failedErr    error

	processedCalls []sharedEvents.ProcessedPayload
	failedCalls    []sharedEvents.FailedPayload
}

func (h *fakeHandler) HandleImageProcessed(ctx context.Context, p sharedEvents.ProcessedPayload) error {
	h.processedCalls = append(h.processedCalls, p)
	return h.processedErr
}

func (h *fakeHandler) HandleProcessingFailed(ctx context.Context, p sharedEvents.FailedPayload) error {
	h.failedCalls = append(h.failedCalls, p)
	return h.failedErr
}

func delivery(body string) (amqp.Delivery, *fakeAcknowledger) {
	ack := &fakeAcknowledger{}
	return amqp.Delivery{Acknowledger: ack, Body: []byte(body)}, ack
}

func TestHandleDelivery_ProcessedAck(t *testing.T) {
	handler := &fakeHandler{}
	consumer := NewResultConsumer(nil, "status_updates.api", handler, zap.NewNop())

	d, ack := delivery(`{"eventType":"ImageProcessed","payload":{"imageId":"img-1","processedUrl":"https://x/y.jpg","processingTime":100}}`)
	consumer.handleDelivery(context.Background(), d)

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	assert.Len(t, handler.processedCalls, 1)
	assert.Equal(t, "img-1", handler.processedCalls[0].ImageID)
}

func TestHandleDelivery_FailedAck(t *testing.T) {
	handler := &fakeHandler{}
	consumer := NewResultConsumer(nil, "status_updates.api", handler, zap.NewNop())

	d, ack := delivery(`{"eventType":"ProcessingFailed","payload":{"imageId":"img-1","error":"oom","errorCode":"E1"}}`)
	consumer.handleDelivery(context.Background(), d)

	assert.True(t, ack.acked)
	assert.Len(t, handler.failedCalls, 1)
	assert.Equal(t, "E1", handler.failedCalls[0].ErrorCode)
}

func TestHandleDelivery_MalformedJSONDiscarded(t *testing.T) {
	handler := &fakeHandler{}
	consumer := NewResultConsumer(nil, "status_updates.api", handler, zap.NewNop())

	d, ack := delivery(`{broken`)
	consumer.handleDelivery(context.Background(), d)

	// Descartado con ack: reintentar no arregla un JSON inválido.
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	assert.Empty(t, handler.processedCalls)
	assert.Empty(t, handler.failedCalls)
}

func TestHandleDelivery_UnknownTypeDiscarded(t *testing.T) {
	handler := &fakeHandler{}
	consumer := NewResultConsumer(nil, "status_updates.api", handler, zap.NewNop())

	d, ack := delivery(`{"eventType":"SomethingElse","payload":{}}`)
	consumer.handleDelivery(context.Background(), d)

	assert.True(t, ack.acked)
	assert.Empty(t, handler.processedCalls)
	assert.Empty(t, handler.failedCalls)
}

func TestHandleDelivery_PermanentErrorAck(t *testing.T) {
	handler := &fakeHandler{processedErr: fmt.Errorf("load: %w", domain.ErrImageNotFound)}
	consumer := NewResultConsumer(nil, "status_updates.api", handler, zap.NewNop())

	d, ack := delivery(`{"eventType":"ImageProcessed","payload":{"imageId":"img-gone"}}`)
	consumer.handleDelivery(context.Background(), d)

	// Agregado inexistente: permanente, ack sin reencolar.
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestHandleDelivery_InvalidIDAck(t *testing.T) {
	handler := &fakeHandler{failedErr: fmt.Errorf("%w: %q", domain.ErrInvalidImageID, "xyz")}
	consumer := NewResultConsumer(nil, "status_updates.api", handler, zap.NewNop())

	d, ack := delivery(`{"eventType":"ProcessingError","payload":{"imageId":"xyz"}}`)
	consumer.handleDelivery(context.Background(), d)

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestHandleDelivery_TransientErrorNackRequeue(t *testing.T) {
	handler := &fakeHandler{processedErr: assert.AnError}
	consumer := NewResultConsumer(nil, "status_updates.api", handler, zap.NewNop())

	d, ack := delivery(`{"eventType":"ImageProcessed","payload":{"imageId":"img-1"}}`)
	consumer.handleDelivery(context.Background(), d)

	assert.False(t, ack.acked)
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue)
}
