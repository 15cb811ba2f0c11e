package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNotifyProcessing_AllConnectionsReceive(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	n := NewNotifier(r, zap.NewNop())
	userID, imageID := uuid.New(), uuid.New()

	c1, c2 := &stubConn{}, &stubConn{}
	r.Add(userID, c1)
	r.Add(userID, c2)

	n.NotifyProcessing(userID, imageID, "Image uploaded, queued for processing...", 0)

	for _, c := range []*stubConn{c1, c2} {
		msgs := c.messages()
		assert.Len(t, msgs, 1)
		env := msgs[0].(Envelope)
		assert.Equal(t, EventProcessing, env.Event)
		data := env.Data.(processingData)
		assert.Equal(t, imageID.String(), data.ImageID)
		assert.Equal(t, "processing", data.Status)
		assert.Equal(t, "Image uploaded, queued for processing...", data.Message)
	}
}

func TestNotifyProcessing_Progress(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	n := NewNotifier(r, zap.NewNop())
	userID := uuid.New()
	c := &stubConn{}
	r.Add(userID, c)

	n.NotifyProcessing(userID, uuid.New(), "Applying style...", 42)

	env := c.messages()[0].(Envelope)
	data := env.Data.(processingData)
	assert.Equal(t, 42, data.Progress)

	// Sin progreso, el campo desaparece del JSON en vez de viajar a 0.
	n.NotifyProcessing(userID, uuid.New(), "x", 0)
	raw, err := json.Marshal(c.messages()[1].(Envelope).Data)
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), "progress")
}

func TestNotifyProcessing_DefaultMessage(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	n := NewNotifier(r, zap.NewNop())
	userID := uuid.New()
	c := &stubConn{}
	r.Add(userID, c)

	n.NotifyProcessing(userID, uuid.New(), "", 0)

	env := c.messages()[0].(Envelope)
	assert.Equal(t, DefaultProcessingMessage, env.Data.(processingData).Message)
}

func TestNotifyCompleted_Payload(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	n := NewNotifier(r, zap.NewNop())
	userID, imageID := uuid.New(), uuid.New()
	c := &stubConn{}
	r.Add(userID, c)

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	n.NotifyCompleted(userID, imageID, "https://x/y.jpg", "ghibli", at)

	env := c.messages()[0].(Envelope)
	assert.Equal(t, EventCompleted, env.Event)
	data := env.Data.(completedData)
	assert.Equal(t, "completed", data.Status)
	assert.Equal(t, "https://x/y.jpg", data.ProcessedURL)
	assert.Equal(t, "ghibli", data.Style)
	assert.Equal(t, at.Format(time.RFC3339Nano), data.ProcessedAt)
}

func TestNotifyFailed_Payload(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	n := NewNotifier(r, zap.NewNop())
	userID := uuid.New()
	c := &stubConn{}
	r.Add(userID, c)

	n.NotifyFailed(userID, uuid.New(), "GEMINI_API_ERROR", "model timeout")

	env := c.messages()[0].(Envelope)
	assert.Equal(t, EventFailed, env.Event)
	data := env.Data.(failedData)
	assert.Equal(t, "failed", data.Status)
	assert.Equal(t, "GEMINI_API_ERROR", data.Error)
	assert.Equal(t, "model timeout", data.Message)
}

func TestNotify_NoConnectionsIsNoop(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	n := NewNotifier(r, zap.NewNop())

	// Sin conexiones no hay pánico ni efectos: el estado durable vive en la DB.
	n.NotifyCompleted(uuid.New(), uuid.New(), "url", "style", time.Now())
}

func TestNotify_AfterRemoveStopsDelivery(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	n := NewNotifier(r, zap.NewNop())
	userID := uuid.New()
	c := &stubConn{}

	r.Add(userID, c)
	r.Remove(userID, c)

	n.NotifyProcessing(userID, uuid.New(), "hola", 0)
	assert.Empty(t, c.messages())
}

func TestNotify_WriteErrorDoesNotMutateRegistry(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	n := NewNotifier(r, zap.NewNop())
	userID := uuid.New()

	bad := &stubConn{failWith: assert.AnError}
	good := &stubConn{}
	r.Add(userID, bad)
	r.Add(userID, good)

	n.NotifyProcessing(userID, uuid.New(), "x", 0)

	// El fallo de una conexión no impide la entrega al resto ni la expulsa:
	// la poda es trabajo del close handler del WS.
	assert.Len(t, good.messages(), 1)
	assert.Equal(t, 2, r.CountForUser(userID))
}
