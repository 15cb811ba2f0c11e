package realtime

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	imageDomain "github.com/davicafu/imagelab/internal/image/domain"
)

// Nombres de los eventos tipados del canal en vivo.
const (
	EventProcessing = "image:processing"
	EventCompleted  = "image:completed"
	EventFailed     = "image:failed"
)

// DefaultProcessingMessage se envía cuando el caller no aporta mensaje propio.
const DefaultProcessingMessage = "Applying AI transformation..."

// Envelope es el sobre JSON que viaja por el WebSocket.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type processingData struct {
	ImageID  string `json:"imageId"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Progress int    `json:"progress,omitempty"`
}

type completedData struct {
	ImageID      string `json:"imageId"`
	Status       string `json:"status"`
	ProcessedURL string `json:"processedUrl"`
	Style        string `json:"style"`
	ProcessedAt  string `json:"processedAt"`
}

type failedData struct {
	ImageID string `json:"imageId"`
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Notifier difunde eventos tipados a las conexiones registradas del usuario.
// Canal best-effort: sin conexiones, el evento se descarta — el estado
// durable ya vive en la base relacional y puede consultarse por HTTP.
type Notifier struct {
	registry *Registry
	log      *zap.Logger
}

func NewNotifier(registry *Registry, log *zap.Logger) *Notifier {
	return &Notifier{registry: registry, log: log}
}

// Verificación estática del port de dominio.
var _ imageDomain.Notifier = (*Notifier)(nil)

func (n *Notifier) NotifyProcessing(userID, imageID uuid.UUID, message string, progress int) {
	if message == "" {
		message = DefaultProcessingMessage
	}
	n.broadcast(userID, Envelope{Event: EventProcessing, Data: processingData{
		ImageID:  imageID.String(),
		Status:   "processing",
		Message:  message,
		Progress: progress,
	}})
}

func (n *Notifier) NotifyCompleted(userID, imageID uuid.UUID, processedURL, style string, processedAt time.Time) {
	n.broadcast(userID, Envelope{Event: EventCompleted, Data: completedData{
		ImageID:      imageID.String(),
		Status:       "completed",
		ProcessedURL: processedURL,
		Style:        style,
		ProcessedAt:  processedAt.UTC().Format(time.RFC3339Nano),
	}})
}

func (n *Notifier) NotifyFailed(userID, imageID uuid.UUID, errorCode, message string) {
	if errorCode == "" {
		errorCode = "PROCESSING_ERROR"
	}
	if message == "" {
		message = "Image processing failed"
	}
	n.broadcast(userID, Envelope{Event: EventFailed, Data: failedData{
		ImageID: imageID.String(),
		Status:  "failed",
		Error:   errorCode,
		Message: message,
	}})
}

// broadcast envía el sobre a cada conexión viva del usuario. Un fallo de
// escritura se loguea y se sigue: la poda de la conexión es trabajo del
// close handler, el notifier nunca muta la pertenencia del registro.
func (n *Notifier) broadcast(userID uuid.UUID, env Envelope) {
	conns := n.registry.Connections(userID)
	if len(conns) == 0 {
		return
	}

	for _, c := range conns {
		if err := c.WriteJSON(env); err != nil {
			n.log.Debug("Fallo de escritura WS, conexión pendiente de poda",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}

	n.log.Info("WS ⇒ "+env.Event,
		zap.String("user_id", userID.String()),
		zap.Int("recipients", len(conns)),
	)
}
