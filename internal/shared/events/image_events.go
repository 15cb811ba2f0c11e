package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ---------- Eventos de dominio tipados ----------

// NewImageUploadedEvent se emite cuando la imagen original queda almacenada
// y el job encolado.
func NewImageUploadedEvent(imageID, userID, originalURL, style string, size int64) DomainEvent {
	return NewDomainEvent(ImageUploadedType, imageID, "Image", map[string]any{
		"imageId":     imageID,
		"userId":      userID,
		"originalUrl": originalURL,
		"style":       style,
		"size":        size,
	}, userID)
}

// NewImageProcessedEvent se emite cuando el worker devuelve un resultado correcto.
func NewImageProcessedEvent(imageID, userID, processedURL string, processingMs int64) DomainEvent {
	return NewDomainEvent(ImageProcessedType, imageID, "Image", map[string]any{
		"imageId":         imageID,
		"processed_url":   processedURL,
		"processing_time": processingMs,
		"userId":          userID,
	}, userID)
}

// NewProcessingFailedEvent se emite cuando el worker reporta un fallo terminal.
func NewProcessingFailedEvent(imageID, userID, errMsg string) DomainEvent {
	return NewDomainEvent(ProcessingFailedType, imageID, "Image", map[string]any{
		"imageId": imageID,
		"error":   errMsg,
		"userId":  userID,
	}, userID)
}

// NewUserRegisteredEvent se emite al dar de alta un usuario.
func NewUserRegisteredEvent(userID, email string) DomainEvent {
	return NewDomainEvent(UserRegisteredType, userID, "User", map[string]any{
		"userId": userID,
		"email":  email,
	}, userID)
}

// ---------- Contrato de la cola de trabajo ----------

// JobEventType es el eventType del payload que consume el worker de procesado.
const JobEventType = "ImageUploadEvent"

// JobPayload identifica la imagen a transformar.
type JobPayload struct {
	ImageID          string `json:"imageId"`
	UserID           string `json:"userId"`
	OriginalImageURL string `json:"originalImageUrl"`
	Style            string `json:"style"`
}

// ImageJobEvent es el mensaje que viaja por las colas particionadas.
// EventID es único por intento de publicación: el worker lo usa para deduplicar.
type ImageJobEvent struct {
	EventID   string     `json:"eventId"`
	EventType string     `json:"eventType"`
	Timestamp string     `json:"timestamp"`
	Version   string     `json:"version"`
	Payload   JobPayload `json:"payload"`
}

// NewImageJobEvent construye el evento de trabajo con schema version 1.0.
func NewImageJobEvent(payload JobPayload) ImageJobEvent {
	return ImageJobEvent{
		EventID:   fmt.Sprintf("evt_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8]),
		EventType: JobEventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Version:   "1.0",
		Payload:   payload,
	}
}
