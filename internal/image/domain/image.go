package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status modela la máquina de estados de la imagen.
// processing → processed | failed; los estados terminales no se revierten.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// Visibility controla si la imagen procesada aparece en galerías públicas.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Image representa una imagen enviada a transformación por IA.
type Image struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	StorageID    string     `json:"storage_id"`
	OriginalURL  string     `json:"original_url"`
	ProcessedURL string     `json:"processed_url,omitempty"`
	Style        string     `json:"style"`
	Size         int64      `json:"size"`
	Status       Status     `json:"status"`
	Visibility   Visibility `json:"visibility"`
	ProcessingMs int64      `json:"processing_time,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// terminal indica si la imagen ya alcanzó un estado final.
func (i *Image) terminal() bool {
	return i.Status == StatusProcessed || i.Status == StatusFailed
}

// MarkProcessed aplica la transición terminal a processed. Devuelve false si
// la imagen ya estaba en un estado terminal: reaplicar el mismo resultado es
// un no-op, lo que tolera reentregas del broker.
func (i *Image) MarkProcessed(processedURL string, processingMs int64, at time.Time) bool {
	if i.terminal() {
		return false
	}
	i.Status = StatusProcessed
	i.ProcessedURL = processedURL
	i.ProcessingMs = processingMs
	i.ProcessedAt = &at
	return true
}

// MarkFailed aplica la transición terminal a failed. Misma semántica
// idempotente que MarkProcessed.
func (i *Image) MarkFailed(at time.Time) bool {
	if i.terminal() {
		return false
	}
	i.Status = StatusFailed
	i.ProcessedAt = &at
	return true
}
