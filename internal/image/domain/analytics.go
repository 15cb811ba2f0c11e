package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProcessingRecord es la fila analítica de un resultado terminal.
type ProcessingRecord struct {
	ImageID      uuid.UUID
	UserID       uuid.UUID
	Style        string
	Status       Status
	ProcessingMs int64
	EventTime    time.Time
}

// AnalyticsRecorder registra resultados para análisis posterior.
// Los fallos del sink no bloquean el flujo de resultados.
type AnalyticsRecorder interface {
	LogResult(ctx context.Context, record ProcessingRecord) error
}

// AnalyticsReader expone las consultas agregadas sobre lo registrado.
type AnalyticsReader interface {
	// AverageProcessingTime devuelve la media de procesado de un estilo en
	// el rango; 0 si no hay datos.
	AverageProcessingTime(ctx context.Context, style string, start, end time.Time) (time.Duration, error)

	// FailureRate devuelve la fracción de fallos (0..1) de un estilo en el rango.
	FailureRate(ctx context.Context, style string, start, end time.Time) (float64, error)
}
