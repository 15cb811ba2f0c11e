package events

import "encoding/json"

// ResultKind enumera los resultados terminales que puede reportar el worker.
// Unión cerrada: el consumidor decide ack/nack según el kind, no comparando strings.
type ResultKind int

const (
	ResultUnknown ResultKind = iota
	ResultImageProcessed
	ResultProcessingFailed
)

// Tipos de mensaje tal como los publica el worker en el exchange de resultados.
// El worker histórico publica "ProcessingError"; aceptamos ambos nombres.
const (
	resultTypeProcessed   = "ImageProcessed"
	resultTypeFailed      = "ProcessingFailed"
	resultTypeFailedAlias = "ProcessingError"
)

// ProcessedPayload es el payload de un resultado correcto.
type ProcessedPayload struct {
	ImageID        string `json:"imageId"`
	UserID         string `json:"userId"`
	ProcessedURL   string `json:"processedUrl"`
	ProcessingTime int64  `json:"processingTime"` // ms
}

// FailedPayload es el payload de un fallo terminal de procesado.
type FailedPayload struct {
	ImageID   string `json:"imageId"`
	UserID    string `json:"userId"`
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

// ResultEvent es el sobre decodificado una sola vez en la frontera del mensaje.
// Solo el campo que corresponde al Kind está poblado.
type ResultEvent struct {
	Kind      ResultKind
	EventType string // tipo original del sobre, para logs
	Processed *ProcessedPayload
	Failed    *FailedPayload
}

type resultEnvelope struct {
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
}

// DecodeResult parsea el sobre `{eventType, payload}` del exchange de resultados.
// Un error de parseo es permanente: reintentar la entrega no lo arregla.
func DecodeResult(body []byte) (ResultEvent, error) {
	var env resultEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ResultEvent{}, err
	}

	switch env.EventType {
	case resultTypeProcessed:
		var p ProcessedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return ResultEvent{}, err
		}
		return ResultEvent{Kind: ResultImageProcessed, EventType: env.EventType, Processed: &p}, nil

	case resultTypeFailed, resultTypeFailedAlias:
		var p FailedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return ResultEvent{}, err
		}
		return ResultEvent{Kind: ResultProcessingFailed, EventType: env.EventType, Failed: &p}, nil

	default:
		// Bien formado pero no reconocido: el consumidor hace ack con warning.
		return ResultEvent{Kind: ResultUnknown, EventType: env.EventType}, nil
	}
}
