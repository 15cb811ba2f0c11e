package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/imagelab/internal/shared/events"
)

// ---------- Errores de dominio ----------
var (
	ErrImageNotFound  = errors.New("image not found")
	ErrInvalidImageID = errors.New("invalid image id")
	ErrInvalidStyle   = errors.New("invalid style")
	ErrForbidden      = errors.New("forbidden")
)

// ---------- Interfaces (Ports) ----------

// ImageRepository define el contrato mínimo de persistencia relacional.
type ImageRepository interface {
	// Debe devolver ErrImageNotFound si no existe.
	FindByID(ctx context.Context, id uuid.UUID) (*Image, error)

	Create(ctx context.Context, img *Image) error

	// Debe devolver ErrImageNotFound si la imagen no existe.
	Update(ctx context.Context, img *Image) error

	// ListByUser devuelve las imágenes del usuario, más recientes primero.
	ListByUser(ctx context.Context, userID uuid.UUID, onlyProcessed bool) ([]*Image, error)
}

// StoredObject es el resultado de subir la imagen original al almacén externo.
type StoredObject struct {
	ID  string
	URL string
}

// ImageStorage es el colaborador externo de almacenamiento de objetos.
type ImageStorage interface {
	Upload(ctx context.Context, data []byte) (StoredObject, error)
}

// JobPublisher encola un job de procesado en su partición.
type JobPublisher interface {
	PublishJob(ctx context.Context, evt events.ImageJobEvent) error
}

// EventPublisher difunde eventos de dominio a los suscriptores interesados.
type EventPublisher interface {
	Publish(ctx context.Context, evt events.DomainEvent) error
}

// Notifier empuja eventos tipados por el canal en vivo del usuario.
// Es best-effort: si el usuario no tiene conexiones, el resultado se descarta.
type Notifier interface {
	// progress es opcional: 0 significa "sin dato de progreso".
	NotifyProcessing(userID uuid.UUID, imageID uuid.UUID, message string, progress int)
	NotifyCompleted(userID uuid.UUID, imageID uuid.UUID, processedURL, style string, processedAt time.Time)
	NotifyFailed(userID uuid.UUID, imageID uuid.UUID, errorCode, message string)
}

// ImageCache cachea lecturas de imágenes por usuario.
type ImageCache interface {
	// Get intenta poblar dest (puntero) con el valor asociado a la key.
	// Devuelve (true, nil) si hay hit y dest fue rellenado.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set serializa y guarda el valor con TTL en segundos.
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error

	// Delete elimina la key del cache.
	Delete(ctx context.Context, key string) error
}

// ---------- Helpers comunes ----------

// CacheKeyByUser forma la key de cache del listado de procesadas de un usuario.
func CacheKeyByUser(userID uuid.UUID) string {
	return fmt.Sprintf("images:user:%s", userID.String())
}
