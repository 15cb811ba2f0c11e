package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/imagelab/internal/image/domain"
	"github.com/davicafu/imagelab/internal/shared/events"
)

// ImageService define los casos de uso del lado de comando: aceptar una
// imagen, encolarla para transformación y exponer las lecturas del usuario.
type ImageService struct {
	repo     domain.ImageRepository
	storage  domain.ImageStorage
	cache    domain.ImageCache
	store    events.Store
	eventBus domain.EventPublisher
	jobs     domain.JobPublisher
	notifier domain.Notifier
	log      *zap.Logger
}

func NewImageService(
	repo domain.ImageRepository,
	storage domain.ImageStorage,
	cache domain.ImageCache,
	store events.Store,
	eventBus domain.EventPublisher,
	jobs domain.JobPublisher,
	notifier domain.Notifier,
	log *zap.Logger,
) *ImageService {
	return &ImageService{
		repo:     repo,
		storage:  storage,
		cache:    cache,
		store:    store,
		eventBus: eventBus,
		jobs:     jobs,
		notifier: notifier,
		log:      log,
	}
}

// ProcessResult es la respuesta inmediata al cliente: la petición queda
// aceptada sin esperar al procesado.
type ProcessResult struct {
	ImageID     uuid.UUID     `json:"imageId"`
	Status      domain.Status `json:"status"`
	Message     string        `json:"message"`
	OriginalURL string        `json:"originalUrl"`
	Style       string        `json:"style"`
}

// ProcessImage sube el original, persiste el registro en processing, guarda y
// difunde el evento de dominio, encola el job en su partición y avisa por el
// canal en vivo. El registro y el despacho del job están desacoplados a
// propósito: si el publish falla, el registro ya está persistido y el caller
// puede reintentar sin perderlo.
func (s *ImageService) ProcessImage(ctx context.Context, userID uuid.UUID, data []byte, style string, size int64) (*ProcessResult, error) {
	if style == "" {
		return nil, domain.ErrInvalidStyle
	}

	obj, err := s.storage.Upload(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload original image: %w", err)
	}

	img := &domain.Image{
		ID:          uuid.New(),
		UserID:      userID,
		StorageID:   obj.ID,
		OriginalURL: obj.URL,
		Style:       style,
		Size:        size,
		Status:      domain.StatusProcessing,
		Visibility:  domain.VisibilityPrivate,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, img); err != nil {
		return nil, fmt.Errorf("failed to create image record: %w", err)
	}

	s.log.Info("Imagen registrada en processing",
		zap.String("image_id", img.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("style", style),
	)

	// Store antes de publish: el audit trail no depende de la entrega del
	// broker. Un fallo del append no bloquea el flujo principal.
	uploaded := events.NewImageUploadedEvent(img.ID.String(), userID.String(), obj.URL, style, size)
	if err := s.store.Append(ctx, uploaded); err != nil {
		s.log.Error("Fallo al persistir ImageUploadedEvent (non-blocking)", zap.Error(err))
	}
	if err := s.eventBus.Publish(ctx, uploaded); err != nil {
		s.log.Error("Fallo al difundir ImageUploadedEvent (non-blocking)", zap.Error(err))
	}

	job := events.NewImageJobEvent(events.JobPayload{
		ImageID:          img.ID.String(),
		UserID:           userID.String(),
		OriginalImageURL: obj.URL,
		Style:            style,
	})
	if err := s.jobs.PublishJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue processing job: %w", err)
	}

	s.notifier.NotifyProcessing(userID, img.ID, "Image uploaded, queued for processing...", 0)

	if s.cache != nil {
		go func(uid uuid.UUID) {
			ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = s.cache.Delete(ctxCache, domain.CacheKeyByUser(uid))
		}(userID)
	}

	return &ProcessResult{
		ImageID:     img.ID,
		Status:      domain.StatusProcessing,
		Message:     "Image queued for processing",
		OriginalURL: img.OriginalURL,
		Style:       img.Style,
	}, nil
}

// GetImage obtiene una imagen comprobando que pertenece al usuario.
func (s *ImageService) GetImage(ctx context.Context, userID, imageID uuid.UUID) (*domain.Image, error) {
	img, err := s.repo.FindByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if img.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return img, nil
}

// GetProcessedImages devuelve las imágenes procesadas del usuario
// (primero intenta desde cache).
func (s *ImageService) GetProcessedImages(ctx context.Context, userID uuid.UUID) ([]*domain.Image, error) {
	key := domain.CacheKeyByUser(userID)

	if s.cache != nil {
		var cached []*domain.Image
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	images, err := s.repo.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	// Actualizar cache en background sin bloquear la respuesta
	if s.cache != nil {
		go func(imgs []*domain.Image) {
			ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = s.cache.Set(ctxCache, key, imgs, 60)
		}(images)
	}

	return images, nil
}

// UpdateVisibility cambia la visibilidad de una imagen del usuario.
func (s *ImageService) UpdateVisibility(ctx context.Context, userID, imageID uuid.UUID, visibility domain.Visibility) (*domain.Image, error) {
	img, err := s.repo.FindByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if img.UserID != userID {
		return nil, domain.ErrForbidden
	}

	img.Visibility = visibility
	if err := s.repo.Update(ctx, img); err != nil {
		return nil, err
	}

	if s.cache != nil {
		go func(uid uuid.UUID) {
			ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = s.cache.Delete(ctxCache, domain.CacheKeyByUser(uid))
		}(userID)
	}

	return img, nil
}

// RecentEvents expone la lectura de auditoría del event store.
func (s *ImageService) RecentEvents(ctx context.Context, limit int) ([]events.StoredEvent, error) {
	return s.store.RecentEvents(ctx, limit)
}
