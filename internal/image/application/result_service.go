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

// Código y mensaje por defecto de un fallo de procesado sin detalle.
const (
	DefaultErrorCode    = "PROCESSING_ERROR"
	DefaultErrorMessage = "Image processing failed"
)

// ResultService aplica las transiciones terminales que reporta el worker.
// Los errores devueltos marcan el destino del mensaje en el consumidor:
// ErrImageNotFound/ErrInvalidImageID son permanentes (ack), el resto son
// transitorios (nack con requeue).
type ResultService struct {
	repo      domain.ImageRepository
	store     events.Store
	eventBus  domain.EventPublisher
	notifier  domain.Notifier
	analytics domain.AnalyticsRecorder
	log       *zap.Logger
}

func NewResultService(
	repo domain.ImageRepository,
	store events.Store,
	eventBus domain.EventPublisher,
	notifier domain.Notifier,
	analytics domain.AnalyticsRecorder,
	log *zap.Logger,
) *ResultService {
	return &ResultService{
		repo:      repo,
		store:     store,
		eventBus:  eventBus,
		notifier:  notifier,
		analytics: analytics,
		log:       log,
	}
}

// HandleImageProcessed aplica processing → processed, persiste y difunde el
// ImageProcessedEvent y avisa al usuario por el canal en vivo.
func (s *ResultService) HandleImageProcessed(ctx context.Context, p events.ProcessedPayload) error {
	img, err := s.loadImage(ctx, p.ImageID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if img.MarkProcessed(p.ProcessedURL, p.ProcessingTime, now) {
		if err := s.repo.Update(ctx, img); err != nil {
			return fmt.Errorf("failed to update image %s: %w", img.ID, err)
		}
	} else if img.Status != domain.StatusProcessed {
		// Resultado contradictorio con otro estado terminal: se descarta.
		s.log.Warn("Resultado processed sobre imagen ya terminal, ignorado",
			zap.String("image_id", img.ID.String()),
			zap.String("status", string(img.Status)),
		)
		return nil
	} else {
		// Reentrega tras un nack: el agregado no se vuelve a mutar, pero el
		// resto de etapas (publish, analítica, aviso) se reemiten. Aguas
		// abajo todo es at-least-once.
		s.log.Info("Resultado duplicado, se reemiten las etapas posteriores",
			zap.String("image_id", img.ID.String()))
	}

	evt := events.NewImageProcessedEvent(img.ID.String(), img.UserID.String(), img.ProcessedURL, img.ProcessingMs)
	if err := s.store.Append(ctx, evt); err != nil {
		s.log.Error("Fallo al persistir ImageProcessedEvent (non-blocking)", zap.Error(err))
	}
	if err := s.eventBus.Publish(ctx, evt); err != nil {
		return fmt.Errorf("failed to publish ImageProcessedEvent: %w", err)
	}

	s.recordAnalytics(ctx, img)

	processedAt := now
	if img.ProcessedAt != nil {
		processedAt = *img.ProcessedAt
	}
	s.notifier.NotifyCompleted(img.UserID, img.ID, img.ProcessedURL, img.Style, processedAt)

	s.log.Info("Imagen procesada",
		zap.String("image_id", img.ID.String()),
		zap.Int64("processing_ms", p.ProcessingTime),
	)
	return nil
}

// HandleProcessingFailed aplica processing → failed y avisa al usuario con el
// código y mensaje de error del worker.
func (s *ResultService) HandleProcessingFailed(ctx context.Context, p events.FailedPayload) error {
	img, err := s.loadImage(ctx, p.ImageID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if img.MarkFailed(now) {
		if err := s.repo.Update(ctx, img); err != nil {
			return fmt.Errorf("failed to update image %s: %w", img.ID, err)
		}
	} else if img.Status != domain.StatusFailed {
		s.log.Warn("Resultado failed sobre imagen ya terminal, ignorado",
			zap.String("image_id", img.ID.String()),
			zap.String("status", string(img.Status)),
		)
		return nil
	} else {
		s.log.Info("Fallo duplicado, se reemiten las etapas posteriores",
			zap.String("image_id", img.ID.String()))
	}

	evt := events.NewProcessingFailedEvent(img.ID.String(), img.UserID.String(), p.Error)
	if err := s.store.Append(ctx, evt); err != nil {
		s.log.Error("Fallo al persistir ProcessingFailedEvent (non-blocking)", zap.Error(err))
	}
	if err := s.eventBus.Publish(ctx, evt); err != nil {
		return fmt.Errorf("failed to publish ProcessingFailedEvent: %w", err)
	}

	s.recordAnalytics(ctx, img)

	errorCode := p.ErrorCode
	if errorCode == "" {
		errorCode = DefaultErrorCode
	}
	message := p.Error
	if message == "" {
		message = DefaultErrorMessage
	}
	s.notifier.NotifyFailed(img.UserID, img.ID, errorCode, message)

	s.log.Warn("Procesado de imagen fallido",
		zap.String("image_id", img.ID.String()),
		zap.String("error_code", errorCode),
	)
	return nil
}

func (s *ResultService) loadImage(ctx context.Context, rawID string) (*domain.Image, error) {
	imageID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidImageID, rawID)
	}
	img, err := s.repo.FindByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// recordAnalytics registra el resultado en el sink analítico.
// Un fallo analítico nunca bloquea el flujo de resultados.
func (s *ResultService) recordAnalytics(ctx context.Context, img *domain.Image) {
	if s.analytics == nil {
		return
	}
	record := domain.ProcessingRecord{
		ImageID:      img.ID,
		UserID:       img.UserID,
		Style:        img.Style,
		Status:       img.Status,
		ProcessingMs: img.ProcessingMs,
		EventTime:    time.Now().UTC(),
	}
	if err := s.analytics.LogResult(ctx, record); err != nil {
		s.log.Warn("⚠️ Fallo al registrar analítica de procesado", zap.Error(err))
	}
}
