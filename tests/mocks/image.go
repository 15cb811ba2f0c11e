package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	imageDomain "github.com/davicafu/imagelab/internal/image/domain"
	"github.com/davicafu/imagelab/internal/shared/events"
)

// ------------------- ImageRepository -------------------

// InMemoryImageRepo simula ImageRepository sobre un mapa.
type InMemoryImageRepo struct {
	Images map[uuid.UUID]*imageDomain.Image
	// Si no es nil, las escrituras fallan con este error.
	FailWith error
	mu       sync.Mutex
}

func NewInMemoryImageRepo() *InMemoryImageRepo {
	return &InMemoryImageRepo{Images: make(map[uuid.UUID]*imageDomain.Image)}
}

// Verificación estática del port.
var _ imageDomain.ImageRepository = (*InMemoryImageRepo)(nil)

func (r *InMemoryImageRepo) Create(ctx context.Context, img *imageDomain.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	cp := *img
	r.Images[img.ID] = &cp
	return nil
}

func (r *InMemoryImageRepo) Update(ctx context.Context, img *imageDomain.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	if _, ok := r.Images[img.ID]; !ok {
		return imageDomain.ErrImageNotFound
	}
	cp := *img
	r.Images[img.ID] = &cp
	return nil
}

func (r *InMemoryImageRepo) FindByID(ctx context.Context, id uuid.UUID) (*imageDomain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.Images[id]
	if !ok {
		return nil, imageDomain.ErrImageNotFound
	}
	// Copia para que el caller no mute el estado del repo sin Update.
	cp := *img
	return &cp, nil
}

func (r *InMemoryImageRepo) ListByUser(ctx context.Context, userID uuid.UUID, onlyProcessed bool) ([]*imageDomain.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []*imageDomain.Image
	for _, img := range r.Images {
		if img.UserID != userID {
			continue
		}
		if onlyProcessed && img.Status != imageDomain.StatusProcessed {
			continue
		}
		cp := *img
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// ------------------- ImageStorage -------------------

// DummyStorage devuelve URLs deterministas sin tocar disco.
type DummyStorage struct {
	Uploads  int
	FailWith error
	mu       sync.Mutex
}

var _ imageDomain.ImageStorage = (*DummyStorage)(nil)

func (s *DummyStorage) Upload(ctx context.Context, data []byte) (imageDomain.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return imageDomain.StoredObject{}, s.FailWith
	}
	s.Uploads++
	id := uuid.NewString()
	return imageDomain.StoredObject{ID: id, URL: "https://storage.test/" + id}, nil
}

// ------------------- JobPublisher -------------------

// DummyJobPublisher acumula los jobs publicados como evidencia.
type DummyJobPublisher struct {
	Jobs     []events.ImageJobEvent
	FailWith error
	mu       sync.Mutex
}

var _ imageDomain.JobPublisher = (*DummyJobPublisher)(nil)

func (p *DummyJobPublisher) PublishJob(ctx context.Context, evt events.ImageJobEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return p.FailWith
	}
	p.Jobs = append(p.Jobs, evt)
	return nil
}

// ------------------- EventPublisher -------------------

// DummyEventPublisher acumula los eventos de dominio difundidos.
type DummyEventPublisher struct {
	Published []events.DomainEvent
	FailWith  error
	mu        sync.Mutex
}

var _ imageDomain.EventPublisher = (*DummyEventPublisher)(nil)

func (p *DummyEventPublisher) Publish(ctx context.Context, evt events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return p.FailWith
	}
	p.Published = append(p.Published, evt)
	return nil
}

// ------------------- Notifier -------------------

// Notification es el registro plano de una llamada al notifier.
type Notification struct {
	Kind         string // processing | completed | failed
	UserID       uuid.UUID
	ImageID      uuid.UUID
	Message      string
	Progress     int
	ProcessedURL string
	Style        string
	ErrorCode    string
}

// RecordingNotifier acumula las notificaciones emitidas.
type RecordingNotifier struct {
	Sent []Notification
	mu   sync.Mutex
}

var _ imageDomain.Notifier = (*RecordingNotifier)(nil)

func (n *RecordingNotifier) NotifyProcessing(userID, imageID uuid.UUID, message string, progress int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notification{Kind: "processing", UserID: userID, ImageID: imageID, Message: message, Progress: progress})
}

func (n *RecordingNotifier) NotifyCompleted(userID, imageID uuid.UUID, processedURL, style string, _ time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notification{Kind: "completed", UserID: userID, ImageID: imageID, ProcessedURL: processedURL, Style: style})
}

func (n *RecordingNotifier) NotifyFailed(userID, imageID uuid.UUID, errorCode, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notification{Kind: "failed", UserID: userID, ImageID: imageID, ErrorCode: errorCode, Message: message})
}

// ------------------- AnalyticsRecorder -------------------

// DummyAnalytics acumula los registros analíticos.
type DummyAnalytics struct {
	Records  []imageDomain.ProcessingRecord
	FailWith error
	mu       sync.Mutex
}

var _ imageDomain.AnalyticsRecorder = (*DummyAnalytics)(nil)

func (a *DummyAnalytics) LogResult(ctx context.Context, record imageDomain.ProcessingRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.FailWith != nil {
		return a.FailWith
	}
	a.Records = append(a.Records, record)
	return nil
}
