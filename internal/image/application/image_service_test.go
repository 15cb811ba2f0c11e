package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/davicafu/imagelab/internal/image/domain"
	"github.com/davicafu/imagelab/internal/shared/events"
	"github.com/davicafu/imagelab/tests/mocks"
)

type imageServiceFixture struct {
	repo     *mocks.InMemoryImageRepo
	storage  *mocks.DummyStorage
	cache    *mocks.DummyCache
	store    *mocks.InMemoryEventStore
	eventBus *mocks.DummyEventPublisher
	jobs     *mocks.DummyJobPublisher
	notifier *mocks.RecordingNotifier
	service  *ImageService
}

func newImageServiceFixture() *imageServiceFixture {
	f := &imageServiceFixture{
		repo:     mocks.NewInMemoryImageRepo(),
		storage:  &mocks.DummyStorage{},
		cache:    mocks.NewDummyCache(),
		store:    mocks.NewInMemoryEventStore(),
		eventBus: &mocks.DummyEventPublisher{},
		jobs:     &mocks.DummyJobPublisher{},
		notifier: &mocks.RecordingNotifier{},
	}
	f.service = NewImageService(f.repo, f.storage, f.cache, f.store, f.eventBus, f.jobs, f.notifier, zap.NewNop())
	return f
}

func TestProcessImage_Success(t *testing.T) {
	f := newImageServiceFixture()
	userID := uuid.New()

	result, err := f.service.ProcessImage(context.Background(), userID, []byte("png-bytes"), "ghibli", 9)
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, domain.StatusProcessing, result.Status)
	assert.NotEmpty(t, result.OriginalURL)

	// Registro persistido en processing
	img, err := f.repo.FindByID(context.Background(), result.ImageID)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, img.Status)
	assert.Equal(t, domain.VisibilityPrivate, img.Visibility)

	// Evento guardado y difundido
	assert.Len(t, f.store.Events, 1)
	assert.Equal(t, events.ImageUploadedType, f.store.Events[0].EventType)
	assert.Len(t, f.eventBus.Published, 1)

	// Job encolado con el contrato del worker
	assert.Len(t, f.jobs.Jobs, 1)
	assert.Equal(t, events.JobEventType, f.jobs.Jobs[0].EventType)
	assert.Equal(t, result.ImageID.String(), f.jobs.Jobs[0].Payload.ImageID)

	// Aviso en vivo
	assert.Len(t, f.notifier.Sent, 1)
	assert.Equal(t, "processing", f.notifier.Sent[0].Kind)
	assert.Equal(t, userID, f.notifier.Sent[0].UserID)
}

func TestProcessImage_EmptyStyle(t *testing.T) {
	f := newImageServiceFixture()

	_, err := f.service.ProcessImage(context.Background(), uuid.New(), []byte("data"), "", 4)
	assert.ErrorIs(t, err, domain.ErrInvalidStyle)
	assert.Equal(t, 0, f.storage.Uploads)
}

func TestProcessImage_StorageFailure(t *testing.T) {
	f := newImageServiceFixture()
	f.storage.FailWith = assert.AnError

	_, err := f.service.ProcessImage(context.Background(), uuid.New(), []byte("data"), "ghibli", 4)
	assert.Error(t, err)
	assert.Empty(t, f.repo.Images)
	assert.Empty(t, f.jobs.Jobs)
}

func TestProcessImage_JobPublishFailureSurfaces(t *testing.T) {
	f := newImageServiceFixture()
	f.jobs.FailWith = assert.AnError

	_, err := f.service.ProcessImage(context.Background(), uuid.New(), []byte("data"), "ghibli", 4)
	assert.Error(t, err)

	// El registro ya quedó persistido: el caller puede reintentar sin perderlo.
	assert.Len(t, f.repo.Images, 1)
}

func TestProcessImage_EventBusFailureIsNonBlocking(t *testing.T) {
	f := newImageServiceFixture()
	f.eventBus.FailWith = assert.AnError

	result, err := f.service.ProcessImage(context.Background(), uuid.New(), []byte("data"), "ghibli", 4)
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Len(t, f.jobs.Jobs, 1)
}

func TestGetImage_OwnerCheck(t *testing.T) {
	f := newImageServiceFixture()
	owner := uuid.New()

	result, err := f.service.ProcessImage(context.Background(), owner, []byte("data"), "ghibli", 4)
	assert.NoError(t, err)

	img, err := f.service.GetImage(context.Background(), owner, result.ImageID)
	assert.NoError(t, err)
	assert.Equal(t, result.ImageID, img.ID)

	_, err = f.service.GetImage(context.Background(), uuid.New(), result.ImageID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGetImage_NotFound(t *testing.T) {
	f := newImageServiceFixture()
	_, err := f.service.GetImage(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
}

func TestGetProcessedImages_CacheHit(t *testing.T) {
	f := newImageServiceFixture()
	userID := uuid.New()

	cached := []*domain.Image{{ID: uuid.New(), UserID: userID, Status: domain.StatusProcessed}}
	f.cache.SetForTest(domain.CacheKeyByUser(userID), cached)

	images, err := f.service.GetProcessedImages(context.Background(), userID)
	assert.NoError(t, err)
	assert.Len(t, images, 1)
	assert.Equal(t, cached[0].ID, images[0].ID)
}

func TestGetProcessedImages_OnlyProcessed(t *testing.T) {
	f := newImageServiceFixture()
	userID := uuid.New()

	processing := &domain.Image{ID: uuid.New(), UserID: userID, Status: domain.StatusProcessing, CreatedAt: time.Now()}
	processed := &domain.Image{ID: uuid.New(), UserID: userID, Status: domain.StatusProcessed, CreatedAt: time.Now()}
	assert.NoError(t, f.repo.Create(context.Background(), processing))
	assert.NoError(t, f.repo.Create(context.Background(), processed))

	images, err := f.service.GetProcessedImages(context.Background(), userID)
	assert.NoError(t, err)
	assert.Len(t, images, 1)
	assert.Equal(t, processed.ID, images[0].ID)
}

func TestUpdateVisibility(t *testing.T) {
	f := newImageServiceFixture()
	owner := uuid.New()

	result, err := f.service.ProcessImage(context.Background(), owner, []byte("data"), "ghibli", 4)
	assert.NoError(t, err)

	img, err := f.service.UpdateVisibility(context.Background(), owner, result.ImageID, domain.VisibilityPublic)
	assert.NoError(t, err)
	assert.Equal(t, domain.VisibilityPublic, img.Visibility)

	stored, _ := f.repo.FindByID(context.Background(), result.ImageID)
	assert.Equal(t, domain.VisibilityPublic, stored.Visibility)

	_, err = f.service.UpdateVisibility(context.Background(), uuid.New(), result.ImageID, domain.VisibilityPrivate)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
