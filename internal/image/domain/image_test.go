package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newProcessingImage() *Image {
	return &Image{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		OriginalURL: "https://storage.test/orig",
		Style:       "ghibli",
		Status:      StatusProcessing,
		Visibility:  VisibilityPrivate,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestMarkProcessed_FromProcessing(t *testing.T) {
	img := newProcessingImage()
	at := time.Now().UTC()

	changed := img.MarkProcessed("https://x/y.jpg", 2500, at)
	assert.True(t, changed)
	assert.Equal(t, StatusProcessed, img.Status)
	assert.Equal(t, "https://x/y.jpg", img.ProcessedURL)
	assert.Equal(t, int64(2500), img.ProcessingMs)
	assert.Equal(t, at, *img.ProcessedAt)
}

func TestMarkProcessed_AlreadyTerminal(t *testing.T) {
	img := newProcessingImage()
	at := time.Now().UTC()
	assert.True(t, img.MarkProcessed("https://x/y.jpg", 2500, at))

	// Reentrega del mismo resultado: no-op, el estado no cambia.
	changed := img.MarkProcessed("https://x/other.jpg", 999, at.Add(time.Minute))
	assert.False(t, changed)
	assert.Equal(t, "https://x/y.jpg", img.ProcessedURL)
	assert.Equal(t, int64(2500), img.ProcessingMs)
}

func TestMarkFailed_FromProcessing(t *testing.T) {
	img := newProcessingImage()
	at := time.Now().UTC()

	changed := img.MarkFailed(at)
	assert.True(t, changed)
	assert.Equal(t, StatusFailed, img.Status)
	assert.Equal(t, at, *img.ProcessedAt)
}

func TestMarkFailed_AfterProcessed(t *testing.T) {
	// Un fallo tardío no revierte un resultado correcto ya aplicado.
	img := newProcessingImage()
	assert.True(t, img.MarkProcessed("https://x/y.jpg", 100, time.Now().UTC()))

	assert.False(t, img.MarkFailed(time.Now().UTC()))
	assert.Equal(t, StatusProcessed, img.Status)
}

func TestMarkProcessed_AfterFailed(t *testing.T) {
	img := newProcessingImage()
	assert.True(t, img.MarkFailed(time.Now().UTC()))

	assert.False(t, img.MarkProcessed("https://x/y.jpg", 100, time.Now().UTC()))
	assert.Equal(t, StatusFailed, img.Status)
}
