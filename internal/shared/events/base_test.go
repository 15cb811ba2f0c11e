package events

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutingKeyFor_Table(t *testing.T) {
	cases := map[string]string{
		ImageUploadedType:    "image.uploaded",
		ImageProcessedType:   "image.processed",
		ProcessingFailedType: "processing.failed",
		UserRegisteredType:   "user.registered",
	}
	for eventType, want := range cases {
		assert.Equal(t, want, RoutingKeyFor(eventType))
	}
}

func TestRoutingKeyFor_Unknown(t *testing.T) {
	assert.Equal(t, UnknownRoutingKey, RoutingKeyFor("SomethingElseEvent"))
	assert.Equal(t, UnknownRoutingKey, RoutingKeyFor(""))
}

func TestNewDomainEvent_CorrelationIDFormat(t *testing.T) {
	evt := NewDomainEvent(ImageUploadedType, "img-1", "Image", map[string]any{"k": "v"}, "user-1")

	// {epochMillis}-{8 hex}
	assert.Regexp(t, regexp.MustCompile(`^\d{13}-[0-9a-f]{8}$`), evt.CorrelationID)
	assert.NotEmpty(t, evt.Timestamp)
	assert.Equal(t, "img-1", evt.AggregateID)
	assert.Equal(t, "Image", evt.AggregateType)
}

func TestNewDomainEvent_UniqueCorrelationIDs(t *testing.T) {
	a := NewDomainEvent(ImageUploadedType, "img-1", "Image", nil, "")
	b := NewDomainEvent(ImageUploadedType, "img-1", "Image", nil, "")
	assert.NotEqual(t, a.CorrelationID, b.CorrelationID)
}
