package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionNaming(t *testing.T) {
	// Nombres del contrato de mensajería con el worker: no se cambian.
	assert.Equal(t, "image.processing.partition.0", PartitionQueueName(0))
	assert.Equal(t, "image.processing.partition.3", PartitionQueueName(3))
	assert.Equal(t, "image.uploaded.partition.0", PartitionRoutingKey(0))
	assert.Equal(t, "image.uploaded.partition.3", PartitionRoutingKey(3))
}

func TestFixedTopologyNames(t *testing.T) {
	assert.Equal(t, "image.results", ResultsExchange)
	assert.Equal(t, "dlq.processing", DeadLetterQueue)
}
