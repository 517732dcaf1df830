// File: /services/pending_queue_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squadrun-api/models"
)

func TestEnqueueAssignsMonotonicSequence(t *testing.T) {
	queue := newPendingQueue()

	for i := 0; i < 4; i++ {
		queue.Enqueue(models.RoutePointRecord{SessionID: "s-1", UserID: "u-1"})
	}

	drained := queue.DrainAll()
	require.Len(t, drained, 4)
	for i, point := range drained {
		assert.Equal(t, int64(i), point.Seq)
	}
	assert.Equal(t, 0, queue.Len())

	// Sequencing continues across drains.
	queue.Enqueue(models.RoutePointRecord{SessionID: "s-1", UserID: "u-1"})
	assert.Equal(t, int64(4), queue.DrainAll()[0].Seq)
}

func TestRequeueFrontPreservesOrder(t *testing.T) {
	queue := newPendingQueue()
	queue.Enqueue(models.RoutePointRecord{Latitude: 1})
	queue.Enqueue(models.RoutePointRecord{Latitude: 2})

	batch := queue.DrainAll()
	queue.Enqueue(models.RoutePointRecord{Latitude: 3})
	queue.RequeueFront(batch)

	drained := queue.DrainAll()
	require.Len(t, drained, 3)
	assert.Equal(t, 1.0, drained[0].Latitude)
	assert.Equal(t, 2.0, drained[1].Latitude)
	assert.Equal(t, 3.0, drained[2].Latitude)
}

func TestRequeueFrontEmptyBatch(t *testing.T) {
	queue := newPendingQueue()
	queue.RequeueFront(nil)
	assert.Equal(t, 0, queue.Len())
}

func TestResetSeedsSequence(t *testing.T) {
	queue := newPendingQueue()
	queue.Enqueue(models.RoutePointRecord{})
	queue.Reset(17)

	assert.Equal(t, 0, queue.Len())
	queue.Enqueue(models.RoutePointRecord{})
	assert.Equal(t, int64(17), queue.DrainAll()[0].Seq)
}
