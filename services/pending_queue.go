// File: /services/pending_queue.go
package services

import (
	"sync"

	"squadrun-api/models"
)

// pendingQueue buffers route points awaiting persistence, separate from the
// RouteBuffer and guarded by its own lock. Each enqueued point gets a
// monotonic per-(session, participant) sequence number so retried batches can
// be deduplicated by the store's unique key.
type pendingQueue struct {
	mu      sync.Mutex
	items   []models.RoutePointRecord
	nextSeq int64
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{}
}

// Enqueue assigns the next sequence number and appends the point
func (q *pendingQueue) Enqueue(point models.RoutePointRecord) {
	q.mu.Lock()
	defer q.mu.Unlock()
	point.Seq = q.nextSeq
	q.nextSeq++
	q.items = append(q.items, point)
}

// DrainAll atomically removes and returns everything pending, in order
func (q *pendingQueue) DrainAll() []models.RoutePointRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.items
	q.items = nil
	return drained
}

// RequeueFront puts a failed batch back ahead of anything enqueued since,
// preserving the original arrival order for the next flush
func (q *pendingQueue) RequeueFront(batch []models.RoutePointRecord) {
	if len(batch) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(batch, q.items...)
}

// Reset clears the queue and restarts sequencing from seed, used when a new
// session starts or when persisted history already occupies earlier numbers
func (q *pendingQueue) Reset(seed int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	q.nextSeq = seed
}

// Len returns the number of points awaiting persistence
func (q *pendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
