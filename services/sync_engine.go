// File: /services/sync_engine.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"squadrun-api/models"
)

const flushTimeout = 8 * time.Second

// flushSnapshot is what one persistence pass writes besides the route batch
type flushSnapshot struct {
	stats     models.ParticipantStats
	heartbeat *models.ParticipantHeartbeat
}

// SyncEngine is the periodic drain-and-persist loop. While the tracker is
// active it wakes on a fixed cadence, drains the pending queue and writes
// route points, aggregate stats and the liveness heartbeat. A failed pass
// pushes the drained batch back to the front of the queue, so every buffered
// point is delivered at least once; the store's sequence key absorbs the
// duplicates a retry can produce.
type SyncEngine struct {
	store    SessionStore
	hub      *LiveHub
	queue    *pendingQueue
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  chan struct{}
	wg      sync.WaitGroup

	sessionID string
	userID    string
	snapshot  func() flushSnapshot
}

func NewSyncEngine(store SessionStore, hub *LiveHub, queue *pendingQueue, interval time.Duration) *SyncEngine {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &SyncEngine{
		store:    store,
		hub:      hub,
		queue:    queue,
		interval: interval,
	}
}

// Begin starts the flush loop for one participant's tracking phase.
// No-op when already running; there is only ever one loop instance.
func (e *SyncEngine) Begin(sessionID, userID string, snapshot func() flushSnapshot) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.sessionID = sessionID
	e.userID = userID
	e.snapshot = snapshot
	e.cancel = make(chan struct{})
	e.running = true
	e.wg.Add(1)
	cancel := e.cancel
	e.mu.Unlock()

	go e.loop(cancel)
}

// Halt cancels the loop at its next checkpoint, waits for it to exit and
// forces one synchronous final flush, bounding data loss at pause/stop to
// whatever this last pass cannot persist. The flush runs even when the loop
// already stopped: a batch requeued by a failed pause flush must still get
// its delivery attempt when stop follows.
func (e *SyncEngine) Halt(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.running = false
		close(e.cancel)
		e.mu.Unlock()
		e.wg.Wait()
	} else {
		e.mu.Unlock()
	}

	return e.Flush(ctx)
}

func (e *SyncEngine) loop(cancel chan struct{}) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			ctx, done := context.WithTimeout(context.Background(), flushTimeout)
			if err := e.Flush(ctx); err != nil {
				log.Warn().Err(err).Str("session_id", e.sessionID).Msg("flush failed, batch requeued")
			}
			done()
		}
	}
}

// Flush performs one persistence pass: append pending points, upsert stats,
// upsert the heartbeat. Any failure requeues the drained batch for the next
// cycle.
func (e *SyncEngine) Flush(ctx context.Context) error {
	batch := e.queue.DrainAll()
	if len(batch) == 0 {
		return nil
	}

	if err := e.store.AppendRoutePoints(ctx, batch); err != nil {
		e.queue.RequeueFront(batch)
		return fmt.Errorf("append route points: %w", err)
	}

	snap := e.snapshot()
	if err := e.store.UpsertParticipantStats(ctx, snap.stats); err != nil {
		e.queue.RequeueFront(batch)
		return fmt.Errorf("upsert participant stats: %w", err)
	}

	if snap.heartbeat != nil {
		if err := e.store.UpsertHeartbeat(ctx, *snap.heartbeat); err != nil {
			e.queue.RequeueFront(batch)
			return fmt.Errorf("upsert heartbeat: %w", err)
		}

		// Advisory: viewers get the freshest position; dropped under load.
		if e.hub != nil {
			e.hub.BroadcastUpdate(models.LiveUpdate{
				SessionID: e.sessionID,
				UserID:    e.userID,
				Latitude:  snap.heartbeat.Latitude,
				Longitude: snap.heartbeat.Longitude,
				HeartRate: snap.heartbeat.HeartRate,
				Timestamp: snap.heartbeat.UpdatedAt,
			})
		}
	}

	return nil
}
