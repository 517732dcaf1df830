// File: /services/route_buffer.go
package services

import (
	"sync"

	"squadrun-api/models"
)

// RouteBuffer holds the ordered in-memory route for the session currently
// being tracked, decoupled from the persistence cadence so the map can render
// the live route with zero latency. Append runs on the sample consumer while
// readers snapshot concurrently.
type RouteBuffer struct {
	mu     sync.RWMutex
	points []models.LocationSample
}

func NewRouteBuffer() *RouteBuffer {
	return &RouteBuffer{}
}

// Append adds one accepted sample to the end of the route
func (b *RouteBuffer) Append(point models.LocationSample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.points = append(b.points, point)
}

// Seed replaces the whole route, used when resuming with persisted history
// so the visible route has no discontinuity
func (b *RouteBuffer) Seed(points []models.LocationSample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.points = make([]models.LocationSample, len(points))
	copy(b.points, points)
}

// Snapshot returns a copy of the current full route
func (b *RouteBuffer) Snapshot() []models.LocationSample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snapshot := make([]models.LocationSample, len(b.points))
	copy(snapshot, b.points)
	return snapshot
}

// Clear discards the route
func (b *RouteBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.points = nil
}

// Len returns the number of buffered points
func (b *RouteBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.points)
}
