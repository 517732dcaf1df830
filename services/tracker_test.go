// File: /services/tracker_test.go
package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squadrun-api/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTracker(store *fakeStore) (*Tracker, *fakeLocation, *fakeClock) {
	location := newFakeLocation()
	clock := newFakeClock()
	tracker := NewTracker(store, location, &fakeBiometric{}, nil, TrackerConfig{
		FlushInterval: time.Hour, // flushes in tests happen via pause/stop only
	})
	tracker.nowFunc = clock.Now
	return tracker, location, clock
}

func activeSession(id string) *models.Session {
	return &models.Session{
		ID:        id,
		SquadID:   "squad-1",
		CreatorID: "user-1",
		Status:    models.SessionStatusActive,
		StartTime: time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC),
	}
}

func TestStartRejectsSessionWithoutID(t *testing.T) {
	tracker, _, _ := newTestTracker(newFakeStore())

	err := tracker.Start(context.Background(), nil, "user-1")
	assert.ErrorIs(t, err, ErrSessionNotPersisted)

	err = tracker.Start(context.Background(), &models.Session{}, "user-1")
	assert.ErrorIs(t, err, ErrSessionNotPersisted)
	assert.Equal(t, StateIdle, tracker.State())
}

func TestStartWhileTrackingKeepsFirstSession(t *testing.T) {
	tracker, _, _ := newTestTracker(newFakeStore())

	require.NoError(t, tracker.Start(context.Background(), activeSession("s-1"), "user-1"))
	err := tracker.Start(context.Background(), activeSession("s-2"), "user-1")
	assert.ErrorIs(t, err, ErrAlreadyTracking)
	assert.Equal(t, "s-1", tracker.CurrentSession().ID)

	require.NoError(t, tracker.Stop(context.Background()))
}

func TestPauseAndResumeTransitions(t *testing.T) {
	tracker, location, _ := newTestTracker(newFakeStore())
	ctx := context.Background()

	assert.ErrorIs(t, tracker.Pause(ctx), ErrNotActive)
	assert.ErrorIs(t, tracker.Resume(ctx), ErrNotPaused)

	require.NoError(t, tracker.Start(ctx, activeSession("s-1"), "user-1"))
	assert.Equal(t, StateActive, tracker.State())
	assert.True(t, location.isStarted())

	require.NoError(t, tracker.Pause(ctx))
	assert.Equal(t, StatePaused, tracker.State())
	assert.False(t, location.isStarted())
	assert.ErrorIs(t, tracker.Pause(ctx), ErrNotActive)

	require.NoError(t, tracker.Resume(ctx))
	assert.Equal(t, StateActive, tracker.State())
	assert.True(t, location.isStarted())
	assert.ErrorIs(t, tracker.Resume(ctx), ErrNotPaused)

	require.NoError(t, tracker.Stop(ctx))
	assert.Equal(t, StateIdle, tracker.State())
}

func TestDurationExcludesPausedTime(t *testing.T) {
	store := newFakeStore()
	tracker, _, clock := newTestTracker(store)
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx, activeSession("s-1"), "user-1"))

	clock.Advance(60 * time.Second)
	require.NoError(t, tracker.Pause(ctx))

	// The pause gap must not count.
	clock.Advance(30 * time.Second)
	assert.Equal(t, 60, tracker.LiveMetrics().Duration)

	require.NoError(t, tracker.Resume(ctx))
	clock.Advance(60 * time.Second)
	assert.Equal(t, 120, tracker.LiveMetrics().Duration)

	require.NoError(t, tracker.Stop(ctx))

	ended := store.endedSessions()
	require.Len(t, ended, 1)
	assert.Equal(t, "s-1", ended[0].sessionID)
	assert.Equal(t, 120, ended[0].duration)
}

func TestDistanceSkipsImplausibleJumps(t *testing.T) {
	tracker, _, _ := newTestTracker(newFakeStore())
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx, activeSession("s-1"), "user-1"))

	ts := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
	tracker.handleSample(models.LocationSample{Latitude: 0, Longitude: 0, Speed: 3, Timestamp: ts})
	tracker.handleSample(models.LocationSample{Latitude: 0, Longitude: 0.001, Speed: 3, Timestamp: ts.Add(time.Second)})
	// GPS glitch: hundreds of kilometres in one second.
	tracker.handleSample(models.LocationSample{Latitude: 0, Longitude: 10, Speed: 3, Timestamp: ts.Add(2 * time.Second)})
	tracker.handleSample(models.LocationSample{Latitude: 0, Longitude: 10.001, Speed: 3, Timestamp: ts.Add(3 * time.Second)})

	metrics := tracker.LiveMetrics()
	// Two plausible legs of ~111 m each; the jump leg is excluded but the
	// route still renders all four points.
	assert.InDelta(t, 222.4, metrics.Distance, 1.0)
	assert.Equal(t, 4, metrics.PointCount)
	assert.Len(t, tracker.Route(), 4)

	require.NoError(t, tracker.Stop(ctx))
}

func TestSamplesIgnoredUnlessActive(t *testing.T) {
	tracker, _, _ := newTestTracker(newFakeStore())
	ctx := context.Background()

	sample := models.LocationSample{Latitude: 47.5, Longitude: 19.0, Speed: 2}
	tracker.handleSample(sample)
	assert.Equal(t, 0, tracker.LiveMetrics().PointCount)

	require.NoError(t, tracker.Start(ctx, activeSession("s-1"), "user-1"))
	require.NoError(t, tracker.Pause(ctx))

	tracker.handleSample(sample)
	assert.Equal(t, 0, tracker.LiveMetrics().PointCount)

	require.NoError(t, tracker.Resume(ctx))
	tracker.handleSample(sample)
	assert.Equal(t, 1, tracker.LiveMetrics().PointCount)

	require.NoError(t, tracker.Stop(ctx))
}

func TestSpeedStatistics(t *testing.T) {
	tracker, _, _ := newTestTracker(newFakeStore())
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx, activeSession("s-1"), "user-1"))

	ts := time.Now()
	tracker.handleSample(models.LocationSample{Latitude: 0, Longitude: 0, Speed: 2, Timestamp: ts})
	tracker.handleSample(models.LocationSample{Latitude: 0, Longitude: 0.0001, Speed: 4, Timestamp: ts.Add(time.Second)})
	// Unknown speed must not drag the average down.
	tracker.handleSample(models.LocationSample{Latitude: 0, Longitude: 0.0002, Speed: -1, Timestamp: ts.Add(2 * time.Second)})

	metrics := tracker.LiveMetrics()
	assert.InDelta(t, 3.0, metrics.AverageSpeed, 0.001)
	assert.Equal(t, 4.0, metrics.MaxSpeed)

	require.NoError(t, tracker.Stop(ctx))
}

func TestStopWhileIdleIsNoOp(t *testing.T) {
	store := newFakeStore()
	tracker, _, _ := newTestTracker(store)

	require.NoError(t, tracker.Stop(context.Background()))
	assert.Empty(t, store.endedSessions())
}

func TestStopFlushesEverythingPending(t *testing.T) {
	store := newFakeStore()
	tracker, _, _ := newTestTracker(store)
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx, activeSession("s-1"), "user-1"))

	ts := time.Now()
	for i := 0; i < 5; i++ {
		tracker.handleSample(models.LocationSample{
			Latitude:  47.5,
			Longitude: 19.0 + float64(i)*0.0001,
			Speed:     3,
			Timestamp: ts.Add(time.Duration(i) * time.Second),
		})
	}

	require.NoError(t, tracker.Stop(ctx))

	appended := store.appendedPoints()
	require.Len(t, appended, 5)
	for i, point := range appended {
		assert.Equal(t, int64(i), point.Seq)
		assert.Equal(t, "s-1", point.SessionID)
		assert.Equal(t, "user-1", point.UserID)
	}
}

func TestStopDeliversBatchRequeuedByFailedPauseFlush(t *testing.T) {
	store := newFakeStore()
	tracker, _, _ := newTestTracker(store)
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx, activeSession("s-1"), "user-1"))

	ts := time.Now()
	tracker.handleSample(models.LocationSample{Latitude: 47.5, Longitude: 19.0, Speed: 3, Timestamp: ts})
	tracker.handleSample(models.LocationSample{Latitude: 47.5, Longitude: 19.0001, Speed: 3, Timestamp: ts.Add(time.Second)})

	// Pause while the store is down: the batch stays queued.
	store.setFailAppend(true)
	require.NoError(t, tracker.Pause(ctx))
	assert.Equal(t, 2, tracker.LiveMetrics().PendingCount)
	assert.Empty(t, store.appendedPoints())

	// Stop with the store healthy again: the queued batch must reach it
	// before local state resets.
	store.setFailAppend(false)
	require.NoError(t, tracker.Stop(ctx))

	appended := store.appendedPoints()
	require.Len(t, appended, 2)
	assert.Equal(t, int64(0), appended[0].Seq)
	assert.Equal(t, int64(1), appended[1].Seq)
}

func TestStartDiscardsSamplesBufferedByPreviousSession(t *testing.T) {
	store := newFakeStore()
	tracker, location, _ := newTestTracker(store)
	ctx := context.Background()

	// Samples accepted near the end of an earlier session that its consumer
	// never got to read.
	location.updates <- models.LocationSample{Latitude: 10, Longitude: 10, Speed: 2, Timestamp: time.Now()}
	location.updates <- models.LocationSample{Latitude: 10, Longitude: 10.001, Speed: 2, Timestamp: time.Now()}

	require.NoError(t, tracker.Start(ctx, activeSession("s-2"), "user-1"))

	// The stale samples are gone before the consumer starts, so they cannot
	// pollute the new session's route or distance anchor.
	assert.Equal(t, 0, len(location.updates))
	assert.Equal(t, 0, tracker.LiveMetrics().PointCount)
	assert.Equal(t, 0.0, tracker.LiveMetrics().Distance)

	require.NoError(t, tracker.Stop(ctx))
	assert.Empty(t, store.appendedPoints())
}

func TestStopResetsLocalStateWhenEndWriteFails(t *testing.T) {
	store := newFakeStore()
	store.failEnd = true
	tracker, _, _ := newTestTracker(store)
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx, activeSession("s-1"), "user-1"))

	err := tracker.Stop(ctx)
	assert.ErrorIs(t, err, ErrEndWriteFailed)

	// The failure must not wedge the local lifecycle.
	assert.Equal(t, StateIdle, tracker.State())
	assert.Nil(t, tracker.CurrentSession())
	require.NoError(t, tracker.Start(ctx, activeSession("s-2"), "user-1"))
	require.Error(t, tracker.Stop(ctx)) // still failing remotely
}

func TestStartSeedsPersistedHistory(t *testing.T) {
	store := newFakeStore()
	speed := 2.5
	store.history = []models.RoutePointRecord{
		{SessionID: "s-1", UserID: "user-1", Seq: 0, Latitude: 47.5, Longitude: 19.0, Speed: &speed, Timestamp: time.Now()},
		{SessionID: "s-1", UserID: "user-1", Seq: 1, Latitude: 47.5, Longitude: 19.0001, Speed: &speed, Timestamp: time.Now()},
	}
	tracker, _, _ := newTestTracker(store)
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx, activeSession("s-1"), "user-1"))

	// Visible route continues from the persisted track, and new points
	// sequence past it instead of colliding with seq 0 and 1.
	assert.Len(t, tracker.Route(), 2)
	tracker.handleSample(models.LocationSample{Latitude: 47.5, Longitude: 19.0002, Speed: 2, Timestamp: time.Now()})

	require.NoError(t, tracker.Stop(ctx))

	appended := store.appendedPoints()
	require.Len(t, appended, 1)
	assert.Equal(t, int64(2), appended[0].Seq)
}

func TestPauseMirrorsStatusRemotely(t *testing.T) {
	store := newFakeStore()
	tracker, _, _ := newTestTracker(store)
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx, activeSession("s-1"), "user-1"))
	require.NoError(t, tracker.Pause(ctx))
	require.NoError(t, tracker.Resume(ctx))
	require.NoError(t, tracker.Stop(ctx))

	store.mu.Lock()
	statuses := append([]string(nil), store.statuses...)
	store.mu.Unlock()
	assert.Equal(t, []string{models.SessionStatusPaused, models.SessionStatusActive}, statuses)
}
