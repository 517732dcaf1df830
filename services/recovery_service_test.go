// File: /services/recovery_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squadrun-api/models"
)

func unfinishedSession(id string, start time.Time) models.Session {
	return models.Session{
		ID:        id,
		SquadID:   "squad-1",
		CreatorID: "user-1",
		Status:    models.SessionStatusActive,
		StartTime: start,
		Distance:  1234.5,
		Duration:  600,
	}
}

func TestCheckInterruptedNothingFound(t *testing.T) {
	store := newFakeStore()
	tracker, _, _ := newTestTracker(store)
	recovery := NewRecoveryService(store, tracker)

	assert.Nil(t, recovery.CheckInterrupted(context.Background(), "user-1"))
}

func TestCheckInterruptedQueryFailureIsSilent(t *testing.T) {
	store := newFakeStore()
	store.failUnfinished = true
	tracker, _, _ := newTestTracker(store)
	recovery := NewRecoveryService(store, tracker)

	// A flaky store must never block startup with an error.
	assert.Nil(t, recovery.CheckInterrupted(context.Background(), "user-1"))
}

func TestCheckInterruptedSurfacesNewest(t *testing.T) {
	base := time.Date(2026, 1, 2, 7, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.unfinished = []models.Session{
		unfinishedSession("s-old", base),
		unfinishedSession("s-new", base.Add(time.Hour)),
		unfinishedSession("s-mid", base.Add(30*time.Minute)),
	}
	tracker, _, _ := newTestTracker(store)
	recovery := NewRecoveryService(store, tracker)

	session := recovery.CheckInterrupted(context.Background(), "user-1")
	require.NotNil(t, session)
	assert.Equal(t, "s-new", session.ID)

	// Re-checking is idempotent.
	again := recovery.CheckInterrupted(context.Background(), "user-1")
	require.NotNil(t, again)
	assert.Equal(t, "s-new", again.ID)
}

func TestCheckInterruptedClearsWhenResolvedElsewhere(t *testing.T) {
	store := newFakeStore()
	store.unfinished = []models.Session{unfinishedSession("s-1", time.Now())}
	tracker, _, _ := newTestTracker(store)
	recovery := NewRecoveryService(store, tracker)

	require.NotNil(t, recovery.CheckInterrupted(context.Background(), "user-1"))

	// Session got finished on another device; the prompt must go away.
	store.mu.Lock()
	store.unfinished = nil
	store.mu.Unlock()
	assert.Nil(t, recovery.CheckInterrupted(context.Background(), "user-1"))
	assert.ErrorIs(t, recovery.End(context.Background(), "user-1"), ErrNoInterrupted)
}

func TestResumeWithoutInterrupted(t *testing.T) {
	store := newFakeStore()
	tracker, _, _ := newTestTracker(store)
	recovery := NewRecoveryService(store, tracker)

	_, err := recovery.Resume(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNoInterrupted)
}

func TestResumeHandsSessionToTracker(t *testing.T) {
	store := newFakeStore()
	store.unfinished = []models.Session{unfinishedSession("s-1", time.Now())}
	speed := 2.0
	store.history = []models.RoutePointRecord{
		{SessionID: "s-1", UserID: "user-1", Seq: 0, Latitude: 47.5, Longitude: 19.0, Speed: &speed, Timestamp: time.Now()},
	}
	tracker, _, _ := newTestTracker(store)
	recovery := NewRecoveryService(store, tracker)

	require.NotNil(t, recovery.CheckInterrupted(context.Background(), "user-1"))

	session, err := recovery.Resume(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", session.ID)
	assert.Equal(t, StateActive, tracker.State())
	assert.Len(t, tracker.Route(), 1)

	// The offer is consumed.
	_, err = recovery.Resume(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNoInterrupted)

	require.NoError(t, tracker.Stop(context.Background()))
}

func TestResumeWhileAlreadyTrackingKeepsOffer(t *testing.T) {
	store := newFakeStore()
	store.unfinished = []models.Session{unfinishedSession("s-1", time.Now())}
	tracker, _, _ := newTestTracker(store)
	recovery := NewRecoveryService(store, tracker)

	require.NotNil(t, recovery.CheckInterrupted(context.Background(), "user-1"))
	require.NoError(t, tracker.Start(context.Background(), activeSession("s-other"), "user-1"))

	_, err := recovery.Resume(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrAlreadyTracking)

	require.NoError(t, tracker.Stop(context.Background()))

	// The offer survives the failed attempt.
	session, err := recovery.Resume(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", session.ID)
	require.NoError(t, tracker.Stop(context.Background()))
}

func TestEndWritesPersistedTotals(t *testing.T) {
	store := newFakeStore()
	store.unfinished = []models.Session{unfinishedSession("s-1", time.Now())}
	tracker, _, _ := newTestTracker(store)
	recovery := NewRecoveryService(store, tracker)

	require.NotNil(t, recovery.CheckInterrupted(context.Background(), "user-1"))
	require.NoError(t, recovery.End(context.Background(), "user-1"))

	ended := store.endedSessions()
	require.Len(t, ended, 1)
	assert.Equal(t, "s-1", ended[0].sessionID)
	assert.Equal(t, 600, ended[0].duration)
	assert.Equal(t, 1234.5, ended[0].distance)

	// Nothing was started locally.
	assert.Equal(t, StateIdle, tracker.State())
	assert.ErrorIs(t, recovery.End(context.Background(), "user-1"), ErrNoInterrupted)
}

func TestEndKeepsOfferOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.unfinished = []models.Session{unfinishedSession("s-1", time.Now())}
	tracker, _, _ := newTestTracker(store)
	recovery := NewRecoveryService(store, tracker)

	require.NotNil(t, recovery.CheckInterrupted(context.Background(), "user-1"))

	store.mu.Lock()
	store.failEnd = true
	store.mu.Unlock()
	require.Error(t, recovery.End(context.Background(), "user-1"))

	store.mu.Lock()
	store.failEnd = false
	store.mu.Unlock()
	require.NoError(t, recovery.End(context.Background(), "user-1"))
}

func TestDismissClearsOnlyLocally(t *testing.T) {
	store := newFakeStore()
	store.unfinished = []models.Session{unfinishedSession("s-1", time.Now())}
	tracker, _, _ := newTestTracker(store)
	recovery := NewRecoveryService(store, tracker)

	require.NotNil(t, recovery.CheckInterrupted(context.Background(), "user-1"))
	recovery.Dismiss("user-1")

	_, err := recovery.Resume(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNoInterrupted)

	// The session is still unfinished remotely, so the next check offers it.
	assert.NotNil(t, recovery.CheckInterrupted(context.Background(), "user-1"))
}
