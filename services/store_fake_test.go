// File: /services/store_fake_test.go
package services

import (
	"context"
	"errors"
	"sync"

	"squadrun-api/models"
)

var errStoreDown = errors.New("store unavailable")

type endCall struct {
	sessionID string
	duration  int
	distance  float64
}

// fakeStore is an in-memory SessionStore with per-method failure injection
type fakeStore struct {
	mu sync.Mutex

	failAppend     bool
	failStats      bool
	failHeartbeat  bool
	failEnd        bool
	failUnfinished bool

	unfinished []models.Session
	history    []models.RoutePointRecord

	appended   []models.RoutePointRecord
	stats      []models.ParticipantStats
	heartbeats []models.ParticipantHeartbeat
	statuses   []string
	endCalls   []endCall
	marked     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return &models.Session{ID: sessionID, Status: models.SessionStatusActive}, nil
}

func (f *fakeStore) RoutePoints(ctx context.Context, sessionID, userID string) ([]models.RoutePointRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.RoutePointRecord, len(f.history))
	copy(out, f.history)
	return out, nil
}

func (f *fakeStore) UnfinishedSessionsByUser(ctx context.Context, userID string) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUnfinished {
		return nil, errStoreDown
	}
	out := make([]models.Session, len(f.unfinished))
	copy(out, f.unfinished)
	return out, nil
}

func (f *fakeStore) MarkParticipantTracking(ctx context.Context, sessionID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, sessionID)
	return nil
}

func (f *fakeStore) SetSessionStatus(ctx context.Context, sessionID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeStore) EndSession(ctx context.Context, sessionID string, duration int, distance float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEnd {
		return errStoreDown
	}
	f.endCalls = append(f.endCalls, endCall{sessionID: sessionID, duration: duration, distance: distance})
	return nil
}

func (f *fakeStore) AppendRoutePoints(ctx context.Context, points []models.RoutePointRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAppend {
		return errStoreDown
	}
	f.appended = append(f.appended, points...)
	return nil
}

func (f *fakeStore) UpsertParticipantStats(ctx context.Context, stats models.ParticipantStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStats {
		return errStoreDown
	}
	f.stats = append(f.stats, stats)
	return nil
}

func (f *fakeStore) UpsertHeartbeat(ctx context.Context, heartbeat models.ParticipantHeartbeat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failHeartbeat {
		return errStoreDown
	}
	f.heartbeats = append(f.heartbeats, heartbeat)
	return nil
}

func (f *fakeStore) appendedPoints() []models.RoutePointRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.RoutePointRecord, len(f.appended))
	copy(out, f.appended)
	return out
}

func (f *fakeStore) endedSessions() []endCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]endCall, len(f.endCalls))
	copy(out, f.endCalls)
	return out
}

func (f *fakeStore) setFailAppend(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAppend = fail
}

// fakeLocation is a LocationProvider the test feeds by hand
type fakeLocation struct {
	mu      sync.Mutex
	started bool
	updates chan models.LocationSample
}

func newFakeLocation() *fakeLocation {
	return &fakeLocation{updates: make(chan models.LocationSample, 32)}
}

func (f *fakeLocation) StartUpdating() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeLocation) StopUpdating() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = false
}

func (f *fakeLocation) Updates() <-chan models.LocationSample {
	return f.updates
}

func (f *fakeLocation) CurrentSpeed() float64 { return -1 }

func (f *fakeLocation) isStarted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

// fakeBiometric returns a fixed heart-rate reading once started
type fakeBiometric struct {
	mu      sync.Mutex
	started bool
	bpm     *int
}

func (f *fakeBiometric) Start(sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeBiometric) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = false
}

func (f *fakeBiometric) CurrentHeartRate() *int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started {
		return nil
	}
	return f.bpm
}
