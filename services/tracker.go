// File: /services/tracker.go
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"squadrun-api/models"
)

// Tracker lifecycle states
const (
	StateIdle     = "idle"
	StateActive   = "active"
	StatePaused   = "paused"
	StateStopping = "stopping"
)

var (
	ErrAlreadyTracking     = errors.New("a session is already being tracked")
	ErrNotActive           = errors.New("tracking is not active")
	ErrNotPaused           = errors.New("tracking is not paused")
	ErrNotTracking         = errors.New("no session is being tracked")
	ErrSessionNotPersisted = errors.New("session has no durable id")
	ErrEndWriteFailed      = errors.New("session ended locally but the remote end write failed")
	ErrNoInterrupted       = errors.New("no interrupted session")
)

type TrackerConfig struct {
	FlushInterval   time.Duration
	JumpThresholdM  float64
	StopGracePeriod time.Duration
}

// Tracker owns the session lifecycle on this device: it drives the location
// and biometric providers, accumulates distance and elapsed time, feeds the
// route buffer and hands pending points to the sync engine. At most one
// session is under local tracking at a time; the single consumer goroutine
// reading the provider channel is the only writer of the motion counters.
type Tracker struct {
	store     SessionStore
	location  LocationProvider
	biometric BiometricProvider
	hub       *LiveHub

	buffer *RouteBuffer
	queue  *pendingQueue
	engine *SyncEngine

	jumpThresholdM float64
	gracePeriod    time.Duration
	nowFunc        func() time.Time

	mu           sync.Mutex
	state        string
	session      *models.Session
	userID       string
	startTime    time.Time
	pausedAt     time.Time
	totalPaused  time.Duration
	lastPoint    *models.LocationSample
	distanceM    float64
	currentSpeed float64
	maxSpeed     float64
	speedSum     float64
	speedCount   int
	maxHeartRate *int
	done         chan struct{}
}

func NewTracker(store SessionStore, location LocationProvider, biometric BiometricProvider, hub *LiveHub, cfg TrackerConfig) *Tracker {
	if cfg.JumpThresholdM <= 0 {
		cfg.JumpThresholdM = 500
	}

	queue := newPendingQueue()
	return &Tracker{
		store:          store,
		location:       location,
		biometric:      biometric,
		hub:            hub,
		buffer:         NewRouteBuffer(),
		queue:          queue,
		engine:         NewSyncEngine(store, hub, queue, cfg.FlushInterval),
		jumpThresholdM: cfg.JumpThresholdM,
		gracePeriod:    cfg.StopGracePeriod,
		nowFunc:        time.Now,
		state:          StateIdle,
		currentSpeed:   -1,
	}
}

// Start begins tracking the given session. Rejected unless idle; the first
// session keeps its counters when a second Start races in.
func (t *Tracker) Start(ctx context.Context, session *models.Session, userID string) error {
	if session == nil || session.ID == "" {
		// A session must be persisted before it can be tracked; reaching
		// here means an upstream integration bug, not a user error.
		log.Error().Str("user_id", userID).Msg("start rejected: session has no durable id")
		return ErrSessionNotPersisted
	}

	t.mu.Lock()
	if t.state != StateIdle {
		t.mu.Unlock()
		return ErrAlreadyTracking
	}
	t.state = StateActive
	t.session = session
	t.userID = userID
	t.startTime = t.nowFunc()
	t.pausedAt = time.Time{}
	t.totalPaused = 0
	t.lastPoint = nil
	t.distanceM = 0
	t.currentSpeed = -1
	t.maxSpeed = 0
	t.speedSum = 0
	t.speedCount = 0
	t.maxHeartRate = nil
	t.done = make(chan struct{})
	done := t.done
	t.mu.Unlock()

	t.buffer.Clear()
	t.queue.Reset(0)

	// Pre-load any persisted route so a session resumed after recovery
	// renders without a gap, and continue sequencing past it.
	if history, err := t.store.RoutePoints(ctx, session.ID, userID); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("could not pre-load route history")
	} else if len(history) > 0 {
		samples := make([]models.LocationSample, 0, len(history))
		for _, record := range history {
			sample := models.LocationSample{
				Latitude:  record.Latitude,
				Longitude: record.Longitude,
				Speed:     -1,
				Timestamp: record.Timestamp,
			}
			if record.Speed != nil {
				sample.Speed = *record.Speed
			}
			samples = append(samples, sample)
		}
		t.buffer.Seed(samples)
		t.queue.Reset(history[len(history)-1].Seq + 1)
	}

	// Discard samples a previous tracking phase left buffered; the provider
	// is still stopped here, so nothing new can slip in behind the drain.
drain:
	for {
		select {
		case <-t.location.Updates():
		default:
			break drain
		}
	}

	// Sensor failures degrade tracking, they never abort it.
	if err := t.location.StartUpdating(); err != nil {
		log.Error().Err(err).Msg("location provider failed to start, tracking continues degraded")
	}
	if t.biometric != nil {
		if err := t.biometric.Start(session.ID); err != nil {
			log.Warn().Err(err).Msg("biometric provider failed to start")
		}
	}

	go t.consumeLocations(done)
	go t.runTicker(done)
	t.engine.Begin(session.ID, userID, t.snapshotForFlush)

	// Advisory: mirror "participant is tracking" remotely, fire-and-forget.
	go func() {
		markCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.store.MarkParticipantTracking(markCtx, session.ID, userID); err != nil {
			log.Warn().Err(err).Str("session_id", session.ID).Msg("could not mark participant tracking")
		}
	}()

	log.Info().Str("session_id", session.ID).Str("user_id", userID).Msg("tracking started")
	return nil
}

// Pause suspends tracking: providers and loops stop, the pause instant is
// recorded and pending state gets one best-effort flush.
func (t *Tracker) Pause(ctx context.Context) error {
	t.mu.Lock()
	if t.state != StateActive {
		t.mu.Unlock()
		return ErrNotActive
	}
	t.state = StatePaused
	t.pausedAt = t.nowFunc()
	close(t.done)
	t.done = nil
	sessionID := t.session.ID
	t.mu.Unlock()

	t.location.StopUpdating()

	if err := t.engine.Halt(ctx); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("final flush on pause failed, points stay queued")
	}

	// Advisory remote mirror; the local lifecycle is authoritative.
	if err := t.store.SetSessionStatus(ctx, sessionID, models.SessionStatusPaused); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("could not mark session paused remotely")
	}

	log.Info().Str("session_id", sessionID).Msg("tracking paused")
	return nil
}

// Resume restarts tracking after a pause; the pause gap is added to the
// running offset so elapsed time keeps excluding it.
func (t *Tracker) Resume(ctx context.Context) error {
	t.mu.Lock()
	if t.state != StatePaused {
		t.mu.Unlock()
		return ErrNotPaused
	}
	t.totalPaused += t.nowFunc().Sub(t.pausedAt)
	t.pausedAt = time.Time{}
	t.state = StateActive
	t.done = make(chan struct{})
	done := t.done
	sessionID := t.session.ID
	userID := t.userID
	t.mu.Unlock()

	if err := t.location.StartUpdating(); err != nil {
		log.Error().Err(err).Msg("location provider failed to restart, tracking continues degraded")
	}

	go t.consumeLocations(done)
	go t.runTicker(done)
	t.engine.Begin(sessionID, userID, t.snapshotForFlush)

	if err := t.store.SetSessionStatus(ctx, sessionID, models.SessionStatusActive); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("could not mark session active remotely")
	}

	log.Info().Str("session_id", sessionID).Msg("tracking resumed")
	return nil
}

// Stop ends the session: final flush, a short grace wait for in-flight
// writes, then the remote end write. Local state reaches idle even when the
// end write fails; that case reports ErrEndWriteFailed. Stop while idle is a
// no-op.
func (t *Tracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	if t.state == StateIdle {
		t.mu.Unlock()
		return nil
	}
	if t.state == StateStopping {
		t.mu.Unlock()
		return ErrNotTracking
	}
	duration := t.elapsedLocked()
	distance := t.distanceM
	sessionID := t.session.ID
	t.state = StateStopping
	if t.done != nil {
		close(t.done)
		t.done = nil
	}
	t.mu.Unlock()

	t.location.StopUpdating()
	if t.biometric != nil {
		t.biometric.Stop()
	}

	if err := t.engine.Halt(ctx); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("final flush on stop failed")
	}

	// Give in-flight advisory writes a moment to settle.
	if t.gracePeriod > 0 {
		time.Sleep(t.gracePeriod)
	}

	endErr := t.store.EndSession(ctx, sessionID, int(duration.Seconds()), distance)

	// Local state must not get stuck on a remote failure.
	t.mu.Lock()
	t.state = StateIdle
	t.session = nil
	t.userID = ""
	t.lastPoint = nil
	t.mu.Unlock()
	t.buffer.Clear()
	t.queue.Reset(0)

	if endErr != nil {
		log.Error().Err(endErr).Str("session_id", sessionID).Msg("remote end write failed")
		return ErrEndWriteFailed
	}

	log.Info().Str("session_id", sessionID).Int("duration_s", int(duration.Seconds())).Msg("tracking stopped")
	return nil
}

// consumeLocations is the single consumer of the provider stream
func (t *Tracker) consumeLocations(done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case sample, ok := <-t.location.Updates():
			if !ok {
				return
			}
			t.handleSample(sample)
		}
	}
}

func (t *Tracker) handleSample(sample models.LocationSample) {
	t.mu.Lock()
	if t.state != StateActive {
		t.mu.Unlock()
		return
	}

	if t.lastPoint != nil {
		leg := haversineMeters(t.lastPoint.Latitude, t.lastPoint.Longitude, sample.Latitude, sample.Longitude)
		if leg <= t.jumpThresholdM {
			t.distanceM += leg
		} else {
			// Implausible jump: keep the point for the visible route but
			// leave the distance accumulator alone.
			log.Debug().Float64("leg_m", leg).Msg("jump excluded from distance")
		}
	}
	point := sample
	t.lastPoint = &point

	if sample.Speed >= 0 {
		t.currentSpeed = sample.Speed
		t.speedSum += sample.Speed
		t.speedCount++
		if sample.Speed > t.maxSpeed {
			t.maxSpeed = sample.Speed
		}
	}

	if t.biometric != nil {
		if bpm := t.biometric.CurrentHeartRate(); bpm != nil {
			if t.maxHeartRate == nil || *bpm > *t.maxHeartRate {
				rate := *bpm
				t.maxHeartRate = &rate
			}
		}
	}

	record := models.RoutePointRecord{
		SessionID: t.session.ID,
		UserID:    t.userID,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Timestamp: sample.Timestamp,
	}
	if sample.Speed >= 0 {
		speed := sample.Speed
		record.Speed = &speed
	}
	t.mu.Unlock()

	t.buffer.Append(sample)
	t.queue.Enqueue(record)
}

// runTicker recomputes the elapsed display once per second while active and
// pushes the latest position to live viewers
func (t *Tracker) runTicker(done chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.state != StateActive || t.lastPoint == nil {
				t.mu.Unlock()
				continue
			}
			update := models.LiveUpdate{
				SessionID:      t.session.ID,
				UserID:         t.userID,
				Latitude:       t.lastPoint.Latitude,
				Longitude:      t.lastPoint.Longitude,
				Speed:          t.currentSpeed,
				ElapsedSeconds: int(t.elapsedLocked().Seconds()),
				Timestamp:      t.nowFunc(),
			}
			t.mu.Unlock()

			if t.hub != nil {
				t.hub.BroadcastUpdate(update)
			}
		}
	}
}

// elapsedLocked excludes accumulated pause time; frozen while paused
func (t *Tracker) elapsedLocked() time.Duration {
	switch t.state {
	case StateActive, StateStopping:
		return t.nowFunc().Sub(t.startTime) - t.totalPaused
	case StatePaused:
		return t.pausedAt.Sub(t.startTime) - t.totalPaused
	default:
		return 0
	}
}

func (t *Tracker) snapshotForFlush() flushSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFunc()
	stats := models.ParticipantStats{
		SessionID:    t.session.ID,
		UserID:       t.userID,
		Distance:     t.distanceM,
		Duration:     int(t.elapsedLocked().Seconds()),
		MaxSpeed:     t.maxSpeed,
		MaxHeartRate: t.maxHeartRate,
		LastUpdate:   now,
	}
	if t.speedCount > 0 {
		stats.AverageSpeed = t.speedSum / float64(t.speedCount)
	}
	if t.biometric != nil {
		stats.HeartRate = t.biometric.CurrentHeartRate()
	}

	var heartbeat *models.ParticipantHeartbeat
	if t.lastPoint != nil {
		heartbeat = &models.ParticipantHeartbeat{
			SessionID: t.session.ID,
			UserID:    t.userID,
			Latitude:  t.lastPoint.Latitude,
			Longitude: t.lastPoint.Longitude,
			HeartRate: stats.HeartRate,
			IsLive:    true,
			UpdatedAt: now,
		}
	}

	return flushSnapshot{stats: stats, heartbeat: heartbeat}
}

// State returns the current lifecycle phase
func (t *Tracker) State() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// CurrentSession returns the session under local tracking, nil when idle
func (t *Tracker) CurrentSession() *models.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Route returns the full visible route for rendering
func (t *Tracker) Route() []models.LocationSample {
	return t.buffer.Snapshot()
}

// LiveMetrics returns the tracker's current counters for the metrics screen
func (t *Tracker) LiveMetrics() models.LiveMetricsResponse {
	t.mu.Lock()
	defer t.mu.Unlock()

	metrics := models.LiveMetricsResponse{
		State:        t.state,
		Distance:     t.distanceM,
		Duration:     int(t.elapsedLocked().Seconds()),
		CurrentSpeed: t.currentSpeed,
		MaxSpeed:     t.maxSpeed,
		PointCount:   t.buffer.Len(),
		PendingCount: t.queue.Len(),
	}
	if t.session != nil {
		metrics.SessionID = t.session.ID
	}
	if t.speedCount > 0 {
		metrics.AverageSpeed = t.speedSum / float64(t.speedCount)
	}
	if t.biometric != nil && t.state == StateActive {
		metrics.HeartRate = t.biometric.CurrentHeartRate()
	}
	return metrics
}
