// File: /services/providers.go
package services

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"squadrun-api/models"
)

// LocationProvider is the stream of raw coordinates the tracker consumes.
// The tracker is the only component that starts or stops it.
type LocationProvider interface {
	StartUpdating() error
	StopUpdating()
	Updates() <-chan models.LocationSample
	CurrentSpeed() float64
}

// BiometricProvider optionally supplies heart-rate readings during a session
type BiometricProvider interface {
	Start(sessionID string) error
	Stop()
	CurrentHeartRate() *int
}

// DeviceFeed adapts HTTP sample ingestion to the provider contracts: the
// mobile client POSTs its GPS and heart-rate readings and the tracker reads
// them off a channel, giving the state machine a single consumer instead of
// callbacks mutating shared counters.
type DeviceFeed struct {
	mu        sync.Mutex
	tracking  bool
	hrSession string
	speed     float64
	heartRate *int
	updates   chan models.LocationSample
}

func NewDeviceFeed() *DeviceFeed {
	return &DeviceFeed{
		speed:   -1,
		updates: make(chan models.LocationSample, 128),
	}
}

func (f *DeviceFeed) StartUpdating() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracking = true
	f.speed = -1
	return nil
}

func (f *DeviceFeed) StopUpdating() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracking = false
}

func (f *DeviceFeed) Updates() <-chan models.LocationSample {
	return f.updates
}

func (f *DeviceFeed) CurrentSpeed() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speed
}

// Push offers one sample to the stream. Samples arriving while the provider
// is stopped are dropped, as are samples that would overflow the channel
// (the consumer is behind; GPS data is only useful fresh).
func (f *DeviceFeed) Push(sample models.LocationSample) bool {
	f.mu.Lock()
	if !f.tracking {
		f.mu.Unlock()
		return false
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	f.speed = sample.Speed
	f.mu.Unlock()

	select {
	case f.updates <- sample:
		return true
	default:
		log.Warn().Msg("device feed full, dropping location sample")
		return false
	}
}

func (f *DeviceFeed) Start(sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hrSession = sessionID
	f.heartRate = nil
	return nil
}

func (f *DeviceFeed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hrSession = ""
	f.heartRate = nil
}

func (f *DeviceFeed) CurrentHeartRate() *int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heartRate
}

// PushHeartRate records the latest reading; ignored when no session context
func (f *DeviceFeed) PushHeartRate(sample models.HeartRateSample) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hrSession == "" {
		return false
	}
	bpm := sample.BPM
	f.heartRate = &bpm
	return true
}
