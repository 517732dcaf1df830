// File: /models/location.go
package models

import (
	"time"
)

// LocationSample is one raw coordinate from the device's location provider.
// Samples are ephemeral: they flow into the route buffer and the pending
// queue and are never persisted on their own.
type LocationSample struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed"` // m/s, negative when the provider has no reading
	Timestamp time.Time `json:"timestamp"`
}

// HeartRateSample is one reading from the biometric provider.
type HeartRateSample struct {
	BPM       int       `json:"bpm"`
	Timestamp time.Time `json:"timestamp"`
}

// ParticipantHeartbeat is the liveness record other viewers poll to detect
// staleness. Distinct from route history: only the latest position survives.
type ParticipantHeartbeat struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SessionID string    `json:"session_id" gorm:"not null;size:191;uniqueIndex:idx_heartbeats_session_user,priority:1"`
	UserID    string    `json:"user_id" gorm:"not null;size:191;uniqueIndex:idx_heartbeats_session_user,priority:2"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	HeartRate *int      `json:"heart_rate"`
	IsLive    bool      `json:"is_live" gorm:"default:true"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (ParticipantHeartbeat) TableName() string {
	return "participant_heartbeats"
}

// LiveUpdate is the payload broadcast to session viewers over the live hub.
type LiveUpdate struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed"`
	HeartRate *int      `json:"heart_rate,omitempty"`
	// ElapsedSeconds is only set on the 1 Hz tracker ticks, not on flushes
	ElapsedSeconds int       `json:"elapsed_seconds,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// DTO Models for API responses

// LiveMetricsResponse is the tracker snapshot returned while a session is
// being tracked locally.
type LiveMetricsResponse struct {
	State        string  `json:"state"`
	SessionID    string  `json:"session_id,omitempty"`
	Distance     float64 `json:"distance"`      // meters
	Duration     int     `json:"duration"`      // seconds, excludes pauses
	CurrentSpeed float64 `json:"current_speed"` // m/s
	AverageSpeed float64 `json:"average_speed"` // m/s
	MaxSpeed     float64 `json:"max_speed"`     // m/s
	HeartRate    *int    `json:"heart_rate,omitempty"`
	PointCount   int     `json:"point_count"`
	PendingCount int     `json:"pending_count"`
}
