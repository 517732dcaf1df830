// File: /models/route_point.go
package models

import (
	"time"
)

// RoutePointRecord is one persisted location sample of a participant's track.
// The (session_id, user_id, seq) key makes batch appends idempotent: a retried
// flush after a partially applied write cannot double-insert a point.
type RoutePointRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SessionID string    `json:"session_id" gorm:"not null;size:191;uniqueIndex:idx_route_points_session_user_seq,priority:1"`
	UserID    string    `json:"user_id" gorm:"not null;size:191;uniqueIndex:idx_route_points_session_user_seq,priority:2"`
	Seq       int64     `json:"seq" gorm:"not null;uniqueIndex:idx_route_points_session_user_seq,priority:3"`
	Latitude  float64   `json:"latitude" gorm:"not null"`
	Longitude float64   `json:"longitude" gorm:"not null"`
	Speed     *float64  `json:"speed"` // m/s, from the provider when available
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (RoutePointRecord) TableName() string {
	return "route_points"
}

// ParticipantStats is the per (session, user) aggregate upserted on every
// flush. LastUpdate doubles as the liveness heartbeat timestamp for viewers.
type ParticipantStats struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SessionID    string    `json:"session_id" gorm:"not null;size:191;uniqueIndex:idx_participant_stats_session_user,priority:1"`
	UserID       string    `json:"user_id" gorm:"not null;size:191;uniqueIndex:idx_participant_stats_session_user,priority:2"`
	Distance     float64   `json:"distance"`      // meters
	Duration     int       `json:"duration"`      // seconds, excludes pauses
	AverageSpeed float64   `json:"average_speed"` // m/s
	MaxSpeed     float64   `json:"max_speed"`     // m/s
	HeartRate    *int      `json:"heart_rate"`     // latest bpm
	MaxHeartRate *int      `json:"max_heart_rate"` // bpm
	LastUpdate   time.Time `json:"last_update"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ParticipantStats) TableName() string {
	return "participant_stats"
}
