// File: /models/session.go
package models

import (
	"time"
)

// Session lifecycle statuses
const (
	SessionStatusActive = "active"
	SessionStatusPaused = "paused"
	SessionStatusEnded  = "ended"
)

type Session struct {
	ID               string      `json:"id" gorm:"primaryKey;size:191"`
	SquadID          string      `json:"squad_id" gorm:"not null;size:191;index"`
	CreatorID        string      `json:"creator_id" gorm:"not null;size:191;index"`
	Title            string      `json:"title" gorm:"size:255"`
	Status           string      `json:"status" gorm:"not null;default:'active';size:20;index"`
	StartTime        time.Time   `json:"start_time" gorm:"not null"`
	EndTime          *time.Time  `json:"end_time"`
	Distance         float64     `json:"distance"` // cumulative meters across participants
	Duration         int         `json:"duration"` // in seconds
	ParticipantIDs   StringSlice `json:"participant_ids" gorm:"type:json"`
	ParticipantCount int         `json:"participant_count" gorm:"default:0"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`

	Squad       Squad              `json:"squad" gorm:"foreignKey:SquadID"`
	Creator     User               `json:"creator" gorm:"foreignKey:CreatorID"`
	Stats       []ParticipantStats `json:"stats,omitempty" gorm:"foreignKey:SessionID"`
	RoutePoints []RoutePointRecord `json:"route_points,omitempty" gorm:"foreignKey:SessionID"`
}

// IsUnfinished reports whether the session was left active or paused,
// which is what the recovery path looks for after an unclean termination.
func (s *Session) IsUnfinished() bool {
	return s.Status == SessionStatusActive || s.Status == SessionStatusPaused
}
