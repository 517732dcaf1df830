// File: /models/user.go
package models

import (
	"strings"
	"time"
)

type User struct {
	ID            string    `json:"id" gorm:"primaryKey;size:191"`
	Name          string    `json:"name" gorm:"not null;size:255"`
	Handle        string    `json:"handle" gorm:"uniqueIndex;not null;size:50"` // @username functionality
	Email         string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password      string    `json:"-" gorm:"not null;size:255"`
	Avatar        *string   `json:"avatar" gorm:"size:500"`
	RunsCount     int       `json:"runs_count" gorm:"default:0"`
	TotalDistance float64   `json:"total_distance" gorm:"default:0"` // lifetime meters
	TotalDuration int       `json:"total_duration" gorm:"default:0"` // lifetime seconds
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	Sessions []Session `json:"sessions,omitempty" gorm:"foreignKey:CreatorID"`
}

// GenerateHandleFromName creates a URL-safe handle from a display name
func GenerateHandleFromName(name string) string {
	handle := strings.ToLower(strings.TrimSpace(name))
	handle = strings.ReplaceAll(handle, " ", "_")

	var cleaned strings.Builder
	for _, char := range handle {
		if (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') || char == '_' {
			cleaned.WriteRune(char)
		}
	}

	result := cleaned.String()
	if result == "" {
		result = "runner"
	}
	if len(result) > 30 {
		result = result[:30]
	}

	return result
}
