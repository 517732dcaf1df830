// File: /models/squad.go
package models

import (
	"time"
)

type Squad struct {
	ID           string    `json:"id" gorm:"primaryKey;size:191"`
	Name         string    `json:"name" gorm:"not null;size:255"`
	Description  string    `json:"description" gorm:"size:1000"`
	CreatorID    string    `json:"creator_id" gorm:"not null;size:191"`
	MembersCount int       `json:"members_count" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Creator User          `json:"creator" gorm:"foreignKey:CreatorID"`
	Members []SquadMember `json:"members,omitempty" gorm:"foreignKey:SquadID"`
}

type SquadMember struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	SquadID  string    `json:"squad_id" gorm:"not null;size:191;uniqueIndex:idx_squad_members_squad_user,priority:1"`
	UserID   string    `json:"user_id" gorm:"not null;size:191;uniqueIndex:idx_squad_members_squad_user,priority:2"`
	Role     string    `json:"role" gorm:"not null;default:'member';size:20"` // member, admin
	JoinedAt time.Time `json:"joined_at"`

	Squad Squad `json:"squad" gorm:"foreignKey:SquadID"`
	User  User  `json:"user" gorm:"foreignKey:UserID"`
}

func (SquadMember) TableName() string {
	return "squad_members"
}
