// models/player_user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlayerUser is a local snapshot of profile-service user data needed for
// leaderboard display. Populated via sync worker — never written by request
// handlers.
type PlayerUser struct {
	ID                string  `gorm:"primaryKey" json:"id"`
	ExternalUserID    string  `gorm:"uniqueIndex;not null" json:"external_user_id"` // the profile service's UUID
	Username          string  `gorm:"index;not null" json:"username"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *PlayerUser) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
