// models/game.go
package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Template slugs — fixed catalog, seeded at boot. A Game's template never
// changes after creation.
const (
	TemplateAnagram      = "anagram"
	TemplateMatchingPair = "matching-pair"
)

// GameTemplate is one row of the seeded template catalog.
type GameTemplate struct {
	ID   string `json:"id" gorm:"primaryKey"`
	Slug string `json:"slug" gorm:"uniqueIndex;not null"`
	Name string `json:"name" gorm:"not null"`
}

type Game struct {
	ID             string `json:"id" gorm:"primaryKey"`
	GameTemplateID string `json:"game_template_id" gorm:"index;not null"`
	CreatorID      string `json:"creator_id" gorm:"index;not null"`

	// Name is unique across ALL games regardless of template. The unique
	// index is the authoritative guard — the pre-insert check is optimistic.
	Name           string `json:"name" gorm:"uniqueIndex;not null"`
	Description    string `json:"description"`
	ThumbnailImage string `json:"thumbnail_image"`

	// 🎛️ Publishing state
	IsPublished bool       `json:"is_published" gorm:"default:false"`
	PublishAt   *time.Time `json:"publish_at,omitempty"` // set only when publish is scheduled

	PlayCount int64 `json:"play_count" gorm:"default:0"`

	// GameJSON is the variant-specific payload. Opaque to everything except
	// the variant matching the template slug.
	GameJSON datatypes.JSON `json:"game_json"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Template *GameTemplate `json:"template,omitempty" gorm:"foreignKey:GameTemplateID"`
}
