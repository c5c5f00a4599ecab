// models/game_score.go
package models

import "time"

// GameScore is one completed play. Append-only: rows are never updated or
// merged — the leaderboard only reads them.
type GameScore struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"index;not null"`
	GameID       string    `json:"game_id" gorm:"index;not null"`
	Score        int       `json:"score"`
	MaxCombo     int       `json:"max_combo" gorm:"default:0"`
	TimeTaken    int       `json:"time_taken"` // seconds
	MatchedPairs int       `json:"matched_pairs"`
	TotalPairs   int       `json:"total_pairs"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}
