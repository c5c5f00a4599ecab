// services/score_service.go
package services

import (
	"errors"
	"strconv"

	"minigame-publish-system/games"
	"minigame-publish-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScoreService struct {
	DB *gorm.DB
}

func NewScoreService(db *gorm.DB) *ScoreService {
	return &ScoreService{DB: db}
}

// LeaderboardRow is one ranked attempt joined with the player snapshot.
type LeaderboardRow struct {
	ID           string  `json:"id"`
	Score        int     `json:"score"`
	MaxCombo     int     `json:"max_combo"`
	TimeTaken    int     `json:"time_taken"`
	MatchedPairs int     `json:"matched_pairs"`
	TotalPairs   int     `json:"total_pairs"`
	CreatedAt    string  `json:"created_at"`
	User         *Player `json:"user,omitempty"`
}

type Player struct {
	ID                string  `json:"id"`
	Username          string  `json:"username"`
	ProfilePictureURL *string `json:"profile_picture,omitempty"`
}

// CreateGameScore appends one attempt. The ledger is append-only: attempts
// are never updated or merged afterwards.
func (s *ScoreService) CreateGameScore(c *fiber.Ctx) error {
	requester := requesterFromCtx(c)

	var input struct {
		GameID       string `json:"game_id"`
		Score        int    `json:"score"`
		MaxCombo     int    `json:"max_combo"`
		TimeTaken    int    `json:"time_taken"`
		MatchedPairs int    `json:"matched_pairs"`
		TotalPairs   int    `json:"total_pairs"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if input.GameID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "game_id is required"})
	}
	if input.Score < 0 || input.TimeTaken < 0 || input.MaxCombo < 0 || input.MatchedPairs < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "score fields must be non-negative"})
	}

	// Attempts are recorded only against published games; everything else
	// is not-found.
	var game models.Game
	if err := s.DB.Select("id", "is_published").First(&game, "id = ?", input.GameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainErrorResponse(c, games.ErrGameNotFound)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if !game.IsPublished {
		return domainErrorResponse(c, games.ErrGameNotFound)
	}

	score := &models.GameScore{
		ID:           uuid.NewString(),
		UserID:       requester.UserID,
		GameID:       input.GameID,
		Score:        input.Score,
		MaxCombo:     input.MaxCombo,
		TimeTaken:    input.TimeTaken,
		MatchedPairs: input.MatchedPairs,
		TotalPairs:   input.TotalPairs,
	}
	if err := s.DB.Create(score).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record score"})
	}

	return c.Status(fiber.StatusCreated).JSON(score)
}

// GetLeaderboard returns one ranked page of a game's attempts. Ordering is
// score desc, time_taken asc, created_at asc; pagination is offset/limit
// over that total order.
func (s *ScoreService) GetLeaderboard(c *fiber.Ctx) error {
	gameID := c.Params("game_id")

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(c.Query("per_page", "10"))
	if err != nil || perPage < 1 || perPage > 100 {
		perPage = 10
	}

	var game models.Game
	if err := s.DB.Select("id").First(&game, "id = ?", gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainErrorResponse(c, games.ErrGameNotFound)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var attempts []models.GameScore
	if err := s.DB.Where("game_id = ?", gameID).Find(&attempts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch scores"})
	}

	ranked, meta := games.Rank(attempts, page, perPage)

	rows := make([]LeaderboardRow, 0, len(ranked))
	for _, attempt := range ranked {
		rows = append(rows, LeaderboardRow{
			ID:           attempt.ID,
			Score:        attempt.Score,
			MaxCombo:     attempt.MaxCombo,
			TimeTaken:    attempt.TimeTaken,
			MatchedPairs: attempt.MatchedPairs,
			TotalPairs:   attempt.TotalPairs,
			CreatedAt:    attempt.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			User:         s.playerSnapshot(attempt.UserID),
		})
	}

	return c.JSON(fiber.Map{
		"data": rows,
		"meta": meta,
	})
}

// playerSnapshot looks up the synced profile for display; nil when the sync
// worker has not seen the user yet.
func (s *ScoreService) playerSnapshot(externalUserID string) *Player {
	var player models.PlayerUser
	if err := s.DB.First(&player, "external_user_id = ?", externalUserID).Error; err != nil {
		return nil
	}
	return &Player{
		ID:                player.ExternalUserID,
		Username:          player.Username,
		ProfilePictureURL: player.ProfilePictureURL,
	}
}

// GetUserBestScore returns the caller's personal best for a game under the
// leaderboard ordering, or has_score=false when they never played it.
func (s *ScoreService) GetUserBestScore(c *fiber.Ctx) error {
	requester := requesterFromCtx(c)
	gameID := c.Params("game_id")

	var attempts []models.GameScore
	if err := s.DB.Where("game_id = ? AND user_id = ?", gameID, requester.UserID).Find(&attempts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch scores"})
	}

	best, ok := games.BestOf(attempts, requester.UserID)
	if !ok {
		return c.JSON(fiber.Map{"has_score": false, "best": nil})
	}
	return c.JSON(fiber.Map{"has_score": true, "best": best})
}
