// services/game_service.go
package services

import (
	"errors"
	"strconv"
	"time"

	"minigame-publish-system/games"
	"minigame-publish-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type GameService struct {
	DB *gorm.DB
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{DB: db}
}

// MinimalGame is the lightweight listing projection.
type MinimalGame struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	ThumbnailImage string `json:"thumbnail_image"`
	TemplateSlug   string `json:"template_slug"`
	PlayCount      int64  `json:"play_count"`
}

// GetPublishedGames returns published games as a lightweight list,
// optionally filtered by template slug.
func (s *GameService) GetPublishedGames(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(c.Query("per_page", "20"))
	if err != nil || perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := s.DB.Preload("Template").Where("is_published = ?", true)
	if templateSlug := c.Query("template"); templateSlug != "" {
		query = query.Joins("JOIN game_templates ON game_templates.id = games.game_template_id").
			Where("game_templates.slug = ?", templateSlug)
	}

	var gameRows []models.Game
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&gameRows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch games"})
	}

	minimal := make([]MinimalGame, 0, len(gameRows))
	for _, game := range gameRows {
		row := MinimalGame{
			ID:             game.ID,
			Name:           game.Name,
			Description:    game.Description,
			ThumbnailImage: game.ThumbnailImage,
			PlayCount:      game.PlayCount,
		}
		if game.Template != nil {
			row.TemplateSlug = game.Template.Slug
		}
		minimal = append(minimal, row)
	}

	return c.JSON(minimal)
}

// GetMyGames lists the caller's own games, published or not.
func (s *GameService) GetMyGames(c *fiber.Ctx) error {
	requester := requesterFromCtx(c)

	var gameRows []models.Game
	if err := s.DB.Preload("Template").
		Where("creator_id = ?", requester.UserID).
		Order("created_at DESC").
		Find(&gameRows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch games"})
	}

	return c.JSON(gameRows)
}

// GetTemplates returns the seeded template catalog.
func (s *GameService) GetTemplates(c *fiber.Ctx) error {
	var templates []models.GameTemplate
	if err := s.DB.Order("slug").Find(&templates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch templates"})
	}
	return c.JSON(templates)
}

// IncrementPlayCount bumps a published game's play counter.
func (s *GameService) IncrementPlayCount(c *fiber.Ctx) error {
	gameID := c.Params("game_id")

	result := s.DB.Model(&models.Game{}).
		Where("id = ? AND is_published = ?", gameID, true).
		UpdateColumn("play_count", gorm.Expr("play_count + 1"))
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update play count"})
	}
	if result.RowsAffected == 0 {
		return domainErrorResponse(c, games.ErrGameNotFound)
	}

	return c.JSON(fiber.Map{"id": gameID})
}

// loadOwnedGame fetches any-variant games for publish management — the
// payload stays untouched here.
func (s *GameService) loadOwnedGame(c *fiber.Ctx) (*models.Game, error) {
	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("game_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, games.ErrGameNotFound
		}
		return nil, err
	}
	if !games.CanViewPrivate(&game, requesterFromCtx(c)) {
		return nil, games.ErrNoAccess
	}
	return &game, nil
}

// PublishNow publishes immediately and clears any schedule.
func (s *GameService) PublishNow(c *fiber.Ctx) error {
	game, err := s.loadOwnedGame(c)
	if err != nil {
		return domainErrorResponse(c, err)
	}

	game.IsPublished = true
	game.PublishAt = nil
	if err := s.DB.Save(game).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to publish game"})
	}
	return c.JSON(fiber.Map{"id": game.ID, "is_published": true})
}

// SchedulePublish sets a future publish time; the scheduler flips
// is_published once it passes.
func (s *GameService) SchedulePublish(c *fiber.Ctx) error {
	game, err := s.loadOwnedGame(c)
	if err != nil {
		return domainErrorResponse(c, err)
	}

	var input struct {
		PublishAt string `json:"publish_at"`
	}
	if err := c.BodyParser(&input); err != nil || input.PublishAt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "publish_at is required"})
	}
	publishAt, err := time.Parse(time.RFC3339, input.PublishAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid publish_at — use RFC3339 (e.g., 2026-12-31T23:00:00Z)",
		})
	}

	game.IsPublished = false
	game.PublishAt = &publishAt
	if err := s.DB.Save(game).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to schedule publish"})
	}
	return c.JSON(fiber.Map{"id": game.ID, "publish_at": publishAt})
}

// CancelScheduledPublish clears a pending schedule.
func (s *GameService) CancelScheduledPublish(c *fiber.Ctx) error {
	game, err := s.loadOwnedGame(c)
	if err != nil {
		return domainErrorResponse(c, err)
	}

	game.PublishAt = nil
	if err := s.DB.Save(game).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to cancel schedule"})
	}
	return c.JSON(fiber.Map{"id": game.ID})
}
