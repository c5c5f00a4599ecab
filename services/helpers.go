// services/helpers.go
package services

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"

	"minigame-publish-system/games"
	"minigame-publish-system/models"
	"minigame-publish-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// requesterFromCtx reads the identity placed by UserContextMiddleware.
// Public routes have no user context; the zero Requester is fine there.
func requesterFromCtx(c *fiber.Ctx) games.Requester {
	userID, _ := c.Locals("user_id").(string)
	roles, _ := c.Locals("user_roles").([]string)
	return games.Requester{UserID: userID, Roles: roles}
}

// domainErrorResponse maps engine error kinds to HTTP statuses. Anything
// else is an infrastructure failure and stays a 500.
func domainErrorResponse(c *fiber.Ctx, err error) error {
	var validationErr *games.ValidationError
	var notFoundErr *games.NotFoundError
	var forbiddenErr *games.ForbiddenError
	var conflictErr *games.ConflictError

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.As(err, &notFoundErr):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFoundErr.Message})
	case errors.As(err, &forbiddenErr):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": forbiddenErr.Message})
	case errors.As(err, &conflictErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": conflictErr.Message})
	}
	log.Printf("❌ [GAMES] internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

// assetPrefix builds the R2 key prefix for a game's assets.
func assetPrefix(templateSlug, gameName, gameID string) string {
	return fmt.Sprintf("game/%s/%s-%s", templateSlug, slug.Make(gameName), gameID)
}

// uploadGameAsset stores one multipart file under the game's prefix and
// returns its public URL.
func uploadGameAsset(prefix string, fileHeader *multipart.FileHeader) (string, error) {
	ext := filepath.Ext(fileHeader.Filename)
	if ext == "" {
		ext = ".png"
	}
	return utils.UploadFileToR2(fileHeader, prefix+"/"+uuid.NewString()+ext)
}

// removeAssets best-effort deletes stored assets. Removal failures are
// logged, never surfaced — the record change has already committed.
func removeAssets(paths []string) {
	for _, path := range paths {
		if err := utils.RemoveFileFromR2(path); err != nil {
			log.Printf("⚠️ failed to remove asset %s: %v", path, err)
		}
	}
}

// findTemplate resolves a template catalog row by slug.
func findTemplate(db *gorm.DB, templateSlug string) (*models.GameTemplate, error) {
	var template models.GameTemplate
	if err := db.First(&template, "slug = ?", templateSlug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &games.NotFoundError{Message: "game template not found"}
		}
		return nil, err
	}
	return &template, nil
}

// loadGameByKind fetches a game and decodes its payload, treating a missing
// row and a template mismatch identically as not-found.
func loadGameByKind(db *gorm.DB, gameID string, kind games.Kind) (*models.Game, games.Payload, error) {
	var game models.Game
	if err := db.Preload("Template").First(&game, "id = ?", gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, games.ErrGameNotFound
		}
		return nil, nil, err
	}
	if game.Template == nil || game.Template.Slug != string(kind) {
		return nil, nil, games.ErrGameNotFound
	}

	payload, err := games.DecodePayload(kind, game.GameJSON)
	if err != nil {
		return nil, nil, err
	}
	return &game, payload, nil
}

// checkGameName is the optimistic half of name uniqueness: the unique index
// on games.name stays authoritative under concurrent creation.
func checkGameName(db *gorm.DB, name, excludeGameID string) error {
	var existing models.Game
	err := db.Select("id").Where("name = ?", name).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != excludeGameID {
		return games.ErrNameTaken
	}
	return nil
}

// translateInsertError surfaces the storage-level uniqueness constraint as
// the same conflict the optimistic check reports.
func translateInsertError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return games.ErrNameTaken
	}
	return err
}

// formString returns the form value and whether the field was sent at all —
// partial updates must distinguish "not sent" from "sent empty".
func formString(form *multipart.Form, key string) (string, bool) {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
