// services/anagram_service.go
package services

import (
	"encoding/json"
	"strconv"

	"minigame-publish-system/games"
	"minigame-publish-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnagramService struct {
	DB *gorm.DB
}

func NewAnagramService(db *gorm.DB) *AnagramService {
	return &AnagramService{DB: db}
}

// CreateAnagram creates a new anagram game from multipart form input:
// name, description, is_publish_immediately, is_question_randomized,
// questions (JSON array), thumbnail_image, files_to_upload[].
func (s *AnagramService) CreateAnagram(c *fiber.Ctx) error {
	requester := requesterFromCtx(c)

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "multipart form required"})
	}

	name := c.FormValue("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	var questions []games.AnagramQuestionInput
	if raw := c.FormValue("questions"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &questions); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid questions JSON"})
		}
	}
	if len(questions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "at least one question is required"})
	}

	randomized, _ := strconv.ParseBool(c.FormValue("is_question_randomized"))
	publishNow, _ := strconv.ParseBool(c.FormValue("is_publish_immediately"))

	if err := checkGameName(s.DB, name, ""); err != nil {
		return domainErrorResponse(c, err)
	}

	template, err := findTemplate(s.DB, models.TemplateAnagram)
	if err != nil {
		return domainErrorResponse(c, err)
	}

	imageFiles := form.File["files_to_upload"]
	if len(imageFiles) != len(questions) {
		return domainErrorResponse(c, games.NewValidationError("files_to_upload",
			"all questions must have a corresponding image file uploaded"))
	}

	gameID := uuid.NewString()
	prefix := assetPrefix(models.TemplateAnagram, name, gameID)

	// Uploads happen before the row exists, so a failure here never leaves
	// a half-created game behind.
	thumbnailURL := ""
	if thumbFile, err := c.FormFile("thumbnail_image"); err == nil && thumbFile.Size > 0 {
		thumbnailURL, err = uploadGameAsset(prefix, thumbFile)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload thumbnail"})
		}
	}

	imageURLs := make([]string, 0, len(imageFiles))
	for _, file := range imageFiles {
		url, err := uploadGameAsset(prefix, file)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload question image"})
		}
		imageURLs = append(imageURLs, url)
	}

	payload, err := games.BuildAnagram(questions, randomized, imageURLs)
	if err != nil {
		return domainErrorResponse(c, err)
	}
	gameJSON, err := games.EncodePayload(payload)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to encode payload"})
	}

	game := &models.Game{
		ID:             gameID,
		GameTemplateID: template.ID,
		CreatorID:      requester.UserID,
		Name:           name,
		Description:    c.FormValue("description"),
		ThumbnailImage: thumbnailURL,
		IsPublished:    publishNow,
		GameJSON:       gameJSON,
	}
	if err := s.DB.Create(game).Error; err != nil {
		return domainErrorResponse(c, translateInsertError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": game.ID})
}

// GetAnagramDetail returns the full stored game for its creator or an admin.
func (s *AnagramService) GetAnagramDetail(c *fiber.Ctx) error {
	game, payload, err := loadGameByKind(s.DB, c.Params("game_id"), games.KindAnagram)
	if err != nil {
		return domainErrorResponse(c, err)
	}
	if !games.CanViewPrivate(game, requesterFromCtx(c)) {
		return domainErrorResponse(c, games.ErrNoAccess)
	}

	anagram := payload.(*games.AnagramPayload)
	return c.JSON(fiber.Map{
		"id":                     game.ID,
		"name":                   game.Name,
		"description":            game.Description,
		"thumbnail_image":        game.ThumbnailImage,
		"is_published":           game.IsPublished,
		"is_question_randomized": anagram.IsQuestionRandomized,
		"questions":              anagram.Questions,
	})
}

// PlayAnagramPublic serves the play view of a published game.
func (s *AnagramService) PlayAnagramPublic(c *fiber.Ctx) error {
	return s.play(c, true)
}

// PlayAnagram serves the play view to the creator or an admin, published or
// not (author preview).
func (s *AnagramService) PlayAnagram(c *fiber.Ctx) error {
	return s.play(c, false)
}

func (s *AnagramService) play(c *fiber.Ctx, isPublic bool) error {
	game, payload, err := loadGameByKind(s.DB, c.Params("game_id"), games.KindAnagram)
	if err != nil {
		return domainErrorResponse(c, err)
	}

	// An unpublished game is invisible to the public — not-found, never
	// forbidden.
	if isPublic && !games.CanViewPublic(game) {
		return domainErrorResponse(c, games.ErrGameNotFound)
	}
	if !isPublic && !games.CanViewPrivate(game, requesterFromCtx(c)) {
		return domainErrorResponse(c, games.ErrNoAccess)
	}

	anagram := payload.(*games.AnagramPayload)
	return c.JSON(fiber.Map{
		"id":              game.ID,
		"name":            game.Name,
		"description":     game.Description,
		"thumbnail_image": game.ThumbnailImage,
		"is_published":    game.IsPublished,
		"questions":       anagram.Present(),
	})
}

// CheckAnagramAnswer grades submitted answers. Pure: nothing is persisted,
// and repeated identical calls return identical results.
func (s *AnagramService) CheckAnagramAnswer(c *fiber.Ctx) error {
	var input struct {
		Answers []games.AnagramAnswer `json:"answers"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	_, payload, err := loadGameByKind(s.DB, c.Params("game_id"), games.KindAnagram)
	if err != nil {
		return domainErrorResponse(c, err)
	}

	result, err := payload.(*games.AnagramPayload).Score(input.Answers)
	if err != nil {
		return domainErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"game_id":         c.Params("game_id"),
		"total_questions": result.TotalQuestions,
		"score":           result.Score,
		"max_score":       result.MaxScore,
		"percentage":      result.Percentage,
		"results":         result.Results,
	})
}

// UpdateAnagram merges a partial multipart update into the stored game.
// Omitted fields keep their prior values; replaced assets are removed from
// storage after the row update commits.
func (s *AnagramService) UpdateAnagram(c *fiber.Ctx) error {
	game, payload, err := loadGameByKind(s.DB, c.Params("game_id"), games.KindAnagram)
	if err != nil {
		return domainErrorResponse(c, err)
	}
	if !games.CanViewPrivate(game, requesterFromCtx(c)) {
		return domainErrorResponse(c, games.ErrNoAccess)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "multipart form required"})
	}

	if name, sent := formString(form, "name"); sent && name != "" && name != game.Name {
		if err := checkGameName(s.DB, name, game.ID); err != nil {
			return domainErrorResponse(c, err)
		}
		game.Name = name
	}
	if description, sent := formString(form, "description"); sent {
		game.Description = description
	}
	if publishStr, sent := formString(form, "is_publish"); sent {
		publish, _ := strconv.ParseBool(publishStr)
		game.IsPublished = publish
	}

	update := games.AnagramUpdate{}
	if randomizedStr, sent := formString(form, "is_question_randomized"); sent {
		randomized, _ := strconv.ParseBool(randomizedStr)
		update.IsQuestionRandomized = &randomized
	}
	if raw, sent := formString(form, "questions"); sent && raw != "" {
		if err := json.Unmarshal([]byte(raw), &update.Questions); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid questions JSON"})
		}
	}

	prefix := assetPrefix(models.TemplateAnagram, game.Name, game.ID)

	oldThumbnail := ""
	if thumbFile, err := c.FormFile("thumbnail_image"); err == nil && thumbFile.Size > 0 {
		thumbnailURL, err := uploadGameAsset(prefix, thumbFile)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload thumbnail"})
		}
		oldThumbnail = game.ThumbnailImage
		game.ThumbnailImage = thumbnailURL
	}

	var uploadedURLs []string
	for _, file := range form.File["files_to_upload"] {
		url, err := uploadGameAsset(prefix, file)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload question image"})
		}
		uploadedURLs = append(uploadedURLs, url)
	}

	merged, removed, err := payload.(*games.AnagramPayload).MergeUpdate(update, uploadedURLs)
	if err != nil {
		return domainErrorResponse(c, err)
	}
	gameJSON, err := games.EncodePayload(merged)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to encode payload"})
	}
	game.GameJSON = gameJSON

	if err := s.DB.Save(game).Error; err != nil {
		return domainErrorResponse(c, translateInsertError(err))
	}

	if oldThumbnail != "" {
		removed = append(removed, oldThumbnail)
	}
	removeAssets(removed)

	return c.JSON(fiber.Map{"id": game.ID})
}

// DeleteAnagram removes the game record and every asset it referenced.
func (s *AnagramService) DeleteAnagram(c *fiber.Ctx) error {
	game, payload, err := loadGameByKind(s.DB, c.Params("game_id"), games.KindAnagram)
	if err != nil {
		return domainErrorResponse(c, err)
	}
	if !games.CanViewPrivate(game, requesterFromCtx(c)) {
		return domainErrorResponse(c, games.ErrNoAccess)
	}

	assets := games.DeleteAssets(payload, game.ThumbnailImage)

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", game.ID).Delete(&models.GameScore{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(game).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete game"})
	}

	removeAssets(assets)

	return c.JSON(fiber.Map{"id": game.ID, "message": "anagram game deleted successfully"})
}
