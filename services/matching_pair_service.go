// services/matching_pair_service.go
package services

import (
	"strconv"

	"minigame-publish-system/games"
	"minigame-publish-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Boundary bounds for matching-pair settings. The engine never re-checks
// these — they are request-shape concerns.
const (
	minCountdown = 10
	maxCountdown = 3600
	defCountdown = 60

	minScorePerMatch = 1
	maxScorePerMatch = 1000
	defScorePerMatch = 10
)

type MatchingPairService struct {
	DB *gorm.DB
}

func NewMatchingPairService(db *gorm.DB) *MatchingPairService {
	return &MatchingPairService{DB: db}
}

func parseBoundedInt(raw string, def, min, max int) (int, bool) {
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min || value > max {
		return 0, false
	}
	return value, true
}

// CreateMatchingPair creates a new matching-pair game from multipart form
// input: name, description, is_publish_immediately, countdown,
// score_per_match, thumbnail_image, files_to_upload[].
func (s *MatchingPairService) CreateMatchingPair(c *fiber.Ctx) error {
	requester := requesterFromCtx(c)

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "multipart form required"})
	}

	name := c.FormValue("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	countdown, ok := parseBoundedInt(c.FormValue("countdown"), defCountdown, minCountdown, maxCountdown)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "countdown must be between 10 and 3600 seconds"})
	}
	scorePerMatch, ok := parseBoundedInt(c.FormValue("score_per_match"), defScorePerMatch, minScorePerMatch, maxScorePerMatch)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "score_per_match must be between 1 and 1000"})
	}
	publishNow, _ := strconv.ParseBool(c.FormValue("is_publish_immediately"))

	if err := checkGameName(s.DB, name, ""); err != nil {
		return domainErrorResponse(c, err)
	}

	template, err := findTemplate(s.DB, models.TemplateMatchingPair)
	if err != nil {
		return domainErrorResponse(c, err)
	}

	imageFiles := form.File["files_to_upload"]
	if len(imageFiles) < games.MinPairImages || len(imageFiles) > games.MaxPairImages {
		return domainErrorResponse(c, games.NewValidationError("files_to_upload",
			"between %d and %d images required, got %d", games.MinPairImages, games.MaxPairImages, len(imageFiles)))
	}

	thumbFile, err := c.FormFile("thumbnail_image")
	if err != nil || thumbFile.Size == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "thumbnail_image is required"})
	}

	gameID := uuid.NewString()
	prefix := assetPrefix(models.TemplateMatchingPair, name, gameID)

	thumbnailURL, err := uploadGameAsset(prefix, thumbFile)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload thumbnail"})
	}

	imageURLs := make([]string, 0, len(imageFiles))
	for _, file := range imageFiles {
		url, err := uploadGameAsset(prefix, file)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload pair image"})
		}
		imageURLs = append(imageURLs, url)
	}

	payload, err := games.BuildMatchingPair(countdown, scorePerMatch, imageURLs)
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

// GetMatchingPairDetail returns the full stored game for its creator or an
// admin.
func (s *MatchingPairService) GetMatchingPairDetail(c *fiber.Ctx) error {
	game, payload, err := loadGameByKind(s.DB, c.Params("game_id"), games.KindMatchingPair)
	if err != nil {
		return domainErrorResponse(c, err)
	}
	if !games.CanViewPrivate(game, requesterFromCtx(c)) {
		return domainErrorResponse(c, games.ErrNoAccess)
	}

	pair := payload.(*games.MatchingPairPayload)
	return c.JSON(fiber.Map{
		"id":              game.ID,
		"name":            game.Name,
		"description":     game.Description,
		"thumbnail_image": game.ThumbnailImage,
		"is_published":    game.IsPublished,
		"countdown":       pair.Countdown,
		"score_per_match": pair.ScorePerMatch,
		"images":          pair.Images,
	})
}

// PlayMatchingPairPublic serves the shuffled deck of a published game.
func (s *MatchingPairService) PlayMatchingPairPublic(c *fiber.Ctx) error {
	return s.play(c, true)
}

// PlayMatchingPair serves the deck to the creator or an admin (preview).
func (s *MatchingPairService) PlayMatchingPair(c *fiber.Ctx) error {
	return s.play(c, false)
}

func (s *MatchingPairService) play(c *fiber.Ctx, isPublic bool) error {
	game, payload, err := loadGameByKind(s.DB, c.Params("game_id"), games.KindMatchingPair)
	if err != nil {
		return domainErrorResponse(c, err)
	}

	if isPublic && !games.CanViewPublic(game) {
		return domainErrorResponse(c, games.ErrGameNotFound)
	}
	if !isPublic && !games.CanViewPrivate(game, requesterFromCtx(c)) {
		return domainErrorResponse(c, games.ErrNoAccess)
	}

	pair := payload.(*games.MatchingPairPayload)
	return c.JSON(fiber.Map{
		"id":              game.ID,
		"name":            game.Name,
		"description":     game.Description,
		"thumbnail_image": game.ThumbnailImage,
		"is_published":    game.IsPublished,
		"countdown":       pair.Countdown,
		"score_per_match": pair.ScorePerMatch,
		"images":          pair.Present(),
	})
}

// CheckMatchingPairAnswer grades a claimed set of matched pair ids. Pure —
// nothing is persisted.
func (s *MatchingPairService) CheckMatchingPairAnswer(c *fiber.Ctx) error {
	var input struct {
		MatchedPairIDs []int `json:"matched_pair_ids"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	_, payload, err := loadGameByKind(s.DB, c.Params("game_id"), games.KindMatchingPair)
	if err != nil {
		return domainErrorResponse(c, err)
	}

	result, err := payload.(*games.MatchingPairPayload).Score(input.MatchedPairIDs)
	if err != nil {
		return domainErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"game_id":             c.Params("game_id"),
		"total_pairs":         result.TotalPairs,
		"matched_pairs_count": result.MatchedPairsCount,
		"score":               result.Score,
		"max_score":           result.MaxScore,
		"percentage":          result.Percentage,
	})
}

// UpdateMatchingPair merges a partial multipart update. existing_images
// distinguishes "not sent" (keep all prior images) from "sent empty" (drop
// them all); the 32-image ceiling is checked before any upload happens.
func (s *MatchingPairService) UpdateMatchingPair(c *fiber.Ctx) error {
	game, payload, err := loadGameByKind(s.DB, c.Params("game_id"), games.KindMatchingPair)
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

	pair := payload.(*games.MatchingPairPayload)
	update := games.MatchingPairUpdate{}

	if raw, sent := formString(form, "countdown"); sent {
		countdown, ok := parseBoundedInt(raw, defCountdown, minCountdown, maxCountdown)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "countdown must be between 10 and 3600 seconds"})
		}
		update.Countdown = &countdown
	}
	if raw, sent := formString(form, "score_per_match"); sent {
		scorePerMatch, ok := parseBoundedInt(raw, defScorePerMatch, minScorePerMatch, maxScorePerMatch)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "score_per_match must be between 1 and 1000"})
		}
		update.ScorePerMatch = &scorePerMatch
	}

	// existing_images: repeated form field. Present-but-empty clears the
	// prior image list; absent keeps it.
	if values, sent := form.Value["existing_images"]; sent {
		kept := make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				kept = append(kept, v)
			}
		}
		update.ExistingImages = &kept
	}

	// Enforce the ceiling before persisting anything to the asset store.
	newFiles := form.File["files_to_upload"]
	keptCount := len(pair.Images)
	if update.ExistingImages != nil {
		keptCount = len(*update.ExistingImages)
	}
	if keptCount+len(newFiles) > games.MaxPairImages {
		return domainErrorResponse(c, games.NewValidationError("files_to_upload",
			"max %d images allowed, got %d", games.MaxPairImages, keptCount+len(newFiles)))
	}

	prefix := assetPrefix(models.TemplateMatchingPair, game.Name, game.ID)

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
	for _, file := range newFiles {
		url, err := uploadGameAsset(prefix, file)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload pair image"})
		}
		uploadedURLs = append(uploadedURLs, url)
	}

	merged, removed, err := pair.MergeUpdate(update, uploadedURLs)
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

// DeleteMatchingPair removes the game record and every asset it referenced.
func (s *MatchingPairService) DeleteMatchingPair(c *fiber.Ctx) error {
	game, payload, err := loadGameByKind(s.DB, c.Params("game_id"), games.KindMatchingPair)
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

	return c.JSON(fiber.Map{"id": game.ID, "message": "matching pair game deleted successfully"})
}
