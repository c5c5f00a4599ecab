// services/score_service_test.go
package services

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"minigame-publish-system/games"
	"minigame-publish-system/middleware"
	"minigame-publish-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.GameTemplate{},
		&models.Game{},
		&models.GameScore{},
		&models.PlayerUser{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func seedTestGame(t *testing.T, db *gorm.DB, published bool) *models.Game {
	t.Helper()
	template := models.GameTemplate{ID: uuid.NewString(), Slug: models.TemplateMatchingPair, Name: "Matching Pair"}
	if err := db.Create(&template).Error; err != nil {
		t.Fatalf("failed to seed template: %v", err)
	}
	payload, err := games.EncodePayload(&games.MatchingPairPayload{
		Countdown:     60,
		ScorePerMatch: 10,
		Images:        []string{"a.png", "b.png"},
	})
	if err != nil {
		t.Fatalf("failed to encode payload: %v", err)
	}
	game := models.Game{
		ID:             uuid.NewString(),
		GameTemplateID: template.ID,
		CreatorID:      "creator-1",
		Name:           "Test Game " + uuid.NewString(),
		IsPublished:    published,
		GameJSON:       payload,
	}
	if err := db.Create(&game).Error; err != nil {
		t.Fatalf("failed to seed game: %v", err)
	}
	return &game
}

func setupScoreApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	svc := NewScoreService(db)

	app.Get("/games/:game_id/leaderboard", svc.GetLeaderboard)

	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Post("/game-scores", svc.CreateGameScore)
	secured.Get("/games/:game_id/scores/me/best", svc.GetUserBestScore)

	return app
}

func postJSON(t *testing.T, app *fiber.App, path, userID string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("failed to decode body %s: %v", raw, err)
	}
}

func TestCreateGameScore(t *testing.T) {
	db := setupTestDB(t)
	game := seedTestGame(t, db, true)
	app := setupScoreApp(db)

	resp := postJSON(t, app, "/game-scores", "player-1", fiber.Map{
		"game_id":    game.ID,
		"score":      40,
		"time_taken": 25,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var created models.GameScore
	decodeBody(t, resp, &created)
	if created.UserID != "player-1" || created.Score != 40 {
		t.Errorf("created score = %+v", created)
	}

	var count int64
	db.Model(&models.GameScore{}).Where("game_id = ?", game.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 stored score, got %d", count)
	}
}

func TestCreateGameScoreRejections(t *testing.T) {
	db := setupTestDB(t)
	unpublished := seedTestGame(t, db, false)
	app := setupScoreApp(db)

	tests := []struct {
		name       string
		userID     string
		body       fiber.Map
		wantStatus int
	}{
		{
			name:       "unpublished game is not found",
			userID:     "player-1",
			body:       fiber.Map{"game_id": unpublished.ID, "score": 10, "time_taken": 5},
			wantStatus: fiber.StatusNotFound,
		},
		{
			name:       "missing game",
			userID:     "player-1",
			body:       fiber.Map{"game_id": uuid.NewString(), "score": 10, "time_taken": 5},
			wantStatus: fiber.StatusNotFound,
		},
		{
			name:       "negative score",
			userID:     "player-1",
			body:       fiber.Map{"game_id": unpublished.ID, "score": -1, "time_taken": 5},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "missing game_id",
			userID:     "player-1",
			body:       fiber.Map{"score": 10},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "no user context",
			userID:     "",
			body:       fiber.Map{"game_id": unpublished.ID, "score": 10},
			wantStatus: fiber.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, app, "/game-scores", tt.userID, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestGetLeaderboard(t *testing.T) {
	db := setupTestDB(t)
	game := seedTestGame(t, db, true)
	app := setupScoreApp(db)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	scores := []models.GameScore{
		{ID: "s1", UserID: "u1", GameID: game.ID, Score: 100, TimeTaken: 30, CreatedAt: base},
		{ID: "s2", UserID: "u2", GameID: game.ID, Score: 100, TimeTaken: 20, CreatedAt: base.Add(time.Minute)},
		{ID: "s3", UserID: "u3", GameID: game.ID, Score: 90, TimeTaken: 10, CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range scores {
		if err := db.Create(&scores[i]).Error; err != nil {
			t.Fatalf("failed to seed score: %v", err)
		}
	}
	// Synced snapshot for u2 only — the other rows render without a user.
	if err := db.Create(&models.PlayerUser{
		ExternalUserID: "u2",
		Username:       "speedrunner",
	}).Error; err != nil {
		t.Fatalf("failed to seed player: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/games/"+game.ID+"/leaderboard", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Data []LeaderboardRow      `json:"data"`
		Meta games.LeaderboardMeta `json:"meta"`
	}
	decodeBody(t, resp, &body)

	wantOrder := []string{"s2", "s1", "s3"}
	if len(body.Data) != len(wantOrder) {
		t.Fatalf("expected %d rows, got %d", len(wantOrder), len(body.Data))
	}
	for i, want := range wantOrder {
		if body.Data[i].ID != want {
			t.Errorf("rank %d = %s, want %s", i, body.Data[i].ID, want)
		}
	}
	if body.Data[0].User == nil || body.Data[0].User.Username != "speedrunner" {
		t.Errorf("top row missing player snapshot: %+v", body.Data[0].User)
	}
	if body.Data[1].User != nil {
		t.Errorf("unsynced user must render without snapshot, got %+v", body.Data[1].User)
	}
	if body.Meta.Total != 3 || body.Meta.CurrentPage != 1 {
		t.Errorf("meta = %+v", body.Meta)
	}
}

func TestGetLeaderboardMissingGame(t *testing.T) {
	db := setupTestDB(t)
	app := setupScoreApp(db)

	req := httptest.NewRequest(http.MethodGet, "/games/"+uuid.NewString()+"/leaderboard", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetUserBestScore(t *testing.T) {
	db := setupTestDB(t)
	game := seedTestGame(t, db, true)
	app := setupScoreApp(db)

	base := time.Now().UTC()
	for _, s := range []models.GameScore{
		{ID: "s1", UserID: "u1", GameID: game.ID, Score: 50, TimeTaken: 20, CreatedAt: base},
		{ID: "s2", UserID: "u1", GameID: game.ID, Score: 80, TimeTaken: 40, CreatedAt: base.Add(time.Minute)},
	} {
		score := s
		if err := db.Create(&score).Error; err != nil {
			t.Fatalf("failed to seed score: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/games/"+game.ID+"/scores/me/best", nil)
	req.Header.Set("X-User-ID", "u1")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var body struct {
		HasScore bool              `json:"has_score"`
		Best     *models.GameScore `json:"best"`
	}
	decodeBody(t, resp, &body)
	if !body.HasScore || body.Best == nil || body.Best.ID != "s2" {
		t.Errorf("best = %+v, want s2", body.Best)
	}

	// A user with no attempts gets has_score=false, not an error.
	req = httptest.NewRequest(http.MethodGet, "/games/"+game.ID+"/scores/me/best", nil)
	req.Header.Set("X-User-ID", "ghost")
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	decodeBody(t, resp, &body)
	if body.HasScore {
		t.Error("expected has_score=false for user with no attempts")
	}
}
