package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"minigame-publish-system/handlers"
	"minigame-publish-system/middleware"
	"minigame-publish-system/models"
	"minigame-publish-system/services"
	"minigame-publish-system/utils"
	"minigame-publish-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 64 * 1024 * 1024, // 64MB — game assets are images, not builds
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.GameTemplate{},
		&models.Game{},
		&models.GameScore{},
		&models.PlayerUser{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := seedGameTemplates(db); err != nil {
		log.Fatal("failed to seed game templates:", err)
	}

	gameService := services.NewGameService(db)
	anagramService := services.NewAnagramService(db)
	matchingPairService := services.NewMatchingPairService(db)
	scoreService := services.NewScoreService(db)

	profileServiceURL := os.Getenv("PROFILE_SERVICE_URL")
	if profileServiceURL == "" {
		log.Fatal("PROFILE_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("MINIGAME_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("MINIGAME_SERVICE_TOKEN environment variable not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncWorker := workers.NewPlayerSyncWorker(db, profileServiceURL, "/api/v1/public/profiles", serviceToken)
	syncWorker.Start(ctx)

	gameService.StartPublishScheduler()

	handlers.SetupGameRoutes(app, gameService, anagramService, matchingPairService, scoreService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Player Sync Worker running")
	log.Println("✅ Publish scheduler running (every 1m)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}

// seedGameTemplates inserts the fixed template catalog, skipping rows that
// already exist.
func seedGameTemplates(db *gorm.DB) error {
	templates := []models.GameTemplate{
		{Slug: models.TemplateAnagram, Name: "Anagram"},
		{Slug: models.TemplateMatchingPair, Name: "Matching Pair"},
	}
	for _, template := range templates {
		var existing models.GameTemplate
		err := db.First(&existing, "slug = ?", template.Slug).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		template.ID = uuid.NewString()
		if err := db.Create(&template).Error; err != nil {
			return err
		}
	}
	return nil
}
