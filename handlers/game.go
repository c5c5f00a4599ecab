// handlers/game.go
package handlers

import (
	"minigame-publish-system/middleware"
	"minigame-publish-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(
	app *fiber.App,
	gameService *services.GameService,
	anagramService *services.AnagramService,
	matchingPairService *services.MatchingPairService,
	scoreService *services.ScoreService,
) {
	// 🔓 Public routes — no user context, but still require Gateway auth
	app.Get("/games", gameService.GetPublishedGames)
	app.Get("/game-templates", gameService.GetTemplates)

	app.Get("/games/anagram/:game_id/play/public", anagramService.PlayAnagramPublic)
	app.Post("/games/anagram/:game_id/check", anagramService.CheckAnagramAnswer)
	app.Get("/games/matching-pair/:game_id/play/public", matchingPairService.PlayMatchingPairPublic)
	app.Post("/games/matching-pair/:game_id/check", matchingPairService.CheckMatchingPairAnswer)

	app.Get("/games/:game_id/leaderboard", scoreService.GetLeaderboard)
	app.Post("/games/:game_id/play-count", gameService.IncrementPlayCount)

	// 🔐 Secured routes — require user context (userID, roles)
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/games/mine", gameService.GetMyGames)

	secured.Post("/games/anagram", anagramService.CreateAnagram)
	secured.Get("/games/anagram/:game_id", anagramService.GetAnagramDetail)
	secured.Get("/games/anagram/:game_id/play", anagramService.PlayAnagram)
	secured.Patch("/games/anagram/:game_id", anagramService.UpdateAnagram)
	secured.Delete("/games/anagram/:game_id", anagramService.DeleteAnagram)

	secured.Post("/games/matching-pair", matchingPairService.CreateMatchingPair)
	secured.Get("/games/matching-pair/:game_id", matchingPairService.GetMatchingPairDetail)
	secured.Get("/games/matching-pair/:game_id/play", matchingPairService.PlayMatchingPair)
	secured.Patch("/games/matching-pair/:game_id", matchingPairService.UpdateMatchingPair)
	secured.Delete("/games/matching-pair/:game_id", matchingPairService.DeleteMatchingPair)

	secured.Post("/game-scores", scoreService.CreateGameScore)
	secured.Get("/games/:game_id/scores/me/best", scoreService.GetUserBestScore)

	// Publish scheduling (any variant)
	secured.Post("/games/:game_id/publish/now", gameService.PublishNow)
	secured.Post("/games/:game_id/publish/schedule", gameService.SchedulePublish)
	secured.Post("/games/:game_id/publish/cancel", gameService.CancelScheduledPublish)
}
