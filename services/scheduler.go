// services/scheduler.go
package services

import (
	"log"
	"time"

	"minigame-publish-system/models"

	"github.com/go-co-op/gocron/v2"
)

func (s *GameService) StartPublishScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: publish games whose scheduled time has passed
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var gameRows []models.Game
			now := time.Now()
			err := s.DB.Where("is_published = ? AND publish_at IS NOT NULL AND publish_at <= ?", false, now).
				Find(&gameRows).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, g := range gameRows {
				g.IsPublished = true
				g.PublishAt = nil
				if err := s.DB.Save(&g).Error; err != nil {
					log.Printf("[Scheduler] Failed to publish game %s: %v", g.ID, err)
				} else {
					log.Printf("✅ Auto-published game: %s", g.Name)
				}
			}
		}),
	)
}
