// games/leaderboard.go
package games

import (
	"sort"

	"minigame-publish-system/models"
)

// LeaderboardMeta is the pagination envelope for a ranked page.
type LeaderboardMeta struct {
	Total       int  `json:"total"`
	CurrentPage int  `json:"currentPage"`
	PerPage     int  `json:"perPage"`
	LastPage    int  `json:"lastPage"`
	Prev        *int `json:"prev"`
	Next        *int `json:"next"`
}

// attemptLess is the one total order for attempts: score desc, time_taken
// asc, created_at asc — the earlier submission wins ties.
func attemptLess(a, b models.GameScore) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.TimeTaken != b.TimeTaken {
		return a.TimeTaken < b.TimeTaken
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// Rank orders the attempts of one game and returns the requested page plus
// pagination meta. The input slice is left untouched.
func Rank(attempts []models.GameScore, page, perPage int) ([]models.GameScore, LeaderboardMeta) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	ranked := make([]models.GameScore, len(attempts))
	copy(ranked, attempts)
	sort.SliceStable(ranked, func(i, j int) bool { return attemptLess(ranked[i], ranked[j]) })

	total := len(ranked)
	lastPage := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	meta := LeaderboardMeta{
		Total:       total,
		CurrentPage: page,
		PerPage:     perPage,
		LastPage:    lastPage,
	}
	if page > 1 {
		prev := page - 1
		meta.Prev = &prev
	}
	if page < lastPage {
		next := page + 1
		meta.Next = &next
	}

	return ranked[start:end], meta
}

// BestOf returns the user's best attempt under the same ordering, and false
// when the user has no attempts for this game.
func BestOf(attempts []models.GameScore, userID string) (models.GameScore, bool) {
	var best models.GameScore
	found := false
	for _, attempt := range attempts {
		if attempt.UserID != userID {
			continue
		}
		if !found || attemptLess(attempt, best) {
			best = attempt
			found = true
		}
	}
	return best, found
}
