// games/matchingpair.go
package games

import (
	"encoding/json"

	"gorm.io/datatypes"
)

func init() {
	registerVariant(KindMatchingPair, func(raw datatypes.JSON) (Payload, error) {
		var payload MatchingPairPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	})
}

const (
	MinPairImages = 2
	MaxPairImages = 32
)

type MatchingPairPayload struct {
	Countdown     int      `json:"countdown"`       // seconds
	ScorePerMatch int      `json:"score_per_match"` // points per matched pair
	Images        []string `json:"images"`          // one entry per pair; the deck duplicates each
}

func (p *MatchingPairPayload) Kind() Kind { return KindMatchingPair }

func (p *MatchingPairPayload) AssetPaths() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, img := range p.Images {
		if img != "" && !seen[img] {
			seen[img] = true
			paths = append(paths, img)
		}
	}
	return paths
}

// BuildMatchingPair builds the canonical stored payload. Countdown and
// score-per-match bounds are validated at the boundary; image count is
// enforced here.
func BuildMatchingPair(countdown, scorePerMatch int, imageURLs []string) (*MatchingPairPayload, error) {
	if len(imageURLs) < MinPairImages || len(imageURLs) > MaxPairImages {
		return nil, NewValidationError("files_to_upload",
			"between %d and %d images required, got %d", MinPairImages, MaxPairImages, len(imageURLs))
	}
	return &MatchingPairPayload{
		Countdown:     countdown,
		ScorePerMatch: scorePerMatch,
		Images:        imageURLs,
	}, nil
}

// DeckSlot is one tile of the shuffled play deck. Two slots share the same
// ID — the original image index — and matching them is the game.
type DeckSlot struct {
	ID    int    `json:"id"`
	Image string `json:"image"`
}

// Present builds the play deck: every image twice, shuffled as a whole.
func (p *MatchingPairPayload) Present() []DeckSlot {
	deck := make([]DeckSlot, 0, len(p.Images)*2)
	for i, img := range p.Images {
		slot := DeckSlot{ID: i, Image: img}
		deck = append(deck, slot, slot)
	}
	return ShufflePermutation(deck)
}

type MatchingPairCheckResult struct {
	TotalPairs        int     `json:"total_pairs"`
	MatchedPairsCount int     `json:"matched_pairs_count"`
	Score             int     `json:"score"`
	MaxScore          int     `json:"max_score"`
	Percentage        float64 `json:"percentage"`
}

// Score grades a claimed set of matched pair ids. Duplicates collapse; every
// id must be a valid image index. Which two deck slots were actually paired
// is not verified — only that the claimed set is in range.
func (p *MatchingPairPayload) Score(matchedPairIDs []int) (*MatchingPairCheckResult, error) {
	unique := make(map[int]bool, len(matchedPairIDs))
	for _, id := range matchedPairIDs {
		if id < 0 || id >= len(p.Images) {
			return nil, NewValidationError("matched_pair_ids", "invalid image ID: %d", id)
		}
		unique[id] = true
	}

	score := len(unique) * p.ScorePerMatch
	maxScore := len(p.Images) * p.ScorePerMatch

	return &MatchingPairCheckResult{
		TotalPairs:        len(p.Images),
		MatchedPairsCount: len(unique),
		Score:             score,
		MaxScore:          maxScore,
		Percentage:        Percentage(score, maxScore),
	}, nil
}

// MatchingPairUpdate carries only the fields the author sent.
//
// ExistingImages distinguishes "not sent" from "sent empty": nil keeps every
// prior image, a non-nil empty slice drops them all.
type MatchingPairUpdate struct {
	Countdown      *int
	ScorePerMatch  *int
	ExistingImages *[]string
}

// MergeUpdate produces the new payload plus the image paths dropped from it.
// The capacity ceiling is re-validated on the merged result before anything
// is persisted.
func (p *MatchingPairPayload) MergeUpdate(update MatchingPairUpdate, uploadedURLs []string) (*MatchingPairPayload, []string, error) {
	merged := &MatchingPairPayload{
		Countdown:     p.Countdown,
		ScorePerMatch: p.ScorePerMatch,
	}
	if update.Countdown != nil {
		merged.Countdown = *update.Countdown
	}
	if update.ScorePerMatch != nil {
		merged.ScorePerMatch = *update.ScorePerMatch
	}

	var images []string
	if update.ExistingImages != nil {
		// Keep only paths the payload actually owns — a caller cannot
		// smuggle foreign paths in.
		owned := make(map[string]bool, len(p.Images))
		for _, img := range p.Images {
			owned[img] = true
		}
		for _, img := range *update.ExistingImages {
			if owned[img] {
				images = append(images, img)
			}
		}
	} else {
		images = append(images, p.Images...)
	}
	images = append(images, uploadedURLs...)

	if len(images) > MaxPairImages {
		return nil, nil, NewValidationError("files_to_upload",
			"max %d images allowed, got %d", MaxPairImages, len(images))
	}
	merged.Images = images

	return merged, removedAssets(p.AssetPaths(), merged.AssetPaths()), nil
}
