// games/anagram.go
package games

import (
	"encoding/json"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/datatypes"
)

func init() {
	registerVariant(KindAnagram, func(raw datatypes.JSON) (Payload, error) {
		var payload AnagramPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	})
}

var upperCaser = cases.Upper(language.Und)

// ScorePerQuestion is the per-letter score unit before multipliers.
const ScorePerQuestion = 1

// HintLimitDivisor: one hint allowed per 5 letters, rounded up.
const hintLimitDivisor = 5

type AnagramQuestion struct {
	QuestionID  string `json:"question_id"`
	CorrectWord string `json:"correct_word"` // normalized upper-case, may contain spaces
	ImageURL    string `json:"image_url"`
}

type AnagramPayload struct {
	ScorePerQuestion     int               `json:"score_per_question"`
	IsQuestionRandomized bool              `json:"is_question_randomized"`
	Questions            []AnagramQuestion `json:"questions"`
}

func (p *AnagramPayload) Kind() Kind { return KindAnagram }

func (p *AnagramPayload) AssetPaths() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, q := range p.Questions {
		if q.ImageURL != "" && !seen[q.ImageURL] {
			seen[q.ImageURL] = true
			paths = append(paths, q.ImageURL)
		}
	}
	return paths
}

// AnagramQuestionInput is one authored question: the word plus the index of
// its image in the author's upload list.
type AnagramQuestionInput struct {
	CorrectWord string `json:"correct_word"`
	ImageIndex  int    `json:"question_image_array_index"`
}

// BuildAnagram builds the canonical stored payload from authored input.
// Every question must have a corresponding uploaded image.
func BuildAnagram(questions []AnagramQuestionInput, randomized bool, imageURLs []string) (*AnagramPayload, error) {
	if len(questions) != len(imageURLs) {
		return nil, NewValidationError("files_to_upload",
			"all questions must have a corresponding image file uploaded")
	}

	payload := &AnagramPayload{
		ScorePerQuestion:     ScorePerQuestion,
		IsQuestionRandomized: randomized,
		Questions:            make([]AnagramQuestion, 0, len(questions)),
	}
	for _, q := range questions {
		if q.ImageIndex < 0 || q.ImageIndex >= len(imageURLs) {
			return nil, NewValidationError("question_image_array_index",
				"image index %d out of range", q.ImageIndex)
		}
		payload.Questions = append(payload.Questions, AnagramQuestion{
			QuestionID:  uuid.NewString(),
			CorrectWord: upperCaser.String(q.CorrectWord),
			ImageURL:    imageURLs[q.ImageIndex],
		})
	}
	return payload, nil
}

// AnagramPlayQuestion is one question as shown during play.
//
// CorrectWord still travels with the question: the hint flow reveals true
// letters client-side. Callers wanting fully blind play must strip it.
type AnagramPlayQuestion struct {
	QuestionID      string `json:"question_id"`
	ImageURL        string `json:"image_url"`
	ShuffledLetters string `json:"shuffled_letters"`
	HintLimit       int    `json:"hint_limit"`
	CorrectWord     string `json:"correct_word"`
}

// Present derives the play view: optionally permuted question order, letters
// scrambled per question. Identity travels with each question, never by
// positional index, so shuffling cannot break scoring.
func (p *AnagramPayload) Present() []AnagramPlayQuestion {
	questions := p.Questions
	if p.IsQuestionRandomized {
		questions = ShufflePermutation(questions)
	}

	out := make([]AnagramPlayQuestion, 0, len(questions))
	for _, q := range questions {
		letters := CountLetters(q.CorrectWord)
		out = append(out, AnagramPlayQuestion{
			QuestionID:      q.QuestionID,
			ImageURL:        q.ImageURL,
			ShuffledLetters: ScrambleWord(q.CorrectWord),
			HintLimit:       (letters + hintLimitDivisor - 1) / hintLimitDivisor,
			CorrectWord:     q.CorrectWord,
		})
	}
	return out
}

type AnagramAnswer struct {
	QuestionID  string `json:"question_id"`
	GuessedWord string `json:"guessed_word"`
	IsHinted    []bool `json:"is_hinted,omitempty"` // one flag per non-space letter, or empty
}

type AnagramQuestionResult struct {
	QuestionID  string `json:"question_id"`
	GuessedWord string `json:"guessed_word"`
	IsCorrect   bool   `json:"is_correct"`
	Score       int    `json:"score"`
	CorrectWord string `json:"correct_word"`
}

type AnagramCheckResult struct {
	TotalQuestions int                     `json:"total_questions"`
	Score          int                     `json:"score"`
	MaxScore       int                     `json:"max_score"`
	Percentage     float64                 `json:"percentage"`
	Results        []AnagramQuestionResult `json:"results"`
}

// Score grades submitted answers against the stored payload. Pure and
// idempotent: no side effects, identical input gives identical output.
// Unknown question ids are silently skipped — that is documented behavior,
// not an error.
func (p *AnagramPayload) Score(answers []AnagramAnswer) (*AnagramCheckResult, error) {
	correctWords := make(map[string]string, len(p.Questions))
	maxScore := 0
	for _, q := range p.Questions {
		correctWords[q.QuestionID] = q.CorrectWord
		maxScore += CountLetters(q.CorrectWord) * 2
	}

	result := &AnagramCheckResult{
		TotalQuestions: len(p.Questions),
		MaxScore:       maxScore,
		Results:        []AnagramQuestionResult{},
	}

	for _, answer := range answers {
		correctWord, ok := correctWords[answer.QuestionID]
		if !ok {
			continue
		}

		letterCount := CountLetters(correctWord)
		hintCount := 0
		for _, hinted := range answer.IsHinted {
			if hinted {
				hintCount++
			}
		}

		if len(answer.IsHinted) > 0 && len(answer.IsHinted) != letterCount {
			return nil, NewValidationError("is_hinted",
				"hint array length mismatch for question %s", answer.QuestionID)
		}

		guessedWord := upperCaser.String(answer.GuessedWord)

		var questionScore int
		switch {
		case hintCount == 0 && guessedWord == correctWord:
			questionScore = letterCount * 2
		case hintCount == 0:
			questionScore = positionalMatches(guessedWord, correctWord, letterCount)
		default:
			// Hints cap the credit regardless of the non-hinted letters.
			questionScore = (letterCount - hintCount) * ScorePerQuestion
		}

		result.Score += questionScore
		result.Results = append(result.Results, AnagramQuestionResult{
			QuestionID:  answer.QuestionID,
			GuessedWord: answer.GuessedWord,
			IsCorrect:   guessedWord == correctWord,
			Score:       questionScore,
			CorrectWord: correctWord,
		})
	}

	result.Percentage = Percentage(result.Score, result.MaxScore)
	return result, nil
}

// positionalMatches counts positions where guess and answer coincide over
// the first letterCount characters, 1 point each.
func positionalMatches(guessed, correct string, letterCount int) int {
	guessedRunes := []rune(guessed)
	correctRunes := []rune(correct)
	matches := 0
	for i := 0; i < letterCount && i < len(guessedRunes) && i < len(correctRunes); i++ {
		if guessedRunes[i] == correctRunes[i] {
			matches++
		}
	}
	return matches
}

// AnagramQuestionUpdate replaces one question. A nil ImageIndex keeps the
// image of the prior question with the same word, when one exists.
type AnagramQuestionUpdate struct {
	CorrectWord string `json:"correct_word"`
	ImageIndex  *int   `json:"question_image_array_index,omitempty"`
}

// AnagramUpdate carries only the fields the author sent. Nil means "keep
// the prior value".
type AnagramUpdate struct {
	Questions            []AnagramQuestionUpdate
	IsQuestionRandomized *bool
}

// MergeUpdate produces the new payload plus the set of image paths no
// longer referenced, for the caller to delete from storage.
func (p *AnagramPayload) MergeUpdate(update AnagramUpdate, uploadedURLs []string) (*AnagramPayload, []string, error) {
	merged := &AnagramPayload{
		ScorePerQuestion:     ScorePerQuestion,
		IsQuestionRandomized: p.IsQuestionRandomized,
		Questions:            p.Questions,
	}
	if update.IsQuestionRandomized != nil {
		merged.IsQuestionRandomized = *update.IsQuestionRandomized
	}

	if update.Questions != nil {
		questions := make([]AnagramQuestion, 0, len(update.Questions))
		for _, q := range update.Questions {
			word := upperCaser.String(q.CorrectWord)

			imageURL := ""
			if q.ImageIndex != nil {
				if *q.ImageIndex < 0 || *q.ImageIndex >= len(uploadedURLs) {
					return nil, nil, NewValidationError("question_image_array_index",
						"image index %d out of range", *q.ImageIndex)
				}
				imageURL = uploadedURLs[*q.ImageIndex]
			} else {
				for _, old := range p.Questions {
					if old.CorrectWord == word {
						imageURL = old.ImageURL
						break
					}
				}
			}

			questions = append(questions, AnagramQuestion{
				QuestionID:  uuid.NewString(),
				CorrectWord: word,
				ImageURL:    imageURL,
			})
		}
		merged.Questions = questions
	}

	return merged, removedAssets(p.AssetPaths(), merged.AssetPaths()), nil
}

// removedAssets is every path in old that the merged payload no longer
// references.
func removedAssets(old, merged []string) []string {
	kept := make(map[string]bool, len(merged))
	for _, p := range merged {
		kept[p] = true
	}
	var removed []string
	for _, p := range old {
		if !kept[p] {
			removed = append(removed, p)
		}
	}
	return removed
}
