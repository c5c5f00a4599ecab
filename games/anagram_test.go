// games/anagram_test.go
package games

import (
	"errors"
	"testing"
)

func anagramFixture() *AnagramPayload {
	return &AnagramPayload{
		ScorePerQuestion: ScorePerQuestion,
		Questions: []AnagramQuestion{
			{QuestionID: "q1", CorrectWord: "CAT", ImageURL: "https://cdn.example.com/cat.png"},
			{QuestionID: "q2", CorrectWord: "HOUSE", ImageURL: "https://cdn.example.com/house.png"},
		},
	}
}

func TestBuildAnagram(t *testing.T) {
	payload, err := BuildAnagram(
		[]AnagramQuestionInput{
			{CorrectWord: "cat", ImageIndex: 1},
			{CorrectWord: "ice cream", ImageIndex: 0},
		},
		true,
		[]string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"},
	)
	if err != nil {
		t.Fatalf("BuildAnagram failed: %v", err)
	}

	if !payload.IsQuestionRandomized {
		t.Error("expected IsQuestionRandomized to be true")
	}
	if payload.ScorePerQuestion != ScorePerQuestion {
		t.Errorf("expected score per question %d, got %d", ScorePerQuestion, payload.ScorePerQuestion)
	}
	if payload.Questions[0].CorrectWord != "CAT" {
		t.Errorf("expected normalized word CAT, got %q", payload.Questions[0].CorrectWord)
	}
	if payload.Questions[1].CorrectWord != "ICE CREAM" {
		t.Errorf("expected normalized word ICE CREAM, got %q", payload.Questions[1].CorrectWord)
	}
	if payload.Questions[0].ImageURL != "https://cdn.example.com/b.png" {
		t.Errorf("image index not resolved: %q", payload.Questions[0].ImageURL)
	}
	if payload.Questions[0].QuestionID == payload.Questions[1].QuestionID {
		t.Error("question ids must be unique")
	}
}

func TestBuildAnagramValidation(t *testing.T) {
	tests := []struct {
		name      string
		questions []AnagramQuestionInput
		images    []string
	}{
		{
			name:      "count mismatch",
			questions: []AnagramQuestionInput{{CorrectWord: "CAT", ImageIndex: 0}},
			images:    []string{"a.png", "b.png"},
		},
		{
			name: "index out of range",
			questions: []AnagramQuestionInput{
				{CorrectWord: "CAT", ImageIndex: 0},
				{CorrectWord: "DOG", ImageIndex: 5},
			},
			images: []string{"a.png", "b.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildAnagram(tt.questions, false, tt.images)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestAnagramPresent(t *testing.T) {
	payload := anagramFixture()

	plays := payload.Present()
	if len(plays) != 2 {
		t.Fatalf("expected 2 play questions, got %d", len(plays))
	}

	byID := make(map[string]AnagramPlayQuestion, len(plays))
	for _, p := range plays {
		byID[p.QuestionID] = p
	}

	cat := byID["q1"]
	if cat.HintLimit != 1 {
		t.Errorf("CAT hint limit = %d, want 1", cat.HintLimit)
	}
	if sortString(cat.ShuffledLetters) != sortString("CAT") {
		t.Errorf("shuffled letters %q are not a permutation of CAT", cat.ShuffledLetters)
	}
	if cat.ShuffledLetters == "CAT" {
		t.Error("shuffled letters must differ from the original word")
	}

	house := byID["q2"]
	if house.HintLimit != 1 {
		t.Errorf("HOUSE hint limit = %d, want 1", house.HintLimit)
	}
}

func TestAnagramHintLimit(t *testing.T) {
	payload := &AnagramPayload{Questions: []AnagramQuestion{
		{QuestionID: "q1", CorrectWord: "ABCDEF"},      // 6 letters → 2 hints
		{QuestionID: "q2", CorrectWord: "ABCDEFGHIJK"}, // 11 letters → 3 hints
	}}

	plays := payload.Present()
	wants := map[string]int{"q1": 2, "q2": 3}
	for _, p := range plays {
		if p.HintLimit != wants[p.QuestionID] {
			t.Errorf("question %s hint limit = %d, want %d", p.QuestionID, p.HintLimit, wants[p.QuestionID])
		}
	}
}

func TestAnagramScore(t *testing.T) {
	tests := []struct {
		name      string
		answer    AnagramAnswer
		wantScore int
	}{
		{
			name:      "exact match doubles",
			answer:    AnagramAnswer{QuestionID: "q1", GuessedWord: "CAT"},
			wantScore: 6,
		},
		{
			name:      "case insensitive",
			answer:    AnagramAnswer{QuestionID: "q1", GuessedWord: "cat"},
			wantScore: 6,
		},
		{
			name:      "positional partial credit",
			answer:    AnagramAnswer{QuestionID: "q1", GuessedWord: "COG"},
			wantScore: 1,
		},
		{
			name:      "no positions match",
			answer:    AnagramAnswer{QuestionID: "q1", GuessedWord: "DOG"},
			wantScore: 0,
		},
		{
			name:      "hinted caps credit even on exact match",
			answer:    AnagramAnswer{QuestionID: "q1", GuessedWord: "CAT", IsHinted: []bool{true, false, false}},
			wantScore: 2,
		},
		{
			name:      "all hints leave nothing",
			answer:    AnagramAnswer{QuestionID: "q1", GuessedWord: "CAT", IsHinted: []bool{true, true, true}},
			wantScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := anagramFixture()
			result, err := payload.Score([]AnagramAnswer{tt.answer})
			if err != nil {
				t.Fatalf("Score failed: %v", err)
			}
			if result.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", result.Score, tt.wantScore)
			}
			// Max score counts every question, answered or not: (3+5)*2.
			if result.MaxScore != 16 {
				t.Errorf("max score = %d, want 16", result.MaxScore)
			}
		})
	}
}

func TestAnagramScoreIdempotent(t *testing.T) {
	payload := anagramFixture()
	answers := []AnagramAnswer{
		{QuestionID: "q1", GuessedWord: "CAT"},
		{QuestionID: "q2", GuessedWord: "MOUSE"},
	}

	first, err := payload.Score(answers)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	second, err := payload.Score(answers)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if first.Score != second.Score || first.Percentage != second.Percentage {
		t.Errorf("scoring not idempotent: %+v vs %+v", first, second)
	}
}

func TestAnagramScoreSkipsUnknownQuestion(t *testing.T) {
	payload := anagramFixture()

	result, err := payload.Score([]AnagramAnswer{
		{QuestionID: "ghost", GuessedWord: "CAT"},
		{QuestionID: "q1", GuessedWord: "CAT"},
	})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if len(result.Results) != 1 {
		t.Fatalf("expected 1 graded answer, got %d", len(result.Results))
	}
	if result.Score != 6 {
		t.Errorf("score = %d, want 6", result.Score)
	}
}

func TestAnagramScoreHintLengthMismatch(t *testing.T) {
	payload := anagramFixture()

	_, err := payload.Score([]AnagramAnswer{
		{QuestionID: "q1", GuessedWord: "CAT", IsHinted: []bool{true, false}},
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Field != "is_hinted" {
		t.Errorf("error field = %q, want is_hinted", validationErr.Field)
	}
}

func TestAnagramScorePercentage(t *testing.T) {
	payload := &AnagramPayload{Questions: []AnagramQuestion{
		{QuestionID: "q1", CorrectWord: "CAT"},
	}}

	result, err := payload.Score([]AnagramAnswer{{QuestionID: "q1", GuessedWord: "CAT", IsHinted: []bool{true, false, false}}})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	// 2 of 6 → 33.33
	if result.Percentage != 33.33 {
		t.Errorf("percentage = %v, want 33.33", result.Percentage)
	}
}

func TestAnagramMergeUpdate(t *testing.T) {
	payload := anagramFixture()
	randomized := true

	merged, removed, err := payload.MergeUpdate(AnagramUpdate{
		Questions: []AnagramQuestionUpdate{
			{CorrectWord: "cat"},                // keep prior image by word
			{CorrectWord: "TREE", ImageIndex: intPtr(0)}, // new image
		},
		IsQuestionRandomized: &randomized,
	}, []string{"https://cdn.example.com/tree.png"})
	if err != nil {
		t.Fatalf("MergeUpdate failed: %v", err)
	}

	if !merged.IsQuestionRandomized {
		t.Error("randomized flag not applied")
	}
	if merged.Questions[0].ImageURL != "https://cdn.example.com/cat.png" {
		t.Errorf("prior image not carried over: %q", merged.Questions[0].ImageURL)
	}
	if merged.Questions[1].ImageURL != "https://cdn.example.com/tree.png" {
		t.Errorf("uploaded image not resolved: %q", merged.Questions[1].ImageURL)
	}
	// house.png dropped with its question.
	if len(removed) != 1 || removed[0] != "https://cdn.example.com/house.png" {
		t.Errorf("removed assets = %v, want [house.png]", removed)
	}
}

func TestAnagramMergeUpdateKeepsQuestionsWhenAbsent(t *testing.T) {
	payload := anagramFixture()

	merged, removed, err := payload.MergeUpdate(AnagramUpdate{}, nil)
	if err != nil {
		t.Fatalf("MergeUpdate failed: %v", err)
	}
	if len(merged.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(merged.Questions))
	}
	if len(removed) != 0 {
		t.Errorf("expected no removed assets, got %v", removed)
	}
}

func intPtr(v int) *int { return &v }
