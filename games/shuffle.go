// games/shuffle.go
package games

import (
	"math/rand"
	"strings"
	"unicode"
)

// ShufflePermutation returns a uniformly shuffled copy of items. The input
// slice is left untouched.
func ShufflePermutation[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ScrambleWord returns the word's non-space letters in scrambled order.
// The result is always a permutation of the non-space letters and, whenever
// the letters admit more than one arrangement, differs from the original.
func ScrambleWord(word string) string {
	letters := []rune(stripSpaces(word))
	if len(letters) < 2 || singleArrangement(letters) {
		return string(letters)
	}

	original := string(letters)
	scrambled := original
	for scrambled == original {
		shuffled := ShufflePermutation(letters)
		scrambled = string(shuffled)
	}
	return scrambled
}

// CountLetters is the number of non-space characters — the unit of anagram
// scoring and hint accounting.
func CountLetters(word string) int {
	return len([]rune(stripSpaces(word)))
}

func stripSpaces(word string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, word)
}

func singleArrangement(letters []rune) bool {
	for _, r := range letters[1:] {
		if r != letters[0] {
			return false
		}
	}
	return true
}
