// games/variant.go
package games

import (
	"encoding/json"
	"math"

	"gorm.io/datatypes"
)

// Kind tags one game rule-set. Values mirror the seeded template slugs.
type Kind string

const (
	KindAnagram      Kind = "anagram"
	KindMatchingPair Kind = "matching-pair"
)

// Payload is the variant-specific document stored on a Game. Implementations
// are plain data — every operation on them is pure.
type Payload interface {
	Kind() Kind
	// AssetPaths lists every stored asset the payload references (no
	// duplicates, thumbnail excluded — that lives on the Game row).
	AssetPaths() []string
}

// decoders maps a kind to its payload decoder. Variants register themselves
// at init time.
var decoders = map[Kind]func(datatypes.JSON) (Payload, error){}

func registerVariant(kind Kind, decode func(datatypes.JSON) (Payload, error)) {
	decoders[kind] = decode
}

// DecodePayload dispatches on the stored template kind, never on payload
// shape. An unknown kind or a payload that does not parse is reported as
// not-found — callers must not learn that a game of another kind exists.
func DecodePayload(kind Kind, raw datatypes.JSON) (Payload, error) {
	decode, ok := decoders[kind]
	if !ok {
		return nil, ErrGameNotFound
	}
	payload, err := decode(raw)
	if err != nil {
		return nil, ErrGameNotFound
	}
	return payload, nil
}

// EncodePayload serializes a payload for the Game.GameJSON column.
func EncodePayload(payload Payload) (datatypes.JSON, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// Percentage rounds score/maxScore to two decimals, 0 when maxScore is 0.
func Percentage(score, maxScore int) float64 {
	if maxScore <= 0 {
		return 0
	}
	return math.Round(float64(score)/float64(maxScore)*10000) / 100
}

// DeleteAssets is the delete operation: every asset path owned by the
// payload plus the thumbnail, deduplicated, for the caller to remove from
// storage.
func DeleteAssets(payload Payload, thumbnail string) []string {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for _, p := range payload.AssetPaths() {
		add(p)
	}
	add(thumbnail)
	return paths
}
