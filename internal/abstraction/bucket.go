// Package abstraction maps (hole cards, board, street) to the small integer
// buckets the trainer indexes its regret table by: 15 preflop buckets and 50
// buckets per postflop street. It provides both a precomputed production
// lookup table and a zero-precomputation fallback heuristic.
package abstraction

import (
	"github.com/mkessler/nlhe-blueprint/internal/nlhe"
	"github.com/mkessler/nlhe-blueprint/poker"
)

const (
	PreflopBuckets  = 15
	PostflopBuckets = 50
)

// Bucketer assigns an abstraction bucket to a decision node. Implementations
// must be deterministic: identical (street, hole, board) inputs always
// produce the same bucket.
type Bucketer interface {
	Bucket(street nlhe.Street, hole [2]poker.Card, board []poker.Card) int
}

// NumBuckets returns the bucket-count range for the given street.
func NumBuckets(street nlhe.Street) int {
	if street == nlhe.Preflop {
		return PreflopBuckets
	}
	return PostflopBuckets
}
