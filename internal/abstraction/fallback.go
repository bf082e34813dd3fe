package abstraction

import (
	"github.com/mkessler/nlhe-blueprint/internal/abstraction/classification"
	"github.com/mkessler/nlhe-blueprint/internal/nlhe"
	"github.com/mkessler/nlhe-blueprint/poker"
)

// FallbackBucketer is a deterministic heuristic bucketer that requires no
// precomputed tables: hole-card strength category and ranks preflop, and board
// texture (pairs, flush/straight potential, high cards) postflop. Used
// whenever a production table is absent so the trainer always runs.
type FallbackBucketer struct{}

func NewFallbackBucketer() FallbackBucketer {
	return FallbackBucketer{}
}

func (FallbackBucketer) Bucket(street nlhe.Street, hole [2]poker.Card, board []poker.Card) int {
	if street == nlhe.Preflop {
		return holeBucket(hole)
	}
	return boardBucket(hole, board)
}

// holeBucket ranks hole cards by poker.CategorizeHoleCards' five-tier
// preflop strength category, broken into finer buckets within the category
// by the higher hole rank and then the lower one, then scales the combined score linearly into
// [0, PreflopBuckets).
func holeBucket(hole [2]poker.Card) int {
	r0, r1 := int(hole[0].Rank()), int(hole[1].Rank())
	if r0 < r1 {
		r0, r1 = r1, r0
	}
	category := poker.CategorizeHoleCards(hole[0], hole[1])

	score := categoryRank(category)*(12*13+12+1) + r0*13 + r1
	const maxScore = 5*(12*13+12+1) + 12*13 + 12
	return scale(score, maxScore, PreflopBuckets)
}

// categoryRank orders poker.HoleCardCategory from weakest to strongest so it
// can be used as the dominant term of holeBucket's score.
func categoryRank(c poker.HoleCardCategory) int {
	switch c {
	case poker.CategoryPremium:
		return 5
	case poker.CategoryStrong:
		return 4
	case poker.CategoryMedium:
		return 3
	case poker.CategoryWeak:
		return 2
	case poker.CategoryTrash:
		return 1
	default: // CategoryUnknown, unreachable for valid in-range cards
		return 0
	}
}

// boardBucket combines hole-card strength relative to the board's texture
// into a score scaled into [0, PostflopBuckets). It never requires a full
// 7-card hand, since it must also bucket flop (5 cards) and turn (6 cards)
// decision nodes, not just the river.
func boardBucket(hole [2]poker.Card, board []poker.Card) int {
	boardHand := poker.NewHand(board...)
	texture := classification.AnalyzeBoardTexture(boardHand)

	r0, r1 := int(hole[0].Rank()), int(hole[1].Rank())
	if r0 < r1 {
		r0, r1 = r1, r0
	}
	suited := hole[0].Suit() == hole[1].Suit()
	pair := r0 == r1
	boardRanks := boardHand.GetRankMask()
	madePair := boardRanks&(1<<hole[0].Rank()) != 0 ||
		boardRanks&(1<<hole[1].Rank()) != 0

	score := r0*13 + r1
	score += int(texture) * 50
	if suited {
		score += 5
	}
	if pair {
		score += 100
	}
	if madePair {
		score += 150
	}

	const maxScore = 12*13 + 12 + 3*50 + 5 + 100 + 150
	return scale(score, maxScore, PostflopBuckets)
}

func scale(score, maxScore, numBuckets int) int {
	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}
	bucket := score * numBuckets / (maxScore + 1)
	if bucket >= numBuckets {
		bucket = numBuckets - 1
	}
	return bucket
}
