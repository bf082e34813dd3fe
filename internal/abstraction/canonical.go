package abstraction

import (
	"github.com/mkessler/nlhe-blueprint/internal/nlhe"
	"github.com/mkessler/nlhe-blueprint/poker"
)

// CanonicalPreflop maps two hole cards to one of the 169 canonical starting
// hands (13 pairs + 78 suited + 78 offsuit combinations), independent of
// suit identity.
func CanonicalPreflop(hole [2]poker.Card) uint8 {
	r0, r1 := int(hole[0].Rank()), int(hole[1].Rank())
	if r0 < r1 {
		r0, r1 = r1, r0
	}
	suited := hole[0].Suit() == hole[1].Suit()

	if r0 == r1 {
		return uint8(r0) // 13 pair classes, ids 0..12
	}
	// Off-diagonal (r0>r1) pairs: 78 combinations, doubled for suited/offsuit.
	offset := pairIndex(r0, r1)
	if suited {
		return uint8(13 + offset)
	}
	return uint8(13 + 78 + offset)
}

// pairIndex enumerates unordered rank pairs (r0>r1) in a stable order.
func pairIndex(r0, r1 int) int {
	idx := 0
	for hi := 1; hi < 13; hi++ {
		for lo := 0; lo < hi; lo++ {
			if hi == r0 && lo == r1 {
				return idx
			}
			idx++
		}
	}
	return 0
}

// CanonicalPostflopKey builds a compact, suit-identity-free key for a
// (street, hole, board) decision node: street, sorted hole ranks plus
// suitedness, sorted board ranks, and a suit-equivalence pattern recording
// which board cards share a suit with each other or with the hole cards.
// This is coarser than full suit-isomorphism canonicalization but is
// sufficient for the equity-rollout clustering that builds the production
// tables, and it is stable across runs.
func CanonicalPostflopKey(street nlhe.Street, hole [2]poker.Card, board []poker.Card) []byte {
	r0, r1 := int(hole[0].Rank()), int(hole[1].Rank())
	if r0 < r1 {
		r0, r1 = r1, r0
	}
	suited := hole[0].Suit() == hole[1].Suit()

	boardRanks := make([]int, len(board))
	for i, c := range board {
		boardRanks[i] = int(c.Rank())
	}
	sortInts(boardRanks)

	key := make([]byte, 0, 4+len(board)+len(board))
	key = append(key, byte(street), byte(r0), byte(r1), boolByte(suited))
	for _, r := range boardRanks {
		key = append(key, byte(r))
	}
	key = append(key, suitPattern(hole, board)...)
	return key
}

func suitPattern(hole [2]poker.Card, board []poker.Card) []byte {
	// Relative suit classes: assign each distinct suit seen (in first-seen
	// order across hole then board) a small id 0..3, then emit board cards'
	// class ids. This keeps the key invariant under suit relabeling.
	classOf := map[uint8]byte{}
	next := byte(0)
	assign := func(s uint8) byte {
		if c, ok := classOf[s]; ok {
			return c
		}
		classOf[s] = next
		next++
		return classOf[s]
	}
	assign(hole[0].Suit())
	assign(hole[1].Suit())

	out := make([]byte, len(board))
	for i, c := range board {
		out[i] = assign(c.Suit())
	}
	return out
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
