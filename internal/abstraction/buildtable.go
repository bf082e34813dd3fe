package abstraction

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/mkessler/nlhe-blueprint/internal/nlhe"
	"github.com/mkessler/nlhe-blueprint/poker"
)

// representativeHole returns one concrete hole-card pair for a canonical
// preflop class id (0..168), fixing suits arbitrarily since equity only
// depends on rank and suitedness, not on which suit is used.
func representativeHole(class uint8) [2]poker.Card {
	if class < 13 {
		r := uint8(class)
		return [2]poker.Card{poker.NewCard(r, 0), poker.NewCard(r, 1)}
	}
	suited := class < 13+78
	offset := int(class) - 13
	if !suited {
		offset -= 78
	}
	hi, lo := 0, 0
	idx := 0
	for h := 1; h < 13; h++ {
		for l := 0; l < h; l++ {
			if idx == offset {
				hi, lo = h, l
			}
			idx++
		}
	}
	if suited {
		return [2]poker.Card{poker.NewCard(uint8(hi), 0), poker.NewCard(uint8(lo), 0)}
	}
	return [2]poker.Card{poker.NewCard(uint8(hi), 0), poker.NewCard(uint8(lo), 1)}
}

// BuildPreflopTable estimates equity for all 169 canonical starting hands
// and buckets them into abstraction.PreflopBuckets groups of roughly equal
// size ordered by equity against opponents random hands, the preflop
// analog of the postflop equity-percentile clustering below.
func BuildPreflopTable(ctx context.Context, opponents, samplesPerClass int, rng *rand.Rand) (*ProductionTable, error) {
	type scored struct {
		class  uint8
		equity float64
	}
	scores := make([]scored, 169)
	for class := uint8(0); class < 169; class++ {
		hole := representativeHole(class)
		res, err := EstimateEquity(ctx, hole, nil, opponents, samplesPerClass, rng)
		if err != nil {
			return nil, fmt.Errorf("abstraction: estimating preflop equity for class %d: %w", class, err)
		}
		scores[class] = scored{class: class, equity: res.Win + res.Tie/2}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].equity < scores[j].equity })

	builder := NewTableBuilder(nlhe.Preflop)
	for rank, s := range scores {
		bucket := uint8(rank * PreflopBuckets / len(scores))
		builder.Add([]byte{s.class}, bucket)
	}
	return builder.Build()
}

// BuildPostflopTable samples random (hole, board) situations for the given
// street, estimates each one's equity, and buckets the resulting canonical
// keys into PostflopBuckets equity-percentile groups. Because the space of
// postflop boards is far too large to enumerate exhaustively, the resulting
// table only covers the canonical keys it happened to sample; a key the
// table was never built with gets an arbitrary bucket from it.
func BuildPostflopTable(ctx context.Context, street nlhe.Street, opponents, deals, samplesPerDeal int, rng *rand.Rand) (*ProductionTable, error) {
	if street == nlhe.Preflop {
		return nil, fmt.Errorf("abstraction: BuildPostflopTable does not accept the preflop street")
	}
	boardSize := boardSizeForStreet(street)

	type scored struct {
		key    []byte
		equity float64
	}
	seen := map[string]bool{}
	scores := make([]scored, 0, deals)

	for i := 0; i < deals; i++ {
		hole, board := randomSituation(rng, boardSize)
		key := CanonicalPostflopKey(street, hole, board)
		ks := string(key)
		if seen[ks] {
			continue
		}
		seen[ks] = true

		res, err := EstimateEquity(ctx, hole, board, opponents, samplesPerDeal, rng)
		if err != nil {
			return nil, fmt.Errorf("abstraction: estimating postflop equity: %w", err)
		}
		scores = append(scores, scored{key: key, equity: res.Win + res.Tie/2})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].equity < scores[j].equity })

	builder := NewTableBuilder(street)
	for rank, s := range scores {
		bucket := uint8(rank * PostflopBuckets / len(scores))
		builder.Add(s.key, bucket)
	}
	return builder.Build()
}

func boardSizeForStreet(street nlhe.Street) int {
	switch street {
	case nlhe.Flop:
		return 3
	case nlhe.Turn:
		return 4
	case nlhe.River:
		return 5
	default:
		return 0
	}
}

// randomSituation deals a random hole-card pair and board of the requested
// size from a single shuffled deck, guaranteeing no collisions.
func randomSituation(rng *rand.Rand, boardSize int) ([2]poker.Card, []poker.Card) {
	deck := make([]poker.Card, 0, 52)
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(0); rank < 13; rank++ {
			deck = append(deck, poker.NewCard(rank, suit))
		}
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	hole := [2]poker.Card{deck[0], deck[1]}
	board := append([]poker.Card{}, deck[2:2+boardSize]...)
	return hole, board
}
