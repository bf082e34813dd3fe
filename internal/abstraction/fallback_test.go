package abstraction

import (
	"testing"

	"github.com/mkessler/nlhe-blueprint/internal/nlhe"
	"github.com/mkessler/nlhe-blueprint/poker"
)

func mustCard(t *testing.T, s string) poker.Card {
	t.Helper()
	c, err := poker.ParseCard(s)
	if err != nil {
		t.Fatalf("ParseCard(%q): %v", s, err)
	}
	return c
}

func TestHoleBucketInRange(t *testing.T) {
	b := NewFallbackBucketer()
	cases := [][2]string{
		{"Ah", "As"}, // pocket aces
		{"7c", "2d"}, // trash
		{"Jh", "Th"}, // suited connector
		{"Kc", "Kd"}, // pocket kings
	}
	for _, c := range cases {
		hole := [2]poker.Card{mustCard(t, c[0]), mustCard(t, c[1])}
		bucket := b.Bucket(nlhe.Preflop, hole, nil)
		if bucket < 0 || bucket >= PreflopBuckets {
			t.Fatalf("hole %v -> bucket %d out of range [0,%d)", c, bucket, PreflopBuckets)
		}
	}
}

func TestBoardBucketInRangeAcrossStreets(t *testing.T) {
	b := NewFallbackBucketer()
	hole := [2]poker.Card{mustCard(t, "Ah"), mustCard(t, "Kh")}

	flop := []poker.Card{mustCard(t, "2c"), mustCard(t, "7d"), mustCard(t, "Jh")}
	turn := append(flop, mustCard(t, "9s"))
	river := append(append([]poker.Card{}, turn...), mustCard(t, "4c"))

	for street, board := range map[nlhe.Street][]poker.Card{
		nlhe.Flop:  flop,
		nlhe.Turn:  turn,
		nlhe.River: river,
	} {
		bucket := b.Bucket(street, hole, board)
		if bucket < 0 || bucket >= PostflopBuckets {
			t.Fatalf("street %v board %v -> bucket %d out of range [0,%d)", street, board, bucket, PostflopBuckets)
		}
	}
}

func TestBoardBucketDeterministic(t *testing.T) {
	b := NewFallbackBucketer()
	hole := [2]poker.Card{mustCard(t, "Qc"), mustCard(t, "Qd")}
	board := []poker.Card{mustCard(t, "Qh"), mustCard(t, "3s"), mustCard(t, "8d")}

	first := b.Bucket(nlhe.Flop, hole, board)
	for i := 0; i < 10; i++ {
		if got := b.Bucket(nlhe.Flop, hole, board); got != first {
			t.Fatalf("bucket not deterministic: got %d, want %d", got, first)
		}
	}
}

func TestBoardBucketMadePairScoresHigherThanAirOnSameTexture(t *testing.T) {
	b := NewFallbackBucketer()
	board := []poker.Card{mustCard(t, "9c"), mustCard(t, "4d"), mustCard(t, "2h")}

	pairedHole := [2]poker.Card{mustCard(t, "9s"), mustCard(t, "Kc")} // flops top pair
	airHole := [2]poker.Card{mustCard(t, "As"), mustCard(t, "Kd")}    // flops nothing

	pairBucket := b.Bucket(nlhe.Flop, pairedHole, board)
	airBucket := b.Bucket(nlhe.Flop, airHole, board)
	if pairBucket <= airBucket {
		t.Fatalf("expected made-pair bucket (%d) to outrank air bucket (%d)", pairBucket, airBucket)
	}
}

func TestCanonicalPreflopCoversPairSuitedOffsuit(t *testing.T) {
	pair := CanonicalPreflop([2]poker.Card{mustCard(t, "Ah"), mustCard(t, "As")})
	suited := CanonicalPreflop([2]poker.Card{mustCard(t, "Ah"), mustCard(t, "Kh")})
	offsuit := CanonicalPreflop([2]poker.Card{mustCard(t, "Ah"), mustCard(t, "Kd")})

	if pair == suited || pair == offsuit || suited == offsuit {
		t.Fatalf("expected distinct canonical ids: pair=%d suited=%d offsuit=%d", pair, suited, offsuit)
	}
	if pair >= 169 || suited >= 169 || offsuit >= 169 {
		t.Fatalf("canonical id out of [0,169) range")
	}

	// Suit relabeling must not change the canonical id.
	suitedAlt := CanonicalPreflop([2]poker.Card{mustCard(t, "Ac"), mustCard(t, "Kc")})
	if suited != suitedAlt {
		t.Fatalf("canonical preflop id changed under suit relabeling: %d vs %d", suited, suitedAlt)
	}
}

func TestCanonicalPostflopKeyInvariantUnderSuitRelabeling(t *testing.T) {
	hole1 := [2]poker.Card{mustCard(t, "Ah"), mustCard(t, "Kh")}
	board1 := []poker.Card{mustCard(t, "2h"), mustCard(t, "7d"), mustCard(t, "9s")}

	hole2 := [2]poker.Card{mustCard(t, "Ac"), mustCard(t, "Kc")}
	board2 := []poker.Card{mustCard(t, "2c"), mustCard(t, "7d"), mustCard(t, "9s")}

	key1 := CanonicalPostflopKey(nlhe.Flop, hole1, board1)
	key2 := CanonicalPostflopKey(nlhe.Flop, hole2, board2)

	if string(key1) != string(key2) {
		t.Fatalf("canonical postflop key not invariant under suit relabeling: %x vs %x", key1, key2)
	}
}

func TestCanonicalPostflopKeyDiffersOnDifferentBoardTexture(t *testing.T) {
	hole := [2]poker.Card{mustCard(t, "Ah"), mustCard(t, "Kh")}
	board1 := []poker.Card{mustCard(t, "2h"), mustCard(t, "7d"), mustCard(t, "9s")}
	board2 := []poker.Card{mustCard(t, "2h"), mustCard(t, "7d"), mustCard(t, "Th")}

	key1 := CanonicalPostflopKey(nlhe.Flop, hole, board1)
	key2 := CanonicalPostflopKey(nlhe.Flop, hole, board2)
	if string(key1) == string(key2) {
		t.Fatalf("expected different canonical keys for different boards")
	}
}
