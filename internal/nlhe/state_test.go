package nlhe

import (
	"testing"

	"github.com/mkessler/nlhe-blueprint/internal/randutil"
)

func newTestState(t *testing.T, cfg Config) *State {
	t.Helper()
	rng := randutil.New(1)
	return DealNewHand(cfg, rng)
}

func checkInvariants(t *testing.T, s *State) {
	t.Helper()
	var committed int64
	for p := 0; p < NumPlayers; p++ {
		committed += s.TotalCommitted[p]
		if s.Stacks[p]+s.TotalCommitted[p] != s.cfg.StartingStack {
			t.Fatalf("chip conservation violated for player %d: stack=%d committed=%d start=%d",
				p, s.Stacks[p], s.TotalCommitted[p], s.cfg.StartingStack)
		}
		if s.BetsThisRound[p] > s.TotalCommitted[p] {
			t.Fatalf("bets_this_round exceeds total_committed for player %d", p)
		}
	}
	if committed != s.PotSize() {
		t.Fatalf("pot size mismatch: committed=%d potSize=%d", committed, s.PotSize())
	}
}

func applyAndCheck(t *testing.T, s *State, a Action) {
	t.Helper()
	legal := LegalActions(s)
	found := false
	for _, la := range legal {
		if la == a {
			found = true
		}
	}
	if !found {
		t.Fatalf("action %v not legal at this state; legal=%v", a, legal)
	}
	s.Apply(a)
	checkInvariants(t, s)
}

func TestHeadsUpFoldToBigBlind(t *testing.T) {
	t.Parallel()
	s := newTestState(t, DefaultConfig())
	applyAndCheck(t, s, Fold) // P0 folds
	applyAndCheck(t, s, Fold) // P1 (SB) folds to the big blind

	if !s.IsTerminal() {
		t.Fatalf("expected terminal state after two folds")
	}
	payoffs := s.Payoffs()
	want := [3]float64{0, -0.5, 0.5}
	for i := range want {
		if payoffs[i] != want[i] {
			t.Fatalf("payoffs = %v, want %v", payoffs, want)
		}
	}
}

func TestWalkBothOpponentsFold(t *testing.T) {
	t.Parallel()
	s := newTestState(t, DefaultConfig())

	// P0 raises to 3 BB preflop: current bet is the posted big blind (2
	// half-blinds), so the 3x abstract size (Size3, multiplier 3) raises
	// to 6 half-blinds = 3 BB exactly.
	applyAndCheck(t, s, Size3)
	applyAndCheck(t, s, Fold) // P1 folds
	applyAndCheck(t, s, Fold) // P2 folds

	if !s.IsTerminal() {
		t.Fatalf("expected terminal state")
	}
	payoffs := s.Payoffs()
	want := [3]float64{1.5, -0.5, -1.0}
	for i := range want {
		if payoffs[i] != want[i] {
			t.Fatalf("payoffs = %v, want %v", payoffs, want)
		}
	}
}

func TestThreeWayAllInPreflop(t *testing.T) {
	t.Parallel()
	s := newTestState(t, DefaultConfig())

	applyAndCheck(t, s, AllIn) // P0
	applyAndCheck(t, s, AllIn) // P1
	applyAndCheck(t, s, AllIn) // P2

	if s.Street != Showdown {
		t.Fatalf("expected showdown after three-way all-in, got %v", s.Street)
	}
	payoffs := s.Payoffs()
	sum := payoffs[0] + payoffs[1] + payoffs[2]
	if sum != 0 {
		t.Fatalf("payoffs must sum to zero, got %v (sum=%v)", payoffs, sum)
	}
}

func TestSidePotUnevenStacks(t *testing.T) {
	t.Parallel()
	cfg := Config{SmallBlind: 1, BigBlind: 2, StartingStack: 40}
	s := DealNewHand(cfg, randutil.New(7))
	s.Stacks[2] = 10 - s.TotalCommitted[2] // P2 effectively has 5 BB total

	applyAndCheck(t, s, AllIn) // P0 all-in for 40
	applyAndCheck(t, s, AllIn) // P1 all-in for 40
	applyAndCheck(t, s, AllIn) // P2 all-in for 10

	if s.Street != Showdown {
		t.Fatalf("expected showdown, got %v", s.Street)
	}
	payoffs := s.Payoffs()
	sum := payoffs[0] + payoffs[1] + payoffs[2]
	if sum != 0 {
		t.Fatalf("payoffs must sum to zero, got %v", payoffs)
	}
}

func TestCheckDownToRiver(t *testing.T) {
	t.Parallel()
	s := newTestState(t, DefaultConfig())

	applyAndCheck(t, s, CheckCall) // P0 limps
	applyAndCheck(t, s, CheckCall) // P1 (SB) completes
	applyAndCheck(t, s, CheckCall) // P2 (BB) checks option -> flop

	for s.Street != Showdown {
		applyAndCheck(t, s, CheckCall)
	}

	payoffs := s.Payoffs()
	sum := payoffs[0] + payoffs[1] + payoffs[2]
	if sum != 0 {
		t.Fatalf("payoffs must sum to zero, got %v", payoffs)
	}
	nonZero := 0
	for _, p := range payoffs {
		if p != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Fatalf("expected a winner and losers, got all zero payoffs")
	}
}

func TestApplyUndoRestoresStateExactly(t *testing.T) {
	t.Parallel()
	s := newTestState(t, DefaultConfig())
	before := *s

	legal := LegalActions(s)
	if len(legal) == 0 {
		t.Fatalf("expected non-empty legal actions at a fresh decision node")
	}
	undo := s.Apply(legal[0])
	s.Undo(undo)

	if *s != before {
		t.Fatalf("state after apply+undo does not match original state")
	}
}

func TestLegalActionsNonEmptyAtEveryDecision(t *testing.T) {
	t.Parallel()
	s := newTestState(t, DefaultConfig())
	steps := 0
	for !s.IsTerminal() && s.Street != Showdown && steps < 200 {
		legal := LegalActions(s)
		if len(legal) == 0 {
			t.Fatalf("empty legal action set at a non-terminal decision node")
		}
		s.Apply(CheckCall)
		steps++
	}
}
