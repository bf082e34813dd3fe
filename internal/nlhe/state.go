package nlhe

import (
	"math/rand/v2"

	"github.com/mkessler/nlhe-blueprint/poker"
)

// sentinel is used for ToAct/LastRaiser when there is no such player (chance
// node or terminal state).
const sentinel = int8(-1)

const maxActionsPerStreet = 8

// actionRecord is one abstract action taken by one player, used to build the
// per-street history consumed by the info-set key (see internal/cfr).
type actionRecord struct {
	Player int8
	Action Action
}

type streetHistory struct {
	Actions [maxActionsPerStreet]actionRecord
	Len     int8
}

func (h *streetHistory) append(player int, a Action) {
	if int(h.Len) >= maxActionsPerStreet {
		// The abstraction caps actions per node; a street should never
		// produce more than this many distinct raises in practice.
		return
	}
	h.Actions[h.Len] = actionRecord{Player: int8(player), Action: a}
	h.Len++
}

// State is the full mutable game state for one hand. It contains no slices,
// maps, or heap-backed fields, so a State is a fixed-size value: copying it
// (the undo token returned by Apply) costs one stack-sized memcpy rather
// than an allocation, independent of how deep the traversal has gone.
type State struct {
	cfg Config

	Stacks         [NumPlayers]int64
	BetsThisRound  [NumPlayers]int64
	TotalCommitted [NumPlayers]int64
	Folded         [NumPlayers]bool
	AllIn          [NumPlayers]bool
	ActedThisRound [NumPlayers]bool

	HoleCards [NumPlayers][2]poker.Card
	Board     [5]poker.Card
	BoardLen  int8

	Street        Street
	ToAct         int8
	LastRaiser    int8
	LastRaiseSize int64 // min-raise increment baseline for the current round

	History [4]streetHistory // indexed by Street (Showdown has none)

	deck    [52]poker.Card
	deckPos int8
}

// DealNewHand shuffles a fresh deck, posts blinds, and deals hole cards for
// a new hand. Seating is fixed: P0 is always the button.
func DealNewHand(cfg Config, rng *rand.Rand) *State {
	s := &State{cfg: cfg}

	i := 0
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(0); rank < 13; rank++ {
			s.deck[i] = poker.NewCard(rank, suit)
			i++
		}
	}
	rng.Shuffle(len(s.deck), func(a, b int) { s.deck[a], s.deck[b] = s.deck[b], s.deck[a] })

	for p := 0; p < NumPlayers; p++ {
		s.Stacks[p] = cfg.StartingStack
	}

	// P0 = Button, P1 = Small Blind, P2 = Big Blind.
	s.postBet(1, cfg.SmallBlind)
	s.postBet(2, cfg.BigBlind)
	s.LastRaiseSize = cfg.BigBlind
	s.LastRaiser = sentinel

	for p := 0; p < NumPlayers; p++ {
		s.HoleCards[p][0] = s.drawCard()
		s.HoleCards[p][1] = s.drawCard()
	}

	s.Street = Preflop
	s.ToAct = 0 // preflop acting order starts at P0 (the button)
	return s
}

func (s *State) drawCard() poker.Card {
	c := s.deck[s.deckPos]
	s.deckPos++
	return c
}

// postBet commits chips for a blind without going through the legality
// filter (blinds are not abstract actions).
func (s *State) postBet(player int, amount int64) {
	if amount > s.Stacks[player] {
		amount = s.Stacks[player]
	}
	s.Stacks[player] -= amount
	s.BetsThisRound[player] += amount
	s.TotalCommitted[player] += amount
	if s.Stacks[player] == 0 {
		s.AllIn[player] = true
	}
}

// CurrentBet is the amount a player must match to call.
func (s *State) CurrentBet() int64 {
	var max int64
	for p := 0; p < NumPlayers; p++ {
		if s.BetsThisRound[p] > max {
			max = s.BetsThisRound[p]
		}
	}
	return max
}

// PotSize is the total chips committed to the pot so far this hand.
func (s *State) PotSize() int64 {
	var total int64
	for p := 0; p < NumPlayers; p++ {
		total += s.TotalCommitted[p]
	}
	return total
}

func (s *State) activeCount() int {
	n := 0
	for p := 0; p < NumPlayers; p++ {
		if !s.Folded[p] {
			n++
		}
	}
	return n
}

// canAct reports whether the player is still able to take an action
// (neither folded nor already all-in).
func (s *State) canAct(p int) bool {
	return !s.Folded[p] && !s.AllIn[p]
}

func (s *State) nextToAct(from int, order [NumPlayers]int) int8 {
	startIdx := -1
	for i, seat := range order {
		if seat == from {
			startIdx = i
			break
		}
	}
	for step := 1; step <= NumPlayers; step++ {
		seat := order[(startIdx+step)%NumPlayers]
		if s.canAct(seat) {
			return int8(seat)
		}
	}
	return sentinel
}

var preflopOrder = [NumPlayers]int{0, 1, 2}
var postflopOrder = [NumPlayers]int{1, 2, 0}

func orderFor(street Street) [NumPlayers]int {
	if street == Preflop {
		return preflopOrder
	}
	return postflopOrder
}

func firstToAct(street Street, s *State) int8 {
	order := orderFor(street)
	for _, seat := range order {
		if s.canAct(seat) {
			return int8(seat)
		}
	}
	return sentinel
}

// IsChanceNode reports whether the state is awaiting a deal rather than a
// player decision. Hole cards and blinds are posted eagerly in
// DealNewHand, so the only chance events modeled explicitly are community
// card reveals, which IsTerminal/IsChanceNode treat as already resolved by
// the street-advance logic in Apply; this leaves no separate chance node for
// the trainer to sample, keeping the traversal a plain decision tree between
// deals. The cfr.Game interface has no chance-node method, so the trainer
// never calls it.
func (s *State) IsChanceNode() bool {
	return false
}

// IsTerminal reports whether the hand is over: showdown reached or at most
// one player remains.
func (s *State) IsTerminal() bool {
	return s.Street == Showdown || s.activeCount() <= 1
}

// IsRoundClosed reports whether the current betting round has closed: every
// player who can still act has acted at least once this round and their
// bets are equal, or at most one player remains un-folded.
func (s *State) isRoundClosed() bool {
	if s.activeCount() <= 1 {
		return true
	}
	target := s.CurrentBet()
	for p := 0; p < NumPlayers; p++ {
		if !s.canAct(p) {
			continue
		}
		if !s.ActedThisRound[p] || s.BetsThisRound[p] != target {
			return false
		}
	}
	return true
}
