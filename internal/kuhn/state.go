// Package kuhn implements 3-player Kuhn poker: a minimal extensive-form
// poker variant small enough to solve exactly, used to validate that
// internal/cfr's MCCFR trainer actually converges toward equilibrium (its
// exploitability can be computed in closed form, unlike full No-Limit
// Hold'em). Modeled after internal/nlhe's single-street betting-round state
// machine (bets/folded/acted arrays, round-closure detection), since a Kuhn
// hand is exactly one such round.
package kuhn

import "math/rand/v2"

const NumPlayers = 3
const NumRanks = 4 // cards ranked 0 (lowest) .. 3 (highest); 3 of the 4 are dealt

const sentinel = int8(-1)

type Action int8

const (
	Fold Action = iota
	CheckCall
	Bet

	NumActions = int(Bet) + 1
)

func (a Action) String() string {
	switch a {
	case Fold:
		return "fold"
	case CheckCall:
		return "check/call"
	case Bet:
		return "bet"
	default:
		return "unknown"
	}
}

// State is a fully value-typed Kuhn hand, mirroring internal/nlhe.State's
// O(1)-undo design: Apply returns a copy of the pre-move state as the undo
// token.
type State struct {
	Cards  [NumPlayers]uint8
	Bets   [NumPlayers]uint8 // 0 (ante only) or 1 (ante + bet)
	Folded [NumPlayers]bool
	Acted  [NumPlayers]bool

	ToAct      int8
	Bettor     int8 // sentinel until someone bets
	ActionsLen int8
	// maxActionEvents bounds the public history: a bet forces every active
	// player who already checked before it to act again once, so the worst
	// case (check, check, bet, call-or-fold, call-or-fold) is 2*NumPlayers-1.
	Actions [maxActionEvents]Action
}

const maxActionEvents = 2*NumPlayers - 1

// Deal shuffles the 4-card deck and deals one card to each of the 3
// players; the 4th card is never revealed.
func Deal(rng *rand.Rand) State {
	deck := [NumRanks]uint8{0, 1, 2, 3}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	var s State
	copy(s.Cards[:], deck[:NumPlayers])
	s.ToAct = 0
	s.Bettor = sentinel
	return s
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

func (s *State) CurrentBet() uint8 {
	var max uint8
	for p := 0; p < NumPlayers; p++ {
		if s.Bets[p] > max {
			max = s.Bets[p]
		}
	}
	return max
}

func (s *State) canAct(p int) bool { return !s.Folded[p] }

func (s *State) isRoundClosed() bool {
	if s.activeCount() <= 1 {
		return true
	}
	target := s.CurrentBet()
	for p := 0; p < NumPlayers; p++ {
		if !s.canAct(p) {
			continue
		}
		if !s.Acted[p] || s.Bets[p] != target {
			return false
		}
	}
	return true
}

func (s *State) nextToAct(from int) int8 {
	for step := 1; step <= NumPlayers; step++ {
		seat := (from + step) % NumPlayers
		if s.canAct(seat) {
			return int8(seat)
		}
	}
	return sentinel
}

// IsTerminal reports whether the hand has reached showdown or at most one
// player remains.
func (s *State) IsTerminal() bool {
	return s.ToAct == sentinel
}

// LegalActions returns the actions available to the player to act: Fold
// only when facing a bet, Bet only when no bet has been placed yet
// (Kuhn allows exactly one bet per hand, no raises), CheckCall always.
func LegalActions(s *State) []Action {
	actions := make([]Action, 0, 3)
	toCall := s.CurrentBet() - s.Bets[s.ToAct]
	if toCall > 0 {
		actions = append(actions, Fold)
	}
	actions = append(actions, CheckCall)
	if s.CurrentBet() == 0 {
		actions = append(actions, Bet)
	}
	return actions
}

// Apply plays one action for the current player and returns the pre-move
// state as an O(1) undo token.
func (s *State) Apply(a Action) State {
	prev := *s
	p := int(s.ToAct)

	switch a {
	case Fold:
		s.Folded[p] = true
	case Bet:
		s.Bets[p] = 1
		s.Bettor = int8(p)
		for q := 0; q < NumPlayers; q++ {
			if q != p {
				s.Acted[q] = false
			}
		}
	case CheckCall:
		s.Bets[p] = s.CurrentBet()
	}
	s.Acted[p] = true
	if int(s.ActionsLen) < len(s.Actions) {
		s.Actions[s.ActionsLen] = a
		s.ActionsLen++
	}

	if s.isRoundClosed() {
		s.ToAct = sentinel
	} else {
		s.ToAct = s.nextToAct(p)
	}
	return prev
}

func (s *State) Undo(prev State) { *s = prev }

// Payoffs returns each player's net chip result: the 1-chip ante plus the
// shared pot for the winner (highest card among non-folded players), minus
// each player's total contribution.
func (s *State) Payoffs() [NumPlayers]float64 {
	var contribution [NumPlayers]int
	pot := 0
	for p := 0; p < NumPlayers; p++ {
		contribution[p] = 1 + int(s.Bets[p]) // ante + bet/call
		pot += contribution[p]
	}

	winner := -1
	for p := 0; p < NumPlayers; p++ {
		if s.Folded[p] {
			continue
		}
		if winner == -1 || s.Cards[p] > s.Cards[winner] {
			winner = p
		}
	}

	var payoffs [NumPlayers]float64
	for p := 0; p < NumPlayers; p++ {
		winnings := 0
		if p == winner {
			winnings = pot
		}
		payoffs[p] = float64(winnings - contribution[p])
	}
	return payoffs
}
