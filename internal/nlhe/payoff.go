package nlhe

import (
	"sort"

	"github.com/mkessler/nlhe-blueprint/poker"
)

// Payoffs computes the signed delta from each player's starting stack for a
// terminal state, resolving side pots per §4.2: pot boundaries are drawn at
// the distinct total-commitment levels of non-folded players, contributors
// at each level include folded players up to their frozen commitment, and
// only non-folded contributors are eligible to win that level.
func (s *State) Payoffs() [NumPlayers]float64 {
	winnings := s.resolvePots()

	var payoffs [NumPlayers]float64
	for p := 0; p < NumPlayers; p++ {
		payoffs[p] = float64(winnings[p]-s.TotalCommitted[p]) / 2 // half-blinds -> BB
	}
	return payoffs
}

func (s *State) resolvePots() [NumPlayers]int64 {
	var winnings [NumPlayers]int64

	if s.activeCount() == 1 {
		for p := 0; p < NumPlayers; p++ {
			if !s.Folded[p] {
				winnings[p] = s.PotSize()
				return winnings
			}
		}
	}

	levels := s.commitmentLevels()
	var prevLevel int64
	for _, level := range levels {
		delta := level - prevLevel
		if delta <= 0 {
			prevLevel = level
			continue
		}

		var contributors, eligible []int
		for p := 0; p < NumPlayers; p++ {
			if s.TotalCommitted[p] >= level {
				contributors = append(contributors, p)
				if !s.Folded[p] {
					eligible = append(eligible, p)
				}
			}
		}
		potSize := delta * int64(len(contributors))

		awardPot(s, potSize, eligible, winnings[:])
		prevLevel = level
	}
	return winnings
}

// commitmentLevels returns the sorted distinct total-commitment amounts of
// non-folded players, which define the side-pot boundaries.
func (s *State) commitmentLevels() []int64 {
	seen := make(map[int64]bool, NumPlayers)
	levels := make([]int64, 0, NumPlayers)
	for p := 0; p < NumPlayers; p++ {
		if s.Folded[p] {
			continue
		}
		l := s.TotalCommitted[p]
		if l > 0 && !seen[l] {
			seen[l] = true
			levels = append(levels, l)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	return levels
}

// awardPot splits potSize among the best hand(s) in eligible, adding the
// result into winnings. Odd chips go to the earliest-to-act eligible winner
// in postflop order (1, 2, 0).
func awardPot(s *State, potSize int64, eligible []int, winnings []int64) {
	if len(eligible) == 0 {
		return
	}
	if len(eligible) == 1 {
		winnings[eligible[0]] += potSize
		return
	}

	best := eligible[0]
	bestRank := s.handRank(best)
	winners := []int{best}
	for _, p := range eligible[1:] {
		r := s.handRank(p)
		switch poker.CompareHands(r, bestRank) {
		case 1:
			bestRank = r
			winners = []int{p}
		case 0:
			winners = append(winners, p)
		}
	}

	share := potSize / int64(len(winners))
	remainder := potSize % int64(len(winners))
	for _, p := range winners {
		winnings[p] += share
	}
	if remainder > 0 {
		winnings[oddChipWinner(winners)] += remainder
	}
}

func (s *State) handRank(p int) poker.HandRank {
	h := poker.NewHand(s.HoleCards[p][0], s.HoleCards[p][1])
	for i := 0; i < int(s.BoardLen); i++ {
		h.AddCard(s.Board[i])
	}
	return poker.Evaluate7Cards(h)
}

// oddChipWinner picks the earliest-to-act winner in postflop order (1,2,0).
func oddChipWinner(winners []int) int {
	for _, seat := range postflopOrder {
		for _, w := range winners {
			if w == seat {
				return w
			}
		}
	}
	return winners[0]
}
