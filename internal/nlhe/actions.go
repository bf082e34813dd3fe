package nlhe

// round rounds to the nearest integer, away from zero on .5, matching how a
// poker room rounds pot-fraction bets to whole chips.
func round(x float64) int64 {
	if x < 0 {
		return -round(-x)
	}
	return int64(x + 0.5)
}

// raiseToForSize computes the target total bets_this_round for the acting
// player if they choose abstract size action idx (0-based into the 7 size
// slots), per §4.3: preflop sizes are multiples of the current bet, postflop
// sizes are pot-relative.
func raiseToForSize(s *State, idx int) int64 {
	current := s.CurrentBet()
	if s.Street == Preflop {
		return round(PreflopMultipliers[idx] * float64(current))
	}
	toCall := current - s.BetsThisRound[s.ToAct]
	potAfterCall := s.PotSize() + toCall
	additional := round(PostflopFractions[idx] * float64(potAfterCall))
	return current + additional
}

// minRaiseTo is the smallest legal raise-to total for the current round.
func minRaiseTo(s *State) int64 {
	inc := s.LastRaiseSize
	if inc < s.cfg.BigBlind {
		inc = s.cfg.BigBlind
	}
	return s.CurrentBet() + inc
}

// maxRaiseTo is the most the acting player could put into the pot this
// round (going all-in).
func maxRaiseTo(s *State) int64 {
	p := int(s.ToAct)
	return s.BetsThisRound[p] + s.Stacks[p]
}

// LegalActions returns the subset of the 10 abstract actions that are legal
// for the player to act; RaiseToAmount gives the concrete raise-to amount a
// returned Size or AllIn action resolves to.
// Coercion is deterministic: identical states always yield identical masks.
func LegalActions(s *State) []Action {
	if s.ToAct < 0 {
		return nil
	}
	p := int(s.ToAct)
	current := s.CurrentBet()
	toCall := current - s.BetsThisRound[p]

	legal := make([]Action, 0, NumActions)

	if toCall > 0 {
		legal = append(legal, Fold)
	}
	legal = append(legal, CheckCall)

	if s.Stacks[p] > 0 {
		minTo := minRaiseTo(s)
		maxTo := maxRaiseTo(s)
		for i := 0; i < numSizeActions; i++ {
			target := raiseToForSize(s, i)
			if target < minTo {
				continue // dropped: below min-raise
			}
			if target > maxTo {
				if maxTo < minTo {
					continue // even going all-in would not meet min-raise
				}
				// coerced upward to all-in; still legal under this id
			}
			legal = append(legal, Action(int(Size1)+i))
		}
		legal = append(legal, AllIn)
	}

	return legal
}

// RaiseToAmount returns the concrete total bets_this_round the player will
// have after taking action a, for a raise/bet/all-in action. It applies the
// same coercion as LegalActions, so it must only be called for actions
// LegalActions returned.
func RaiseToAmount(s *State, a Action) int64 {
	if a == AllIn {
		return maxRaiseTo(s)
	}
	idx := int(a) - int(Size1)
	target := raiseToForSize(s, idx)
	maxTo := maxRaiseTo(s)
	if target > maxTo {
		return maxTo
	}
	return target
}
