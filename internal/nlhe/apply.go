package nlhe

// Apply mutates s in place to reflect action a taken by the current actor,
// advancing the round/street/terminal state as needed, and returns an undo
// token: a full value copy of the prior state. Calling Undo(token) restores
// s exactly. Because State holds no slices or maps, the token is a single
// fixed-size value copy — O(1) extra state regardless of traversal depth,
// per the game's undo contract.
func (s *State) Apply(a Action) State {
	prev := *s

	p := int(s.ToAct)
	switch a {
	case Fold:
		s.Folded[p] = true
	case CheckCall:
		toCall := s.CurrentBet() - s.BetsThisRound[p]
		if toCall > s.Stacks[p] {
			toCall = s.Stacks[p]
		}
		s.commit(p, toCall)
	case AllIn:
		before := s.CurrentBet()
		amount := s.Stacks[p]
		s.commit(p, amount)
		if s.BetsThisRound[p] > before {
			s.onRaise(p, before)
		}
	default:
		before := s.CurrentBet()
		target := RaiseToAmount(s, a)
		amount := target - s.BetsThisRound[p]
		s.commit(p, amount)
		if s.BetsThisRound[p] > before {
			s.onRaise(p, before)
		}
	}

	s.ActedThisRound[p] = true
	s.History[s.Street].append(p, a)

	if s.isRoundClosed() {
		s.advanceRound()
	} else {
		s.ToAct = s.nextToAct(p, orderFor(s.Street))
	}

	return prev
}

// Undo restores s to the value captured by a prior call to Apply.
func (s *State) Undo(prev State) {
	*s = prev
}

// commit moves amount chips from the player's stack into the pot, clamped
// to their remaining stack, marking them all-in if it exhausts their chips.
func (s *State) commit(p int, amount int64) {
	if amount < 0 {
		amount = 0
	}
	if amount > s.Stacks[p] {
		amount = s.Stacks[p]
	}
	s.Stacks[p] -= amount
	s.BetsThisRound[p] += amount
	s.TotalCommitted[p] += amount
	if s.Stacks[p] == 0 {
		s.AllIn[p] = true
	}
}

// onRaise records the new aggressor and resets everyone else's acted flag
// so they get a chance to respond to the raise. before is the CurrentBet()
// immediately prior to this commit.
func (s *State) onRaise(raiser int, before int64) {
	increment := s.BetsThisRound[raiser] - before
	if increment > s.LastRaiseSize {
		s.LastRaiseSize = increment
	}
	s.LastRaiser = int8(raiser)
	for p := 0; p < NumPlayers; p++ {
		if p != raiser {
			s.ActedThisRound[p] = false
		}
	}
}

// advanceRound clears the betting round, deals the next street (or reaches
// Showdown), and sets the next actor. If dealing leaves nobody able to act
// (e.g. multiple players already all-in), it keeps advancing streets until
// Showdown.
func (s *State) advanceRound() {
	for p := 0; p < NumPlayers; p++ {
		s.BetsThisRound[p] = 0
		s.ActedThisRound[p] = false
	}
	s.LastRaiser = sentinel
	s.LastRaiseSize = s.cfg.BigBlind

	if s.activeCount() <= 1 {
		s.Street = Showdown
		s.ToAct = sentinel
		return
	}

	for s.Street != River {
		s.dealNextStreet()
		next := firstToAct(s.Street, s)
		if next != sentinel {
			s.ToAct = next
			return
		}
		// everyone remaining is all-in: keep dealing to showdown
	}

	s.Street = Showdown
	s.ToAct = sentinel
}

func (s *State) dealNextStreet() {
	switch s.Street {
	case Preflop:
		s.Street = Flop
		s.Board[0] = s.drawCard()
		s.Board[1] = s.drawCard()
		s.Board[2] = s.drawCard()
		s.BoardLen = 3
	case Flop:
		s.Street = Turn
		s.Board[3] = s.drawCard()
		s.BoardLen = 4
	case Turn:
		s.Street = River
		s.Board[4] = s.drawCard()
		s.BoardLen = 5
	}
}
