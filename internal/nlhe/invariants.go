package nlhe

import "fmt"

// CheckInvariants verifies the two structural guarantees a terminal hand
// must satisfy: every chip a player ever put in is accounted for either in
// their remaining stack or their total commitment, and the pot awarded by
// Payoffs never creates or destroys chips. A violation here means a bug in
// the betting or pot-resolution logic, not a bad deal, so callers treat it
// as fatal rather than retryable.
func (s *State) CheckInvariants() error {
	for p := 0; p < NumPlayers; p++ {
		if got, want := s.Stacks[p]+s.TotalCommitted[p], s.cfg.StartingStack; got != want {
			return fmt.Errorf("nlhe: player %d stack+committed=%d, want starting stack %d", p, got, want)
		}
		if s.Stacks[p] < 0 {
			return fmt.Errorf("nlhe: player %d has negative stack %d", p, s.Stacks[p])
		}
	}

	winnings := s.resolvePots()
	var totalWon, totalCommitted int64
	for p := 0; p < NumPlayers; p++ {
		totalWon += winnings[p]
		totalCommitted += s.TotalCommitted[p]
	}
	if totalWon != totalCommitted {
		return fmt.Errorf("nlhe: pot not conserved: awarded %d, committed %d", totalWon, totalCommitted)
	}
	return nil
}
