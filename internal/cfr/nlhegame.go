package cfr

import (
	"math/rand/v2"

	"github.com/mkessler/nlhe-blueprint/internal/abstraction"
	"github.com/mkessler/nlhe-blueprint/internal/nlhe"
)

// NLHEGame adapts internal/nlhe.State to the Game[S] interface, routing
// abstraction lookups through a Bucketer (a Router in production, or a bare
// FallbackBucketer for quick smoke runs with no precomputed tables).
type NLHEGame struct {
	Config   nlhe.Config
	Bucketer abstraction.Bucketer
}

func NewNLHEGame(cfg nlhe.Config, bucketer abstraction.Bucketer) NLHEGame {
	return NLHEGame{Config: cfg, Bucketer: bucketer}
}

func (g NLHEGame) NumPlayers() int { return nlhe.NumPlayers }

func (g NLHEGame) NumActions() int { return nlhe.NumActions }

func (g NLHEGame) Deal(rng *rand.Rand) nlhe.State {
	return *nlhe.DealNewHand(g.Config, rng)
}

func (g NLHEGame) IsTerminal(s *nlhe.State) bool { return s.IsTerminal() }

// CheckInvariants implements InvariantChecker, giving Trainer a chip
// conservation and stack-bounds check for every terminal NLHE state it
// reaches during training.
func (g NLHEGame) CheckInvariants(s *nlhe.State) error { return s.CheckInvariants() }

func (g NLHEGame) CurrentPlayer(s *nlhe.State) int { return int(s.ToAct) }

func (g NLHEGame) LegalActions(s *nlhe.State) []int {
	legal := nlhe.LegalActions(s)
	out := make([]int, len(legal))
	for i, a := range legal {
		out[i] = int(a)
	}
	return out
}

func (g NLHEGame) Apply(s *nlhe.State, action int) nlhe.State {
	return s.Apply(nlhe.Action(action))
}

func (g NLHEGame) Undo(s *nlhe.State, undo nlhe.State) { s.Undo(undo) }

func (g NLHEGame) Utility(s *nlhe.State, player int) float64 {
	return s.Payoffs()[player]
}

func (g NLHEGame) InfoSetKey(s *nlhe.State, player int) (InfoSetKey, error) {
	hole := s.HoleCards[player]
	board := s.Board[:s.BoardLen]
	bucket := g.Bucketer.Bucket(s.Street, hole, board)

	var history []HistoryEntry
	for street := nlhe.Preflop; street <= s.Street && int(street) < 4; street++ {
		h := s.History[street]
		for i := 0; i < int(h.Len); i++ {
			history = append(history, HistoryEntry{
				Street: int(street),
				Index:  i,
				Action: int(h.Actions[i].Action),
			})
		}
	}

	return NewInfoSetKey(int(s.Street), player, bucket, history)
}
