package kuhn

import (
	"math/rand/v2"

	"github.com/mkessler/nlhe-blueprint/internal/cfr"
)

// Game adapts 3-player Kuhn poker to cfr.Game[State], the same adapter
// pattern internal/cfr/nlhegame.go uses for full No-Limit Hold'em. Its
// information sets need no card-abstraction bucketer: Kuhn's 4-card deck is
// its own bucket.
type Game struct{}

func NewGame() Game { return Game{} }

func (Game) NumPlayers() int { return NumPlayers }

func (Game) NumActions() int { return NumActions }

func (Game) Deal(rng *rand.Rand) State { return Deal(rng) }

func (Game) IsTerminal(s *State) bool { return s.IsTerminal() }

func (Game) CurrentPlayer(s *State) int { return int(s.ToAct) }

func (Game) LegalActions(s *State) []int {
	actions := LegalActions(s)
	ids := make([]int, len(actions))
	for i, a := range actions {
		ids[i] = int(a)
	}
	return ids
}

func (Game) Apply(s *State, action int) State { return s.Apply(Action(action)) }

func (Game) Undo(s *State, undo State) { s.Undo(undo) }

// InfoSetKey encodes a player's private card as the bucket (a card's rank
//0..3 fits directly, no abstraction needed) and the public action sequence
// so far as the history; Kuhn has exactly one betting round so every entry
// lands on street 0.
func (Game) InfoSetKey(s *State, player int) (cfr.InfoSetKey, error) {
	history := make([]cfr.HistoryEntry, int(s.ActionsLen))
	for i := 0; i < int(s.ActionsLen); i++ {
		history[i] = cfr.HistoryEntry{Street: 0, Index: i, Action: int(s.Actions[i])}
	}
	return cfr.NewInfoSetKey(0, player, int(s.Cards[player]), history)
}

func (Game) Utility(s *State, player int) float64 {
	return s.Payoffs()[player]
}
