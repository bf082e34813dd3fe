package cfr

import "math/rand/v2"

// Game is the capability set a state type must implement to be trained by
// Trainer: query the acting player and legal actions, apply an action
// returning an O(1) undo token, and score terminal states. This replaces
// the teacher's tree-materialized GameTreeNode interface
// (other_examples' 13jqq-go-cfr/interface.go, which allocates a node object
// per branch with GetChild/NumChildren/Close) with a mutate-in-place
// contract matching internal/nlhe.State's value-type Apply/Undo design:
// no node objects are ever allocated during a traversal.
//
// Both games this trainer supports (internal/nlhe and internal/kuhn)
// resolve all chance events (the deal) once up front when building the
// initial state, so the interface has no separate chance-node capability —
// IsTerminal/CurrentPlayer/LegalActions only ever need to reason about
// player decisions.
type Game[S any] interface {
	// NumPlayers is the fixed number of players in the game.
	NumPlayers() int

	// NumActions is the size of the game's fixed abstract action alphabet.
	// Action ids passed to Apply and returned by LegalActions are always in
	// [0, NumActions), regardless of how many are legal at any given state,
	// so the regret table can index every information set by action id
	// rather than by position in whatever subset happened to be legal.
	NumActions() int

	// Deal samples a fresh initial state, resolving all chance events
	// (shuffling, hole cards) up front.
	Deal(rng *rand.Rand) S

	// IsTerminal reports whether no further actions can be taken.
	IsTerminal(s *S) bool

	// CurrentPlayer returns the seat to act. Must not be called on a
	// terminal state.
	CurrentPlayer(s *S) int

	// LegalActions returns the actions available to CurrentPlayer, as
	// small integer codes meaningful to Apply. Must not be called on a
	// terminal state.
	LegalActions(s *S) []int

	// Apply plays the given action (must be a member of LegalActions(s))
	// and returns an undo token that restores s to its pre-Apply value
	// when passed to Undo.
	Apply(s *S, action int) S

	// Undo restores s to the state captured by a prior Apply call.
	Undo(s *S, undo S)

	// InfoSetKey returns the information set the given player observes at
	// s. Two states that are indistinguishable to player (same abstracted
	// hand strength, same public action history) must return equal keys.
	InfoSetKey(s *S, player int) (InfoSetKey, error)

	// Utility returns the terminal payoff for player. Must only be called
	// on a terminal state.
	Utility(s *S, player int) float64
}
