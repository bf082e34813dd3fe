// Package nlhe implements the abstracted 3-player, fixed-20-big-blind-stack
// No-Limit Hold'em game used as the training environment for the blueprint
// solver: dealing, the fixed action alphabet, legality, and full side-pot
// payoff resolution.
package nlhe

import "fmt"

// Street identifies a betting round.
type Street int8

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
)

func (s Street) String() string {
	switch s {
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	default:
		return "unknown"
	}
}

// Action is one of the ten fixed abstract actions. Its concrete meaning
// (raise multiplier vs pot fraction) depends on the street.
type Action int8

const (
	Fold Action = iota
	CheckCall
	Size1
	Size2
	Size3
	Size4
	Size5
	Size6
	Size7
	AllIn

	NumActions = int(AllIn) + 1
)

func (a Action) String() string {
	names := [NumActions]string{"fold", "check_call", "size1", "size2", "size3", "size4", "size5", "size6", "size7", "all_in"}
	if int(a) < 0 || int(a) >= NumActions {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return names[a]
}

// PreflopMultipliers give the raise-to size as a multiple of the current
// bet/call amount, for abstract actions Size1..Size7.
var PreflopMultipliers = [7]float64{2, 2.5, 3, 4, 5, 7.5, 10}

// PostflopFractions give the bet/raise size as a fraction of the pot
// (computed as if the actor had first called), for abstract actions
// Size1..Size7.
var PostflopFractions = [7]float64{0.33, 0.5, 0.66, 0.75, 1.0, 1.5, 2.0}

const numSizeActions = 7

// Config holds the fixed-stakes parameters of the game. SB/BB/stack are
// expressed in half-big-blind units so the 0.5 BB small blind is exact
// integer arithmetic throughout.
type Config struct {
	SmallBlind     int64 // half-blinds, normally 1 (0.5 BB)
	BigBlind       int64 // half-blinds, normally 2 (1 BB)
	StartingStack  int64 // half-blinds, normally 40 (20 BB)
}

// DefaultConfig returns the spec's fixed 3-player, 20 BB stakes.
func DefaultConfig() Config {
	return Config{SmallBlind: 1, BigBlind: 2, StartingStack: 40}
}

// NumPlayers is fixed by the specification; the trainer and bucketing are
// not generalized beyond 3 players.
const NumPlayers = 3

// BBUnits converts a half-blind amount to big blinds, for display/logging only.
func BBUnits(halfBlinds int64) float64 {
	return float64(halfBlinds) / 2
}
