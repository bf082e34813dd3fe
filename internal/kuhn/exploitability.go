package kuhn

import (
	"math"
	"sort"

	"github.com/mkessler/nlhe-blueprint/internal/cfr"
)

// policy returns a probability per LegalActions(s) index for the player to
// act at s.
type policy func(s *State, player int) []float64

func uniformPolicy(s *State, _ int) []float64 {
	n := len(LegalActions(s))
	probs := make([]float64, n)
	v := 1.0 / float64(n)
	for i := range probs {
		probs[i] = v
	}
	return probs
}

// blueprintPolicy looks up a player's average strategy from a trained
// blueprint, restricting the blueprint's fixed action-id-indexed vector to
// the actions actually legal at s and renormalizing, falling back to
// uniform play for any information set the trainer never visited (or whose
// legal mass in the blueprint is zero).
func blueprintPolicy(game Game, bp *cfr.Blueprint) policy {
	return func(s *State, player int) []float64 {
		if bp != nil {
			if key, err := game.InfoSetKey(s, player); err == nil {
				if full, ok := bp.Strategy(key); ok {
					legal := LegalActions(s)
					ids := make([]int, len(legal))
					for i, a := range legal {
						ids[i] = int(a)
					}
					if probs, ok := projectLegal(full, ids); ok {
						return probs
					}
				}
			}
		}
		return uniformPolicy(s, player)
	}
}

// projectLegal picks out full's probabilities at the given action ids and
// renormalizes them to sum to 1, reporting false if full is too short to
// cover every id or the legal mass it does cover is zero. Mirrors
// internal/cfr/evaluate.go's projectLegal for the same fixed-width,
// action-id-indexed blueprint format.
func projectLegal(full []float64, ids []int) ([]float64, bool) {
	probs := make([]float64, len(ids))
	sum := 0.0
	for i, id := range ids {
		if id < 0 || id >= len(full) {
			return nil, false
		}
		probs[i] = full[id]
		sum += probs[i]
	}
	if sum <= 0 {
		return nil, false
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, true
}

func allDeals() []State {
	deals := make([]State, 0, NumRanks*(NumRanks-1)*(NumRanks-2))
	for i := uint8(0); i < NumRanks; i++ {
		for j := uint8(0); j < NumRanks; j++ {
			if j == i {
				continue
			}
			for k := uint8(0); k < NumRanks; k++ {
				if k == i || k == j {
					continue
				}
				var s State
				s.Cards = [NumPlayers]uint8{i, j, k}
				s.ToAct = 0
				s.Bettor = sentinel
				deals = append(deals, s)
			}
		}
	}
	return deals
}

// profileValue computes the exact expected utility for player when every
// seat (including player) follows pol, by summing over every deal-weighted
// path of the (small, fully enumerable) Kuhn game tree.
func profileValue(s *State, player int, pol policy) float64 {
	if s.IsTerminal() {
		return s.Payoffs()[player]
	}
	actor := int(s.ToAct)
	actions := LegalActions(s)
	probs := pol(s, actor)

	total := 0.0
	for i, a := range actions {
		next := *s
		next.Apply(a)
		total += probs[i] * profileValue(&next, player, pol)
	}
	return total
}

func exactProfileValue(pol policy, deals []State, player int) float64 {
	weight := 1.0 / float64(len(deals))
	total := 0.0
	for _, deal := range deals {
		s := deal
		total += weight * profileValue(&s, player, pol)
	}
	return total
}

type reachChild struct {
	reach float64
	state State
}

type infosetAccum struct {
	depth     int
	perAction [][]reachChild
}

// collect performs a full, unweighted branching walk of the game tree
// (every action at the best-responding player's own nodes, probability-
// weighted branching at everyone else's), recording for each of the best
// responder's information sets the (reach, resulting child state) pairs
// produced by every available action. The best responder's own branches all
// carry the same reachOthers weight forward since which action to take is
// exactly the unknown the two-pass computation is solving for.
func collect(s *State, brPlayer int, reachOthers float64, oppPolicy policy, game Game, entries map[cfr.InfoSetKey]*infosetAccum) {
	if s.IsTerminal() {
		return
	}
	actor := int(s.ToAct)
	actions := LegalActions(s)

	if actor == brPlayer {
		key, err := game.InfoSetKey(s, actor)
		if err != nil {
			return
		}
		acc, ok := entries[key]
		if !ok {
			acc = &infosetAccum{depth: int(s.ActionsLen), perAction: make([][]reachChild, len(actions))}
			entries[key] = acc
		}
		for i, a := range actions {
			next := *s
			next.Apply(a)
			acc.perAction[i] = append(acc.perAction[i], reachChild{reach: reachOthers, state: next})
			collect(&next, brPlayer, reachOthers, oppPolicy, game, entries)
		}
		return
	}

	probs := oppPolicy(s, actor)
	for i, a := range actions {
		next := *s
		next.Apply(a)
		collect(&next, brPlayer, reachOthers*probs[i], oppPolicy, game, entries)
	}
}

// contValue evaluates a subtree given a fully (or partially) finalized
// best-response policy: at the best responder's own nodes it plays the
// finalized action, everywhere else it follows oppPolicy. Callers must only
// invoke it on states where every best-response information set it can
// reach has already been finalized, which computeBestResponseValue
// guarantees by finalizing strictly deeper information sets first.
func contValue(s *State, brPlayer int, finalized map[cfr.InfoSetKey]int, oppPolicy policy, game Game) float64 {
	if s.IsTerminal() {
		return s.Payoffs()[brPlayer]
	}
	actor := int(s.ToAct)
	actions := LegalActions(s)

	if actor == brPlayer {
		key, err := game.InfoSetKey(s, actor)
		if err != nil {
			return 0
		}
		idx, ok := finalized[key]
		if !ok {
			idx = 0 // information set never finalized (unreachable under oppPolicy); any action is payoff-irrelevant
		}
		next := *s
		next.Apply(actions[idx])
		return contValue(&next, brPlayer, finalized, oppPolicy, game)
	}

	probs := oppPolicy(s, actor)
	total := 0.0
	for i, a := range actions {
		next := *s
		next.Apply(a)
		total += probs[i] * contValue(&next, brPlayer, finalized, oppPolicy, game)
	}
	return total
}

// computeBestResponseValue returns brPlayer's exact expected utility when
// brPlayer plays an optimal pure best response to oppPolicy and every other
// seat follows oppPolicy. It finalizes the best responder's information
// sets in order of decreasing tree depth so that, by the time an
// information set's action values are computed, every information set
// reachable beneath it is already resolved.
func computeBestResponseValue(game Game, brPlayer int, oppPolicy policy, deals []State) float64 {
	entries := map[cfr.InfoSetKey]*infosetAccum{}
	weight := 1.0 / float64(len(deals))
	for _, deal := range deals {
		s := deal
		collect(&s, brPlayer, weight, oppPolicy, game, entries)
	}

	depthSet := map[int]bool{}
	for _, acc := range entries {
		depthSet[acc.depth] = true
	}
	depths := make([]int, 0, len(depthSet))
	for d := range depthSet {
		depths = append(depths, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(depths)))

	finalized := map[cfr.InfoSetKey]int{}
	for _, d := range depths {
		for key, acc := range entries {
			if acc.depth != d {
				continue
			}
			best, bestVal := 0, math.Inf(-1)
			for i, pairs := range acc.perAction {
				val := 0.0
				for _, pc := range pairs {
					child := pc.state
					val += pc.reach * contValue(&child, brPlayer, finalized, oppPolicy, game)
				}
				if val > bestVal {
					bestVal, best = val, i
				}
			}
			finalized[key] = best
		}
	}

	total := 0.0
	for _, deal := range deals {
		s := deal
		total += weight * contValue(&s, brPlayer, finalized, oppPolicy, game)
	}
	return total
}

// Exploitability returns the average, over all three seats, of how much
// utility that seat gains by switching from the blueprint's average
// strategy to an exact best response while the other two seats keep
// playing the blueprint. It is zero exactly at a Nash equilibrium and is
// the standard convergence metric MCCFR training is judged against.
func Exploitability(bp *cfr.Blueprint) float64 {
	game := NewGame()
	pol := blueprintPolicy(game, bp)
	deals := allDeals()

	total := 0.0
	for player := 0; player < NumPlayers; player++ {
		br := computeBestResponseValue(game, player, pol, deals)
		avg := exactProfileValue(pol, deals, player)
		gain := br - avg
		if gain < 0 {
			gain = 0
		}
		total += gain
	}
	return total / float64(NumPlayers)
}
