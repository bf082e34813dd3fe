package cfr

import (
	"math"
	"math/rand/v2"
)

// EvaluationResult summarizes a self-play evaluation run: the mean per-hand
// utility for the evaluated player and a block-bootstrap standard error, so
// callers can tell a real improvement from sampling noise.
type EvaluationResult struct {
	Hands    int
	Mean     float64
	StdError float64
}

// Evaluate plays n self-play hands sampling every player's action from the
// blueprint's average strategy (falling back to uniform-random over legal
// actions for any information set the blueprint never visited), and
// estimates player's expected per-hand utility along with its standard
// error via block bootstrap over the resulting utility series.
//
// This replaces the teacher's eval_runner.go, which drove full bot
// processes over a websocket harness to measure performance — unnecessary
// machinery for an offline utility estimate over a Game[S] whose state
// already lives in-process.
func Evaluate[S any](game Game[S], blueprint *Blueprint, player int, hands int, rng *rand.Rand) EvaluationResult {
	utilities := make([]float64, hands)
	for i := 0; i < hands; i++ {
		s := game.Deal(rng)
		utilities[i] = playOutHand(game, &s, player, blueprint, rng)
	}

	mean := meanOf(utilities)
	se := blockBootstrapStdError(utilities, rng, 200)
	return EvaluationResult{Hands: hands, Mean: mean, StdError: se}
}

// blockSizeFor returns the bootstrap block size ≈ sqrt(n), clamped to at
// least 1 so a tiny hand count still produces a (degenerate) single block.
func blockSizeFor(n int) int {
	b := int(math.Round(math.Sqrt(float64(n))))
	if b < 1 {
		b = 1
	}
	return b
}

func playOutHand[S any](game Game[S], s *S, evalPlayer int, blueprint *Blueprint, rng *rand.Rand) float64 {
	for !game.IsTerminal(s) {
		acting := game.CurrentPlayer(s)
		actions := game.LegalActions(s)
		if len(actions) == 0 {
			break
		}
		strategy := strategyFor(game, s, acting, blueprint, actions)
		idx, _ := sampleIndex(strategy, rng)
		game.Apply(s, actions[idx])
	}
	return game.Utility(s, evalPlayer)
}

// strategyFor returns a probability per legalActions, positionally parallel
// to it, sampling from the blueprint's fixed action-id-indexed average
// strategy when available. Falls back to uniform play over legalActions
// when no blueprint is given, the information set was never visited during
// training, or the blueprint's entry doesn't cover every id in legalActions
// (a stale or mismatched blueprint).
func strategyFor[S any](game Game[S], s *S, player int, blueprint *Blueprint, legalActions []int) []float64 {
	if blueprint != nil {
		if key, err := game.InfoSetKey(s, player); err == nil {
			if full, ok := blueprint.Strategy(key); ok {
				if probs, ok := projectLegal(full, legalActions); ok {
					return probs
				}
			}
		}
	}
	uniform := make([]float64, len(legalActions))
	v := 1.0 / float64(len(legalActions))
	for i := range uniform {
		uniform[i] = v
	}
	return uniform
}

// projectLegal picks out full's probabilities at legalActions' ids and
// renormalizes them to sum to 1, reporting false if full is too short to
// cover every legal id or the legal mass it does cover is zero.
func projectLegal(full []float64, legalActions []int) ([]float64, bool) {
	probs := make([]float64, len(legalActions))
	sum := 0.0
	for i, id := range legalActions {
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

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

// blockBootstrapStdError resamples the utility series in contiguous blocks
// (rather than single points) B times, recomputes the mean each time, and
// returns the resulting standard deviation across resamples.
func blockBootstrapStdError(utilities []float64, rng *rand.Rand, resamples int) float64 {
	n := len(utilities)
	blockSize := blockSizeFor(n)
	if n < blockSize {
		return 0
	}
	numBlocks := n / blockSize
	blocks := make([][]float64, numBlocks)
	for i := 0; i < numBlocks; i++ {
		blocks[i] = utilities[i*blockSize : (i+1)*blockSize]
	}

	means := make([]float64, resamples)
	for r := 0; r < resamples; r++ {
		sum := 0.0
		for b := 0; b < numBlocks; b++ {
			block := blocks[rng.IntN(numBlocks)]
			for _, v := range block {
				sum += v
			}
		}
		means[r] = sum / float64(numBlocks*blockSize)
	}

	m := meanOf(means)
	variance := 0.0
	for _, v := range means {
		d := v - m
		variance += d * d
	}
	variance /= float64(len(means) - 1)
	return math.Sqrt(variance)
}
