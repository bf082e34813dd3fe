package abstraction

import (
	"context"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mkessler/nlhe-blueprint/poker"
)

// EquityResult summarizes a Monte Carlo rollout against random opponent
// holdings: Win/Tie/Loss are fractions of samples, summing to 1.
type EquityResult struct {
	Win  float64
	Tie  float64
	Loss float64
}

// maxRolloutWorkers caps the worker pool regardless of GOMAXPROCS, since
// each worker only needs a handful of samples to converge for bucket
// construction and contention past this point isn't worth it.
const maxRolloutWorkers = 8

// EstimateEquity runs a Monte Carlo rollout estimating hole's equity against
// opponents random hands, completing the board to the river each sample. It
// is used offline by the bucket-table builder, not inside the training hot
// loop.
func EstimateEquity(ctx context.Context, hole [2]poker.Card, board []poker.Card, opponents, samples int, rng *rand.Rand) (EquityResult, error) {
	workers := runtime.NumCPU()
	if workers > maxRolloutWorkers {
		workers = maxRolloutWorkers
	}
	if workers < 1 {
		workers = 1
	}
	if samples < workers {
		workers = samples
	}
	if workers == 0 {
		return EquityResult{}, nil
	}

	perWorker := samples / workers
	remainder := samples % workers

	type tally struct {
		win, tie, loss int64
	}
	results := make(chan tally, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		n := perWorker
		if w < remainder {
			n++
		}
		if n == 0 {
			continue
		}
		workerSeed := rng.Uint64()
		g.Go(func() error {
			workerRng := rand.New(rand.NewPCG(workerSeed, uint64(w)))
			t := tally{}
			for i := 0; i < n; i++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				outcome := rolloutOnce(hole, board, opponents, workerRng)
				switch {
				case outcome > 0:
					t.win++
				case outcome == 0:
					t.tie++
				default:
					t.loss++
				}
			}
			results <- t
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	var total tally
	for t := range results {
		total.win += t.win
		total.tie += t.tie
		total.loss += t.loss
	}
	if err := g.Wait(); err != nil {
		return EquityResult{}, err
	}

	n := float64(total.win + total.tie + total.loss)
	if n == 0 {
		return EquityResult{}, nil
	}
	return EquityResult{
		Win:  float64(total.win) / n,
		Tie:  float64(total.tie) / n,
		Loss: float64(total.loss) / n,
	}, nil
}

// rolloutOnce deals random opponent hands and a completed board from the
// remaining deck, and returns 1/0/-1 for win/tie/loss against the best
// opponent hand.
func rolloutOnce(hole [2]poker.Card, board []poker.Card, opponents int, rng *rand.Rand) int {
	remaining := remainingDeck(hole, board)
	rng.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })

	pos := 0
	fullBoard := append([]poker.Card{}, board...)
	for len(fullBoard) < 5 {
		fullBoard = append(fullBoard, remaining[pos])
		pos++
	}

	heroHand := poker.NewHand(hole[0], hole[1])
	for _, c := range fullBoard {
		heroHand.AddCard(c)
	}
	heroRank := poker.Evaluate7Cards(heroHand)

	best := heroRank
	tie := false
	for o := 0; o < opponents; o++ {
		oppHole := [2]poker.Card{remaining[pos], remaining[pos+1]}
		pos += 2
		oppHand := poker.NewHand(oppHole[0], oppHole[1])
		for _, c := range fullBoard {
			oppHand.AddCard(c)
		}
		oppRank := poker.Evaluate7Cards(oppHand)
		if oppRank > best {
			best = oppRank
			tie = false
		} else if oppRank == best {
			tie = true
		}
	}

	switch {
	case best > heroRank:
		return -1
	case tie:
		return 0
	default:
		return 1
	}
}

func remainingDeck(hole [2]poker.Card, board []poker.Card) []poker.Card {
	used := poker.NewHand(hole[0], hole[1])
	for _, c := range board {
		used.AddCard(c)
	}

	out := make([]poker.Card, 0, 52-used.CountCards())
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(0); rank < 13; rank++ {
			c := poker.NewCard(rank, suit)
			if !used.HasCard(c) {
				out = append(out, c)
			}
		}
	}
	return out
}
