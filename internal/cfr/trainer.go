package cfr

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkessler/nlhe-blueprint/internal/randutil"
)

// Stats captures instrumentation for one training batch, mirroring
// sdk/solver's TraversalStats.
type Stats struct {
	NodesVisited  int64
	TerminalNodes int64
	PrunedNodes   int64
	BatchTime     time.Duration
}

// Progress is emitted periodically during Run for CLI/TUI consumption.
type Progress struct {
	Iteration int64
	TableSize int
	Stats     Stats
}

// Clock is the narrow timekeeping capability Trainer needs for its
// wall-clock checkpoint trigger: just enough that both a real clock and
// github.com/coder/quartz's Mock (used in tests to fast-forward time
// without sleeping) satisfy it structurally.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Trainer runs external-sampling Linear MCCFR over any Game[S]: at each
// iteration, for every player in turn, it walks the tree once fully
// expanding that player's own decisions while sampling a single action at
// every opponent decision, accumulating regret-matched strategies into a
// shared RegretTable.
type Trainer[S any] struct {
	game    Game[S]
	cfg     Config
	regrets *RegretTable

	iteration          atomic.Int64
	rng                *rand.Rand
	statsMu            sync.Mutex
	stats              Stats
	checkpointPath     string
	checkpointInterval time.Duration
	clock              Clock
	lastCheckpoint     time.Time
}

// NewTrainer constructs a trainer for the given game and configuration.
func NewTrainer[S any](game Game[S], cfg Config) (*Trainer[S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Training.Seed
	if seed == 0 {
		seed = 1
	}
	var interval time.Duration
	if cfg.Training.CheckpointInterval != "" {
		interval, _ = time.ParseDuration(cfg.Training.CheckpointInterval) // already validated by cfg.Validate
	}
	clock := Clock(systemClock{})
	return &Trainer[S]{
		game:               game,
		cfg:                cfg,
		regrets:            NewRegretTable(),
		rng:                randutil.New(seed),
		checkpointPath:     cfg.Training.CheckpointPath,
		checkpointInterval: interval,
		clock:              clock,
		lastCheckpoint:     clock.Now(),
	}, nil
}

// SetClock overrides the trainer's time source, used by tests to exercise
// the wall-clock checkpoint trigger without real sleeps.
func (t *Trainer[S]) SetClock(c Clock) {
	t.clock = c
	t.lastCheckpoint = c.Now()
}

// RegretTable exposes the trainer's underlying table, primarily for tests
// and the evaluator.
func (t *Trainer[S]) RegretTable() *RegretTable { return t.regrets }

// Iteration returns the number of completed training iterations.
func (t *Trainer[S]) Iteration() int64 { return t.iteration.Load() }

// Config returns the configuration the trainer was constructed or restored
// with, primarily so callers can report a total-iterations target
// alongside the live Iteration() count.
func (t *Trainer[S]) Config() Config { return t.cfg }

// Run executes the configured number of iterations, calling progress
// periodically and writing checkpoints at the configured cadence.
func (t *Trainer[S]) Run(ctx context.Context, progress func(Progress)) error {
	workers := t.cfg.Training.ParallelWorkers
	if workers <= 0 {
		workers = 1
	}
	target := int64(t.cfg.Training.Iterations)
	progressEvery := int64(t.cfg.Training.ProgressEvery)
	checkpointEvery := int64(t.cfg.Training.CheckpointEvery)

	for t.iteration.Load() < target {
		start := time.Now()
		batch := int64(workers)
		if remaining := target - t.iteration.Load(); batch > remaining {
			batch = remaining
		}

		batchStats, err := t.runBatch(ctx, int(batch))
		if err != nil {
			return err
		}
		batchStats.BatchTime = time.Since(start)
		t.addStats(batchStats)

		iter := t.iteration.Add(batch)

		dueByIteration := t.checkpointPath != "" && checkpointEvery > 0 && iter%checkpointEvery < batch
		dueByClock := t.checkpointPath != "" && t.checkpointInterval > 0 && t.clock.Now().Sub(t.lastCheckpoint) >= t.checkpointInterval
		if dueByIteration || dueByClock {
			if err := t.SaveCheckpoint(t.checkpointPath); err != nil {
				return fmt.Errorf("cfr: checkpoint at iteration %d: %w", iter, err)
			}
			t.lastCheckpoint = t.clock.Now()
		}
		if progress != nil && progressEvery > 0 && iter%progressEvery < batch {
			progress(Progress{Iteration: iter, TableSize: t.regrets.Size(), Stats: t.Stats()})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	if progress != nil {
		progress(Progress{Iteration: t.iteration.Load(), TableSize: t.regrets.Size(), Stats: t.Stats()})
	}
	return nil
}

// runBatch runs n iterations concurrently (one worker per iteration, up to
// ParallelWorkers), following sdk/solver/trainer.go's per-iteration
// worker-pool shape but using errgroup instead of a raw WaitGroup+mutex for
// error propagation.
func (t *Trainer[S]) runBatch(ctx context.Context, n int) (Stats, error) {
	statsPerIter := make([]Stats, n)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < n; i++ {
		idx := i
		dealSeed := t.rng.Uint64()
		sampleSeed := t.rng.Uint64()
		iterNum := t.iteration.Load() + int64(idx) + 1
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			dealRNG := rand.New(rand.NewPCG(dealSeed, 0))
			sampleRNG := rand.New(rand.NewPCG(sampleSeed, 1))
			state := t.game.Deal(dealRNG)
			stats := &statsPerIter[idx]

			for player := 0; player < t.game.NumPlayers(); player++ {
				s := state
				if _, err := t.traverse(&s, player, sampleRNG, 1.0, 1.0, iterNum, stats); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	var total Stats
	for _, s := range statsPerIter {
		total.NodesVisited += s.NodesVisited
		total.TerminalNodes += s.TerminalNodes
		total.PrunedNodes += s.PrunedNodes
	}
	return total, nil
}

// traverse implements external-sampling Linear MCCFR: the target player's
// every legal action is explored (building a regret for each), while every
// other player's action is sampled once from their current strategy. Regret
// below PruneThreshold (once past PruneAfterIteration) is skipped entirely,
// following the spec's regret-based pruning.
func (t *Trainer[S]) traverse(s *S, target int, rng *rand.Rand, reachTarget, reachOthers float64, iter int64, stats *Stats) (float64, error) {
	stats.NodesVisited++

	if t.game.IsTerminal(s) {
		stats.TerminalNodes++
		if checker, ok := any(t.game).(InvariantChecker[S]); ok {
			if err := checker.CheckInvariants(s); err != nil {
				return 0, &FatalError{Iteration: iter, Err: err}
			}
		}
		return t.game.Utility(s, target), nil
	}

	player := t.game.CurrentPlayer(s)
	actions := t.game.LegalActions(s)
	if len(actions) == 0 {
		stats.TerminalNodes++
		return t.game.Utility(s, target), nil
	}

	key, err := t.game.InfoSetKey(s, player)
	if err != nil {
		return 0, err
	}
	entry := t.regrets.Get(key, t.game.NumActions())
	strategy := entry.Strategy(actions)

	opts := UpdateOptions{
		ClampNegativeRegrets: t.cfg.Training.ClampNegative,
		LinearWeighting:      t.cfg.Training.LinearWeighting,
		Iteration:            iter,
	}

	if player == target {
		util := make([]float64, len(actions))
		nodeUtil := 0.0
		pruning := t.cfg.Training.PruneThreshold < 0 && iter > t.cfg.Training.PruneAfterIter
		if pruneEvery := t.cfg.Training.PruneEvery; pruneEvery > 0 && iter%pruneEvery == 0 {
			pruning = false // periodic full re-exploration: let previously-pruned actions recover
		}
		regretSnap := entry.snapshotRegret()
		for i, a := range actions {
			if pruning && regretSnap[a] < t.cfg.Training.PruneThreshold && strategy[i] <= 0 {
				stats.PrunedNodes++
				util[i] = 0
				continue
			}
			undo := t.game.Apply(s, a)
			u, err := t.traverse(s, target, rng, reachTarget*strategy[i], reachOthers, iter, stats)
			t.game.Undo(s, undo)
			if err != nil {
				return 0, err
			}
			util[i] = u
			nodeUtil += strategy[i] * u
		}
		regrets := make([]float64, len(actions))
		for i := range actions {
			regrets[i] = (util[i] - nodeUtil) * reachOthers
		}
		entry.Update(actions, regrets, strategy, reachTarget, opts)
		return nodeUtil, nil
	}

	idx, prob := sampleIndex(strategy, rng)
	if prob <= 0 {
		prob = 1.0 / float64(len(actions))
	}
	undo := t.game.Apply(s, actions[idx])
	u, err := t.traverse(s, target, rng, reachTarget, reachOthers*prob, iter, stats)
	t.game.Undo(s, undo)
	return u, err
}

func sampleIndex(strategy []float64, rng *rand.Rand) (int, float64) {
	total := 0.0
	for _, v := range strategy {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		idx := rng.IntN(len(strategy))
		return idx, 1.0 / float64(len(strategy))
	}
	r := rng.Float64() * total
	acc := 0.0
	for i, v := range strategy {
		if v <= 0 {
			continue
		}
		acc += v
		if r <= acc {
			return i, v / total
		}
	}
	return len(strategy) - 1, strategy[len(strategy)-1] / total
}

func (t *Trainer[S]) addStats(s Stats) {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	t.stats.NodesVisited += s.NodesVisited
	t.stats.TerminalNodes += s.TerminalNodes
	t.stats.PrunedNodes += s.PrunedNodes
	t.stats.BatchTime = s.BatchTime
}

func (t *Trainer[S]) Stats() Stats {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	return t.stats
}

// AverageStrategies extracts the trained average strategy for every visited
// information set.
func (t *Trainer[S]) AverageStrategies() map[InfoSetKey][]float64 {
	entries := t.regrets.Entries()
	out := make(map[InfoSetKey][]float64, len(entries))
	for k, e := range entries {
		out[k] = e.AverageStrategy()
	}
	return out
}
