package cfr

import "sync"

// RegretEntry accumulates regrets and strategy sums for one information
// set, indexed by fixed action id (0..NumActions), not by position in
// whatever subset of actions happened to be legal at a particular visit:
// spec's blueprint format fixes every strategy vector at the game's action
// alphabet size with illegal-action slots carrying 0, so a slot's meaning
// must not depend on which actions were legal when it was written.
type RegretEntry struct {
	mu          sync.Mutex
	RegretSum   []float64
	StrategySum []float64
	Normalizer  float64
}

// UpdateOptions configures how a single traversal's observed regret and
// strategy are folded into the running sums.
type UpdateOptions struct {
	ClampNegativeRegrets bool
	LinearWeighting      bool
	Iteration            int64
}

func (e *RegretEntry) ensureSize(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.RegretSum) >= n {
		return
	}
	missing := n - len(e.RegretSum)
	e.RegretSum = append(e.RegretSum, make([]float64, missing)...)
	e.StrategySum = append(e.StrategySum, make([]float64, missing)...)
}

// Strategy returns the current regret-matching distribution restricted to
// legalIDs: regrets at those action ids clamped to non-negative and
// normalized to sum to 1 (uniform over legalIDs if none has positive
// regret yet), as a slice positionally parallel to legalIDs.
func (e *RegretEntry) Strategy(legalIDs []int) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	strat := make([]float64, len(legalIDs))
	total := 0.0
	for i, id := range legalIDs {
		if r := e.RegretSum[id]; r > 0 {
			strat[i] = r
			total += r
		}
	}
	if total <= 0 {
		v := 1.0 / float64(len(strat))
		for i := range strat {
			strat[i] = v
		}
		return strat
	}
	for i := range strat {
		strat[i] /= total
	}
	return strat
}

// Update folds one traversal's instantaneous regret and strategy (both
// positionally parallel to legalIDs) into the running sums at their action
// ids. With LinearWeighting set (Linear CFR), later iterations contribute
// proportionally more to both sums, which converges faster than plain
// averaging.
func (e *RegretEntry) Update(legalIDs []int, regret, strategy []float64, reachWeight float64, opts UpdateOptions) {
	e.mu.Lock()
	defer e.mu.Unlock()
	iterWeight := 1.0
	if opts.LinearWeighting {
		iter := opts.Iteration
		if iter <= 0 {
			iter = 1
		}
		iterWeight = float64(iter)
	}
	weight := reachWeight * iterWeight
	for i, id := range legalIDs {
		if opts.ClampNegativeRegrets {
			e.RegretSum[id] += regret[i] * iterWeight
			if e.RegretSum[id] < 0 {
				e.RegretSum[id] = 0
			}
		} else {
			e.RegretSum[id] += regret[i] * iterWeight
		}
		e.StrategySum[id] += weight * strategy[i]
	}
	e.Normalizer += weight
}

// AverageStrategy returns the normalized average strategy accumulated over
// all iterations, one probability per fixed action id — this, not the
// instantaneous regret-matching strategy, is what a trained blueprint
// exposes for play. Ids that never received strategy mass are 0; an entry
// with no recorded mass at all (Normalizer <= 0) returns a uniform vector
// over every id, including ids never legal at this information set.
func (e *RegretEntry) AverageStrategy() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	strat := make([]float64, len(e.StrategySum))
	if e.Normalizer <= 0 {
		v := 1.0 / float64(len(strat))
		for i := range strat {
			strat[i] = v
		}
		return strat
	}
	for i := range strat {
		strat[i] = e.StrategySum[i] / e.Normalizer
	}
	return strat
}

// snapshotRegret returns a copy of the current regret sums indexed by
// action id, used by the trainer to decide whether a low-regret action is
// eligible for pruning without holding the entry's lock across a recursive
// traversal call.
func (e *RegretEntry) snapshotRegret() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]float64(nil), e.RegretSum...)
}

func (e *RegretEntry) snapshot() regretSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return regretSnapshot{
		RegretSum:   append([]float64(nil), e.RegretSum...),
		StrategySum: append([]float64(nil), e.StrategySum...),
		Normalizer:  e.Normalizer,
	}
}

func entryFromSnapshot(s regretSnapshot) *RegretEntry {
	return &RegretEntry{
		RegretSum:   append([]float64(nil), s.RegretSum...),
		StrategySum: append([]float64(nil), s.StrategySum...),
		Normalizer:  s.Normalizer,
	}
}

// regretTableShardCount shards the table across many locks so concurrent
// traversal workers rarely contend on the same shard, following
// sdk/solver/regret.go's sharded-map design.
const regretTableShardCount = 64

type regretShard struct {
	mu      sync.RWMutex
	entries map[InfoSetKey]*RegretEntry
}

// RegretTable is a concurrency-safe map from InfoSetKey to RegretEntry,
// sharded by a hash of the key so lookups don't serialize through one lock.
type RegretTable struct {
	shards [regretTableShardCount]regretShard
}

func NewRegretTable() *RegretTable {
	t := &RegretTable{}
	for i := range t.shards {
		t.shards[i].entries = make(map[InfoSetKey]*RegretEntry)
	}
	return t
}

// Get returns the entry for key, creating it (sized to the game's fixed
// NumActions) if absent. numActions is the same constant on every call for
// a given game; ensureSize only ever grows an entry restored from an older
// checkpoint up to the live game's current action count.
func (t *RegretTable) Get(key InfoSetKey, numActions int) *RegretEntry {
	shard := t.shardFor(key)

	shard.mu.RLock()
	entry, ok := shard.entries[key]
	shard.mu.RUnlock()
	if ok {
		entry.ensureSize(numActions)
		return entry
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()
	if entry, ok = shard.entries[key]; ok {
		entry.ensureSize(numActions)
		return entry
	}
	entry = &RegretEntry{}
	entry.ensureSize(numActions)
	shard.entries[key] = entry
	return entry
}

// Size returns the total number of information sets tracked.
func (t *RegretTable) Size() int {
	total := 0
	for i := range t.shards {
		t.shards[i].mu.RLock()
		total += len(t.shards[i].entries)
		t.shards[i].mu.RUnlock()
	}
	return total
}

// Entries returns a snapshot of every key/entry pair, used for
// serialization (Save/checkpointing) and for extracting the final average
// strategy.
func (t *RegretTable) Entries() map[InfoSetKey]*RegretEntry {
	out := make(map[InfoSetKey]*RegretEntry)
	for i := range t.shards {
		t.shards[i].mu.RLock()
		for k, v := range t.shards[i].entries {
			out[k] = v
		}
		t.shards[i].mu.RUnlock()
	}
	return out
}

func (t *RegretTable) shardFor(key InfoSetKey) *regretShard {
	h := fnv1a(key)
	return &t.shards[h%regretTableShardCount]
}

// fnv1a hashes an InfoSetKey's fixed-size fields without allocating an
// intermediate string, unlike the teacher's hashKey(key.String()).
func fnv1a(key InfoSetKey) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	hash := uint32(offset32)
	mix := func(b byte) {
		hash ^= uint32(b)
		hash *= prime32
	}
	mix(key.Street)
	mix(key.Player)
	mix(key.Bucket)
	for _, b := range key.History {
		mix(b)
	}
	return hash
}
