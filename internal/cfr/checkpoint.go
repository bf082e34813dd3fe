package cfr

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/mkessler/nlhe-blueprint/internal/fileutil"
)

const checkpointFileVersion = 1

type regretSnapshot struct {
	RegretSum   []float64 `json:"regret_sum"`
	StrategySum []float64 `json:"strategy_sum"`
	Normalizer  float64   `json:"normalizer"`
}

type regretRecord struct {
	Key      InfoSetKey     `json:"key"`
	Snapshot regretSnapshot `json:"snapshot"`
}

type checkpointFile struct {
	Version   int            `json:"version"`
	Iteration int64          `json:"iteration"`
	Config    Config         `json:"config"`
	Regrets   []regretRecord `json:"regrets"`
}

// EnableCheckpoints sets (or changes) the path future Run calls write
// periodic checkpoints to.
func (t *Trainer[S]) EnableCheckpoints(path string) {
	t.checkpointPath = path
}

// SaveCheckpoint writes the trainer's full state — iteration count, config,
// and every regret-table entry — to path atomically.
func (t *Trainer[S]) SaveCheckpoint(path string) error {
	entries := t.regrets.Entries()
	file := checkpointFile{
		Version:   checkpointFileVersion,
		Iteration: t.Iteration(),
		Config:    t.cfg,
		Regrets:   make([]regretRecord, 0, len(entries)),
	}
	for k, e := range entries {
		file.Regrets = append(file.Regrets, regretRecord{Key: k, Snapshot: e.snapshot()})
	}

	data, err := json.Marshal(file)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// LoadTrainerFromCheckpoint restores a trainer previously saved with
// SaveCheckpoint. Unlike the teacher's restoreRegretTable
// (sdk/solver/checkpoint.go), which references a flat table.mu/table.entries
// pair that does not exist on the real sharded RegretTable type, this
// writes each restored entry into the shard chosen by the same shardFor
// hash that Get uses, under that shard's lock, so restoration follows the
// live table's sharding and locking scheme.
func LoadTrainerFromCheckpoint[S any](path string, game Game[S]) (*Trainer[S], error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var file checkpointFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if file.Version != checkpointFileVersion {
		return nil, errors.New("cfr: unsupported checkpoint version")
	}

	trainer, err := NewTrainer(game, file.Config)
	if err != nil {
		return nil, err
	}
	trainer.iteration.Store(file.Iteration)

	table := NewRegretTable()
	for _, rec := range file.Regrets {
		shard := table.shardFor(rec.Key)
		shard.mu.Lock()
		shard.entries[rec.Key] = entryFromSnapshot(rec.Snapshot)
		shard.mu.Unlock()
	}
	trainer.regrets = table

	return trainer, nil
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
