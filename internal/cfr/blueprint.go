package cfr

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/mkessler/nlhe-blueprint/internal/fileutil"
)

const blueprintFileVersion = 1

// Blueprint is the final artifact a training run produces: the averaged
// strategy for every information set visited, ready for a runtime agent to
// sample from without rerunning CFR. Grounded on sdk/solver/blueprint.go's
// shape, keyed by the new struct InfoSetKey instead of a formatted string.
type Blueprint struct {
	Version     int                     `json:"version"`
	GeneratedAt time.Time               `json:"generated_at"`
	Iterations  int64                   `json:"iterations"`
	Config      Config                  `json:"config"`
	Strategies  map[InfoSetKey][]float64 `json:"-"`
}

// blueprintFile is the on-disk encoding of Blueprint: InfoSetKey isn't a
// valid JSON object key type (it has array fields), so strategies are
// serialized as a flat list of (key, strategy) pairs instead of a map.
type blueprintFile struct {
	Version     int               `json:"version"`
	GeneratedAt time.Time         `json:"generated_at"`
	Iterations  int64             `json:"iterations"`
	Config      Config            `json:"config"`
	Strategies  []strategyRecord  `json:"strategies"`
}

type strategyRecord struct {
	Key      InfoSetKey `json:"key"`
	Strategy []float64  `json:"strategy"`
}

// Blueprint builds the final artifact from the trainer's current regret
// table.
func (t *Trainer[S]) BuildBlueprint() *Blueprint {
	return &Blueprint{
		Version:     blueprintFileVersion,
		GeneratedAt: time.Now().UTC(),
		Iterations:  t.Iteration(),
		Config:      t.cfg,
		Strategies:  t.AverageStrategies(),
	}
}

// Save writes the blueprint to disk via an atomic rename, so a crash or a
// concurrent reader never observes a partially-written file.
func (b *Blueprint) Save(path string) error {
	if b == nil {
		return errors.New("cfr: nil blueprint")
	}
	file := blueprintFile{
		Version:     b.Version,
		GeneratedAt: b.GeneratedAt,
		Iterations:  b.Iterations,
		Config:      b.Config,
		Strategies:  make([]strategyRecord, 0, len(b.Strategies)),
	}
	for k, v := range b.Strategies {
		file.Strategies = append(file.Strategies, strategyRecord{Key: k, Strategy: v})
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// LoadBlueprint reads a blueprint previously written by Save.
func LoadBlueprint(path string) (*Blueprint, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var file blueprintFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if file.Version != blueprintFileVersion {
		return nil, errors.New("cfr: unsupported blueprint version")
	}
	bp := &Blueprint{
		Version:     file.Version,
		GeneratedAt: file.GeneratedAt,
		Iterations:  file.Iterations,
		Config:      file.Config,
		Strategies:  make(map[InfoSetKey][]float64, len(file.Strategies)),
	}
	for _, rec := range file.Strategies {
		bp.Strategies[rec.Key] = rec.Strategy
	}
	return bp, nil
}

// Strategy returns the stored average strategy for an information set, if
// present.
func (b *Blueprint) Strategy(key InfoSetKey) ([]float64, bool) {
	if b == nil {
		return nil, false
	}
	s, ok := b.Strategies[key]
	return s, ok
}
