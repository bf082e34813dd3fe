package cfr

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config aggregates the hyperparameters controlling one MCCFR training run:
// blind/stack structure (delegated to nlhe.Config), iteration count, sampling
// and weighting strategy, and checkpoint cadence.
type Config struct {
	Training    TrainingSettings    `hcl:"training,block"`
	Abstraction AbstractionSettings `hcl:"abstraction,block"`
}

// fileConfig mirrors Config but with optional (pointer) blocks, since an
// HCL file is allowed to omit either block entirely and inherit defaults —
// gohcl only treats struct-typed blocks as optional when the field is a
// pointer.
type fileConfig struct {
	Training    *TrainingSettings    `hcl:"training,block"`
	Abstraction *AbstractionSettings `hcl:"abstraction,block"`
}

// TrainingSettings mirrors sdk/solver's TrainingConfig fields relevant to a
// fixed 3-player 20bb blueprint run.
type TrainingSettings struct {
	Iterations      int     `hcl:"iterations"`
	Seed            int64   `hcl:"seed,optional"`
	ParallelWorkers int     `hcl:"parallel_workers,optional"`
	CheckpointEvery int     `hcl:"checkpoint_every,optional"`
	CheckpointPath  string  `hcl:"checkpoint_path,optional"`
	ProgressEvery   int     `hcl:"progress_every,optional"`
	LinearWeighting bool    `hcl:"linear_weighting,optional"`
	ClampNegative   bool    `hcl:"clamp_negative_regrets,optional"`
	PruneThreshold  float64 `hcl:"prune_threshold,optional"`
	PruneAfterIter  int64   `hcl:"prune_after_iteration,optional"`

	// PruneEvery bounds how long an action can stay pruned: on any
	// iteration where iter % PruneEvery == 0, pruning is skipped entirely
	// and every action is fully re-explored, so a branch that looked bad
	// early and got pruned is periodically given a chance to recover.
	PruneEvery int64 `hcl:"prune_every,optional"`

	// CheckpointInterval is a second, wall-clock-driven checkpoint trigger
	// alongside CheckpointEvery's iteration-count one: a run with unevenly
	// timed batches (e.g. a postflop-heavy deal distribution) can go a long
	// time between iteration checkpoints, so this bounds the worst case.
	// Parsed with time.ParseDuration; empty disables it. HCL has no native
	// duration type, hence the string field.
	CheckpointInterval string `hcl:"checkpoint_interval,optional"`
}

// AbstractionSettings controls the bucket table the trainer indexes by.
type AbstractionSettings struct {
	PreflopBuckets     int    `hcl:"preflop_buckets,optional"`
	PostflopBuckets    int    `hcl:"postflop_buckets,optional"`
	ProductionTableDir string `hcl:"production_table_dir,optional"`
}

// DefaultConfig returns the parameters used when no HCL file is supplied:
// a conservative smoke-test-sized run with Linear CFR weighting and
// negative-regret clamping (CFR+ style) enabled, matching the spec's
// default MCCFR variant.
func DefaultConfig() Config {
	return Config{
		Training: TrainingSettings{
			Iterations:         10000,
			Seed:               1,
			ParallelWorkers:    1,
			CheckpointEvery:    1000,
			CheckpointPath:     "checkpoint.json",
			CheckpointInterval: "5m",
			ProgressEvery:      100,
			LinearWeighting:    true,
			ClampNegative:      true,
			PruneThreshold:     -300000,
			PruneAfterIter:     1000,
			PruneEvery:         100,
		},
		Abstraction: AbstractionSettings{
			PreflopBuckets:  15,
			PostflopBuckets: 50,
		},
	}
}

// Validate checks that the configuration is safe to start training with.
func (c Config) Validate() error {
	if c.Training.Iterations <= 0 {
		return errors.New("cfr: iterations must be > 0")
	}
	if c.Training.ParallelWorkers < 0 {
		return errors.New("cfr: parallel_workers cannot be negative")
	}
	if c.Training.CheckpointEvery < 0 {
		return errors.New("cfr: checkpoint_every cannot be negative")
	}
	if c.Training.PruneEvery < 0 {
		return errors.New("cfr: prune_every cannot be negative")
	}
	if c.Abstraction.PreflopBuckets <= 0 || c.Abstraction.PostflopBuckets <= 0 {
		return errors.New("cfr: bucket counts must be > 0")
	}
	if c.Training.CheckpointInterval != "" {
		if _, err := time.ParseDuration(c.Training.CheckpointInterval); err != nil {
			return fmt.Errorf("cfr: checkpoint_interval: %w", err)
		}
	}
	return nil
}

// LoadConfig loads training configuration from an HCL file, falling back to
// DefaultConfig when the file does not exist, following
// internal/server/config.go's load-or-default pattern.
func LoadConfig(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("cfr: parsing config: %s", diags.Error())
	}

	var parsed fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return Config{}, fmt.Errorf("cfr: decoding config: %s", diags.Error())
	}

	cfg := DefaultConfig()
	if parsed.Training != nil {
		cfg.Training = *parsed.Training
	}
	if parsed.Abstraction != nil {
		cfg.Abstraction = *parsed.Abstraction
	}

	if cfg.Training.ParallelWorkers == 0 {
		cfg.Training.ParallelWorkers = 1
	}
	if cfg.Training.PruneEvery == 0 {
		cfg.Training.PruneEvery = DefaultConfig().Training.PruneEvery
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
