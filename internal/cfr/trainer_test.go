package cfr

import (
	"context"
	"math"
	"testing"

	"github.com/mkessler/nlhe-blueprint/internal/abstraction"
	"github.com/mkessler/nlhe-blueprint/internal/nlhe"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Training.Iterations = 40
	cfg.Training.ParallelWorkers = 2
	cfg.Training.CheckpointEvery = 0
	cfg.Training.CheckpointPath = ""
	cfg.Training.ProgressEvery = 0
	return cfg
}

func TestTrainerRunsAndProducesNormalizedStrategies(t *testing.T) {
	game := NewNLHEGame(nlhe.DefaultConfig(), abstraction.NewFallbackBucketer())
	trainer, err := NewTrainer[nlhe.State](game, smallConfig())
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}

	if err := trainer.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if trainer.Iteration() != int64(smallConfig().Training.Iterations) {
		t.Fatalf("expected %d iterations, got %d", smallConfig().Training.Iterations, trainer.Iteration())
	}
	if trainer.RegretTable().Size() == 0 {
		t.Fatalf("expected the regret table to have visited at least one information set")
	}

	for key, strat := range trainer.AverageStrategies() {
		total := 0.0
		for _, p := range strat {
			total += p
		}
		if math.Abs(total-1.0) > 1e-6 {
			t.Fatalf("average strategy for key %+v does not sum to 1: %v (sum %v)", key, strat, total)
		}
		for _, p := range strat {
			if p < 0 {
				t.Fatalf("average strategy for key %+v has a negative probability: %v", key, strat)
			}
		}
	}
}

func TestBlueprintSaveLoadRoundTrip(t *testing.T) {
	game := NewNLHEGame(nlhe.DefaultConfig(), abstraction.NewFallbackBucketer())
	trainer, err := NewTrainer[nlhe.State](game, smallConfig())
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	if err := trainer.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	bp := trainer.BuildBlueprint()
	path := t.TempDir() + "/blueprint.json"
	if err := bp.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadBlueprint(path)
	if err != nil {
		t.Fatalf("LoadBlueprint: %v", err)
	}
	if loaded.Iterations != bp.Iterations {
		t.Fatalf("iterations mismatch: got %d, want %d", loaded.Iterations, bp.Iterations)
	}
	if len(loaded.Strategies) != len(bp.Strategies) {
		t.Fatalf("strategy count mismatch: got %d, want %d", len(loaded.Strategies), len(bp.Strategies))
	}
	for key, strat := range bp.Strategies {
		got, ok := loaded.Strategy(key)
		if !ok {
			t.Fatalf("loaded blueprint missing key %+v", key)
		}
		if len(got) != len(strat) {
			t.Fatalf("strategy length mismatch for key %+v", key)
		}
	}
}

func TestPruningDoesNotPreventConvergenceStats(t *testing.T) {
	// An aggressive prune threshold/after-iteration gate combined with a
	// short PruneEvery cadence should still let training run to completion:
	// Run returns no error and reaches the configured iteration count.
	game := NewNLHEGame(nlhe.DefaultConfig(), abstraction.NewFallbackBucketer())
	cfg := smallConfig()
	cfg.Training.PruneThreshold = -1
	cfg.Training.PruneAfterIter = 1
	cfg.Training.PruneEvery = 5

	trainer, err := NewTrainer[nlhe.State](game, cfg)
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	if err := trainer.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if trainer.Iteration() != int64(cfg.Training.Iterations) {
		t.Fatalf("expected %d iterations, got %d", cfg.Training.Iterations, trainer.Iteration())
	}
}

func TestCheckpointSaveLoadRoundTrip(t *testing.T) {
	game := NewNLHEGame(nlhe.DefaultConfig(), abstraction.NewFallbackBucketer())
	trainer, err := NewTrainer[nlhe.State](game, smallConfig())
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	if err := trainer.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	path := t.TempDir() + "/checkpoint.json"
	if err := trainer.SaveCheckpoint(path); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	restored, err := LoadTrainerFromCheckpoint[nlhe.State](path, game)
	if err != nil {
		t.Fatalf("LoadTrainerFromCheckpoint: %v", err)
	}
	if restored.Iteration() != trainer.Iteration() {
		t.Fatalf("iteration mismatch after restore: got %d, want %d", restored.Iteration(), trainer.Iteration())
	}
	if restored.RegretTable().Size() != trainer.RegretTable().Size() {
		t.Fatalf("regret table size mismatch after restore: got %d, want %d",
			restored.RegretTable().Size(), trainer.RegretTable().Size())
	}
}
