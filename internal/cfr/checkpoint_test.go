package cfr

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"

	"github.com/mkessler/nlhe-blueprint/internal/abstraction"
	"github.com/mkessler/nlhe-blueprint/internal/nlhe"
)

// TestCheckpointIntervalTriggersOnWallClock exercises the wall-clock
// checkpoint trigger in isolation from CheckpointEvery, fast-forwarding a
// quartz.Mock instead of sleeping real time, the same pattern the teacher's
// internal/testing package uses for its own timeout-driven behavior.
func TestCheckpointIntervalTriggersOnWallClock(t *testing.T) {
	game := NewNLHEGame(nlhe.DefaultConfig(), abstraction.NewFallbackBucketer())
	cfg := smallConfig()
	cfg.Training.CheckpointEvery = 0 // isolate the clock-driven path
	cfg.Training.CheckpointPath = t.TempDir() + "/checkpoint.json"
	cfg.Training.CheckpointInterval = "1m"
	cfg.Training.ParallelWorkers = 1
	cfg.Training.Iterations = 4

	trainer, err := NewTrainer[nlhe.State](game, cfg)
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}

	mockClock := quartz.NewMock(t)
	trainer.SetClock(mockClock)
	mockClock.Advance(90 * time.Second).MustWait(context.Background())

	if err := trainer.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := LoadTrainerFromCheckpoint[nlhe.State](cfg.Training.CheckpointPath, game); err != nil {
		t.Fatalf("expected a checkpoint to have been written by the wall-clock trigger: %v", err)
	}
}

func TestCheckpointIntervalDoesNotFireEarly(t *testing.T) {
	game := NewNLHEGame(nlhe.DefaultConfig(), abstraction.NewFallbackBucketer())
	cfg := smallConfig()
	cfg.Training.CheckpointEvery = 0
	cfg.Training.CheckpointPath = t.TempDir() + "/checkpoint.json"
	cfg.Training.CheckpointInterval = "1h"
	cfg.Training.ParallelWorkers = 1
	cfg.Training.Iterations = 4

	trainer, err := NewTrainer[nlhe.State](game, cfg)
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}

	mockClock := quartz.NewMock(t)
	trainer.SetClock(mockClock)

	if err := trainer.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := LoadTrainerFromCheckpoint[nlhe.State](cfg.Training.CheckpointPath, game); err == nil {
		t.Fatal("expected no checkpoint file to exist before the interval elapses")
	}
}
