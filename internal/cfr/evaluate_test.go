package cfr

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/mkessler/nlhe-blueprint/internal/kuhn"
)

func TestEvaluateWithNilBlueprintUsesUniformStrategy(t *testing.T) {
	game := kuhn.NewGame()
	rng := rand.New(rand.NewPCG(1, 2))

	res := Evaluate[kuhn.State](game, nil, 0, 500, rng)
	if res.Hands != 500 {
		t.Fatalf("expected 500 hands recorded, got %d", res.Hands)
	}
	if res.StdError < 0 {
		t.Fatalf("standard error must be non-negative, got %v", res.StdError)
	}
}

func TestEvaluateWithTrainedBlueprintRecordsAllHands(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Training.Iterations = 4000
	cfg.Training.ParallelWorkers = 4
	cfg.Training.CheckpointEvery = 0
	cfg.Training.CheckpointPath = ""
	cfg.Training.ProgressEvery = 0

	game := kuhn.NewGame()
	trainer, err := NewTrainer[kuhn.State](game, cfg)
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	if err := trainer.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	bp := trainer.BuildBlueprint()

	rng := rand.New(rand.NewPCG(3, 4))
	res := Evaluate[kuhn.State](game, bp, 0, 2000, rng)
	if res.Hands != 2000 {
		t.Fatalf("expected 2000 hands recorded, got %d", res.Hands)
	}
}

func TestBlockSizeForApproximatesSquareRoot(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 100: 10, 10000: 100}
	for n, want := range cases {
		if got := blockSizeFor(n); got != want {
			t.Fatalf("blockSizeFor(%d) = %d, want %d", n, got, want)
		}
	}
}
