package cfr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFallsBackToDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.hcl"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigParsesPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.hcl")
	body := `
training {
  iterations = 500
  checkpoint_interval = "30s"
}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 500, cfg.Training.Iterations)
	require.Equal(t, "30s", cfg.Training.CheckpointInterval)
	require.Equal(t, 1, cfg.Training.ParallelWorkers, "missing parallel_workers should fall back to 1")
	require.Equal(t, DefaultConfig().Training.PruneEvery, cfg.Training.PruneEvery, "missing prune_every should fall back to the default")
	require.Equal(t, DefaultConfig().Abstraction, cfg.Abstraction, "omitted block should inherit defaults")
}

func TestValidateRejectsNegativePruneEvery(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Training.PruneEvery = -1
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsMalformedCheckpointInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Training.CheckpointInterval = "not-a-duration"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroIterations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Training.Iterations = 0
	require.Error(t, cfg.Validate())
}
