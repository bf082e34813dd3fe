// Command blueprint builds, trains, and evaluates the 3-player 20bb NLHE
// MCCFR blueprint strategy: it produces card-abstraction bucket tables,
// runs external-sampling Linear MCCFR training against them, and scores a
// finished blueprint via self-play, following the same kong/zerolog CLI
// shape as the teacher's cmd/solver.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mkessler/nlhe-blueprint/internal/abstraction"
	"github.com/mkessler/nlhe-blueprint/internal/cfr"
	"github.com/mkessler/nlhe-blueprint/internal/kuhn"
	"github.com/mkessler/nlhe-blueprint/internal/nlhe"
	"github.com/mkessler/nlhe-blueprint/internal/randutil"
)

var cli struct {
	Debug bool `help:"enable debug logging"`

	BuildBuckets BuildBucketsCmd `cmd:"" name:"build-buckets" help:"estimate equity and build a production bucket table for one street"`
	Train        TrainCmd        `cmd:"" help:"run MCCFR training and emit a blueprint"`
	Evaluate     EvaluateCmd     `cmd:"" help:"evaluate a blueprint via self-play"`
	KuhnCheck    KuhnCheckCmd    `cmd:"" name:"kuhn-check" help:"train on 3-player Kuhn poker and report exact exploitability"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("blueprint"),
		kong.Description("NLHE MCCFR blueprint solver tooling"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug)

	var err error
	switch ctx.Command() {
	case "build-buckets":
		err = cli.BuildBuckets.Run(context.Background())
	case "train":
		err = cli.Train.Run(context.Background())
	case "evaluate":
		err = cli.Evaluate.Run(context.Background())
	case "kuhn-check":
		err = cli.KuhnCheck.Run(context.Background())
	default:
		log.Fatal().Msgf("unknown command: %s", ctx.Command())
	}
	if err != nil {
		var fatal *cfr.FatalError
		if errors.As(err, &fatal) {
			log.Fatal().Err(err).Int64("iteration", fatal.Iteration).Msg("training aborted on invariant violation")
		}
		log.Fatal().Err(err).Msg("command failed")
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

type BuildBucketsCmd struct {
	Street         string `help:"street to build a table for (preflop|flop|turn|river)" required:""`
	Out            string `help:"path to write the production table" required:""`
	Opponents      int    `help:"number of opponents to simulate equity against" default:"2"`
	Deals          int    `help:"number of random (hole, board) situations to sample" default:"20000"`
	SamplesPerDeal int    `help:"Monte Carlo rollout samples per situation" default:"200"`
	Seed           int64  `help:"random seed" default:"1"`
}

func (cmd *BuildBucketsCmd) Run(ctx context.Context) error {
	street, err := parseStreet(cmd.Street)
	if err != nil {
		return err
	}
	rng := randutil.New(cmd.Seed)

	start := time.Now()
	var table *abstraction.ProductionTable
	if street == nlhe.Preflop {
		table, err = abstraction.BuildPreflopTable(ctx, cmd.Opponents, cmd.SamplesPerDeal, rng)
	} else {
		table, err = abstraction.BuildPostflopTable(ctx, street, cmd.Opponents, cmd.Deals, cmd.SamplesPerDeal, rng)
	}
	if err != nil {
		return fmt.Errorf("build table: %w", err)
	}
	if err := table.Save(cmd.Out); err != nil {
		return fmt.Errorf("save table: %w", err)
	}
	log.Info().Str("street", cmd.Street).Str("path", cmd.Out).Dur("duration", time.Since(start)).Msg("bucket table built")
	return nil
}

func parseStreet(s string) (nlhe.Street, error) {
	switch s {
	case "preflop":
		return nlhe.Preflop, nil
	case "flop":
		return nlhe.Flop, nil
	case "turn":
		return nlhe.Turn, nil
	case "river":
		return nlhe.River, nil
	default:
		return 0, fmt.Errorf("unknown street %q (want preflop|flop|turn|river)", s)
	}
}

type TrainCmd struct {
	Config          string `help:"path to an HCL training config; missing file falls back to defaults"`
	Out             string `help:"path to write the blueprint" required:""`
	Iterations      int    `help:"override the configured iteration count (0 keeps the config value)"`
	Seed            int64  `help:"override the configured random seed (0 keeps the config value)"`
	ParallelWorkers int    `help:"override the configured worker count (0 keeps the config value)"`
	ResumeFrom      string `help:"resume training from a checkpoint file"`
	BucketDir       string `help:"directory containing preflop.tbl/flop.tbl/turn.tbl/river.tbl production tables; missing tables fall back to the heuristic bucketer"`
	TUI             bool   `help:"show a live progress bar instead of log lines"`
	Watch           string `help:"address to serve a websocket progress feed on (e.g. :8080); empty disables it"`
}

func (cmd *TrainCmd) Run(ctx context.Context) error {
	var trainer *cfr.Trainer[nlhe.State]

	bucketer := loadBucketer(cmd.BucketDir)
	game := cfr.NewNLHEGame(nlhe.DefaultConfig(), bucketer)

	if cmd.ResumeFrom != "" {
		restored, err := cfr.LoadTrainerFromCheckpoint[nlhe.State](cmd.ResumeFrom, game)
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		trainer = restored
		log.Info().Str("checkpoint", cmd.ResumeFrom).Int64("iteration", trainer.Iteration()).Msg("resumed training run")
	} else {
		cfg, err := cfr.LoadConfig(cmd.Config)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cmd.Iterations > 0 {
			cfg.Training.Iterations = cmd.Iterations
		}
		if cmd.Seed != 0 {
			cfg.Training.Seed = cmd.Seed
		}
		if cmd.ParallelWorkers > 0 {
			cfg.Training.ParallelWorkers = cmd.ParallelWorkers
		}
		trainer, err = cfr.NewTrainer[nlhe.State](game, cfg)
		if err != nil {
			return fmt.Errorf("new trainer: %w", err)
		}
		log.Info().Int("iterations", cfg.Training.Iterations).Int("parallel", cfg.Training.ParallelWorkers).Msg("starting training run")
	}

	var hub *progressHub
	if cmd.Watch != "" {
		hub = newProgressHub()
		go hub.serve(cmd.Watch)
		log.Info().Str("addr", cmd.Watch).Msg("serving progress over websocket")
	}

	var program *progressProgram
	if cmd.TUI {
		program = startProgressProgram(int64(trainer.Config().Training.Iterations))
	}

	start := time.Now()
	progress := func(p cfr.Progress) {
		if hub != nil {
			hub.broadcast(p)
		}
		if program != nil {
			program.update(p)
			return
		}
		log.Info().
			Int64("iteration", p.Iteration).
			Int("infosets", p.TableSize).
			Int64("nodes", p.Stats.NodesVisited).
			Int64("terminals", p.Stats.TerminalNodes).
			Int64("pruned", p.Stats.PrunedNodes).
			Dur("batch_time", p.Stats.BatchTime).
			Msg("progress")
	}

	if err := trainer.Run(ctx, progress); err != nil {
		if program != nil {
			program.stop()
		}
		return err
	}
	if program != nil {
		program.stop()
	}

	bp := trainer.BuildBlueprint()
	duration := time.Since(start)
	log.Info().Dur("duration", duration).Int("infosets", len(bp.Strategies)).Int64("iterations", bp.Iterations).Msg("training completed")

	if err := bp.Save(cmd.Out); err != nil {
		return fmt.Errorf("save blueprint: %w", err)
	}
	log.Info().Str("path", cmd.Out).Msg("blueprint saved")
	return nil
}

func loadBucketer(dir string) abstraction.Bucketer {
	if dir == "" {
		return abstraction.NewFallbackBucketer()
	}
	router := abstraction.NewRouter()
	for _, pair := range []struct {
		street nlhe.Street
		file   string
	}{
		{nlhe.Preflop, "preflop.tbl"},
		{nlhe.Flop, "flop.tbl"},
		{nlhe.Turn, "turn.tbl"},
		{nlhe.River, "river.tbl"},
	} {
		path := dir + "/" + pair.file
		if _, err := os.Stat(path); err != nil {
			continue
		}
		table, err := abstraction.LoadProductionTable(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to load production table, falling back to heuristic for this street")
			continue
		}
		router.SetTable(pair.street, table)
	}
	return router
}

type EvaluateCmd struct {
	Blueprint string `help:"path to a saved blueprint" required:""`
	Player    int    `help:"seat to evaluate (0, 1, or 2)" default:"0"`
	Hands     int    `help:"number of self-play hands to simulate" default:"20000"`
	Seed      int64  `help:"random seed" default:"1"`
}

func (cmd *EvaluateCmd) Run(context.Context) error {
	if cmd.Hands <= 0 {
		return fmt.Errorf("hands must be positive (got %d)", cmd.Hands)
	}
	if cmd.Player < 0 || cmd.Player >= nlhe.NumPlayers {
		return fmt.Errorf("player must be in [0, %d)", nlhe.NumPlayers)
	}

	bp, err := cfr.LoadBlueprint(cmd.Blueprint)
	if err != nil {
		return fmt.Errorf("load blueprint: %w", err)
	}
	log.Info().
		Time("generated", bp.GeneratedAt).
		Int64("iterations", bp.Iterations).
		Int("infosets", len(bp.Strategies)).
		Msg("blueprint loaded")

	game := cfr.NewNLHEGame(nlhe.DefaultConfig(), abstraction.NewFallbackBucketer())
	rng := randutil.New(cmd.Seed)
	res := cfr.Evaluate[nlhe.State](game, bp, cmd.Player, cmd.Hands, rng)

	log.Info().
		Int("player", cmd.Player).
		Int("hands", res.Hands).
		Float64("mean_bb_per_hand", res.Mean).
		Float64("std_error", res.StdError).
		Msg("evaluation complete")
	return nil
}

type KuhnCheckCmd struct {
	Iterations int     `help:"MCCFR iterations to run" default:"20000"`
	Seed       int64   `help:"random seed" default:"1"`
	Threshold  float64 `help:"maximum acceptable exploitability (in chips)" default:"0.05"`
}

func (cmd *KuhnCheckCmd) Run(ctx context.Context) error {
	cfg := cfr.DefaultConfig()
	cfg.Training.Iterations = cmd.Iterations
	cfg.Training.Seed = cmd.Seed
	cfg.Training.ParallelWorkers = 4
	cfg.Training.CheckpointEvery = 0
	cfg.Training.CheckpointPath = ""
	cfg.Training.CheckpointInterval = ""
	cfg.Training.ProgressEvery = 0

	trainer, err := cfr.NewTrainer[kuhn.State](kuhn.NewGame(), cfg)
	if err != nil {
		return fmt.Errorf("new trainer: %w", err)
	}
	if err := trainer.Run(ctx, nil); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	bp := trainer.BuildBlueprint()
	exploit := kuhn.Exploitability(bp)
	log.Info().
		Int("iterations", cmd.Iterations).
		Float64("exploitability", exploit).
		Float64("threshold", cmd.Threshold).
		Msg("kuhn exploitability check")

	if exploit > cmd.Threshold {
		return fmt.Errorf("exploitability %.6f exceeds threshold %.6f after %d iterations", exploit, cmd.Threshold, cmd.Iterations)
	}
	return nil
}
