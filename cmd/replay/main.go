// Package main replays archived genomes: it rebuilds the controller network
// and re-runs rollouts so a champion's behavior can be inspected after
// training.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/pthm-cable/forage/archive"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/fitness"
	"github.com/pthm-cable/forage/maze"
	"github.com/pthm-cable/forage/neural"
	"github.com/pthm-cable/forage/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	archivePath := flag.String("archive", "archive.json", "Archive JSON to replay from")
	index := flag.Int("index", 0, "Archive entry to replay (0 = best)")
	robust := flag.Bool("robust", false, "Replay from the robustness-tested list")
	runs := flag.Int("runs", 5, "Number of rollouts")
	randomize := flag.Bool("randomize", false, "Replay on randomized layouts instead of the training maze")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	arcCfg := cfg.Archive
	arcCfg.Path = *archivePath
	arc, err := archive.Load(arcCfg)
	if err != nil {
		slog.Error("failed to load archive", "error", err)
		os.Exit(1)
	}

	entries := arc.Best()
	listName := "best"
	if *robust {
		entries = arc.Robust()
		listName = "robust"
	}
	if *index < 0 || *index >= len(entries) {
		slog.Error("archive entry out of range", "list", listName, "index", *index, "entries", len(entries))
		os.Exit(1)
	}
	entry := entries[*index]
	if entry.Genome == nil {
		slog.Error("archive entry has no genome", "list", listName, "index", *index)
		os.Exit(1)
	}

	ctrl, err := neural.NewController(entry.Genome, cfg.Simulation.SettleCycles)
	if err != nil {
		slog.Error("failed to rebuild network", "genome", entry.GenomeID, "error", err)
		os.Exit(1)
	}

	eval := fitness.NewEvaluator(cfg.Fitness, cfg.Curriculum, nil)
	runner := sim.NewRunner(cfg.Simulation, cfg.Agent, eval, logger)

	fmt.Printf("replaying %s[%d]: genome %d, archived fitness %.2f (gen %d, food %d+%d)\n",
		listName, *index, entry.GenomeID, entry.Fitness, entry.Generation, entry.Small, entry.Big)
	fmt.Printf("network: %d nodes, %d links\n", ctrl.NodeCount(), ctrl.LinkCount())

	ctx := fitness.Context{Generation: entry.Generation}
	totalFitness, totalFood, succeeded := 0.0, 0, 0

	for run := 0; run < *runs; run++ {
		world := buildWorld(cfg, *randomize, rng)
		if err := ctrl.Reset(); err != nil {
			slog.Error("failed to reset network", "error", err)
			os.Exit(1)
		}

		res := runner.Rollout(ctrl, world, ctx)
		if res.Err != nil {
			slog.Error("rollout failed", "run", run, "error", res.Err)
			continue
		}

		totalFitness += res.Fitness
		totalFood += res.Small + res.Big
		succeeded++
		fmt.Printf("run %d: fitness %.2f, food %d+%d, steps %d, collisions %d, unique %d, alive %v\n",
			run, res.Fitness, res.Small, res.Big, res.Steps, res.Collisions, res.Unique, res.Alive)
	}

	if succeeded == 0 {
		slog.Error("no rollout succeeded", "runs", *runs)
		os.Exit(1)
	}
	fmt.Printf("mean fitness %.2f, mean food %.2f over %d/%d runs\n",
		totalFitness/float64(succeeded), float64(totalFood)/float64(succeeded), succeeded, *runs)
}

func buildWorld(cfg *config.Config, randomize bool, rng *rand.Rand) *maze.Maze {
	var layout []string
	opts := maze.Options{
		SmallFood: cfg.Maze.NumSmallFood,
		BigFood:   cfg.Maze.NumBigFood,
		Rand:      rng,
	}
	if randomize {
		layout = maze.RandomLayout(15, 15, 0.15, rng)
		opts.Spread = true
	} else {
		layout = maze.DefaultLayout()
		opts.MinDistance = cfg.Maze.MinFoodDistance
		opts.RelaxedDistance = cfg.Maze.RelaxedDistance
	}

	world, err := maze.New(layout, opts)
	if err != nil {
		slog.Error("failed to build maze", "error", err)
		os.Exit(1)
	}
	return world
}
