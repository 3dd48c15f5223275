// Package main trains foraging agents with NEAT: repeated generations of
// maze rollouts, fitness scoring under a curriculum, stagnation-adjusted
// mutation and archival of the best genomes.
package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/forage/archive"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/evolve"
	"github.com/pthm-cable/forage/fitness"
	"github.com/pthm-cable/forage/maze"
	"github.com/pthm-cable/forage/neural"
	"github.com/pthm-cable/forage/sim"
	"github.com/pthm-cable/forage/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	generations := flag.Int("generations", 300, "Number of generations to train")
	population := flag.Int("population", 0, "Population size (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config snapshot and archive")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	resume := flag.String("resume", "", "Archive JSON to seed the initial population from")
	saveEvery := flag.Int("save-every", 10, "Persist the archive every N generations")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *population > 0 {
		cfg.Population.Size = *population
	}
	if *saveEvery < 1 {
		*saveEvery = 1
	}

	// Set up slog (text to stderr; stdout stays clean for piping CSV paths)
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	world, err := maze.New(maze.DefaultLayout(), maze.Options{
		SmallFood:       cfg.Maze.NumSmallFood,
		BigFood:         cfg.Maze.NumBigFood,
		MinDistance:     cfg.Maze.MinFoodDistance,
		RelaxedDistance: cfg.Maze.RelaxedDistance,
		Rand:            rng,
		Cache:           maze.NewDistanceCache(cfg.Maze.DistanceCacheSize),
	})
	if err != nil {
		slog.Error("failed to build maze", "error", err)
		os.Exit(1)
	}

	eval := fitness.NewEvaluator(cfg.Fitness, cfg.Curriculum, nil)
	runner := sim.NewRunner(cfg.Simulation, cfg.Agent, eval, logger)

	arcCfg := cfg.Archive
	arcCfg.Path = om.ArchivePath(arcCfg.Path)
	arc := archive.New(arcCfg)
	rescorer := archive.NewRescorer(runner, cfg.Maze, arcCfg, world.Rows(), world.Cols(), rng)

	pop := evolve.NewPopulation(cfg.Population, rng)
	if *resume != "" {
		if err := seedFromArchive(pop, *resume, arcCfg); err != nil {
			slog.Error("failed to resume from archive", "path", *resume, "error", err)
			os.Exit(1)
		}
		slog.Info("resumed population from archive", "path", *resume)
	}

	monitor := evolve.NewStagnationMonitor(cfg.Stagnation)
	injector := evolve.NewDiversityInjector(cfg.Diversity,
		func(id int) *genetics.Genome {
			return neural.NewGenome(id, cfg.Population.ConnectionProb, rng)
		},
		pop.IDGen().NextID,
	)

	opts := neural.DefaultNEATOptions()
	injector.Respeciate = func(cs []*evolve.Candidate) {
		slog.Info("respeciated after injection", "species", len(evolve.Speciate(cs, opts)))
	}

	slog.Info("starting training",
		"generations", *generations,
		"population", cfg.Population.Size,
		"seed", rngSeed,
		"maze", world.Rows()*world.Cols(),
		"food", len(world.Food))

	var prevStats *fitness.PopulationStats
	globalBest := 0.0
	start := time.Now()

	for gen := 0; gen < *generations; gen++ {
		genStart := time.Now()
		ctx := fitness.Context{Generation: gen, Stats: prevStats}
		results := runner.EvaluateGeneration(pop.Candidates(), world, ctx)

		stats := telemetry.Summarize(gen, results)
		directive := monitor.Observe(gen, stats.BestFitness)
		monitor.Apply(directive, opts)

		if stats.BestFitness > globalBest {
			globalBest = stats.BestFitness
		}
		ectx := evolve.EvaluationContext{
			Generation: gen,
			GlobalBest: globalBest,
			History:    monitor.History(),
			Stagnation: directive,
		}

		stats.SpeciesCount = len(evolve.Speciate(pop.Candidates(), opts))
		stats.StagnationTier = directive.Tier.String()
		stats.StagnationCounter = directive.Counter
		stats.AddLinkProb = opts.MutateAddLinkProb
		stats.AddNodeProb = opts.MutateAddNodeProb
		stats.WeightMutPower = opts.WeightMutPower
		stats.ElapsedSec = time.Since(genStart).Seconds()

		if err := om.WriteGeneration(stats); err != nil {
			slog.Error("failed to write generation stats", "error", err)
		}
		bd := telemetry.BreakdownElite(gen, results, cfg.Telemetry.EliteFraction, cfg.Telemetry.DominanceThreshold)
		if err := om.WriteComponents(bd); err != nil {
			slog.Error("failed to write component breakdown", "error", err)
		}

		slog.Info("generation", "stats", stats)
		if bd.Dominant != "" {
			slog.Warn("fitness dominated by one component",
				"gen", gen, "component", bd.Dominant, "share", bd.DominantShare)
		}
		if directive.Stagnant {
			slog.Info("stagnation response",
				"gen", gen, "tier", directive.Tier.String(),
				"counter", directive.Counter, "inject", directive.InjectDiversity)
		}

		archiveChampion(arc, rescorer, pop, results, ectx, cfg.Simulation.SettleCycles)

		if directive.InjectDiversity {
			if err := pop.Replace(injector.Inject(pop.Candidates())); err != nil {
				slog.Error("diversity injection failed", "error", err)
			}
		}

		if gen+1 < *generations {
			if err := pop.Reproduce(opts); err != nil {
				slog.Error("reproduction failed", "gen", gen, "error", err)
				os.Exit(1)
			}
		}

		if (gen+1)%*saveEvery == 0 {
			if err := arc.Save(); err != nil {
				slog.Error("failed to save archive", "error", err)
			}
		}

		prevStats = &fitness.PopulationStats{
			AvgFood:     stats.AvgFood,
			MaxFood:     float64(stats.MaxFood),
			AvgSurvival: stats.AvgSurvival,
		}
	}

	if err := arc.Save(); err != nil {
		slog.Error("failed to save archive", "error", err)
	}

	slog.Info("training complete",
		"generations", *generations,
		"elapsed", time.Since(start).Round(time.Second).String(),
		"best_archived", topFitness(arc))
}

// archiveChampion offers the generation's best genome to the archive and, on
// admission, re-scores it across randomized layouts for the robust list.
func archiveChampion(arc *archive.Archive, rescorer *archive.Rescorer, pop *evolve.Population, results []sim.RolloutResult, ectx evolve.EvaluationContext, settleCycles int) {
	bestIdx := -1
	for i, r := range results {
		if bestIdx < 0 || r.Fitness > results[bestIdx].Fitness {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return
	}
	best := pop.Candidates()[bestIdx]
	res := results[bestIdx]

	entry := archive.Entry{
		GenomeID:   best.Genome.Id,
		Fitness:    res.Fitness,
		Generation: ectx.Generation,
		Small:      res.Small,
		Big:        res.Big,
		Genome:     best.Genome,
	}
	if !arc.ConsiderBest(entry) {
		return
	}
	slog.Info("archived champion",
		"gen", ectx.Generation, "genome", best.Genome.Id,
		"fitness", res.Fitness, "global_best", ectx.GlobalBest)

	ctrl, err := neural.NewController(best.Genome, settleCycles)
	if err != nil {
		slog.Warn("robustness rescore skipped", "genome", best.Genome.Id, "error", err)
		return
	}
	robustScore, err := rescorer.Score(ctrl, fitness.Context{Generation: ectx.Generation})
	if err != nil {
		slog.Warn("robustness rescore failed", "genome", best.Genome.Id, "error", err)
		return
	}
	robustEntry := entry
	robustEntry.Fitness = robustScore
	if arc.ConsiderRobust(robustEntry) {
		slog.Info("archived robust champion",
			"gen", ectx.Generation, "genome", best.Genome.Id, "fitness", robustScore)
	}
}

// seedFromArchive replaces the front of a fresh population with clones of
// previously archived champions.
func seedFromArchive(pop *evolve.Population, path string, cfg config.ArchiveConfig) error {
	cfg.Path = path
	loaded, err := archive.Load(cfg)
	if err != nil {
		return err
	}
	candidates := pop.Candidates()
	for i, entry := range loaded.Best() {
		if i >= len(candidates) || entry.Genome == nil {
			break
		}
		clone, err := neural.Clone(entry.Genome, pop.IDGen().NextID())
		if err != nil {
			return err
		}
		candidates[i].Genome = clone
	}
	return nil
}

func topFitness(arc *archive.Archive) float64 {
	best := arc.Best()
	if len(best) == 0 {
		return 0
	}
	return best[0].Fitness
}
