// Package sim runs bounded foraging rollouts and evaluates whole generations
// on a worker pool.
package sim

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/pthm-cable/forage/agent"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/evolve"
	"github.com/pthm-cable/forage/fitness"
	"github.com/pthm-cable/forage/maze"
	"github.com/pthm-cable/forage/neural"
)

// parallelThreshold is the minimum population size for parallel evaluation.
// Below this, goroutine overhead outweighs the rollout work.
const parallelThreshold = 8

// Policy maps a sensor vector to one score per action. The runner commits to
// the highest-scoring action, first index winning ties.
type Policy interface {
	Act(inputs []float64) ([]float64, error)
}

// RolloutResult captures one candidate's completed run.
type RolloutResult struct {
	Fitness    float64
	Components fitness.Components

	Steps      int
	Collisions int
	Small      int
	Big        int
	Unique     int
	Alive      bool

	// Err is the recovered evaluation failure, if any. The fitness is the
	// floor in that case.
	Err error
}

// Runner executes rollouts. Safe for concurrent use: all mutable state is
// per-rollout.
type Runner struct {
	simCfg   config.SimulationConfig
	agentCfg config.AgentConfig
	eval     *fitness.Evaluator
	log      *slog.Logger
}

// NewRunner wires a runner. A nil logger disables rollout logging.
func NewRunner(simCfg config.SimulationConfig, agentCfg config.AgentConfig, eval *fitness.Evaluator, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{simCfg: simCfg, agentCfg: agentCfg, eval: eval, log: log}
}

// Rollout runs one policy against a fresh clone of the template maze for up
// to the tick budget, then scores the trajectory. Any panic or policy error
// is absorbed into a floor-fitness result.
func (r *Runner) Rollout(policy Policy, template *maze.Maze, ctx fitness.Context) (res RolloutResult) {
	defer func() {
		if p := recover(); p != nil {
			res = r.floorResult(fmt.Errorf("sim: rollout panic: %v", p))
		}
	}()

	world := template.CloneWithFreshFood()
	forager, err := agent.New(world, r.agentCfg)
	if err != nil {
		return r.floorResult(err)
	}

	sensors := make([]float64, agent.NumInputs)
	for tick := 0; tick < r.simCfg.MaxTicks && forager.Alive; tick++ {
		sensors = forager.Sensors(sensors)
		scores, err := policy.Act(sensors)
		if err != nil {
			return r.floorResult(fmt.Errorf("sim: policy activation: %w", err))
		}
		forager.Step(argmax(scores))
	}

	fit, comps := r.eval.Score(forager, world, ctx)
	return RolloutResult{
		Fitness:    fit,
		Components: comps,
		Steps:      forager.Steps,
		Collisions: forager.Collisions,
		Small:      forager.CollectedSmall,
		Big:        forager.CollectedBig,
		Unique:     forager.UniqueCells(),
		Alive:      forager.Alive,
	}
}

func (r *Runner) floorResult(err error) RolloutResult {
	floor := r.eval.Floor()
	return RolloutResult{
		Fitness:    floor,
		Components: fitness.Components{Total: floor},
		Err:        err,
	}
}

// EvaluateGeneration rolls out every candidate once and writes fitness back
// onto the candidates. Results align with the population by index. Candidates
// whose controller fails to build, or whose rollout errors, receive the floor
// and never abort the generation.
func (r *Runner) EvaluateGeneration(pop []*evolve.Candidate, template *maze.Maze, ctx fitness.Context) []RolloutResult {
	results := make([]RolloutResult, len(pop))

	evalOne := func(i int) {
		ctrl, err := neural.NewController(pop[i].Genome, r.simCfg.SettleCycles)
		if err != nil {
			results[i] = r.floorResult(err)
		} else {
			results[i] = r.Rollout(ctrl, template, ctx)
		}
		pop[i].Fitness = results[i].Fitness
		pop[i].Components = results[i].Components
		if results[i].Err != nil {
			r.log.Warn("candidate evaluation failed",
				slog.Int("genome", pop[i].Genome.Id),
				slog.Int("generation", ctx.Generation),
				slog.Any("error", results[i].Err))
		}
	}

	workers := r.simCfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if len(pop) < parallelThreshold || workers == 1 {
		for i := range pop {
			evalOne(i)
		}
		return results
	}

	// Chunked fan-out: contiguous index ranges keep per-worker cache locality
	// and avoid a per-candidate channel send.
	chunkSize := (len(pop) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(pop); start += chunkSize {
		end := start + chunkSize
		if end > len(pop) {
			end = len(pop)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				evalOne(i)
			}
		}(start, end)
	}
	wg.Wait()
	return results
}

// argmax returns the index of the highest score, first index winning ties.
func argmax(scores []float64) agent.Action {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return agent.Action(best)
}
