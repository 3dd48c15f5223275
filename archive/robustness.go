package archive

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/fitness"
	"github.com/pthm-cable/forage/maze"
	"github.com/pthm-cable/forage/sim"
)

// randomWallDensity keeps rescoring layouts navigable while still forcing
// detours a training-layout specialist never saw.
const randomWallDensity = 0.15

// Rescorer measures how well a policy generalizes: it averages rollout
// fitness across freshly randomized layouts instead of the training maze.
type Rescorer struct {
	runner  *sim.Runner
	mazeCfg config.MazeConfig
	runs    int
	rows    int
	cols    int
	rng     *rand.Rand
}

// NewRescorer builds a rescorer generating layouts of the given dimensions.
func NewRescorer(runner *sim.Runner, mazeCfg config.MazeConfig, arcCfg config.ArchiveConfig, rows, cols int, rng *rand.Rand) *Rescorer {
	runs := arcCfg.RobustnessRuns
	if runs < 1 {
		runs = 1
	}
	return &Rescorer{
		runner:  runner,
		mazeCfg: mazeCfg,
		runs:    runs,
		rows:    rows,
		cols:    cols,
		rng:     rng,
	}
}

// Score runs the policy on freshly randomized mazes and returns the mean
// fitness. Each run draws new walls and a new spread of food, so a single
// lucky layout cannot carry the score.
func (r *Rescorer) Score(policy sim.Policy, ctx fitness.Context) (float64, error) {
	total := 0.0
	for i := 0; i < r.runs; i++ {
		layout := maze.RandomLayout(r.rows, r.cols, randomWallDensity, r.rng)
		world, err := maze.New(layout, maze.Options{
			SmallFood: r.mazeCfg.NumSmallFood,
			BigFood:   r.mazeCfg.NumBigFood,
			Spread:    true,
			Rand:      r.rng,
		})
		if err != nil {
			return 0, fmt.Errorf("archive: rescoring layout: %w", err)
		}

		// Recurrent controllers carry activation state; each layout must be
		// scored from a cold network.
		if resettable, ok := policy.(interface{ Reset() error }); ok {
			if err := resettable.Reset(); err != nil {
				return 0, fmt.Errorf("archive: resetting policy for run %d: %w", i, err)
			}
		}
		res := r.runner.Rollout(policy, world, ctx)
		if res.Err != nil {
			return 0, fmt.Errorf("archive: rescoring rollout %d: %w", i, res.Err)
		}
		total += res.Fitness
	}
	return total / float64(r.runs), nil
}
