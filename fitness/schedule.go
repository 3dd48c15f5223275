// Package fitness scores completed rollouts against a curriculum of
// generation-dependent component weights.
package fitness

import (
	"math"

	"github.com/pthm-cable/forage/config"
)

// PopulationStats are optional generation-level aggregates supplied by the
// trainer. Schedules must work without them.
type PopulationStats struct {
	AvgFood     float64
	MaxFood     float64
	AvgSurvival float64
}

// Context carries the curriculum inputs for one generation of scoring.
type Context struct {
	Generation int
	Stats      *PopulationStats
}

// Weights are the per-component multipliers for one generation.
type Weights struct {
	Food      float64
	Survival  float64
	Explore   float64
	Movement  float64
	Proximity float64
}

// Schedule maps a generation context to component weights. Implementations
// must be pure: same context, same weights.
type Schedule interface {
	Weights(ctx Context) Weights
}

// NewSchedule returns the schedule named in the curriculum config.
// Unknown names fall back to the sigmoid schedule.
func NewSchedule(cfg config.CurriculumConfig) Schedule {
	if cfg.Schedule == "phased" {
		return &PhasedSchedule{cfg: cfg}
	}
	return &SigmoidSchedule{cfg: cfg}
}

// SigmoidSchedule interpolates weights smoothly across two sigmoid
// transitions so there are no fitness cliffs at phase boundaries.
// Exploration decays, food grows, survival decays, movement bumps then
// settles, proximity fades to zero.
type SigmoidSchedule struct {
	cfg config.CurriculumConfig
}

func (s *SigmoidSchedule) Weights(ctx Context) Weights {
	gen := float64(ctx.Generation)
	t1 := sigmoid(gen, s.cfg.Midpoint1, s.cfg.Rate1)
	t2 := sigmoid(gen, s.cfg.Midpoint2, s.cfg.Rate2)
	late := math.Min(gen/200.0, 1.0)

	eps := s.cfg.WeightEpsilon
	return Weights{
		Explore:   math.Max(eps, 2.0-0.8*t1-0.6*t2-0.3*late),
		Food:      math.Max(eps, 0.5+1.0*t1+0.5*t2+0.5*late),
		Survival:  math.Max(eps, 1.0-0.2*t1-0.3*t2-0.2*late),
		Movement:  math.Max(eps, 0.3+0.2*t1-0.1*t2),
		Proximity: math.Max(0.0, 0.5-0.2*t1-0.3*t2),
	}
}

func sigmoid(gen, midpoint, rate float64) float64 {
	return 1.0 / (1.0 + math.Exp(-rate*(gen-midpoint)))
}

// PhasedSchedule uses three fixed weight tables with hard generation
// boundaries. Phase 2 can also be entered early when the population's average
// food collection crosses the configured threshold, so a fast-learning run is
// not held back by the generation clock.
type PhasedSchedule struct {
	cfg config.CurriculumConfig
}

func (s *PhasedSchedule) Weights(ctx Context) Weights {
	phase := 1
	if ctx.Generation >= s.cfg.Phase3Generation {
		phase = 3
	} else if ctx.Generation >= s.cfg.Phase2Generation {
		phase = 2
	} else if ctx.Stats != nil && ctx.Stats.AvgFood >= s.cfg.Phase2AvgFood {
		phase = 2
	}

	proximity := 0.0
	if ctx.Generation < s.cfg.ProximityMaxGen {
		proximity = 0.5
	}

	switch phase {
	case 3:
		return Weights{Food: 4.0, Survival: 0.2, Explore: 0.2, Movement: 0.2}
	case 2:
		return Weights{Food: 3.0, Survival: 0.3, Explore: 0.5, Movement: 0.3}
	default:
		return Weights{Food: 2.0, Survival: 0.5, Explore: 1.0, Movement: 0.5, Proximity: proximity}
	}
}
