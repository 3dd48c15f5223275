package evolve

import (
	"sort"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/fitness"
)

// Candidate pairs a genome with its most recent evaluation.
type Candidate struct {
	Genome     *genetics.Genome
	Fitness    float64
	Components fitness.Components
}

// EvaluationContext is the per-generation state threaded through the trainer
// loop. Explicit rather than package-global so concurrent runs and tests
// never share state.
type EvaluationContext struct {
	Generation int
	GlobalBest float64
	History    []float64
	Stagnation Directive
}

// DiversityInjector replaces the worst fraction of a stagnant population with
// fresh genomes.
type DiversityInjector struct {
	cfg config.DiversityConfig

	// NewGenome supplies a freshly initialized genome for a replacement slot.
	NewGenome func(id int) *genetics.Genome

	// NextID hands out genome IDs for replacements.
	NextID func() int

	// Respeciate re-clusters the population after injection. Optional; leave
	// nil when the engine respeciates on next use.
	Respeciate func([]*Candidate)
}

// NewDiversityInjector wires an injector.
func NewDiversityInjector(cfg config.DiversityConfig, newGenome func(id int) *genetics.Genome, nextID func() int) *DiversityInjector {
	return &DiversityInjector{cfg: cfg, NewGenome: newGenome, NextID: nextID}
}

// Inject ranks the population by fitness descending, keeps the top retention
// fraction untouched, and fills the remaining slots with fresh genomes at the
// placeholder fitness. Population size is preserved exactly.
func (di *DiversityInjector) Inject(population []*Candidate) []*Candidate {
	if len(population) == 0 {
		return population
	}

	ranked := make([]*Candidate, len(population))
	copy(ranked, population)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Fitness > ranked[j].Fitness })

	keep := int(float64(len(ranked)) * di.cfg.RetentionFraction)
	if keep < 1 {
		keep = 1
	}
	if keep > len(ranked) {
		keep = len(ranked)
	}

	for i := keep; i < len(ranked); i++ {
		ranked[i] = &Candidate{
			Genome:  di.NewGenome(di.NextID()),
			Fitness: di.cfg.PlaceholderFitness,
		}
	}

	if di.Respeciate != nil {
		di.Respeciate(ranked)
	}
	return ranked
}
