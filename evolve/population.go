package evolve

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/neural"
)

// Population owns the candidate pool and produces the next generation via
// elitism, tournament selection, crossover and mutation.
type Population struct {
	cfg        config.PopulationConfig
	candidates []*Candidate
	idGen      *neural.GenomeIDGenerator
	rng        *rand.Rand
}

// NewPopulation seeds a population of sparsely connected genomes.
func NewPopulation(cfg config.PopulationConfig, rng *rand.Rand) *Population {
	p := &Population{
		cfg:   cfg,
		idGen: neural.NewGenomeIDGenerator(),
		rng:   rng,
	}
	p.candidates = make([]*Candidate, cfg.Size)
	for i := range p.candidates {
		p.candidates[i] = &Candidate{
			Genome: neural.NewGenome(p.idGen.NextID(), cfg.ConnectionProb, rng),
		}
	}
	return p
}

// Candidates returns the live pool. Callers write fitness back into it
// between Reproduce calls.
func (p *Population) Candidates() []*Candidate { return p.candidates }

// IDGen exposes the genome ID source so injected genomes stay unique.
func (p *Population) IDGen() *neural.GenomeIDGenerator { return p.idGen }

// Replace swaps in a new candidate pool of the same size, used after
// diversity injection.
func (p *Population) Replace(candidates []*Candidate) error {
	if len(candidates) != p.cfg.Size {
		return fmt.Errorf("evolve: replacement pool has %d candidates, want %d", len(candidates), p.cfg.Size)
	}
	p.candidates = candidates
	return nil
}

// Best returns the highest-fitness candidate, or nil for an empty pool.
func (p *Population) Best() *Candidate {
	var best *Candidate
	for _, c := range p.candidates {
		if best == nil || c.Fitness > best.Fitness {
			best = c
		}
	}
	return best
}

// Reproduce builds the next generation in place. The top Elitism candidates
// survive unchanged; the rest are bred by tournament selection with the
// configured crossover probability, then mutated under opts. Mutation rates
// in opts are the live, stagnation-adjusted values.
func (p *Population) Reproduce(opts *neat.Options) error {
	ranked := append([]*Candidate(nil), p.candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})

	next := make([]*Candidate, 0, p.cfg.Size)

	elites := p.cfg.Elitism
	if elites > len(ranked) {
		elites = len(ranked)
	}
	for _, elite := range ranked[:elites] {
		clone, err := neural.Clone(elite.Genome, p.idGen.NextID())
		if err != nil {
			return fmt.Errorf("evolve: cloning elite: %w", err)
		}
		next = append(next, &Candidate{Genome: clone})
	}

	for len(next) < p.cfg.Size {
		child, err := p.breed(opts)
		if err != nil {
			return err
		}
		next = append(next, &Candidate{Genome: child})
	}

	p.candidates = next
	return nil
}

func (p *Population) breed(opts *neat.Options) (*genetics.Genome, error) {
	parent1 := p.tournament()
	var child *genetics.Genome
	var err error

	if p.rng.Float64() < p.cfg.CrossoverProb {
		parent2 := p.tournament()
		child, err = neural.Crossover(
			parent1.Genome, parent2.Genome,
			parent1.Fitness, parent2.Fitness,
			p.idGen.NextID(), p.rng,
		)
		if err != nil {
			return nil, fmt.Errorf("evolve: crossover: %w", err)
		}
	} else {
		child, err = neural.Clone(parent1.Genome, p.idGen.NextID())
		if err != nil {
			return nil, fmt.Errorf("evolve: cloning parent: %w", err)
		}
	}

	if _, err := neural.Mutate(child, opts, p.idGen, p.rng); err != nil {
		return nil, fmt.Errorf("evolve: mutation: %w", err)
	}
	return child, nil
}

// tournament samples TournamentSize candidates with replacement and returns
// the fittest.
func (p *Population) tournament() *Candidate {
	size := p.cfg.TournamentSize
	if size < 1 {
		size = 1
	}
	best := p.candidates[p.rng.Intn(len(p.candidates))]
	for i := 1; i < size; i++ {
		c := p.candidates[p.rng.Intn(len(p.candidates))]
		if c.Fitness > best.Fitness {
			best = c
		}
	}
	return best
}
