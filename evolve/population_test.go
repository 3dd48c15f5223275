package evolve

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/neural"
)

func testPopConfig() config.PopulationConfig {
	return config.PopulationConfig{
		Size:           20,
		TournamentSize: 3,
		Elitism:        2,
		CrossoverProb:  0.75,
		ConnectionProb: 0.3,
	}
}

func TestNewPopulationSeedsUniqueGenomes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := NewPopulation(testPopConfig(), rng)

	if len(p.Candidates()) != 20 {
		t.Fatalf("population size = %d, want 20", len(p.Candidates()))
	}
	seen := map[int]bool{}
	for _, c := range p.Candidates() {
		if c.Genome == nil {
			t.Fatal("candidate with nil genome")
		}
		if seen[c.Genome.Id] {
			t.Fatalf("duplicate genome ID %d", c.Genome.Id)
		}
		seen[c.Genome.Id] = true
	}
}

func TestReproducePreservesSizeAndElites(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	p := NewPopulation(testPopConfig(), rng)

	for i, c := range p.Candidates() {
		c.Fitness = float64(i)
	}
	best := p.Best()
	if best.Fitness != 19 {
		t.Fatalf("Best().Fitness = %v, want 19", best.Fitness)
	}
	bestGenes := len(best.Genome.Genes)

	if err := p.Reproduce(neural.DefaultNEATOptions()); err != nil {
		t.Fatalf("Reproduce: %v", err)
	}
	if len(p.Candidates()) != 20 {
		t.Fatalf("population size after reproduce = %d, want 20", len(p.Candidates()))
	}

	// Elites lead the next generation as unmutated clones of the top ranks.
	elite := p.Candidates()[0]
	if len(elite.Genome.Genes) != bestGenes {
		t.Errorf("elite clone has %d genes, want %d", len(elite.Genome.Genes), bestGenes)
	}
	if elite.Fitness != 0 {
		t.Error("next generation should start with fitness reset")
	}
	if elite.Genome.Id == best.Genome.Id {
		t.Error("elite clone kept the parent's genome ID")
	}
}

func TestReproduceWithoutMutationClonesParents(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	cfg := testPopConfig()
	cfg.CrossoverProb = 0
	p := NewPopulation(cfg, rng)
	for i, c := range p.Candidates() {
		c.Fitness = float64(i)
	}

	opts := neural.DefaultNEATOptions()
	opts.MutateAddLinkProb = 0
	opts.MutateAddNodeProb = 0
	opts.MutateLinkWeightsProb = 0
	opts.MutateToggleEnableProb = 0

	if err := p.Reproduce(opts); err != nil {
		t.Fatalf("Reproduce: %v", err)
	}

	seen := map[int]bool{}
	for _, c := range p.Candidates() {
		if seen[c.Genome.Id] {
			t.Fatalf("duplicate genome ID %d in offspring", c.Genome.Id)
		}
		seen[c.Genome.Id] = true
	}
}

func TestReplaceRejectsWrongSize(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	p := NewPopulation(testPopConfig(), rng)

	if err := p.Replace(p.Candidates()[:5]); err == nil {
		t.Fatal("expected error for undersized replacement pool")
	}
	if err := p.Replace(p.Candidates()); err != nil {
		t.Fatalf("Replace with matching size: %v", err)
	}
}
