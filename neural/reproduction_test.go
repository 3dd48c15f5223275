package neural

import (
	"math"
	"math/rand"
	"testing"
)

func TestGenomeIDGenerator(t *testing.T) {
	gen := NewGenomeIDGenerator()

	id1 := gen.NextID()
	id2 := gen.NextID()
	id3 := gen.NextID()
	if id1 >= id2 || id2 >= id3 {
		t.Errorf("IDs should be strictly increasing: %d, %d, %d", id1, id2, id3)
	}

	innov1 := gen.NextInnovation()
	innov2 := gen.NextInnovation()
	if innov1 >= innov2 {
		t.Errorf("innovations should be strictly increasing: %d, %d", innov1, innov2)
	}
	if innov1 < initialInnovNum {
		t.Errorf("innovation %d below the reserved initial-topology block", innov1)
	}
}

func TestNewGenomeShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	genome := NewGenome(1, 0.3, rng)

	if genome.Id != 1 {
		t.Errorf("genome ID = %d, want 1", genome.Id)
	}
	if len(genome.Nodes) != NetInputs+NetOutputs {
		t.Errorf("node count = %d, want %d", len(genome.Nodes), NetInputs+NetOutputs)
	}
	if len(genome.Genes) == 0 {
		t.Error("genome has no connections")
	}
}

func TestNewMinimalGenomeFullyConnected(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	genome := NewMinimalGenome(1, rng)

	if len(genome.Genes) != NetInputs*NetOutputs {
		t.Errorf("gene count = %d, want %d", len(genome.Genes), NetInputs*NetOutputs)
	}
}

func TestCrossoverProducesValidChild(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	parent1 := NewGenome(1, 0.5, rng)
	parent2 := NewGenome(2, 0.5, rng)

	child, err := Crossover(parent1, parent2, 2.0, 1.0, 3, rng)
	if err != nil {
		t.Fatalf("Crossover failed: %v", err)
	}
	if child.Id != 3 {
		t.Errorf("child ID = %d, want 3", child.Id)
	}
	if len(child.Nodes) == 0 || len(child.Genes) == 0 {
		t.Fatalf("child is empty: %d nodes, %d genes", len(child.Nodes), len(child.Genes))
	}

	// Every disjoint/excess gene of the fitter parent must survive.
	childInnovs := make(map[int64]bool)
	for _, g := range child.Genes {
		childInnovs[g.InnovationNum] = true
	}
	for _, g := range parent1.Genes {
		if !childInnovs[g.InnovationNum] {
			t.Errorf("fitter parent's gene %d missing from child", g.InnovationNum)
		}
	}

	// Child nodes must be referenced, not shared, with the parents.
	for _, cn := range child.Nodes {
		for _, pn := range parent1.Nodes {
			if cn == pn {
				t.Fatal("child shares a node pointer with its parent")
			}
		}
	}
}

func TestCrossoverNilParent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	if _, err := Crossover(nil, NewGenome(1, 0.5, rng), 1, 1, 2, rng); err == nil {
		t.Error("expected error for nil parent")
	}
}

func TestMutateWeightsStayClamped(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	genome := NewMinimalGenome(1, rng)
	opts := DefaultNEATOptions()
	opts.MutateLinkWeightsProb = 1.0
	opts.WeightMutPower = 50.0
	idGen := NewGenomeIDGenerator()

	for i := 0; i < 10; i++ {
		if _, err := Mutate(genome, opts, idGen, rng); err != nil {
			t.Fatal(err)
		}
	}
	for _, gene := range genome.Genes {
		if math.Abs(gene.Link.ConnectionWeight) > maxConnectionWeight {
			t.Fatalf("weight %v exceeds clamp %v", gene.Link.ConnectionWeight, maxConnectionWeight)
		}
	}
}

func TestMutateAddNodeGrowsTopology(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	genome := NewMinimalGenome(1, rng)
	opts := DefaultNEATOptions()
	opts.MutateLinkWeightsProb = 0
	opts.MutateAddNodeProb = 1.0
	opts.MutateAddLinkProb = 0
	opts.MutateToggleEnableProb = 0
	idGen := NewGenomeIDGenerator()

	before := len(genome.Nodes)
	if _, err := Mutate(genome, opts, idGen, rng); err != nil {
		t.Fatal(err)
	}
	if len(genome.Nodes) != before+1 {
		t.Errorf("node count = %d, want %d", len(genome.Nodes), before+1)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	original := NewMinimalGenome(1, rng)
	clone, err := Clone(original, 2)
	if err != nil {
		t.Fatal(err)
	}
	if clone.Id != 2 {
		t.Errorf("clone ID = %d, want 2", clone.Id)
	}
	if len(clone.Genes) != len(original.Genes) {
		t.Fatalf("clone gene count = %d, want %d", len(clone.Genes), len(original.Genes))
	}

	clone.Genes[0].Link.ConnectionWeight = 99
	if original.Genes[0].Link.ConnectionWeight == 99 {
		t.Error("mutating the clone changed the original")
	}
}

func TestCompatibilityIdenticalIsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	genome := NewMinimalGenome(1, rng)
	clone, err := Clone(genome, 2)
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultNEATOptions()

	if d := Compatibility(genome, clone, opts); d != 0 {
		t.Errorf("identical genome distance = %v, want 0", d)
	}

	clone.Genes[0].Link.ConnectionWeight += 3
	if d := Compatibility(genome, clone, opts); d <= 0 {
		t.Errorf("diverged genome distance = %v, want > 0", d)
	}
}
