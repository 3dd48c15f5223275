package neural

import (
	"math/rand"
	"testing"
)

func TestControllerActShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ctrl, err := NewController(NewMinimalGenome(1, rng), 5)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	inputs := make([]float64, NetInputs)
	for i := range inputs {
		inputs[i] = 0.5
	}
	outputs, err := ctrl.Act(inputs)
	if err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	if len(outputs) != NetOutputs {
		t.Fatalf("output count = %d, want %d", len(outputs), NetOutputs)
	}
}

func TestControllerRejectsWrongInputWidth(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	ctrl, err := NewController(NewMinimalGenome(1, rng), 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.Act(make([]float64, NetInputs-1)); err == nil {
		t.Error("expected error for short input vector")
	}
}

func TestControllerDeterministicAfterReset(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ctrl, err := NewController(NewMinimalGenome(1, rng), 3)
	if err != nil {
		t.Fatal(err)
	}

	inputs := make([]float64, NetInputs)
	for i := range inputs {
		inputs[i] = float64(i) / NetInputs
	}

	first, err := ctrl.Act(inputs)
	if err != nil {
		t.Fatal(err)
	}
	firstCopy := append([]float64(nil), first...)

	if err := ctrl.Reset(); err != nil {
		t.Fatal(err)
	}
	second, err := ctrl.Act(inputs)
	if err != nil {
		t.Fatal(err)
	}
	for i := range firstCopy {
		if firstCopy[i] != second[i] {
			t.Fatalf("output %d diverged after reset: %v vs %v", i, firstCopy[i], second[i])
		}
	}
}

func TestControllerCountsMatchGenome(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	genome := NewMinimalGenome(1, rng)
	ctrl, err := NewController(genome, 1)
	if err != nil {
		t.Fatal(err)
	}
	if ctrl.NodeCount() != len(genome.Nodes) {
		t.Errorf("node count = %d, want %d", ctrl.NodeCount(), len(genome.Nodes))
	}
	if ctrl.LinkCount() != len(genome.Genes) {
		t.Errorf("link count = %d, want %d", ctrl.LinkCount(), len(genome.Genes))
	}
}
