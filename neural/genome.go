package neural

import (
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// NewGenome creates a forager genome with sparse random input-output
// connections. Innovation numbers are assigned positionally so two genomes
// built this way stay alignable under crossover.
func NewGenome(id int, connectionProb float64, rng *rand.Rand) *genetics.Genome {
	nodes := ioNodes()

	genes := make([]*genetics.Gene, 0, NetInputs*NetOutputs)
	innovNum := int64(1)
	for i := 0; i < NetInputs; i++ {
		for j := 0; j < NetOutputs; j++ {
			currentInnov := innovNum
			innovNum++
			if rng.Float64() < connectionProb {
				weight := rng.Float64()*4 - 2
				genes = append(genes, genetics.NewGeneWithTrait(
					nil, weight, nodes[i], nodes[NetInputs+j], false, currentInnov, 0))
			}
		}
	}

	// A genome with no connections cannot act at all.
	if len(genes) == 0 {
		genes = append(genes, genetics.NewGeneWithTrait(
			nil, rng.Float64()*2-1, nodes[0], nodes[NetInputs], false, 1, 0))
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}

// NewMinimalGenome creates a fully connected input-output genome.
// Used as a deterministic-topology baseline in tests and replay.
func NewMinimalGenome(id int, rng *rand.Rand) *genetics.Genome {
	nodes := ioNodes()

	genes := make([]*genetics.Gene, 0, NetInputs*NetOutputs)
	innovNum := int64(1)
	for i := 0; i < NetInputs; i++ {
		for j := 0; j < NetOutputs; j++ {
			weight := rng.Float64()*2 - 1
			genes = append(genes, genetics.NewGeneWithTrait(
				nil, weight, nodes[i], nodes[NetInputs+j], false, innovNum, 0))
			innovNum++
		}
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}

func ioNodes() []*network.NNode {
	nodes := make([]*network.NNode, 0, NetInputs+NetOutputs)
	for i := 1; i <= NetInputs; i++ {
		node := network.NewNNode(i, network.InputNeuron)
		node.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, node)
	}
	for i := 1; i <= NetOutputs; i++ {
		node := network.NewNNode(NetInputs+i, network.OutputNeuron)
		node.ActivationType = neatmath.SigmoidSteepenedActivation
		nodes = append(nodes, node)
	}
	return nodes
}
