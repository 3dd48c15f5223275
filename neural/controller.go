// Package neural wraps goNEAT genomes and networks behind the policy surface
// the simulator consumes: build a controller, feed sensors, read action scores.
package neural

import (
	"fmt"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	"github.com/yaricom/goNEAT/v4/neat/network"

	"github.com/pthm-cable/forage/agent"
)

// Network geometry. Inputs mirror the agent sensor vector, outputs the action set.
const (
	NetInputs  = agent.NumInputs
	NetOutputs = agent.NumActions
)

// Controller wraps a goNEAT phenotype for rollout evaluation.
type Controller struct {
	Genome  *genetics.Genome
	network *network.Network
	settle  int
}

// NewController builds the phenotype network from a genome. settleCycles is
// the number of activations run per tick so signal can propagate through
// recurrent or deep topologies before the output is read.
func NewController(genome *genetics.Genome, settleCycles int) (*Controller, error) {
	phenotype, err := genome.Genesis(genome.Id)
	if err != nil {
		return nil, fmt.Errorf("neural: building network from genome %d: %w", genome.Id, err)
	}
	if settleCycles < 1 {
		settleCycles = 1
	}
	return &Controller{
		Genome:  genome,
		network: phenotype,
		settle:  settleCycles,
	}, nil
}

// Act loads the sensor vector and activates the network for the configured
// settle cycles, returning one score per action. Network state carries across
// ticks; call Reset between rollouts.
func (c *Controller) Act(inputs []float64) ([]float64, error) {
	if len(inputs) != NetInputs {
		return nil, fmt.Errorf("neural: expected %d inputs, got %d", NetInputs, len(inputs))
	}
	if err := c.network.LoadSensors(inputs); err != nil {
		return nil, fmt.Errorf("neural: loading sensors: %w", err)
	}
	for i := 0; i < c.settle; i++ {
		if _, err := c.network.Activate(); err != nil {
			return nil, fmt.Errorf("neural: activation: %w", err)
		}
	}
	return c.network.ReadOutputs(), nil
}

// Reset clears residual activation so the next rollout starts cold.
func (c *Controller) Reset() error {
	if _, err := c.network.Flush(); err != nil {
		return fmt.Errorf("neural: flush: %w", err)
	}
	return nil
}

// NodeCount returns the phenotype node count.
func (c *Controller) NodeCount() int { return c.network.NodeCount() }

// LinkCount returns the phenotype link count.
func (c *Controller) LinkCount() int { return c.network.LinkCount() }
