package archive

import (
	"fmt"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// nodeJSON and geneJSON flatten a goNEAT genome into plain JSON so archives
// survive library upgrades and stay diffable.
type nodeJSON struct {
	ID         int `json:"id"`
	Type       int `json:"type"`
	Activation int `json:"activation"`
}

type geneJSON struct {
	In         int     `json:"in"`
	Out        int     `json:"out"`
	Weight     float64 `json:"weight"`
	Recurrent  bool    `json:"recurrent,omitempty"`
	Enabled    bool    `json:"enabled"`
	Innovation int64   `json:"innovation"`
	Mutation   float64 `json:"mutation"`
}

type entryJSON struct {
	GenomeID   int        `json:"genome_id"`
	Fitness    float64    `json:"fitness"`
	Generation int        `json:"generation"`
	Small      int        `json:"small_food"`
	Big        int        `json:"big_food"`
	Nodes      []nodeJSON `json:"nodes"`
	Genes      []geneJSON `json:"genes"`
}

func encodeEntries(list []Entry) []entryJSON {
	out := make([]entryJSON, 0, len(list))
	for _, e := range list {
		out = append(out, encodeEntry(e))
	}
	return out
}

func encodeEntry(e Entry) entryJSON {
	ej := entryJSON{
		GenomeID:   e.GenomeID,
		Fitness:    e.Fitness,
		Generation: e.Generation,
		Small:      e.Small,
		Big:        e.Big,
	}
	if e.Genome == nil {
		return ej
	}
	for _, n := range e.Genome.Nodes {
		ej.Nodes = append(ej.Nodes, nodeJSON{
			ID:         n.Id,
			Type:       int(n.NeuronType),
			Activation: int(n.ActivationType),
		})
	}
	for _, g := range e.Genome.Genes {
		ej.Genes = append(ej.Genes, geneJSON{
			In:         g.Link.InNode.Id,
			Out:        g.Link.OutNode.Id,
			Weight:     g.Link.ConnectionWeight,
			Recurrent:  g.Link.IsRecurrent,
			Enabled:    g.IsEnabled,
			Innovation: g.InnovationNum,
			Mutation:   g.MutationNum,
		})
	}
	return ej
}

func (ej entryJSON) decode() (Entry, error) {
	e := Entry{
		GenomeID:   ej.GenomeID,
		Fitness:    ej.Fitness,
		Generation: ej.Generation,
		Small:      ej.Small,
		Big:        ej.Big,
	}
	if len(ej.Nodes) == 0 {
		return e, nil
	}

	byID := make(map[int]*network.NNode, len(ej.Nodes))
	nodes := make([]*network.NNode, 0, len(ej.Nodes))
	for _, nj := range ej.Nodes {
		node := network.NewNNode(nj.ID, network.NodeNeuronType(nj.Type))
		node.ActivationType = neatmath.NodeActivationType(nj.Activation)
		byID[nj.ID] = node
		nodes = append(nodes, node)
	}

	genes := make([]*genetics.Gene, 0, len(ej.Genes))
	for _, gj := range ej.Genes {
		in, ok := byID[gj.In]
		if !ok {
			return Entry{}, fmt.Errorf("archive: genome %d references unknown node %d", ej.GenomeID, gj.In)
		}
		out, ok := byID[gj.Out]
		if !ok {
			return Entry{}, fmt.Errorf("archive: genome %d references unknown node %d", ej.GenomeID, gj.Out)
		}
		gene := genetics.NewGeneWithTrait(nil, gj.Weight, in, out, gj.Recurrent, gj.Innovation, gj.Mutation)
		gene.IsEnabled = gj.Enabled
		genes = append(genes, gene)
	}

	e.Genome = genetics.NewGenome(ej.GenomeID, nil, nodes, genes)
	return e, nil
}
