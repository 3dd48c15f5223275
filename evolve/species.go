package evolve

import (
	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/forage/neural"
)

// Speciate clusters candidates by genome compatibility: each candidate joins
// the first species whose representative is within opts.CompatThreshold, or
// founds a new one. Representatives are the founding genomes, so clustering
// is deterministic for a fixed candidate order.
func Speciate(candidates []*Candidate, opts *neat.Options) [][]*Candidate {
	var species [][]*Candidate
	var reps []*genetics.Genome

	for _, c := range candidates {
		if c == nil || c.Genome == nil {
			continue
		}
		placed := false
		for i, rep := range reps {
			if neural.Compatibility(c.Genome, rep, opts) < opts.CompatThreshold {
				species[i] = append(species[i], c)
				placed = true
				break
			}
		}
		if !placed {
			reps = append(reps, c.Genome)
			species = append(species, []*Candidate{c})
		}
	}
	return species
}
