package neural

import "github.com/yaricom/goNEAT/v4/neat"

// DefaultNEATOptions returns the baseline NEAT options for maze foraging.
// MutateAddLinkProb, MutateAddNodeProb, and WeightMutPower are the knobs the
// stagnation monitor rescales between generations.
func DefaultNEATOptions() *neat.Options {
	return &neat.Options{
		TraitParamMutProb:  0.5,
		TraitMutationPower: 1.0,

		WeightMutPower: 1.5,

		MutateAddNodeProb:      0.20,
		MutateAddLinkProb:      0.50,
		MutateToggleEnableProb: 0.01,

		MutateLinkWeightsProb: 0.8,
		MutateOnlyProb:        0.25,
		MutateRandomTraitProb: 0.1,

		MateMultipointProb:    0.6,
		MateMultipointAvgProb: 0.4,
		MateSinglepointProb:   0.0,
		MateOnlyProb:          0.2,
		RecurOnlyProb:         0.0,

		CompatThreshold: 2.3,
		DisjointCoeff:   1.0,
		ExcessCoeff:     1.0,
		MutdiffCoeff:    0.4,

		DropOffAge:      15,
		SurvivalThresh:  0.2,
		AgeSignificance: 1.0,

		PopSize: 150,
	}
}
