// Package telemetry aggregates per-generation statistics and streams them to
// CSV so runs can be compared offline.
package telemetry

import (
	"log/slog"
	"sort"

	"github.com/pthm-cable/forage/sim"
)

// GenerationStats summarizes one generation of rollouts.
type GenerationStats struct {
	Generation int `csv:"generation"`

	BestFitness   float64 `csv:"best_fitness"`
	MeanFitness   float64 `csv:"mean_fitness"`
	MedianFitness float64 `csv:"median_fitness"`
	P90Fitness    float64 `csv:"p90_fitness"`

	AvgFood     float64 `csv:"avg_food"`
	MaxFood     int     `csv:"max_food"`
	AvgBigFood  float64 `csv:"avg_big_food"`
	AvgSurvival float64 `csv:"avg_survival"`

	AvgCollisions float64 `csv:"avg_collisions"`
	AvgUnique     float64 `csv:"avg_unique"`
	AliveCount    int     `csv:"alive"`
	GatedCount    int     `csv:"gated"`
	ErrorCount    int     `csv:"errors"`

	// SpeciesCount is the compatibility-cluster count, filled by the trainer.
	SpeciesCount int `csv:"species"`

	// Stagnation state and active mutation rates at this generation.
	StagnationTier    string  `csv:"stagnation_tier"`
	StagnationCounter int     `csv:"stagnation_counter"`
	AddLinkProb       float64 `csv:"add_link_prob"`
	AddNodeProb       float64 `csv:"add_node_prob"`
	WeightMutPower    float64 `csv:"weight_mut_power"`

	ElapsedSec float64 `csv:"elapsed_sec"`
}

// Summarize aggregates rollout results into generation statistics.
// Stagnation fields are left for the caller to fill in.
func Summarize(generation int, results []sim.RolloutResult) GenerationStats {
	stats := GenerationStats{Generation: generation}
	if len(results) == 0 {
		return stats
	}

	n := float64(len(results))
	fitnesses := make([]float64, 0, len(results))
	for _, r := range results {
		fitnesses = append(fitnesses, r.Fitness)
		if r.Fitness > stats.BestFitness {
			stats.BestFitness = r.Fitness
		}
		stats.MeanFitness += r.Fitness / n

		food := r.Small + r.Big
		stats.AvgFood += float64(food) / n
		if food > stats.MaxFood {
			stats.MaxFood = food
		}
		stats.AvgBigFood += float64(r.Big) / n
		stats.AvgSurvival += float64(r.Steps) / n
		stats.AvgCollisions += float64(r.Collisions) / n
		stats.AvgUnique += float64(r.Unique) / n
		if r.Alive {
			stats.AliveCount++
		}
		if r.Components.Gated {
			stats.GatedCount++
		}
		if r.Err != nil {
			stats.ErrorCount++
		}
	}

	sort.Float64s(fitnesses)
	stats.MedianFitness = Percentile(fitnesses, 0.5)
	stats.P90Fitness = Percentile(fitnesses, 0.9)
	return stats
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	pos := p * float64(n-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= n {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("gen", s.Generation),
		slog.Float64("best", s.BestFitness),
		slog.Float64("mean", s.MeanFitness),
		slog.Float64("avg_food", s.AvgFood),
		slog.Int("max_food", s.MaxFood),
		slog.Float64("avg_survival", s.AvgSurvival),
		slog.Int("alive", s.AliveCount),
		slog.Int("gated", s.GatedCount),
		slog.Int("species", s.SpeciesCount),
		slog.String("tier", s.StagnationTier),
	)
}
