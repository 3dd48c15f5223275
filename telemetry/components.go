package telemetry

import (
	"sort"

	"github.com/pthm-cable/forage/sim"
)

// ComponentBreakdown averages fitness components over the elite slice of a
// generation. A single component supplying most of the positive score points
// at a reward-hacking incentive; Dominant names it when that happens.
type ComponentBreakdown struct {
	Generation int `csv:"generation"`
	EliteCount int `csv:"elite_count"`

	Food           float64 `csv:"food"`
	Survival       float64 `csv:"survival"`
	Exploration    float64 `csv:"exploration"`
	Movement       float64 `csv:"movement"`
	Proximity      float64 `csv:"proximity"`
	PathEfficiency float64 `csv:"path_efficiency"`

	CollisionPenalty  float64 `csv:"collision_penalty"`
	StagnationPenalty float64 `csv:"stagnation_penalty"`
	IdlePenalty       float64 `csv:"idle_penalty"`

	Dominant      string  `csv:"dominant"`
	DominantShare float64 `csv:"dominant_share"`
}

// BreakdownElite averages components over the top eliteFraction of results by
// fitness and flags the dominant component when its share of the positive
// total exceeds the threshold.
func BreakdownElite(generation int, results []sim.RolloutResult, eliteFraction, dominanceThreshold float64) ComponentBreakdown {
	bd := ComponentBreakdown{Generation: generation}
	if len(results) == 0 {
		return bd
	}

	ranked := append([]sim.RolloutResult(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})

	count := int(float64(len(ranked)) * eliteFraction)
	if count < 1 {
		count = 1
	}
	elite := ranked[:count]
	bd.EliteCount = count

	n := float64(count)
	for _, r := range elite {
		c := r.Components
		bd.Food += c.Food / n
		bd.Survival += c.Survival / n
		bd.Exploration += c.Exploration / n
		bd.Movement += c.Movement / n
		bd.Proximity += c.Proximity / n
		bd.PathEfficiency += c.PathEfficiency / n
		bd.CollisionPenalty += c.CollisionPenalty / n
		bd.StagnationPenalty += c.StagnationPenalty / n
		bd.IdlePenalty += c.IdlePenalty / n
	}

	positive := []struct {
		name  string
		value float64
	}{
		{"food", bd.Food},
		{"survival", bd.Survival},
		{"exploration", bd.Exploration},
		{"movement", bd.Movement},
		{"proximity", bd.Proximity},
		{"path_efficiency", bd.PathEfficiency},
	}
	total := 0.0
	for _, p := range positive {
		if p.value > 0 {
			total += p.value
		}
	}
	if total <= 0 {
		return bd
	}
	topName := ""
	for _, p := range positive {
		share := p.value / total
		if share > bd.DominantShare {
			bd.DominantShare = share
			topName = p.name
		}
	}
	if bd.DominantShare > dominanceThreshold {
		bd.Dominant = topName
	}
	return bd
}
