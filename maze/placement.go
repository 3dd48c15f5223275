package maze

import (
	"math/rand"
	"sort"
)

const (
	defaultMinDistance     = 5
	defaultRelaxedDistance = 3
)

// placeFoodByDistance fills the food list using BFS distance stratification.
// Candidate cells must sit at least MinDistance steps from the start; if too
// few qualify the threshold relaxes to RelaxedDistance, then to any reachable
// cell. Big food prefers the farthest third of the candidate pool.
func (m *Maze) placeFoodByDistance(opts Options, rng *rand.Rand) {
	minDist := opts.MinDistance
	if minDist <= 0 {
		minDist = defaultMinDistance
	}
	relaxed := opts.RelaxedDistance
	if relaxed <= 0 {
		relaxed = defaultRelaxedDistance
	}

	numSmall, numBig := opts.SmallFood, opts.BigFood
	total := numSmall + numBig
	if total == 0 {
		return
	}

	dist := m.Distances()

	candidates := candidatesAbove(dist, minDist)
	if len(candidates) < total {
		candidates = candidatesAbove(dist, relaxed)
	}
	if len(candidates) < total {
		candidates = candidatesAbove(dist, 1)
	}
	if len(candidates) == 0 {
		return
	}

	// Requested food can exceed the reachable pool on tiny or mostly
	// walled layouts. Scale both counts down instead of failing.
	if total > len(candidates) {
		scale := float64(len(candidates)) / float64(total)
		numSmall = int(float64(numSmall) * scale)
		numBig = int(float64(numBig) * scale)
		if numSmall+numBig > len(candidates) {
			numSmall = len(candidates) - numBig
		}
	}

	// Farthest first; ties broken by scan order for determinism.
	sort.Slice(candidates, func(i, j int) bool {
		di, dj := dist[candidates[i]], dist[candidates[j]]
		if di != dj {
			return di > dj
		}
		if candidates[i].Y != candidates[j].Y {
			return candidates[i].Y < candidates[j].Y
		}
		return candidates[i].X < candidates[j].X
	})

	premiumSize := len(candidates) / 3
	if premiumSize < 1 {
		premiumSize = 1
	}
	premium := append([]Point(nil), candidates[:premiumSize]...)
	rest := append([]Point(nil), candidates[premiumSize:]...)

	m.Food = make([]FoodItem, 0, numSmall+numBig)
	for i := 0; i < numBig; i++ {
		pool := &premium
		if len(premium) == 0 {
			pool = &rest
		}
		if len(*pool) == 0 {
			break
		}
		m.Food = append(m.Food, FoodItem{Pos: draw(pool, rng), Size: BigFood})
	}

	rest = append(rest, premium...)
	for i := 0; i < numSmall; i++ {
		if len(rest) == 0 {
			break
		}
		m.Food = append(m.Food, FoodItem{Pos: draw(&rest, rng), Size: SmallFood})
	}
}

// placeFoodBySpread uses greedy farthest-point sampling over walkable cells:
// each placement maximizes the minimum Manhattan distance to the start and all
// previously placed food. Deterministic for a fixed seed; used for robustness
// layouts where even coverage matters more than distance from start.
func (m *Maze) placeFoodBySpread(numSmall, numBig int) {
	total := numSmall + numBig
	if total == 0 {
		return
	}

	cells := m.WalkableCells()
	filtered := cells[:0]
	for _, c := range cells {
		if c != m.start {
			filtered = append(filtered, c)
		}
	}
	cells = filtered
	if len(cells) == 0 {
		return
	}

	if total > len(cells) {
		scale := float64(len(cells)) / float64(total)
		numSmall = int(float64(numSmall) * scale)
		numBig = int(float64(numBig) * scale)
		total = numSmall + numBig
	}

	chosen := make([]Point, 0, total)
	anchors := []Point{m.start}
	for len(chosen) < total {
		best := -1
		bestDist := -1
		for i, c := range cells {
			minD := c.ManhattanTo(anchors[0])
			for _, a := range anchors[1:] {
				if d := c.ManhattanTo(a); d < minD {
					minD = d
				}
			}
			if minD > bestDist {
				bestDist = minD
				best = i
			}
		}
		if best < 0 {
			break
		}
		p := cells[best]
		cells = append(cells[:best], cells[best+1:]...)
		chosen = append(chosen, p)
		anchors = append(anchors, p)
	}

	// Greedy order means earlier picks are the most isolated; big food
	// takes those.
	m.Food = make([]FoodItem, 0, len(chosen))
	for i, p := range chosen {
		size := SmallFood
		if i < numBig {
			size = BigFood
		}
		m.Food = append(m.Food, FoodItem{Pos: p, Size: size})
	}
}

func candidatesAbove(dist map[Point]int, threshold int) []Point {
	out := make([]Point, 0, len(dist))
	for p, d := range dist {
		if d >= threshold {
			out = append(out, p)
		}
	}
	return out
}

func draw(pool *[]Point, rng *rand.Rand) Point {
	i := rng.Intn(len(*pool))
	p := (*pool)[i]
	(*pool)[i] = (*pool)[len(*pool)-1]
	*pool = (*pool)[:len(*pool)-1]
	return p
}
