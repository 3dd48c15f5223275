package fitness

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/forage/agent"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/maze"
)

const (
	proximityMax     = 50.0
	proximityFalloff = 2.5

	diversityHarshRatio  = 0.02
	diversityMildRatio   = 0.05
	diversityHarshAmount = 50.0
	diversityMildAmount  = 20.0

	collectionBonusRate = 0.5
	logSurvivalScale    = 25.0
)

// Components is the per-rollout fitness breakdown: curriculum-weighted
// contributions, unweighted penalties, and the weights that produced them.
type Components struct {
	Food           float64 `csv:"food" json:"food"`
	Survival       float64 `csv:"survival" json:"survival"`
	Exploration    float64 `csv:"exploration" json:"exploration"`
	Movement       float64 `csv:"movement" json:"movement"`
	Proximity      float64 `csv:"proximity" json:"proximity"`
	PathEfficiency float64 `csv:"path_efficiency" json:"path_efficiency"`

	CollisionPenalty  float64 `csv:"collision_penalty" json:"collision_penalty"`
	StagnationPenalty float64 `csv:"stagnation_penalty" json:"stagnation_penalty"`
	IdlePenalty       float64 `csv:"idle_penalty" json:"idle_penalty"`

	Weights Weights `csv:"-" json:"-"`
	Gated   bool    `csv:"gated" json:"gated"`
	Total   float64 `csv:"total" json:"total"`
}

// Evaluator scores rollouts. Stateless apart from configuration; safe for
// concurrent use across worker goroutines.
type Evaluator struct {
	cfg      config.FitnessConfig
	cur      config.CurriculumConfig
	schedule Schedule
}

// NewEvaluator builds an evaluator. A nil schedule selects the one named in
// the curriculum config.
func NewEvaluator(cfg config.FitnessConfig, cur config.CurriculumConfig, schedule Schedule) *Evaluator {
	if schedule == nil {
		schedule = NewSchedule(cur)
	}
	return &Evaluator{cfg: cfg, cur: cur, schedule: schedule}
}

// Floor returns the configured fitness floor.
func (e *Evaluator) Floor() float64 { return e.cfg.Floor }

// GateThreshold returns the minimum distinct-cell count for the generation.
// It rises slowly so early random policies are not all gated at once.
func (e *Evaluator) GateThreshold(generation int) int {
	return e.cur.ActivityGateBase + int(e.cur.ActivityGateSlope*float64(generation)/50.0)
}

// Score computes (fitness, breakdown) for one completed rollout. Fitness is
// never below the configured floor. A trajectory under the activity gate
// short-circuits to the fixed degenerate value with every component zeroed,
// so stand-still policies are never scored component by component.
func (e *Evaluator) Score(a *agent.Agent, m *maze.Maze, ctx Context) (float64, Components) {
	if a == nil || len(a.Trajectory) == 0 {
		return e.cfg.Floor, Components{Total: e.cfg.Floor}
	}

	unique := a.UniqueCells()
	if unique < e.GateThreshold(ctx.Generation) {
		return e.cfg.DegenerateFitness, Components{Gated: true, Total: e.cfg.DegenerateFitness}
	}

	w := e.schedule.Weights(ctx)
	c := Components{Weights: w}

	c.Food = e.foodScore(a, m) * w.Food
	c.Survival = e.survivalScore(a.Steps) * w.Survival
	c.Exploration = e.explorationScore(a, m) * w.Explore
	c.Movement = e.movementScore(a) * w.Movement
	c.Proximity = e.proximityBonus(a, m, ctx.Generation) * w.Proximity
	c.PathEfficiency = e.pathEfficiencyBonus(a, m)

	c.CollisionPenalty = e.collisionPenalty(a)
	c.StagnationPenalty = e.stagnationPenalty(a, unique)
	c.IdlePenalty = e.idlePenalty(a)

	total := c.Food + c.Survival + c.Exploration + c.Movement + c.Proximity + c.PathEfficiency -
		c.CollisionPenalty - c.StagnationPenalty - c.IdlePenalty
	if total < e.cfg.Floor {
		total = e.cfg.Floor
	}
	c.Total = total
	return total, c
}

func (e *Evaluator) foodScore(a *agent.Agent, m *maze.Maze) float64 {
	score := float64(a.CollectedSmall)*e.cfg.SmallFoodScore + float64(a.CollectedBig)*e.cfg.BigFoodScore
	placed := len(m.Food)
	if placed == 0 {
		return score
	}
	if e.cfg.NormalizeFood {
		// Per-available-item average, comparable across food densities.
		score /= float64(placed)
	}
	collected := a.CollectedSmall + a.CollectedBig
	if e.cfg.CollectionBonus > 1 && float64(collected)/float64(placed) >= collectionBonusRate {
		score *= e.cfg.CollectionBonus
	}
	return score
}

func (e *Evaluator) survivalScore(steps int) float64 {
	if e.cfg.SurvivalTransform == "log" {
		return e.cfg.SurvivalPerTick * logSurvivalScale * math.Log1p(float64(steps))
	}
	return e.cfg.SurvivalPerTick * float64(steps)
}

func (e *Evaluator) explorationScore(a *agent.Agent, m *maze.Maze) float64 {
	switch e.cfg.ExplorationMode {
	case "coverage":
		walkable := len(m.WalkableCells())
		if walkable == 0 {
			return 0
		}
		return float64(a.UniqueCells()) / float64(walkable) * e.cfg.EntropyScale
	case "entropy":
		return e.blockEntropy(a, m) * e.cfg.EntropyScale
	default:
		return float64(a.UniqueCells()) * e.cfg.ExplorationPerCell
	}
}

// blockEntropy partitions the maze into square blocks, measures how evenly
// trajectory time is spread across them, and normalizes to [0, 1]. An agent
// circling one corner scores near zero however many cells it touches there.
func (e *Evaluator) blockEntropy(a *agent.Agent, m *maze.Maze) float64 {
	size := e.cfg.EntropyBlockSize
	if size < 1 {
		size = 1
	}
	bw := (m.Cols() + size - 1) / size
	bh := (m.Rows() + size - 1) / size
	blocks := bw * bh
	if blocks <= 1 {
		return 0
	}

	counts := make([]float64, blocks)
	for _, p := range a.Trajectory {
		bx, by := p.X/size, p.Y/size
		if bx >= 0 && bx < bw && by >= 0 && by < bh {
			counts[by*bw+bx]++
		}
	}
	total := float64(len(a.Trajectory))
	if total == 0 {
		return 0
	}
	for i := range counts {
		counts[i] /= total
	}
	return stat.Entropy(counts) / math.Log(float64(blocks))
}

func (e *Evaluator) movementScore(a *agent.Agent) float64 {
	if len(a.Trajectory) < 2 {
		return 0
	}
	seen := make(map[maze.Point]struct{}, 4)
	for i := 1; i < len(a.Trajectory); i++ {
		d := maze.Point{
			X: a.Trajectory[i].X - a.Trajectory[i-1].X,
			Y: a.Trajectory[i].Y - a.Trajectory[i-1].Y,
		}
		if d == (maze.Point{}) {
			continue
		}
		seen[d] = struct{}{}
	}
	return float64(len(seen)) * e.cfg.MovementPerDir
}

// proximityBonus rewards getting near food without eating any, only in early
// generations. Bootstraps gradient before the population discovers food.
func (e *Evaluator) proximityBonus(a *agent.Agent, m *maze.Maze, generation int) float64 {
	if generation >= e.cur.ProximityMaxGen {
		return 0
	}
	if a.CollectedSmall+a.CollectedBig > 0 {
		return 0
	}
	minDist := math.MaxInt
	for i := range m.Food {
		f := &m.Food[i]
		if f.Eaten {
			continue
		}
		for _, p := range a.Trajectory {
			if d := p.ManhattanTo(f.Pos); d < minDist {
				minDist = d
			}
		}
	}
	if minDist == math.MaxInt {
		return 0
	}
	return math.Max(0, proximityMax-proximityFalloff*float64(minDist))
}

// pathEfficiencyBonus compares an optimistic straight-line estimate (sum of
// start-to-food Manhattan distances over eaten items) against actual path
// length, squared to sharpen the reward for directness.
func (e *Evaluator) pathEfficiencyBonus(a *agent.Agent, m *maze.Maze) float64 {
	if !e.cfg.PathEfficiency || a.Steps == 0 {
		return 0
	}
	optimal := 0
	for i := range m.Food {
		if m.Food[i].Eaten {
			optimal += m.Start().ManhattanTo(m.Food[i].Pos)
		}
	}
	if optimal == 0 {
		return 0
	}
	ratio := math.Min(1, float64(optimal)/float64(a.Steps))
	return ratio * ratio * e.cfg.PathEfficiencyMax
}

// collisionPenalty charges a fixed cost per collision. With a positive decay
// the cost shrinks exponentially for collisions later in the run, so an agent
// is not punished as hard for clipping a wall at tick 580 as at tick 5.
func (e *Evaluator) collisionPenalty(a *agent.Agent) float64 {
	if e.cfg.CollisionDecay <= 0 || a.Steps == 0 {
		return float64(a.Collisions) * e.cfg.CollisionPenalty
	}
	total := 0.0
	for _, tick := range a.CollisionTicks {
		frac := float64(tick) / float64(a.Steps)
		total += e.cfg.CollisionPenalty * math.Exp(-e.cfg.CollisionDecay*frac)
	}
	return total
}

func (e *Evaluator) stagnationPenalty(a *agent.Agent, unique int) float64 {
	if len(a.Trajectory) <= 10 {
		return 0
	}
	diversity := float64(unique) / float64(len(a.Trajectory))
	switch {
	case diversity < diversityHarshRatio:
		return diversityHarshAmount
	case diversity < diversityMildRatio:
		return diversityMildAmount
	}
	return 0
}

// idlePenalty charges for the longest run of consecutive no-movement ticks.
func (e *Evaluator) idlePenalty(a *agent.Agent) float64 {
	if e.cfg.IdleRunPenalty <= 0 {
		return 0
	}
	longest, run := 0, 0
	for i := 1; i < len(a.Trajectory); i++ {
		if a.Trajectory[i] == a.Trajectory[i-1] {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return float64(longest) * e.cfg.IdleRunPenalty
}
