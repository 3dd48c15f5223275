package fitness

import (
	"math"
	"testing"

	"github.com/pthm-cable/forage/agent"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/maze"
)

func init() {
	config.MustInit("")
}

func newEvaluator(mutate func(*config.FitnessConfig, *config.CurriculumConfig)) *Evaluator {
	fc := config.Cfg().Fitness
	cc := config.Cfg().Curriculum
	if mutate != nil {
		mutate(&fc, &cc)
	}
	return NewEvaluator(fc, cc, nil)
}

func mustMaze(t *testing.T, layout []string) *maze.Maze {
	t.Helper()
	m, err := maze.New(layout, maze.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func runPath(t *testing.T, m *maze.Maze, actions ...agent.Action) *agent.Agent {
	t.Helper()
	a, err := agent.New(m, config.Cfg().Agent)
	if err != nil {
		t.Fatal(err)
	}
	for _, act := range actions {
		a.Step(act)
	}
	return a
}

func TestScoreFloorOnDegenerateInput(t *testing.T) {
	e := newEvaluator(nil)
	m := mustMaze(t, []string{"111", "1S1", "111"})

	fit, comps := e.Score(nil, m, Context{})
	if fit != config.Cfg().Fitness.Floor {
		t.Errorf("nil agent fitness = %v, want floor", fit)
	}
	if comps.Total != fit {
		t.Errorf("components total = %v, want %v", comps.Total, fit)
	}
}

func TestActivityGateShortCircuits(t *testing.T) {
	e := newEvaluator(nil)
	m := mustMaze(t, []string{
		"11111",
		"1S001",
		"11111",
	})
	// Two unique cells, below the base gate of three.
	a := runPath(t, m, agent.ActionRight, agent.ActionLeft, agent.ActionRight, agent.ActionLeft)

	fit, comps := e.Score(a, m, Context{Generation: 0})
	if fit != config.Cfg().Fitness.DegenerateFitness {
		t.Fatalf("gated fitness = %v, want %v", fit, config.Cfg().Fitness.DegenerateFitness)
	}
	if !comps.Gated {
		t.Error("components not marked gated")
	}
	if comps.Food != 0 || comps.Survival != 0 || comps.Exploration != 0 || comps.Movement != 0 {
		t.Errorf("gated score still carries components: %+v", comps)
	}
}

func TestGateThresholdRisesWithGeneration(t *testing.T) {
	e := newEvaluator(nil)
	if g0, g100 := e.GateThreshold(0), e.GateThreshold(100); g100 <= g0 {
		t.Errorf("gate threshold did not rise: gen0=%d gen100=%d", g0, g100)
	}
}

func TestComponentMathKnownTrajectory(t *testing.T) {
	e := newEvaluator(func(fc *config.FitnessConfig, cc *config.CurriculumConfig) {
		fc.IdleRunPenalty = 0
		fc.CollectionBonus = 1
		cc.Schedule = "phased"
		cc.ProximityMaxGen = 0
	})
	m := mustMaze(t, []string{
		"111111",
		"1S0s01",
		"100001",
		"111111",
	})
	// Right, right (eat small), down, left: 5 unique cells, 3 distinct
	// directions, no collisions.
	a := runPath(t, m, agent.ActionRight, agent.ActionRight, agent.ActionDown, agent.ActionLeft)

	fit, comps := e.Score(a, m, Context{Generation: 0})

	// Phase 1 weights: food 2.0, survival 0.5, explore 1.0, movement 0.5.
	if want := 50.0 * 2.0; comps.Food != want {
		t.Errorf("food = %v, want %v", comps.Food, want)
	}
	if want := 4 * 0.5 * 0.5; comps.Survival != want {
		t.Errorf("survival = %v, want %v", comps.Survival, want)
	}
	if want := 5 * 2.0 * 1.0; comps.Exploration != want {
		t.Errorf("exploration = %v, want %v", comps.Exploration, want)
	}
	if want := 3 * 10.0 * 0.5; comps.Movement != want {
		t.Errorf("movement = %v, want %v", comps.Movement, want)
	}
	if comps.CollisionPenalty != 0 || comps.StagnationPenalty != 0 {
		t.Errorf("unexpected penalties: %+v", comps)
	}
	want := comps.Food + comps.Survival + comps.Exploration + comps.Movement
	if math.Abs(fit-want) > 1e-9 {
		t.Errorf("fitness = %v, want %v", fit, want)
	}
}

func TestCollisionPenaltyAndDecay(t *testing.T) {
	m := mustMaze(t, []string{
		"111111",
		"1S0001",
		"111111",
	})
	// Walk right then bang the wall repeatedly.
	a := runPath(t, m,
		agent.ActionRight, agent.ActionRight, agent.ActionRight,
		agent.ActionRight, agent.ActionRight, agent.ActionRight)
	if a.Collisions != 3 {
		t.Fatalf("collisions = %d, want 3", a.Collisions)
	}

	flat := newEvaluator(func(fc *config.FitnessConfig, _ *config.CurriculumConfig) {
		fc.CollisionDecay = 0
	})
	_, flatComps := flat.Score(a, m, Context{Generation: 0})
	if want := 3 * 5.0; flatComps.CollisionPenalty != want {
		t.Errorf("flat collision penalty = %v, want %v", flatComps.CollisionPenalty, want)
	}

	decayed := newEvaluator(func(fc *config.FitnessConfig, _ *config.CurriculumConfig) {
		fc.CollisionDecay = 2.0
	})
	_, decComps := decayed.Score(a, m, Context{Generation: 0})
	if decComps.CollisionPenalty >= flatComps.CollisionPenalty {
		t.Errorf("decayed penalty %v not below flat %v", decComps.CollisionPenalty, flatComps.CollisionPenalty)
	}
	if decComps.CollisionPenalty <= 0 {
		t.Errorf("decayed penalty = %v, want positive", decComps.CollisionPenalty)
	}
}

func TestProximityBonusOnlyEarlyAndHungry(t *testing.T) {
	m := mustMaze(t, []string{
		"11111111",
		"1S0000B1",
		"10000001",
		"11111111",
	})
	// Approach the big food but stop two cells short, then wander away.
	a := runPath(t, m,
		agent.ActionRight, agent.ActionRight, agent.ActionRight,
		agent.ActionDown, agent.ActionLeft, agent.ActionLeft)

	e := newEvaluator(nil)
	_, early := e.Score(a, m, Context{Generation: 10})
	if early.Proximity <= 0 {
		t.Errorf("early-gen proximity = %v, want positive", early.Proximity)
	}

	_, late := e.Score(a, m, Context{Generation: 60})
	if late.Proximity != 0 {
		t.Errorf("late-gen proximity = %v, want 0", late.Proximity)
	}
}

func TestStagnationPenaltyTiers(t *testing.T) {
	e := newEvaluator(func(fc *config.FitnessConfig, cc *config.CurriculumConfig) {
		fc.IdleRunPenalty = 0
		cc.ActivityGateBase = 0
		cc.ActivityGateSlope = 0
	})
	m := mustMaze(t, []string{
		"1111",
		"1S01",
		"1111",
	})
	// 60 ticks over 2 cells: diversity 2/61 < 0.05 but > 0.02.
	actions := make([]agent.Action, 0, 60)
	for i := 0; i < 30; i++ {
		actions = append(actions, agent.ActionRight, agent.ActionLeft)
	}
	a := runPath(t, m, actions...)

	_, comps := e.Score(a, m, Context{Generation: 60})
	if comps.StagnationPenalty != diversityMildAmount {
		t.Errorf("penalty = %v, want %v", comps.StagnationPenalty, diversityMildAmount)
	}

	// 150 ticks over 2 cells: diversity 2/151 < 0.02.
	actions = actions[:0]
	for i := 0; i < 75; i++ {
		actions = append(actions, agent.ActionRight, agent.ActionLeft)
	}
	a = runPath(t, m, actions...)
	_, comps = e.Score(a, m, Context{Generation: 60})
	if comps.StagnationPenalty != diversityHarshAmount {
		t.Errorf("penalty = %v, want %v", comps.StagnationPenalty, diversityHarshAmount)
	}
}

func TestIdleRunPenalty(t *testing.T) {
	e := newEvaluator(func(fc *config.FitnessConfig, cc *config.CurriculumConfig) {
		fc.IdleRunPenalty = 1.0
		cc.ActivityGateBase = 0
		cc.ActivityGateSlope = 0
	})
	m := mustMaze(t, []string{
		"111111",
		"1S0001",
		"111111",
	})
	a := runPath(t, m,
		agent.ActionRight,
		agent.ActionStay, agent.ActionStay, agent.ActionStay,
		agent.ActionRight)

	_, comps := e.Score(a, m, Context{Generation: 60})
	if comps.IdlePenalty != 3.0 {
		t.Errorf("idle penalty = %v, want 3.0", comps.IdlePenalty)
	}
}

func TestEntropyExplorationPrefersSpread(t *testing.T) {
	e := newEvaluator(func(fc *config.FitnessConfig, cc *config.CurriculumConfig) {
		fc.ExplorationMode = "entropy"
		fc.EntropyBlockSize = 4
		cc.ActivityGateBase = 0
		cc.ActivityGateSlope = 0
	})
	m, err := maze.New(maze.OpenLayout(17, 17), maze.Options{})
	if err != nil {
		t.Fatal(err)
	}

	// Fixated: oscillate near the start.
	fixated := runPath(t, m.CloneWithFreshFood(),
		repeat(40, agent.ActionRight, agent.ActionLeft)...)

	// Roaming: sweep out and around.
	roaming := runPath(t, m.CloneWithFreshFood(),
		append(append(append(
			repeat(7, agent.ActionUp),
			repeat(7, agent.ActionLeft)...),
			repeat(14, agent.ActionDown)...),
			repeat(14, agent.ActionRight)...)...)

	_, fix := e.Score(fixated, m, Context{Generation: 60})
	_, roam := e.Score(roaming, m, Context{Generation: 60})
	if roam.Exploration <= fix.Exploration {
		t.Errorf("roaming entropy %v not above fixated %v", roam.Exploration, fix.Exploration)
	}
}

func repeat(n int, acts ...agent.Action) []agent.Action {
	out := make([]agent.Action, 0, n*len(acts))
	for i := 0; i < n; i++ {
		out = append(out, acts...)
	}
	return out
}

func TestSigmoidWeightInvariants(t *testing.T) {
	s := &SigmoidSchedule{cfg: config.Cfg().Curriculum}
	prev := s.Weights(Context{Generation: 0})
	for gen := 1; gen <= 300; gen++ {
		w := s.Weights(Context{Generation: gen})
		if w.Explore > prev.Explore+1e-9 {
			t.Fatalf("explore weight rose at gen %d: %v -> %v", gen, prev.Explore, w.Explore)
		}
		if w.Food < prev.Food-1e-9 {
			t.Fatalf("food weight fell at gen %d: %v -> %v", gen, prev.Food, w.Food)
		}
		if w.Survival > prev.Survival+1e-9 {
			t.Fatalf("survival weight rose at gen %d: %v -> %v", gen, prev.Survival, w.Survival)
		}
		for _, v := range []float64{w.Food, w.Survival, w.Explore, w.Movement} {
			if v < config.Cfg().Curriculum.WeightEpsilon {
				t.Fatalf("weight below epsilon at gen %d: %+v", gen, w)
			}
		}
		if w.Proximity < 0 {
			t.Fatalf("negative proximity weight at gen %d", gen)
		}
		prev = w
	}
	if prev.Proximity > 0.01 {
		t.Errorf("proximity weight did not fade out: %v", prev.Proximity)
	}
}

func TestPhasedScheduleAdvancesOnStats(t *testing.T) {
	s := &PhasedSchedule{cfg: config.Cfg().Curriculum}

	w := s.Weights(Context{Generation: 10})
	if w.Food != 2.0 {
		t.Errorf("phase 1 food weight = %v, want 2.0", w.Food)
	}

	w = s.Weights(Context{Generation: 10, Stats: &PopulationStats{AvgFood: 3.0}})
	if w.Food != 3.0 {
		t.Errorf("stats-advanced food weight = %v, want 3.0", w.Food)
	}

	w = s.Weights(Context{Generation: 250})
	if w.Food != 4.0 {
		t.Errorf("phase 3 food weight = %v, want 4.0", w.Food)
	}
}
