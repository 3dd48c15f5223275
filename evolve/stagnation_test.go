package evolve

import (
	"testing"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/neural"
)

func init() {
	config.MustInit("")
}

// driveConstant feeds n generations of identical best fitness, returning the
// last directive. The first stagnant verdict arrives at the 30th observation,
// so the counter afterwards is n-29.
func driveConstant(m *StagnationMonitor, n int) Directive {
	var d Directive
	for gen := 0; gen < n; gen++ {
		d = m.Observe(gen, 100.0)
	}
	return d
}

func TestStagnationTiers(t *testing.T) {
	tests := []struct {
		name    string
		gens    int
		counter int
		want    Tier
	}{
		{"one stagnant generation is mild", 30, 1, TierMild},
		{"ten stagnant generations are moderate", 39, 10, TierModerate},
		{"twenty-five stagnant generations are severe", 54, 25, TierSevere},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStagnationMonitor(config.Cfg().Stagnation)
			d := driveConstant(m, tt.gens)
			if !d.Stagnant {
				t.Fatal("expected stagnant directive")
			}
			if d.Tier != tt.want {
				t.Errorf("tier = %v, want %v", d.Tier, tt.want)
			}
			if d.Counter != tt.counter {
				t.Errorf("counter = %d, want %d", d.Counter, tt.counter)
			}
			if (d.Tier == TierSevere) != d.InjectDiversity {
				t.Errorf("injection flag = %v at tier %v", d.InjectDiversity, d.Tier)
			}
		})
	}
}

func TestImprovementResetsCounter(t *testing.T) {
	m := NewStagnationMonitor(config.Cfg().Stagnation)
	driveConstant(m, 34)
	if m.Counter() != 5 {
		t.Fatalf("counter = %d, want 5", m.Counter())
	}

	// A recent best more than 2% above the historical best clears stagnation.
	d := m.Observe(34, 1000.0)
	if d.Stagnant {
		t.Error("improvement still reported stagnant")
	}
	if d.Counter != 0 || m.Counter() != 0 {
		t.Errorf("counter = %d, want 0 after improvement", d.Counter)
	}
	if d.Tier != TierNone {
		t.Errorf("tier = %v, want none", d.Tier)
	}
}

func TestWarmupSuppressesDirectives(t *testing.T) {
	m := NewStagnationMonitor(config.Cfg().Stagnation)
	var d Directive
	for gen := 0; gen < 19; gen++ {
		d = m.Observe(gen, 1.0)
	}
	if d.Stagnant || d.Tier != TierNone || d.Scale != 1.0 {
		t.Errorf("warmup directive = %+v, want neutral", d)
	}
	if len(m.History()) != 19 {
		t.Errorf("history len = %d, want 19 recorded during warmup", len(m.History()))
	}
}

func TestShortHistoryNotStagnant(t *testing.T) {
	m := NewStagnationMonitor(config.Cfg().Stagnation)
	var d Directive
	for gen := 0; gen < 25; gen++ {
		d = m.Observe(gen, 5.0)
	}
	// Past warmup but under the 30-generation history minimum.
	if d.Stagnant {
		t.Error("stagnant with insufficient history")
	}
}

func TestApplyScalesWithCaps(t *testing.T) {
	m := NewStagnationMonitor(config.Cfg().Stagnation)
	opts := neural.DefaultNEATOptions()

	d := Directive{Tier: TierSevere, Scale: config.Cfg().Stagnation.SevereScale}
	for i := 0; i < 20; i++ {
		m.Apply(d, opts)
	}
	if opts.MutateAddLinkProb != addLinkCap {
		t.Errorf("add-link prob = %v, want capped at %v", opts.MutateAddLinkProb, addLinkCap)
	}
	if opts.MutateAddNodeProb != addNodeCap {
		t.Errorf("add-node prob = %v, want capped at %v", opts.MutateAddNodeProb, addNodeCap)
	}
	if opts.WeightMutPower != weightPowCap {
		t.Errorf("weight power = %v, want capped at %v", opts.WeightMutPower, weightPowCap)
	}
}

func TestApplyExploitRespectsFloors(t *testing.T) {
	m := NewStagnationMonitor(config.Cfg().Stagnation)
	opts := neural.DefaultNEATOptions()

	d := Directive{Exploit: true, Scale: 1.0}
	for i := 0; i < 200; i++ {
		m.Apply(d, opts)
	}
	if opts.MutateAddLinkProb != addLinkFloor {
		t.Errorf("add-link prob = %v, want floored at %v", opts.MutateAddLinkProb, addLinkFloor)
	}
	if opts.MutateAddNodeProb != addNodeFloor {
		t.Errorf("add-node prob = %v, want floored at %v", opts.MutateAddNodeProb, addNodeFloor)
	}
	if opts.WeightMutPower != weightPowFloor {
		t.Errorf("weight power = %v, want floored at %v", opts.WeightMutPower, weightPowFloor)
	}
}

func TestExploitationDetected(t *testing.T) {
	m := NewStagnationMonitor(config.Cfg().Stagnation)
	var d Directive
	gen := 0
	// Long steady history, then a sharp recent climb past generation 100.
	for ; gen <= 150; gen++ {
		d = m.Observe(gen, 100.0+float64(gen)*10.0)
	}
	if d.Stagnant {
		t.Fatal("improving history reported stagnant")
	}
	if !d.Exploit {
		t.Error("fast improvement after gen 100 did not trigger exploitation")
	}
}
