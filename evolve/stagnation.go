// Package evolve holds the adaptive-pressure machinery around the NEAT
// engine: stagnation detection, mutation-rate scaling, and diversity
// injection.
package evolve

import (
	"github.com/yaricom/goNEAT/v4/neat"

	"github.com/pthm-cable/forage/config"
)

// Tier classifies how long the population's best fitness has been flat.
type Tier int

const (
	TierNone Tier = iota
	TierMild
	TierModerate
	TierSevere
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierMild:
		return "mild"
	case TierModerate:
		return "moderate"
	case TierSevere:
		return "severe"
	}
	return "none"
}

// Mutation-knob bounds. Scaling never pushes rates past the caps and
// exploitation never drops them below the floors.
const (
	addLinkCap   = 0.95
	addNodeCap   = 0.70
	weightPowCap = 2.5

	addLinkFloor   = 0.40
	addNodeFloor   = 0.15
	weightPowFloor = 0.70
)

// Directive is the monitor's verdict for one generation.
type Directive struct {
	Stagnant        bool
	Tier            Tier
	Counter         int
	Scale           float64 // multiplicative pressure on mutation knobs, 1.0 = none
	Exploit         bool    // fast recent progress: ease mutation off instead
	InjectDiversity bool
}

// StagnationMonitor tracks the best-fitness series across generations and
// emits mutation-pressure directives. Single-goroutine use by the trainer.
type StagnationMonitor struct {
	cfg     config.StagnationConfig
	history []float64
	counter int
}

// NewStagnationMonitor creates a monitor with empty history.
func NewStagnationMonitor(cfg config.StagnationConfig) *StagnationMonitor {
	return &StagnationMonitor{cfg: cfg}
}

// History returns the recorded best-fitness series.
func (m *StagnationMonitor) History() []float64 { return m.history }

// Counter returns the consecutive-stagnant-generation count.
func (m *StagnationMonitor) Counter() int { return m.counter }

// Observe appends this generation's best fitness and classifies the series.
// During warmup it records but never directs pressure changes.
func (m *StagnationMonitor) Observe(generation int, best float64) Directive {
	m.history = append(m.history, best)

	if generation < m.cfg.WarmupGenerations {
		return Directive{Scale: 1.0}
	}

	stagnant := m.detect()
	if stagnant {
		m.counter++
	} else {
		m.counter = 0
	}

	d := Directive{Stagnant: stagnant, Counter: m.counter, Scale: 1.0}
	switch {
	case m.counter >= m.cfg.SevereThreshold:
		d.Tier = TierSevere
		d.Scale = m.cfg.SevereScale
		d.InjectDiversity = true
	case m.counter >= m.cfg.ModerateThreshold:
		d.Tier = TierModerate
		d.Scale = m.cfg.ModerateScale
	case m.counter >= m.cfg.MildThreshold:
		d.Tier = TierMild
		d.Scale = m.cfg.MildScale
	default:
		d.Exploit = m.exploiting(generation)
	}
	return d
}

// detect compares the best of the last RecentWindow generations against the
// best of the MinHistory-RecentWindow generations before them. Less than the
// configured margin of improvement counts as stagnant.
func (m *StagnationMonitor) detect() bool {
	if len(m.history) < m.cfg.MinHistory {
		return false
	}
	recent := maxOf(m.history[len(m.history)-m.cfg.RecentWindow:])
	historical := maxOf(m.history[len(m.history)-m.cfg.MinHistory : len(m.history)-m.cfg.RecentWindow])
	return recent < historical*m.cfg.Margin
}

func (m *StagnationMonitor) exploiting(generation int) bool {
	if generation <= m.cfg.ExploitAfterGen {
		return false
	}
	if len(m.history) < m.cfg.RecentWindow {
		return false
	}
	improvement := m.history[len(m.history)-1] - m.history[len(m.history)-m.cfg.RecentWindow]
	return improvement > m.cfg.ExploitImprovement
}

// Apply rewrites the mutation knobs in place according to the directive.
// Stagnation scales them up toward hard caps; exploitation eases them down
// toward hard floors; a neutral directive leaves them untouched.
func (m *StagnationMonitor) Apply(d Directive, opts *neat.Options) {
	switch {
	case d.Tier != TierNone:
		opts.MutateAddLinkProb = minF(addLinkCap, opts.MutateAddLinkProb*d.Scale)
		opts.MutateAddNodeProb = minF(addNodeCap, opts.MutateAddNodeProb*d.Scale)
		opts.WeightMutPower = minF(weightPowCap, opts.WeightMutPower*d.Scale)
	case d.Exploit:
		opts.MutateAddLinkProb = maxF(addLinkFloor, opts.MutateAddLinkProb*m.cfg.ExploitScale)
		opts.MutateAddNodeProb = maxF(addNodeFloor, opts.MutateAddNodeProb*m.cfg.ExploitScale)
		opts.WeightMutPower = maxF(weightPowFloor, opts.WeightMutPower*m.cfg.ExploitScale)
	}
}

func maxOf(vals []float64) float64 {
	best := vals[0]
	for _, v := range vals[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
