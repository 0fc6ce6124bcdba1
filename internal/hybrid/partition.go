package hybrid

import (
	"math"

	"github.com/san-kum/crnsim/internal/crn"
)

// historyWindow is the number of recent reporting steps used to estimate
// a dynamic species' population statistics.
const historyWindow = 10

// partitioner chooses the effective representation of each species for the
// current reporting step. Species with a fixed user mode never move; a
// dynamic species is continuous while its population is large or its
// relative fluctuation small.
type partitioner struct {
	species []crn.Species
	modes   []crn.Mode

	hist  [][]float64
	count int
}

func newPartitioner(m *crn.Model) *partitioner {
	n := m.NumSpecies()
	p := &partitioner{
		species: m.Species,
		modes:   make([]crn.Mode, n),
		hist:    make([][]float64, n),
	}
	for s := range p.modes {
		p.modes[s] = m.Species[s].PartitionMode
		p.hist[s] = make([]float64, 0, historyWindow)
	}
	return p
}

// Modes returns the current per-species partition labels.
func (p *partitioner) Modes() []crn.Mode { return p.modes }

// Observe records the state at a reporting step and repartitions every
// dynamic species. It reports whether any partition changed, in which case
// the caller must reinitialize the integrator.
func (p *partitioner) Observe(state []float64) bool {
	p.count++
	for s := range p.hist {
		h := p.hist[s]
		if len(h) == historyWindow {
			copy(h, h[1:])
			h = h[:historyWindow-1]
		}
		p.hist[s] = append(h, state[s])
	}

	changed := false
	for s := range p.species {
		if p.species[s].UserMode != crn.Dynamic {
			continue
		}
		if next := p.classify(s); next != p.modes[s] {
			p.modes[s] = next
			changed = true
		}
	}
	return changed
}

func (p *partitioner) classify(s int) crn.Mode {
	h := p.hist[s]
	mean := 0.0
	for _, v := range h {
		mean += v
	}
	mean /= float64(len(h))

	sp := &p.species[s]
	if sp.SwitchMin > 0 {
		if mean >= float64(sp.SwitchMin) {
			return crn.Continuous
		}
		return crn.Discrete
	}

	if mean <= 0 {
		return crn.Discrete
	}
	variance := 0.0
	for _, v := range h {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(h))
	if math.Sqrt(variance)/mean <= sp.SwitchTol {
		return crn.Continuous
	}
	return crn.Discrete
}
