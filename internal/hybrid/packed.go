package hybrid

import (
	"math"
	"math/rand"
)

// PackedState is the unified integration vector for one trajectory:
//
//	[ --- concentrations --- | --- reaction offsets --- ]
//
// Indices [0, nSpecies) hold per-species state (real-valued even for
// discrete species, so the integrator sees a uniform vector). Indices
// [nSpecies, nSpecies+nReactions) hold the randomized firing offset of
// each reaction: initialized to ln(U) < 0, grown at the propensity rate
// during integration, and counted down again as firings are drawn.
type PackedState struct {
	data       []float64
	nSpecies   int
	nReactions int
}

func NewPackedState(nSpecies, nReactions int) *PackedState {
	return &PackedState{
		data:       make([]float64, nSpecies+nReactions),
		nSpecies:   nSpecies,
		nReactions: nReactions,
	}
}

// Vector exposes the full packed slice for the integrator.
func (p *PackedState) Vector() []float64 { return p.data }

// Concentrations is the species view of the vector.
func (p *PackedState) Concentrations() []float64 { return p.data[:p.nSpecies] }

// Offsets is the per-reaction view of the vector.
func (p *PackedState) Offsets() []float64 { return p.data[p.nSpecies:] }

// Init loads initial populations and draws a fresh negative offset for
// every reaction.
func (p *PackedState) Init(populations []int, rng *rand.Rand) {
	for i, pop := range populations {
		p.data[i] = float64(pop)
	}
	for r := 0; r < p.nReactions; r++ {
		p.data[p.nSpecies+r] = logUniform(rng)
	}
}

// Snapshot copies the vector into dst for later restoration.
func (p *PackedState) Snapshot(dst []float64) { copy(dst, p.data) }

// Restore reinstates a snapshot taken before a rejected step.
func (p *PackedState) Restore(src []float64) { copy(p.data, src) }

// logUniform returns ln(U) with U strictly inside (0,1). The open
// interval guarantees a strictly negative result, which the offset
// reconciliation loop relies on for termination.
func logUniform(rng *rand.Rand) float64 {
	for {
		u := rng.Float64()
		if u > 0 {
			return math.Log(u)
		}
	}
}
