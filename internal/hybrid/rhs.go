package hybrid

import (
	"github.com/san-kum/crnsim/internal/crn"
	"github.com/san-kum/crnsim/internal/integrators"
	"github.com/san-kum/crnsim/internal/propensity"
)

// NewRHS builds the packed-state derivative for one trajectory. Each
// reaction's offset slot grows at the reaction's propensity, so the offset
// accumulates the integrated propensity between reports and its zero
// crossings count firings. Species slots accumulate the deterministic rate
// contribution p·ν, but only while the species is partitioned continuous;
// discrete-partitioned species change exclusively through counted firings.
//
// modes is read on every evaluation, so repartitioning a dynamic species
// takes effect immediately (the caller resets the integrator when that
// happens).
func NewRHS(m *crn.Model, eval propensity.Evaluator, modes []crn.Mode) integrators.Func {
	ns := m.NumSpecies()
	nr := m.NumReactions()
	return func(t float64, y, dydt []float64) {
		conc := y[:ns]

		for s := 0; s < ns; s++ {
			dydt[s] = 0
		}
		for r := 0; r < nr; r++ {
			p := eval.ODEEvaluate(r, conc)
			dydt[ns+r] = p
			for s, change := range m.Reactions[r].Change {
				if change == 0 || modes[s] == crn.Discrete {
					continue
				}
				dydt[s] += p * float64(change)
			}
		}
	}
}
