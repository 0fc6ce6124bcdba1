// Package ssa implements the exact stochastic simulation algorithm
// (Gillespie direct method): one reaction fires at a time, with
// exponentially distributed waiting times.
package ssa

import (
	"context"
	"math/rand"
	"time"

	"github.com/san-kum/crnsim/internal/crn"
	"github.com/san-kum/crnsim/internal/sim"
)

// Solve runs every trajectory of the simulation with exact stochastic
// stepping. All species are treated as discrete populations.
func Solve(ctx context.Context, s *sim.Simulation) error {
	if err := s.Validate(); err != nil {
		s.Fail(sim.StatusInvalidInput, err)
		return err
	}

	sim.InstallInterruptHandler()
	defer sim.ClearInterrupt()

	seed := s.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	m := s.Model
	ns := m.NumSpecies()
	nr := m.NumReactions()
	writer := sim.NewWriter(s)

	modes := make([]crn.Mode, ns)
	for i := range modes {
		modes[i] = crn.Discrete
	}

	pops := make([]int, ns)
	state := make([]float64, ns)
	props := make([]float64, nr)

	for traj := 0; traj < s.NumberTrajectories; traj++ {
		if sim.Interrupted() || ctx.Err() != nil {
			s.Fail(sim.StatusInterrupted, crn.ErrInterrupted)
			return s.Err
		}

		rng := rand.New(rand.NewSource(seed + int64(traj)))
		copy(pops, m.InitialPopulations())
		writer.EmitInitial(traj, modes)

		t := 0.0
		saveIdx := 1
		for saveIdx < s.NumberTimesteps {
			if sim.Interrupted() || ctx.Err() != nil {
				s.Fail(sim.StatusInterrupted, crn.ErrInterrupted)
				return s.Err
			}

			total := 0.0
			for r := 0; r < nr; r++ {
				props[r] = s.Evaluator.Evaluate(r, pops)
				total += props[r]
			}

			if total <= 0 {
				// Absorbing state: the remaining samples repeat it.
				t = s.EndTime
			} else {
				t += rng.ExpFloat64() / total
			}

			for saveIdx < s.NumberTimesteps && s.Timeline[saveIdx] <= t {
				for i, p := range pops {
					state[i] = float64(p)
				}
				writer.Emit(traj, saveIdx, state, modes)
				saveIdx++
			}
			if saveIdx >= s.NumberTimesteps || total <= 0 {
				break
			}

			// Pick the firing channel proportionally to propensity.
			target := rng.Float64() * total
			r := 0
			for acc := props[0]; acc < target && r < nr-1; {
				r++
				acc += props[r]
			}
			for i, c := range m.Reactions[r].Change {
				pops[i] += c
			}
		}
	}
	return nil
}
