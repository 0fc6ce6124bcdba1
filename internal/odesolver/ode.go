// Package odesolver implements the deterministic solver: every species
// evolves as a continuous concentration under the reaction-rate equations.
package odesolver

import (
	"context"
	"fmt"

	"github.com/san-kum/crnsim/internal/crn"
	"github.com/san-kum/crnsim/internal/integrators"
	"github.com/san-kum/crnsim/internal/propensity"
	"github.com/san-kum/crnsim/internal/sim"
)

// Solver advances trajectories deterministically. Method selects the time
// stepper: "bdf" (default, stiff-safe) or one of the fixed-step explicit
// steppers "rk4" and "euler".
type Solver struct {
	Method string
	RelTol float64
	AbsTol float64
}

func New() *Solver {
	return &Solver{Method: "bdf"}
}

// NewRateRHS builds the reaction-rate equations dx/dt = sum_r nu_r a_r(x).
func NewRateRHS(m *crn.Model, eval propensity.Evaluator) integrators.Func {
	nr := m.NumReactions()
	return func(t float64, y, dydt []float64) {
		for s := range dydt {
			dydt[s] = 0
		}
		for r := 0; r < nr; r++ {
			p := eval.ODEEvaluate(r, y)
			for s, change := range m.Reactions[r].Change {
				if change != 0 {
					dydt[s] += p * float64(change)
				}
			}
		}
	}
}

// Solve integrates the rate equations and samples every timeline point.
// Trajectories are identical by construction but are still emitted
// per-trajectory so callers can treat all solvers uniformly.
func (d *Solver) Solve(ctx context.Context, s *sim.Simulation) error {
	if err := s.Validate(); err != nil {
		s.Fail(sim.StatusInvalidInput, err)
		return err
	}

	sim.InstallInterruptHandler()
	defer sim.ClearInterrupt()

	m := s.Model
	ns := m.NumSpecies()
	writer := sim.NewWriter(s)
	rhs := NewRateRHS(m, s.Evaluator)

	modes := make([]crn.Mode, ns)
	for i := range modes {
		modes[i] = crn.Continuous
	}

	y0 := make([]float64, ns)
	for i, pop := range m.InitialPopulations() {
		y0[i] = float64(pop)
	}

	state := make([]float64, ns)
	for traj := 0; traj < s.NumberTrajectories; traj++ {
		if sim.Interrupted() || ctx.Err() != nil {
			s.Fail(sim.StatusInterrupted, crn.ErrInterrupted)
			return s.Err
		}

		writer.EmitInitial(traj, modes)
		if err := d.integrate(s, writer, rhs, y0, state, traj, modes); err != nil {
			s.Fail(sim.StatusIntegratorFailure, &crn.TrajectoryError{Trajectory: traj, Wrapped: err})
			return s.Err
		}
	}
	return nil
}

func (d *Solver) integrate(s *sim.Simulation, writer *sim.Writer, rhs integrators.Func, y0, state []float64, traj int, modes []crn.Mode) error {
	switch d.Method {
	case "", "bdf":
		integ := integrators.NewBDF(rhs, y0, 0, d.RelTol, d.AbsTol)
		integ.SetMaxStep(s.Increment())
		for k := 1; k < s.NumberTimesteps; k++ {
			reached, status := integ.Advance(s.Timeline[k], state)
			if status != integrators.StatusOK {
				return fmt.Errorf("%w: %s at t=%.6g", crn.ErrIntegratorFailure, status, reached)
			}
			writer.Emit(traj, k, state, modes)
		}
		return nil
	case "rk4", "euler":
		var step func(f integrators.Func, t float64, y []float64, dt float64) []float64
		if d.Method == "rk4" {
			step = integrators.NewRK4().Step
		} else {
			step = integrators.NewEuler().Step
		}
		// Fixed substeps per reporting interval keep the explicit
		// steppers usable on moderately fast kinetics.
		const substeps = 16
		dt := s.Increment() / substeps
		copy(state, y0)
		for k := 1; k < s.NumberTimesteps; k++ {
			t := s.Timeline[k-1]
			for i := 0; i < substeps; i++ {
				state = step(rhs, t, state, dt)
				t += dt
			}
			writer.Emit(traj, k, state, modes)
		}
		return nil
	default:
		return fmt.Errorf("unknown ode method %q", d.Method)
	}
}
