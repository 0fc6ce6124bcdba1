// Package hybrid implements the hybrid tau-leaping solver: species evolve
// as continuous concentrations under a stiff integrator while reaction
// firings are counted from randomized offsets carried in the same state
// vector.
package hybrid

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/crnsim/internal/crn"
	"github.com/san-kum/crnsim/internal/integrators"
	"github.com/san-kum/crnsim/internal/sim"
)

// DefaultTauTol is the default leap tolerance.
const DefaultTauTol = 0.03

// tauFloorFactor scales the reporting interval down to the smallest leap
// the driver will retry before giving up on a trajectory.
const tauFloorFactor = 1e-12

// Driver advances trajectories with the hybrid strategy. The zero value is
// not usable; construct with NewDriver.
type Driver struct {
	TauTol float64
	RelTol float64
	AbsTol float64
}

func NewDriver(tauTol float64) *Driver {
	if tauTol <= 0 {
		tauTol = DefaultTauTol
	}
	return &Driver{TauTol: tauTol}
}

// Solve runs every trajectory of the simulation. Trajectory-level failures
// (integrator breakdown, leap underflow) are recorded on the simulation and
// leave that trajectory's remaining cells at zero; the remaining
// trajectories still run. Interruption stops the whole run.
func Solve(ctx context.Context, s *sim.Simulation, tauTol float64) error {
	return NewDriver(tauTol).Solve(ctx, s)
}

func (d *Driver) Solve(ctx context.Context, s *sim.Simulation) error {
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

	writer := sim.NewWriter(s)

	for traj := 0; traj < s.NumberTrajectories; traj++ {
		if sim.Interrupted() || ctx.Err() != nil {
			s.Fail(sim.StatusInterrupted, crn.ErrInterrupted)
			return s.Err
		}

		rng := rand.New(rand.NewSource(seed + int64(traj)))
		if err := d.runTrajectory(ctx, s, writer, traj, rng); err != nil {
			terr := &crn.TrajectoryError{Trajectory: traj, Wrapped: err}
			switch {
			case err == crn.ErrInterrupted:
				s.Fail(sim.StatusInterrupted, terr)
				return s.Err
			case err == crn.ErrStepUnderflow:
				s.Fail(sim.StatusStepUnderflow, terr)
			default:
				s.Fail(sim.StatusIntegratorFailure, terr)
			}
		}
	}
	return nil
}

func (d *Driver) runTrajectory(ctx context.Context, s *sim.Simulation, writer *sim.Writer, traj int, rng *rand.Rand) error {
	m := s.Model
	ns, nr := m.NumSpecies(), m.NumReactions()
	delta := s.Increment()

	state := NewPackedState(ns, nr)
	state.Init(m.InitialPopulations(), rng)

	part := newPartitioner(m)
	writer.EmitInitial(traj, part.Modes())

	rhs := NewRHS(m, s.Evaluator, part.Modes())
	integ := integrators.NewBDF(rhs, state.Vector(), 0, d.RelTol, d.AbsTol)
	integ.SetMaxStep(delta)

	snapshot := make([]float64, ns+nr)
	advanced := make([]float64, ns+nr)
	popChanges := make([]int, ns)

	currentTime := 0.0
	tauStep := delta
	tauFloor := tauFloorFactor * delta
	saveIdx := 1
	emitTol := 1e-9 * delta

	for currentTime < s.EndTime {
		if ctx.Err() != nil || sim.Interrupted() {
			return crn.ErrInterrupted
		}

		nextTime := currentTime + tauStep
		if nextTime > s.EndTime {
			nextTime = s.EndTime
		}

		state.Snapshot(snapshot)

		reached, status := integ.Advance(nextTime, advanced)
		if status == integrators.StatusFatal {
			return fmt.Errorf("%w: stalled at t=%.6g", crn.ErrIntegratorFailure, reached)
		}
		copy(state.Vector(), advanced)

		rejected := clampConcentrations(state.Concentrations(), part.Modes())
		fired := false
		if !rejected {
			fired, rejected = reconcile(m, state, part.Modes(), popChanges, rng)
		}
		if rejected {
			// A firing (or the continuous drift itself) would have
			// driven a population negative: rewind and retry the
			// whole leap at half size.
			state.Restore(snapshot)
			integ.Reset(currentTime, state.Vector())
			tauStep *= 0.5
			if tauStep < tauFloor {
				return crn.ErrStepUnderflow
			}
			continue
		}

		currentTime = nextTime
		repartitioned := part.Observe(state.Concentrations())
		if fired || repartitioned {
			integ.Reset(currentTime, state.Vector())
		}

		interrupted := sim.Interrupted()
		for saveIdx < s.NumberTimesteps && s.Timeline[saveIdx] <= currentTime+emitTol {
			writer.Emit(traj, saveIdx, state.Concentrations(), part.Modes())
			saveIdx++
		}
		if interrupted {
			return crn.ErrInterrupted
		}
	}
	return nil
}

// clampConcentrations enforces the state invariants after an integration
// step: discrete populations snap back to the nearest integer (their
// derivative is zero, so any drift is roundoff), continuous species with a
// tiny tolerance undershoot truncate to zero, and anything below the slack
// rejects the leap.
func clampConcentrations(conc []float64, modes []crn.Mode) (rejected bool) {
	const slack = 1e-9
	for s, v := range conc {
		if modes[s] == crn.Discrete {
			conc[s] = math.Round(v)
			continue
		}
		if v >= 0 {
			continue
		}
		if v < -slack {
			return true
		}
		conc[s] = 0
	}
	return false
}

// reconcile counts the firings implied by each non-negative reaction
// offset and applies their stoichiometry to the discrete-partitioned
// species (continuous species already carry the reaction's flux through
// the integrated rate equations). Each counted firing draws a fresh ln(U)
// to pull the offset back down; the number of draws needed is the firing
// count. A firing that would turn any population negative rejects the
// whole leap; firings already applied for earlier reactions stay in the
// state, which the caller then restores from its snapshot.
func reconcile(m *crn.Model, state *PackedState, modes []crn.Mode, popChanges []int, rng *rand.Rand) (fired, rejected bool) {
	conc := state.Concentrations()
	offsets := state.Offsets()

	for r := range m.Reactions {
		rho := offsets[r]
		if rho < 0 {
			continue
		}

		for i := range popChanges {
			popChanges[i] = 0
		}

		change := m.Reactions[r].Change
		counted := false
		for rho >= 0 {
			for s, cs := range change {
				if cs == 0 || modes[s] != crn.Discrete {
					continue
				}
				popChanges[s] += cs
				if conc[s]+float64(popChanges[s]) < 0 {
					return fired, true
				}
			}
			rho += logUniform(rng)
			counted = true
		}

		for s, dp := range popChanges {
			if dp != 0 {
				conc[s] += float64(dp)
			}
		}
		if counted {
			// The offset was rewound, so the integrator's internal
			// view of the vector is stale either way.
			offsets[r] = rho
			fired = true
		}
	}
	return fired, false
}
