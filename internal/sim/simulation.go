// Package sim provides the simulation container shared by all solvers:
// the timeline, preallocated result tensors, and output serialization.
package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/crnsim/internal/crn"
	"github.com/san-kum/crnsim/internal/propensity"
)

// Status records how a run ended.
type Status int

const (
	StatusOK Status = iota
	StatusIntegratorFailure
	StatusStepUnderflow
	StatusInterrupted
	StatusInvalidInput
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusIntegratorFailure:
		return "integrator failure"
	case StatusStepUnderflow:
		return "step underflow"
	case StatusInterrupted:
		return "interrupted"
	case StatusInvalidInput:
		return "invalid input"
	}
	return "unknown"
}

// Simulation carries everything one solver invocation needs: the model, a
// propensity evaluator, the reporting timeline, and the result tensors.
// Buffers are owned by the Simulation; solvers borrow them and write each
// cell at most once, so failed trajectories leave their tail cells zero.
type Simulation struct {
	Model     *crn.Model
	Evaluator propensity.Evaluator
	Kind      crn.SolverKind

	Timeline           []float64
	EndTime            float64
	NumberTimesteps    int
	NumberTrajectories int

	// Seed 0 requests a nondeterministic seed; anything else makes the
	// run reproducible. Trajectory i derives its own stream from Seed+i.
	Seed int64

	// Concentrations holds real-valued states, Populations integer
	// counts, and Modes the per-cell partition label (0 continuous,
	// 1 discrete).
	Concentrations *FloatGrid
	Populations    *IntGrid
	Modes          *IntGrid

	Status Status
	Err    error
}

// New builds a simulation with a uniform timeline over [0, duration] and
// allocates all result tensors.
func New(m *crn.Model, eval propensity.Evaluator, kind crn.SolverKind, duration float64, timesteps, trajectories int, seed int64) (*Simulation, error) {
	s := &Simulation{
		Model:              m,
		Evaluator:          eval,
		Kind:               kind,
		EndTime:            duration,
		NumberTimesteps:    timesteps,
		NumberTrajectories: trajectories,
		Seed:               seed,
	}
	if timesteps < 2 {
		return nil, fmt.Errorf("%w: need at least 2 timesteps, got %d", crn.ErrInvalidTimeline, timesteps)
	}
	if trajectories < 1 {
		return nil, fmt.Errorf("%w: need at least 1 trajectory, got %d", crn.ErrInvalidTimeline, trajectories)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %g", crn.ErrInvalidTimeline, duration)
	}

	s.Timeline = make([]float64, timesteps)
	dt := duration / float64(timesteps-1)
	for k := range s.Timeline {
		s.Timeline[k] = float64(k) * dt
	}
	s.Timeline[timesteps-1] = duration

	if err := s.Validate(); err != nil {
		return nil, err
	}

	n := m.NumSpecies()
	s.Concentrations = NewFloatGrid(trajectories, timesteps, n)
	s.Populations = NewIntGrid(trajectories, timesteps, n)
	s.Modes = NewIntGrid(trajectories, timesteps, n)
	return s, nil
}

// Increment is the uniform reporting interval.
func (s *Simulation) Increment() float64 {
	return s.Timeline[1] - s.Timeline[0]
}

// Validate checks the inputs that must hold before any trajectory runs.
func (s *Simulation) Validate() error {
	if s.Model == nil {
		return fmt.Errorf("%w: nil model", crn.ErrInvalidModel)
	}
	if s.NumberTimesteps < 2 || len(s.Timeline) != s.NumberTimesteps {
		return fmt.Errorf("%w: %d timesteps", crn.ErrInvalidTimeline, s.NumberTimesteps)
	}
	dt := s.Timeline[1] - s.Timeline[0]
	if dt <= 0 {
		return fmt.Errorf("%w: non-increasing timeline", crn.ErrInvalidTimeline)
	}
	for k := 1; k < len(s.Timeline); k++ {
		step := s.Timeline[k] - s.Timeline[k-1]
		if step <= 0 {
			return fmt.Errorf("%w: non-increasing at index %d", crn.ErrInvalidTimeline, k)
		}
		if math.Abs(step-dt) > 1e-9*dt {
			return fmt.Errorf("%w: uneven spacing at index %d", crn.ErrInvalidTimeline, k)
		}
	}
	for _, sp := range s.Model.Species {
		if sp.InitialPopulation < 0 {
			return fmt.Errorf("species %q: %w", sp.Name, crn.ErrNegativePopulation)
		}
	}
	return nil
}

// Fail records a terminal status; the first error wins.
func (s *Simulation) Fail(status Status, err error) {
	if s.Status == StatusOK {
		s.Status = status
		s.Err = err
	}
}
