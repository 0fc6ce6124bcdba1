// Package integrators provides time steppers for reaction-rate equations.
//
// Explicit steppers ([Euler], [RK4], [RK45]) advance non-stiff systems with
// a caller-chosen step. The [BDF] integrator handles stiff kinetics with
// adaptive steps, variable order, and a matrix-free Krylov linear solver.
package integrators

import "math"

// Func evaluates the right-hand side of dy/dt = f(t, y), writing the
// derivative into dydt. The slices are never aliased.
type Func func(t float64, y, dydt []float64)

// Status reports the outcome of an integration call.
type Status int

const (
	// StatusOK means the requested time was reached.
	StatusOK Status = iota
	// StatusRecoverable means the step failed but a retry with different
	// state or a smaller interval may succeed.
	StatusRecoverable
	// StatusFatal means the integrator cannot continue from this state.
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRecoverable:
		return "recoverable"
	case StatusFatal:
		return "fatal"
	}
	return "unknown"
}

// Statistics accumulates solver work counters across an integrator's life.
type Statistics struct {
	Steps       int
	Rejected    int
	Evaluations int
	NewtonIters int
	KrylovIters int

	LastStep    float64
	CurrentTime float64
}

// wrmsNorm computes the weighted root-mean-square norm of v with weights
// 1/(atol + rtol*|y_i|). A value below 1 means v is within tolerance.
func wrmsNorm(v, y []float64, rtol, atol float64) float64 {
	sum := 0.0
	for i := range v {
		w := 1.0 / (atol + rtol*math.Abs(y[i]))
		sum += v[i] * w * v[i] * w
	}
	return math.Sqrt(sum / float64(len(v)))
}

func norm2(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
