package integrators

import "math"

// Backward differentiation formula coefficients on a uniform grid:
// y_n = sum_j alpha[q-1][j]*y_{n-1-j} + h*beta[q-1]*f(t_n, y_n).
var (
	bdfAlpha = [][]float64{
		{1},
		{4.0 / 3.0, -1.0 / 3.0},
		{18.0 / 11.0, -9.0 / 11.0, 2.0 / 11.0},
		{48.0 / 25.0, -36.0 / 25.0, 16.0 / 25.0, -3.0 / 25.0},
		{300.0 / 137.0, -300.0 / 137.0, 200.0 / 137.0, -75.0 / 137.0, 12.0 / 137.0},
	}
	bdfBeta = []float64{1, 2.0 / 3.0, 6.0 / 11.0, 12.0 / 25.0, 60.0 / 137.0}
)

const (
	bdfMaxOrder    = 5
	bdfMaxNewton   = 10
	bdfMaxRetries  = 25
	bdfMaxSteps    = 100000
	bdfNewtonTol   = 0.33
	bdfKrylovTol   = 0.05
	bdfGrowThresh  = 0.01
	defaultRelTol  = 1e-5
	defaultAbsTol  = 1e-12
	machineEpsilon = 2.220446049250313e-16
)

// BDF is a stiff initial-value integrator: variable order (1-5) backward
// differentiation with Newton iteration and a matrix-free Krylov linear
// solver. Jacobian-vector products are formed by directional differencing,
// so only the right-hand side function is required.
//
// A BDF advances a single trajectory; it is not safe for concurrent use.
type BDF struct {
	f    Func
	n    int
	rtol float64
	atol float64

	t       float64
	h       float64
	maxStep float64
	order   int

	// hist[0] is the newest accepted solution (at time t); hist[j] lies j
	// uniform steps earlier. nhist counts valid entries.
	hist  [][]float64
	nhist int

	// Derivatives at the two newest accepted points, for dense output.
	fCur     []float64
	fPrev    []float64
	tPrev    float64
	havePrev bool

	lin *GMRES

	ynew    []float64
	resid   []float64
	delta   []float64
	rhs0    []float64
	fy      []float64
	scratch []float64

	stats Statistics
}

// NewBDF creates an integrator positioned at (t0, y0). Non-positive
// tolerances fall back to the defaults (rtol 1e-5, atol 1e-12).
func NewBDF(f Func, y0 []float64, t0, rtol, atol float64) *BDF {
	if rtol <= 0 {
		rtol = defaultRelTol
	}
	if atol <= 0 {
		atol = defaultAbsTol
	}
	n := len(y0)
	b := &BDF{
		f:       f,
		n:       n,
		rtol:    rtol,
		atol:    atol,
		hist:    make([][]float64, bdfMaxOrder+2),
		fCur:    make([]float64, n),
		fPrev:   make([]float64, n),
		lin:     NewGMRES(n, 30, bdfKrylovTol),
		ynew:    make([]float64, n),
		resid:   make([]float64, n),
		delta:   make([]float64, n),
		rhs0:    make([]float64, n),
		fy:      make([]float64, n),
		scratch: make([]float64, n),
	}
	for i := range b.hist {
		b.hist[i] = make([]float64, n)
	}
	b.Reset(t0, y0)
	return b
}

// Reset reinitializes the solver memory at the given time and state,
// discarding all step history. Used after the caller rewrites the state
// vector mid-integration.
func (b *BDF) Reset(t float64, y []float64) {
	b.t = t
	copy(b.hist[0], y)
	b.nhist = 1
	b.order = 1
	b.h = 0
	b.havePrev = false
	b.f(t, b.hist[0], b.fCur)
	b.stats.Evaluations++
	b.stats.CurrentTime = t
}

// Stats returns accumulated work counters.
func (b *BDF) Stats() Statistics { return b.stats }

// SetMaxStep bounds the internal step size. Callers sampling on a uniform
// grid should set this to the grid spacing so that dense output always
// brackets the next sample point.
func (b *BDF) SetMaxStep(h float64) {
	b.maxStep = h
	if h > 0 && b.h > h {
		b.h = h
	}
}

// Advance integrates until the first internal point at or beyond tTarget
// and fills yOut with the solution interpolated to exactly tTarget. On a
// non-OK status the integration stopped early and yOut holds the last
// accepted state.
func (b *BDF) Advance(tTarget float64, yOut []float64) (float64, Status) {
	if tTarget <= b.t {
		b.interpolate(tTarget, yOut)
		return tTarget, StatusOK
	}

	for steps := 0; b.t < tTarget; steps++ {
		if steps >= bdfMaxSteps {
			copy(yOut, b.hist[0])
			return b.t, StatusFatal
		}
		if b.h <= 0 {
			b.h = b.initialStep(tTarget)
		}
		if st := b.step(); st != StatusOK {
			copy(yOut, b.hist[0])
			return b.t, st
		}
	}

	b.interpolate(tTarget, yOut)
	return tTarget, StatusOK
}

// step takes one internal step, shrinking h and restarting at order 1
// until the Newton iteration converges and the error test passes.
func (b *BDF) step() Status {
	for try := 0; try < bdfMaxRetries; try++ {
		if b.attempt() {
			return StatusOK
		}
		b.stats.Rejected++
		b.h *= 0.5
		b.order = 1
		b.nhist = 1
		if b.h < b.minStep() {
			return StatusFatal
		}
	}
	return StatusFatal
}

func (b *BDF) minStep() float64 {
	return 100 * machineEpsilon * math.Max(math.Abs(b.t), 1)
}

func (b *BDF) initialStep(tTarget float64) float64 {
	h0 := (tTarget - b.t) / 100
	fn := norm2(b.fCur)
	if fn > 0 {
		yn := norm2(b.hist[0])
		h0 = math.Min(h0, 0.1*(1+yn)/fn)
	}
	if b.maxStep > 0 {
		h0 = math.Min(h0, b.maxStep)
	}
	return math.Max(h0, b.minStep())
}

// attempt runs one Newton solve and error test at the current (h, order).
func (b *BDF) attempt() bool {
	q := b.order
	if q > b.nhist {
		q = b.nhist
	}
	alpha, beta := bdfAlpha[q-1], bdfBeta[q-1]
	tNew := b.t + b.h
	hb := b.h * beta

	for i := 0; i < b.n; i++ {
		b.rhs0[i] = 0
	}
	for j := 0; j < q; j++ {
		for i := 0; i < b.n; i++ {
			b.rhs0[i] += alpha[j] * b.hist[j][i]
		}
	}

	// Predictor: linear extrapolation once two points exist.
	if b.nhist >= 2 {
		for i := 0; i < b.n; i++ {
			b.ynew[i] = 2*b.hist[0][i] - b.hist[1][i]
		}
	} else {
		copy(b.ynew, b.hist[0])
	}

	if !b.newtonSolve(tNew, hb) {
		return false
	}
	return b.errorTestAndCommit(q, tNew)
}

// newtonSolve iterates y <- y + delta with (I - h*beta*J) delta = -G(y),
// G(y) = y - h*beta*f(t,y) - rhs0. Returns false on divergence.
func (b *BDF) newtonSolve(tNew, hb float64) bool {
	lastNorm := math.Inf(1)
	for it := 0; it < bdfMaxNewton; it++ {
		b.stats.NewtonIters++
		b.f(tNew, b.ynew, b.fy)
		b.stats.Evaluations++

		for i := 0; i < b.n; i++ {
			b.resid[i] = -(b.ynew[i] - hb*b.fy[i] - b.rhs0[i])
		}

		for i := range b.delta {
			b.delta[i] = 0
		}
		iters, err := b.lin.Solve(b.jacobianOp(tNew, hb), b.resid, b.delta)
		b.stats.KrylovIters += iters
		if err != nil {
			return false
		}

		for i := 0; i < b.n; i++ {
			b.ynew[i] += b.delta[i]
		}

		norm := wrmsNorm(b.delta, b.ynew, b.rtol, b.atol)
		if norm < bdfNewtonTol {
			return true
		}
		if it > 0 && norm > 2*lastNorm {
			return false
		}
		lastNorm = norm
	}
	return false
}

// jacobianOp approximates v -> v - h*beta*J*v with one-sided differences
// around the current Newton iterate.
func (b *BDF) jacobianOp(tNew, hb float64) MatVec {
	return func(v, out []float64) {
		vn := norm2(v)
		if vn == 0 {
			copy(out, v)
			return
		}
		sigma := math.Sqrt(machineEpsilon) * (1 + norm2(b.ynew)) / vn
		for i := 0; i < b.n; i++ {
			b.scratch[i] = b.ynew[i] + sigma*v[i]
		}
		b.f(tNew, b.scratch, out)
		b.stats.Evaluations++
		for i := 0; i < b.n; i++ {
			out[i] = v[i] - hb*(out[i]-b.fy[i])/sigma
		}
	}
}

// errorTestAndCommit estimates the local error from the (q+1)-th finite
// difference of the solution history (or, while the history holds a single
// point, from the gap to an explicit Euler predictor); on acceptance it
// shifts the history and adapts order and step size.
func (b *BDF) errorTestAndCommit(q int, tNew float64) bool {
	errNorm := -1.0
	if b.nhist >= q+1 {
		diff := make([][]float64, q+2)
		diff[0] = append([]float64(nil), b.ynew...)
		for j := 0; j < q+1; j++ {
			diff[j+1] = b.hist[j]
		}
		est := differenceEstimate(diff)
		errNorm = wrmsNorm(est, b.ynew, b.rtol, b.atol) / float64(q+1)
	} else {
		// Single-point history (first step after a reset): compare the
		// corrector with the explicit Euler predictor instead.
		est := b.scratch
		for i := 0; i < b.n; i++ {
			est[i] = b.ynew[i] - b.hist[0][i] - b.h*b.fCur[i]
		}
		errNorm = wrmsNorm(est, b.ynew, b.rtol, b.atol) / 2
	}
	if errNorm > 1 {
		return false
	}

	// Shift history down and install the accepted point.
	last := b.hist[len(b.hist)-1]
	for j := len(b.hist) - 1; j > 0; j-- {
		b.hist[j] = b.hist[j-1]
	}
	b.hist[0] = last
	copy(b.hist[0], b.ynew)
	if b.nhist < len(b.hist) {
		b.nhist++
	}

	b.tPrev = b.t
	copy(b.fPrev, b.fCur)
	b.t = tNew
	b.f(tNew, b.hist[0], b.fCur)
	b.stats.Evaluations++
	b.havePrev = true

	b.stats.Steps++
	b.stats.LastStep = b.h
	b.stats.CurrentTime = b.t

	// Raise the order only once the history also covers its error estimate.
	if b.order < bdfMaxOrder && b.order+1 < b.nhist {
		b.order++
	} else if errNorm >= 0 && errNorm < bdfGrowThresh {
		// Very smooth solution: trade the accumulated history for a
		// doubled step.
		grown := 2 * b.h
		if b.maxStep > 0 && grown > b.maxStep {
			grown = b.maxStep
		}
		if grown > b.h {
			b.h = grown
			b.order = 1
			b.nhist = 1
		}
	}
	return true
}

// differenceEstimate reduces the point list to its highest-order forward
// difference in place.
func differenceEstimate(points [][]float64) []float64 {
	work := make([][]float64, len(points))
	work[0] = points[0]
	for j := 1; j < len(points); j++ {
		work[j] = append([]float64(nil), points[j]...)
	}
	m := len(work)
	for level := 0; level < m-1; level++ {
		for j := 0; j < m-1-level; j++ {
			for i := range work[j] {
				work[j][i] -= work[j+1][i]
			}
		}
	}
	return work[0]
}

// interpolate evaluates the solution at tau in (tPrev, t] with cubic
// Hermite interpolation on the bracketing step.
func (b *BDF) interpolate(tau float64, yOut []float64) {
	if !b.havePrev || tau >= b.t || tau <= b.tPrev {
		copy(yOut, b.hist[0])
		return
	}
	hh := b.t - b.tPrev
	s := (tau - b.tPrev) / hh
	s2, s3 := s*s, s*s*s
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2
	for i := 0; i < b.n; i++ {
		yOut[i] = h00*b.hist[1][i] + hh*h10*b.fPrev[i] + h01*b.hist[0][i] + hh*h11*b.fCur[i]
	}
}
