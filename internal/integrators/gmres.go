package integrators

import (
	"errors"
	"math"
)

// MatVec applies a linear operator: out = A*v.
type MatVec func(v, out []float64)

// GMRES solves Ax = b for a square operator given only matrix-vector
// products, using restarted Arnoldi iteration with Givens rotations.
// No preconditioning is applied.
type GMRES struct {
	restart int
	maxIter int
	tol     float64

	// Krylov basis and Hessenberg factorization, reused across solves.
	v  [][]float64
	h  [][]float64
	cs []float64
	sn []float64
	g  []float64
	w  []float64
}

// NewGMRES sizes the solver for n-dimensional systems. restart bounds the
// Krylov subspace dimension per cycle; tol is the relative residual target.
func NewGMRES(n, restart int, tol float64) *GMRES {
	if restart > n {
		restart = n
	}
	if restart < 1 {
		restart = 1
	}
	m := restart
	g := &GMRES{
		restart: m,
		maxIter: 4 * n,
		tol:     tol,
		v:       make([][]float64, m+1),
		h:       make([][]float64, m+1),
		cs:      make([]float64, m),
		sn:      make([]float64, m),
		g:       make([]float64, m+1),
		w:       make([]float64, n),
	}
	for i := range g.v {
		g.v[i] = make([]float64, n)
		g.h[i] = make([]float64, m)
	}
	return g
}

var errNoConvergence = errors.New("integrators: gmres failed to converge")

// Solve computes x such that ||b - Ax|| <= tol*||b||, updating x in place
// (the incoming x is the initial guess). Returns the iteration count.
func (s *GMRES) Solve(apply MatVec, b, x []float64) (int, error) {
	n := len(b)
	bnorm := norm2(b)
	if bnorm == 0 {
		for i := range x {
			x[i] = 0
		}
		return 0, nil
	}
	target := s.tol * bnorm

	total := 0
	for total < s.maxIter {
		// r0 = b - A*x
		apply(x, s.w)
		for i := 0; i < n; i++ {
			s.v[0][i] = b[i] - s.w[i]
		}
		beta := norm2(s.v[0])
		if beta <= target {
			return total, nil
		}
		for i := 0; i < n; i++ {
			s.v[0][i] /= beta
		}

		for i := range s.g {
			s.g[i] = 0
		}
		s.g[0] = beta

		k := 0
		for ; k < s.restart && total < s.maxIter; k++ {
			total++

			// Arnoldi step with modified Gram-Schmidt.
			apply(s.v[k], s.w)
			for j := 0; j <= k; j++ {
				dot := 0.0
				for i := 0; i < n; i++ {
					dot += s.w[i] * s.v[j][i]
				}
				s.h[j][k] = dot
				for i := 0; i < n; i++ {
					s.w[i] -= dot * s.v[j][i]
				}
			}
			s.h[k+1][k] = norm2(s.w)
			if s.h[k+1][k] > 0 {
				for i := 0; i < n; i++ {
					s.v[k+1][i] = s.w[i] / s.h[k+1][k]
				}
			}

			// Apply previous Givens rotations to the new column.
			for j := 0; j < k; j++ {
				hjk := s.cs[j]*s.h[j][k] + s.sn[j]*s.h[j+1][k]
				s.h[j+1][k] = -s.sn[j]*s.h[j][k] + s.cs[j]*s.h[j+1][k]
				s.h[j][k] = hjk
			}

			// New rotation annihilating the subdiagonal.
			denom := math.Hypot(s.h[k][k], s.h[k+1][k])
			if denom == 0 {
				s.cs[k], s.sn[k] = 1, 0
			} else {
				s.cs[k] = s.h[k][k] / denom
				s.sn[k] = s.h[k+1][k] / denom
			}
			s.h[k][k] = s.cs[k]*s.h[k][k] + s.sn[k]*s.h[k+1][k]
			s.h[k+1][k] = 0

			s.g[k+1] = -s.sn[k] * s.g[k]
			s.g[k] = s.cs[k] * s.g[k]

			if math.Abs(s.g[k+1]) <= target {
				k++
				break
			}
		}

		// Back-substitute y from the triangularized system and update x.
		y := make([]float64, k)
		for i := k - 1; i >= 0; i-- {
			sum := s.g[i]
			for j := i + 1; j < k; j++ {
				sum -= s.h[i][j] * y[j]
			}
			if s.h[i][i] != 0 {
				y[i] = sum / s.h[i][i]
			}
		}
		for j := 0; j < k; j++ {
			for i := 0; i < n; i++ {
				x[i] += y[j] * s.v[j][i]
			}
		}

		if math.Abs(s.g[k]) <= target {
			return total, nil
		}
	}
	return total, errNoConvergence
}
