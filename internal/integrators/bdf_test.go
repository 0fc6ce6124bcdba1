package integrators

import (
	"math"
	"testing"
)

func expDecay(t *testing.T) Func {
	t.Helper()
	return func(_ float64, y, dydt []float64) {
		dydt[0] = -y[0]
	}
}

func TestBDF_ExponentialDecay(t *testing.T) {
	b := NewBDF(expDecay(t), []float64{1000}, 0, 1e-6, 1e-10)

	y := make([]float64, 1)
	reached, st := b.Advance(5.0, y)
	if st != StatusOK {
		t.Fatalf("Advance status %v", st)
	}
	if reached != 5.0 {
		t.Fatalf("reached %g, want 5", reached)
	}

	want := 1000 * math.Exp(-5.0)
	if math.Abs(y[0]-want)/want > 1e-3 {
		t.Errorf("y(5) = %g, want %g", y[0], want)
	}
}

func TestBDF_StiffLinearSystem(t *testing.T) {
	// y1' = -1000 y1 + y2, y2' = -y2: widely separated timescales.
	f := func(_ float64, y, dydt []float64) {
		dydt[0] = -1000*y[0] + y[1]
		dydt[1] = -y[1]
	}
	b := NewBDF(f, []float64{1, 1}, 0, 1e-6, 1e-10)

	y := make([]float64, 2)
	_, st := b.Advance(2.0, y)
	if st != StatusOK {
		t.Fatalf("Advance status %v", st)
	}

	// Slow component dominates: y2 = exp(-t), y1 ~= y2/999.
	want2 := math.Exp(-2.0)
	if math.Abs(y[1]-want2)/want2 > 1e-3 {
		t.Errorf("y2(2) = %g, want %g", y[1], want2)
	}
	want1 := want2 / 999
	if math.Abs(y[0]-want1) > 1e-4 {
		t.Errorf("y1(2) = %g, want %g", y[0], want1)
	}

	stats := b.Stats()
	t.Logf("steps=%d rejected=%d evals=%d newton=%d krylov=%d",
		stats.Steps, stats.Rejected, stats.Evaluations, stats.NewtonIters, stats.KrylovIters)
}

func TestBDF_ConstantSolution(t *testing.T) {
	f := func(_ float64, y, dydt []float64) {
		for i := range dydt {
			dydt[i] = 0
		}
	}
	b := NewBDF(f, []float64{5, 7}, 0, 0, 0)

	y := make([]float64, 2)
	for _, target := range []float64{0.1, 1.0, 10.0} {
		if _, st := b.Advance(target, y); st != StatusOK {
			t.Fatalf("Advance(%g) status %v", target, st)
		}
		if y[0] != 5 || y[1] != 7 {
			t.Fatalf("constant solution drifted at t=%g: %v", target, y)
		}
	}
}

func TestBDF_SequentialTargets(t *testing.T) {
	b := NewBDF(expDecay(t), []float64{1}, 0, 1e-8, 1e-12)
	b.SetMaxStep(0.1)

	y := make([]float64, 1)
	for k := 1; k <= 10; k++ {
		target := float64(k) * 0.1
		reached, st := b.Advance(target, y)
		if st != StatusOK || reached != target {
			t.Fatalf("Advance(%g): reached %g status %v", target, reached, st)
		}
		want := math.Exp(-target)
		if math.Abs(y[0]-want) > 1e-4 {
			t.Errorf("y(%g) = %g, want %g", target, y[0], want)
		}
	}
}

func TestBDF_Reset(t *testing.T) {
	b := NewBDF(expDecay(t), []float64{1}, 0, 1e-6, 1e-12)

	y := make([]float64, 1)
	b.Advance(1.0, y)

	b.Reset(0, []float64{100})
	reached, st := b.Advance(1.0, y)
	if st != StatusOK || reached != 1.0 {
		t.Fatalf("post-reset Advance: reached %g status %v", reached, st)
	}
	want := 100 * math.Exp(-1.0)
	if math.Abs(y[0]-want)/want > 1e-3 {
		t.Errorf("y(1) after reset = %g, want %g", y[0], want)
	}
}

func TestBDF_DefaultTolerances(t *testing.T) {
	b := NewBDF(expDecay(t), []float64{1}, 0, 0, 0)
	if b.rtol != defaultRelTol || b.atol != defaultAbsTol {
		t.Errorf("defaults not applied: rtol=%g atol=%g", b.rtol, b.atol)
	}
}

func TestBDF_OrderRamp(t *testing.T) {
	b := NewBDF(expDecay(t), []float64{1}, 0, 1e-10, 1e-14)
	b.SetMaxStep(0.02)
	y := make([]float64, 1)
	b.Advance(1.0, y)
	if b.order < 2 {
		t.Errorf("order stayed at %d over a smooth solve", b.order)
	}
	if b.Stats().Steps < 50 {
		t.Errorf("expected at least 50 capped steps, got %d", b.Stats().Steps)
	}
}
