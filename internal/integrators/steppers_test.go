package integrators

import (
	"math"
	"testing"
)

// harmonic oscillator: x'' = -x, energy (x² + v²)/2 conserved.
func oscillator(_ float64, y, dydt []float64) {
	dydt[0] = y[1]
	dydt[1] = -y[0]
}

func oscEnergy(y []float64) float64 {
	return 0.5 * (y[0]*y[0] + y[1]*y[1])
}

func TestRK4_EnergyConservation(t *testing.T) {
	integrator := NewRK4()
	y := []float64{1.0, 0.0}
	initialEnergy := oscEnergy(y)
	dt := 0.01

	for i := 0; i < 10000; i++ {
		y = integrator.Step(oscillator, float64(i)*dt, y, dt)
	}

	drift := math.Abs(oscEnergy(y)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("RK4 energy drift too high: %e", drift)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	y := []float64{1.0, 0.0}

	newY, newDt, err := integrator.StepAdaptive(oscillator, 0, y, 0.1, 1e-8)
	if err != nil {
		t.Errorf("StepAdaptive returned error: %v", err)
	}
	for _, v := range newY {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatal("StepAdaptive produced invalid state")
		}
	}
	if newDt <= 0 {
		t.Errorf("StepAdaptive returned invalid dt: %f", newDt)
	}
}

func TestEuler_VsRK4_Accuracy(t *testing.T) {
	euler := NewEuler()
	rk4 := NewRK4()
	yE := []float64{1.0, 0.0}
	yR := []float64{1.0, 0.0}
	dt := 0.05

	for i := 0; i < 200; i++ {
		yE = euler.Step(oscillator, float64(i)*dt, yE, dt)
		yR = rk4.Step(oscillator, float64(i)*dt, yR, dt)
	}

	t.Logf("euler final: [%.6f, %.6f]", yE[0], yE[1])
	t.Logf("rk4 final: [%.6f, %.6f]", yR[0], yR[1])

	if math.Abs(oscEnergy(yR)-0.5) > math.Abs(oscEnergy(yE)-0.5) {
		t.Error("RK4 should conserve energy better than Euler")
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	y := []float64{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		y = integrator.Step(oscillator, 0, y, 0.01)
	}
}

func BenchmarkBDF_Decay(b *testing.B) {
	f := func(_ float64, y, dydt []float64) {
		dydt[0] = -y[0]
	}
	y := make([]float64, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		solver := NewBDF(f, []float64{1}, 0, 1e-6, 1e-10)
		solver.Advance(1.0, y)
	}
}
