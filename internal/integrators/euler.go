package integrators

type Euler struct {
	dydt []float64
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(f Func, t float64, y []float64, dt float64) []float64 {
	n := len(y)
	if len(e.dydt) != n {
		e.dydt = make([]float64, n)
	}
	f(t, y, e.dydt)
	result := make([]float64, n)
	for i := range y {
		result[i] = y[i] + dt*e.dydt[i]
	}
	return result
}
