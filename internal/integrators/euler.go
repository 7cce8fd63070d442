package integrators

import "github.com/san-kum/tfsim/internal/timeresp"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(ss *timeresp.StateSpace, x []float64, u, dt float64) []float64 {
	dx := make([]float64, len(x))
	ss.Derivative(dx, x, u)
	result := make([]float64, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
