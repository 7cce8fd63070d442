package integrators

import "github.com/san-kum/tfsim/internal/timeresp"

// RK4 keeps no state between steps, so one value may be shared by
// concurrent simulations.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

// Step holds u constant over the step, so the stage evaluations differ only
// in state.
func (r *RK4) Step(ss *timeresp.StateSpace, x []float64, u, dt float64) []float64 {
	n := len(x)
	k1 := make([]float64, n)
	k2 := make([]float64, n)
	k3 := make([]float64, n)
	k4 := make([]float64, n)
	scratch := make([]float64, n)

	ss.Derivative(k1, x, u)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.5*k1[i]
	}
	ss.Derivative(k2, scratch, u)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.5*k2[i]
	}
	ss.Derivative(k3, scratch, u)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*k3[i]
	}
	ss.Derivative(k4, scratch, u)

	result := make([]float64, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return result
}
