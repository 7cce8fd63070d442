// Package integrators provides fixed-step and adaptive ODE integrators that
// simulate a transfer function through its canonical state-space realization.
//
// They are alternatives to the exact zero-order-hold simulator in timeresp
// and implement [timeresp.Simulator]:
//
//   - [Euler]: explicit first-order method
//   - [RK4]: classical fourth-order Runge-Kutta
//   - [RK45]: Dormand-Prince with embedded error control
//
// The input is held constant across each grid interval.
package integrators

import (
	"math"

	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/timeresp"
)

// DefaultMaxStep bounds the internal step of the fixed-step simulators.
const DefaultMaxStep = 1e-3

// Stepper advances the state of a realization by one step of length dt.
type Stepper interface {
	Step(ss *timeresp.StateSpace, x []float64, u, dt float64) []float64
}

// FixedStep drives a Stepper across a sample grid, sub-stepping each
// interval so no internal step exceeds MaxStep.
type FixedStep struct {
	Stepper Stepper
	MaxStep float64
}

func (f *FixedStep) Simulate(sys lti.System, t, u []float64) ([]float64, error) {
	ss, err := timeresp.Realize(sys)
	if err != nil {
		return nil, err
	}
	maxStep := f.MaxStep
	if maxStep <= 0 {
		maxStep = DefaultMaxStep
	}

	y := make([]float64, len(t))
	x := make([]float64, ss.Order())
	for k := range t {
		y[k] = ss.Output(x, u[k])
		if k == len(t)-1 {
			break
		}
		interval := t[k+1] - t[k]
		steps := int(math.Ceil(interval / maxStep))
		if steps < 1 {
			steps = 1
		}
		h := interval / float64(steps)
		for i := 0; i < steps; i++ {
			x = f.Stepper.Step(ss, x, u[k], h)
		}
	}
	return y, nil
}

func NewEulerSimulator(maxStep float64) *FixedStep {
	return &FixedStep{Stepper: NewEuler(), MaxStep: maxStep}
}

func NewRK4Simulator(maxStep float64) *FixedStep {
	return &FixedStep{Stepper: NewRK4(), MaxStep: maxStep}
}
