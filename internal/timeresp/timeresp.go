// Package timeresp simulates step and forced responses of transfer functions.
//
// Continuous systems are delegated to a [Simulator]; the default [ZOH] is exact
// for piecewise-constant input and [FOH] for piecewise-linear input. Discrete systems are run through their
// difference equation, one grid sample per period.
package timeresp

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/tfsim/internal/lti"
)

var (
	ErrGridMismatch = errors.New("timeresp: input length does not match time grid")
	ErrGridOrder    = errors.New("timeresp: time grid must be strictly increasing")
)

// Series is a sampled signal; T and Y have equal length.
type Series struct {
	T []float64 `json:"t"`
	Y []float64 `json:"y"`
}

// Final returns the last sample, or 0 for an empty series.
func (s *Series) Final() float64 {
	if len(s.Y) == 0 {
		return 0
	}
	return s.Y[len(s.Y)-1]
}

// Simulator computes the response of a continuous system to a sampled input.
type Simulator interface {
	Simulate(sys lti.System, t, u []float64) ([]float64, error)
}

// Step simulates the unit-step response. Improper systems fail with
// lti.ErrNonCausal.
func Step(sim Simulator, sys lti.System, t []float64) (*Series, error) {
	u := make([]float64, len(t))
	for i := range u {
		u[i] = 1
	}
	return Forced(sim, sys, t, u)
}

// Forced simulates the response to input u sampled on t.
func Forced(sim Simulator, sys lti.System, t, u []float64) (*Series, error) {
	if !sys.IsProper() {
		return nil, &lti.Error{Op: "simulate", Wrapped: lti.ErrNonCausal,
			Detail: fmt.Sprintf("deg num %d > deg den %d", sys.Num().Degree(), sys.Den().Degree())}
	}
	if err := checkGrid(t, u); err != nil {
		return nil, err
	}

	var (
		y   []float64
		err error
	)
	if sys.IsDiscrete() {
		y = difference(sys, u)
	} else {
		y, err = sim.Simulate(sys, t, u)
		if err != nil {
			return nil, err
		}
	}
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &lti.Error{Op: "simulate", Wrapped: lti.ErrNumericalFailure, Detail: "response diverged"}
		}
	}
	return &Series{T: append([]float64(nil), t...), Y: y}, nil
}

// PerturbedStep is a unit step whose amplitude increases by amp from tPerturb on.
func PerturbedStep(t []float64, tPerturb, amp float64) []float64 {
	u := make([]float64, len(t))
	for i, ti := range t {
		u[i] = 1
		if ti >= tPerturb {
			u[i] += amp
		}
	}
	return u
}

// StepWithPerturbation is Forced driven by PerturbedStep.
func StepWithPerturbation(sim Simulator, sys lti.System, t []float64, tPerturb, amp float64) (*Series, error) {
	return Forced(sim, sys, t, PerturbedStep(t, tPerturb, amp))
}

func checkGrid(t, u []float64) error {
	if len(t) != len(u) {
		return fmt.Errorf("%w: %d samples, %d inputs", ErrGridMismatch, len(t), len(u))
	}
	for i := 1; i < len(t); i++ {
		if !(t[i] > t[i-1]) {
			return fmt.Errorf("%w: t[%d]=%g after t[%d]=%g", ErrGridOrder, i, t[i], i-1, t[i-1])
		}
	}
	return nil
}

// difference runs den(z) y = num(z) u as a recurrence over the samples of u.
func difference(sys lti.System, u []float64) []float64 {
	den := sys.Den()
	n := len(den) - 1
	num := sys.Num()
	b := make([]float64, n+1)
	copy(b[n+1-len(num):], num)

	y := make([]float64, len(u))
	for k := range u {
		var acc float64
		for i := 0; i <= n && i <= k; i++ {
			acc += b[i] * u[k-i]
		}
		for i := 1; i <= n && i <= k; i++ {
			acc -= den[i] * y[k-i]
		}
		y[k] = acc / den[0]
	}
	return y
}

// Resample linearly interpolates s onto grid t, holding the end values
// outside the sampled range.
func Resample(s *Series, t []float64) *Series {
	out := &Series{T: append([]float64(nil), t...), Y: make([]float64, len(t))}
	if len(s.T) == 0 {
		return out
	}
	last := len(s.T) - 1
	j := 0
	for i, ti := range t {
		switch {
		case ti <= s.T[0]:
			out.Y[i] = s.Y[0]
		case ti >= s.T[last]:
			out.Y[i] = s.Y[last]
		default:
			if ti < s.T[j] {
				j = 0
			}
			for s.T[j+1] < ti {
				j++
			}
			frac := (ti - s.T[j]) / (s.T[j+1] - s.T[j])
			out.Y[i] = s.Y[j] + frac*(s.Y[j+1]-s.Y[j])
		}
	}
	return out
}

// Linspace returns n evenly spaced samples over [start, stop].
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

// Arange returns start, start+step, ... strictly below stop.
func Arange(start, stop, step float64) []float64 {
	if !(step > 0) || stop <= start {
		return nil
	}
	n := int(math.Ceil((stop-start)/step - 1e-9))
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
