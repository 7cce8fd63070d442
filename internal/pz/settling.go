package pz

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/tfsim/internal/lti"
)

// ErrNoTarget indicates a desired settling time that is not positive and finite.
var ErrNoTarget = errors.New("pz: desired settling time must be positive and finite")

// Method names how a settling time was obtained.
type Method string

const (
	ClosedForm Method = "closed_form"
	Signal     Method = "signal"
)

// DefaultPct is the settling band as a fraction of the final value.
const DefaultPct = 0.05

// Estimate is a settling time with the method that produced it.
type Estimate struct {
	Value  float64 `json:"value"`
	Method Method  `json:"method"`
}

// SettlingCoefficient is C in ts = C/alpha for a real dominant group of the
// given multiplicity.
func SettlingCoefficient(multiplicity int) float64 {
	switch {
	case multiplicity >= 3:
		return 6.3
	case multiplicity == 2:
		return 4.8
	default:
		return 3.0
	}
}

// SettlingTime estimates the 5% settling time from the slowest pole group.
//
// The group is every pole whose real part lies within max(1e-3, 1e-2*alpha)
// of the least negative real part -alpha. A complex pole in the group gives
// 3/(zeta*wn); otherwise C/alpha with C from SettlingCoefficient. It reports
// false when there are no poles or any pole has a non-negative real part.
func SettlingTime(poles []complex128) (float64, bool) {
	if len(poles) == 0 {
		return 0, false
	}
	slowest := math.Inf(-1)
	for _, p := range poles {
		if real(p) >= -1e-12 {
			return 0, false
		}
		slowest = math.Max(slowest, real(p))
	}
	alpha := -slowest
	tol := math.Max(1e-3, 1e-2*alpha)

	m := 0
	for _, p := range poles {
		if math.Abs(real(p)-slowest) > tol {
			continue
		}
		if math.Abs(imag(p)) > 1e-8 {
			wn := cmplx.Abs(p)
			zeta := -real(p) / wn
			if wn <= 0 || zeta <= 0 {
				return 0, false
			}
			return 3.0 / (zeta * wn), true
		}
		m++
	}
	return SettlingCoefficient(m) / alpha, true
}

// SettlingTimeFromSignal measures when y last leaves the band pct*|y_final|
// around its final value, or pct*max|y| when the final value is near zero.
// It returns the time of the sample after the last excursion, or the final
// time if the signal never settles inside the window.
func SettlingTimeFromSignal(t, y []float64, pct float64) float64 {
	if len(t) == 0 || len(y) == 0 {
		return 0
	}
	final := y[len(y)-1]
	tol := pct * math.Abs(final)
	if math.Abs(final) <= 1e-8 {
		peak := 0.0
		for _, v := range y {
			peak = math.Max(peak, math.Abs(v))
		}
		tol = pct * peak
	}

	last := -1
	for i, v := range y {
		if math.Abs(v-final) > tol {
			last = i
		}
	}
	if last >= 0 && last+1 < len(t) {
		return t[last+1]
	}
	return t[len(t)-1]
}

// EstimateSettling prefers the pole-based closed form and falls back to
// measuring the step response signal.
func EstimateSettling(poles []complex128, t, y []float64) Estimate {
	if ts, ok := SettlingTime(poles); ok {
		return Estimate{Value: ts, Method: ClosedForm}
	}
	return Estimate{Value: SettlingTimeFromSignal(t, y, DefaultPct), Method: Signal}
}

// Allocation kinds for second-order targets.
const (
	SecondEqual    = "2nd_equal"
	SecondDistinct = "2nd_distinct"
)

// Desired is a target characteristic polynomial for pole placement.
type Desired struct {
	Poly  lti.Poly  `json:"poly"`
	Poles []float64 `json:"poles"`
}

// DesiredPolynomial returns the characteristic polynomial whose dominant
// dynamics settle in ts:
//
//	order 1:              s + P,           P = 3/ts
//	order 2, equal:       (s + P)^2,       P = 4.8/ts
//	order 2, distinct:    (s + a)(s + b),  a = (3 + 1.5/c)/ts, b = c*a, c = 1.5
//	order 3 and above:    (s + P)^3,       P = 6.3/ts
func DesiredPolynomial(ts float64, order int, kind string) (*Desired, error) {
	if !(ts > 1e-12) || math.IsInf(ts, 0) {
		return nil, fmt.Errorf("%w: ts=%g", ErrNoTarget, ts)
	}
	var poles []float64
	switch {
	case order <= 1:
		p := 3.0 / ts
		poles = []float64{-p}
	case order == 2 && kind == SecondDistinct:
		c := 1.5
		a := (3.0 + 1.5/c) / ts
		b := c * a
		d := &Desired{Poly: lti.Poly{1, a + b, a * b}, Poles: []float64{-a, -b}}
		return d, nil
	case order == 2:
		p := 4.8 / ts
		d := &Desired{Poly: lti.Poly{1, 2 * p, p * p}, Poles: []float64{-p, -p}}
		return d, nil
	default:
		p := 6.3 / ts
		poles = []float64{-p, -p, -p}
	}
	return &Desired{Poly: lti.FromRealRoots(poles), Poles: poles}, nil
}
