package lti

import (
	"fmt"
	"math"
	"math/cmplx"
)

// OriginTol is the magnitude at or below which a boundary zero or pole is
// treated as lying at the origin and dropped from the root list.
const OriginTol = 1e-8

const singularTol = 1e-12

// Sign selects the feedback polarity.
type Sign int

const (
	Negative Sign = -1
	Positive Sign = 1
)

// System is an immutable SISO rational transfer function num/den.
// A zero sample time denotes a continuous system in s; a positive one a
// discrete system in z.
type System struct {
	num Poly
	den Poly
	ts  float64
}

// New builds a continuous system, trimming both polynomials.
func New(num, den Poly) (System, error) {
	n := NewPoly(num...)
	d := NewPoly(den...)
	if d.IsZero() {
		return System{}, opError("construct", ErrInvalidSystem, "")
	}
	return System{num: n, den: d}, nil
}

// NewDiscrete builds a discrete system with sample time ts.
func NewDiscrete(num, den Poly, ts float64) (System, error) {
	if !(ts > 0) {
		return System{}, opError("construct", ErrInvalidSampleTime, fmt.Sprintf("ts=%g", ts))
	}
	sys, err := New(num, den)
	if err != nil {
		return System{}, err
	}
	sys.ts = ts
	return sys, nil
}

// FromZPK builds gain*prod(s - z)/prod(s - p) from real zeros and poles.
// Entries with magnitude at most OriginTol are dropped; an empty list yields
// the unity polynomial.
func FromZPK(zeros, poles []float64, gain float64) (System, error) {
	num := FromRealRoots(FilterOrigin(zeros)).Scale(gain)
	den := FromRealRoots(FilterOrigin(poles))
	return New(num, den)
}

// FilterOrigin drops values with magnitude at most OriginTol.
func FilterOrigin(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if math.Abs(v) > OriginTol {
			out = append(out, v)
		}
	}
	return out
}

// Unity is the identity system 1/1.
func Unity() System {
	return System{num: Poly{1}, den: Poly{1}}
}

func (s System) Num() Poly { return s.num.Clone() }
func (s System) Den() Poly { return s.den.Clone() }
func (s System) Ts() float64 { return s.ts }
func (s System) IsDiscrete() bool { return s.ts > 0 }

// Var is the transform variable, "s" or "z".
func (s System) Var() string {
	if s.IsDiscrete() {
		return "z"
	}
	return "s"
}

// IsProper reports deg(num) <= deg(den).
func (s System) IsProper() bool {
	return s.num.Degree() <= s.den.Degree()
}

// Series returns the cascade a*b. The sample time is taken from whichever
// operand is discrete.
func Series(a, b System) System {
	ts := a.ts
	if ts == 0 {
		ts = b.ts
	}
	return System{
		num: Mul(a.num, b.num),
		den: Mul(a.den, b.den),
		ts:  ts,
	}
}

// Feedback closes forward around path:
//
//	num = forward.num * path.den
//	den = forward.den * path.den - sign * forward.num * path.num
//
// so Negative yields forward/(1 + forward*path).
func Feedback(forward, path System, sign Sign) (System, error) {
	num := Mul(forward.num, path.den)
	den := Add(
		Mul(forward.den, path.den),
		Mul(forward.num, path.num).Scale(-float64(sign)),
	)
	if den.IsZero() {
		return System{}, opError("feedback", ErrInvalidSystem, "closed-loop denominator vanishes")
	}
	ts := forward.ts
	if ts == 0 {
		ts = path.ts
	}
	return System{num: num, den: den, ts: ts}, nil
}

// Gain scales the numerator by k.
func (s System) Gain(k float64) System {
	return System{num: s.num.Scale(k), den: s.den, ts: s.ts}
}

// Eval returns num(x)/den(x).
func (s System) Eval(x complex128) (complex128, error) {
	d := s.den.EvalComplex(x)
	scale := 1.0
	for _, c := range s.den {
		scale = math.Max(scale, math.Abs(c))
	}
	if cmplx.Abs(d) < singularTol*scale {
		return 0, opError("eval", ErrSingularEvaluation, fmt.Sprintf("x=%v", x))
	}
	return s.num.EvalComplex(x) / d, nil
}

// DCGain is the steady-state gain: G(0) for continuous systems, G(1) for discrete.
func (s System) DCGain() (float64, error) {
	x := complex(0, 0)
	if s.IsDiscrete() {
		x = 1
	}
	g, err := s.Eval(x)
	if err != nil {
		return math.Inf(1), err
	}
	return real(g), nil
}

func (s System) Zeros(rf RootFinder) ([]complex128, error) {
	if s.num.IsZero() {
		return nil, nil
	}
	return rf.Roots(s.num)
}

func (s System) Poles(rf RootFinder) ([]complex128, error) {
	return rf.Roots(s.den)
}

// Latex renders the system as a polynomial fraction.
func (s System) Latex() string {
	return Frac(RenderPolynomial(s.num, s.Var()), RenderPolynomial(s.den, s.Var()))
}

func (s System) String() string {
	return fmt.Sprintf("(%v)/(%v)", []float64(s.num), []float64(s.den))
}

// Characteristic is the unity-feedback closed-loop characteristic polynomial
// Dp*Dc + Np*Nc of a plant and a series controller.
func Characteristic(plant, controller System) Poly {
	return Add(Mul(plant.den, controller.den), Mul(plant.num, controller.num))
}
