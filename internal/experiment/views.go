package experiment

import (
	"fmt"

	"github.com/san-kum/tfsim/internal/locus"
	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/pfe"
	"github.com/san-kum/tfsim/internal/pz"
)

// SystemView is the displayable form of a transfer function.
type SystemView struct {
	Num        []float64 `json:"num"`
	Den        []float64 `json:"den"`
	Polynomial string    `json:"polynomial"`
	Factored   string    `json:"factored,omitempty"`
	Partial    string    `json:"partial"`
}

// ViewSystem renders sys as name(v) = num/den and its partial fractions.
func ViewSystem(name string, sys lti.System, rf lti.RootFinder) SystemView {
	v := sys.Var()
	lhs := fmt.Sprintf("%s(%s) = ", name, v)
	return SystemView{
		Num:        sys.Num(),
		Den:        sys.Den(),
		Polynomial: lhs + lti.Frac(lti.RenderPolynomial(sys.Num(), v), lti.RenderPolynomial(sys.Den(), v)),
		Partial:    lhs + pfe.RenderFraction(sys.Num(), sys.Den(), v, rf),
	}
}

// ViewZPK adds the factored form gain * prod(s - z) / prod(s - p).
func ViewZPK(name string, sys lti.System, zeros, poles []float64, gain float64, rf lti.RootFinder) SystemView {
	view := ViewSystem(name, sys, rf)
	view.Factored = fmt.Sprintf(`%s(s) = %.3g \cdot %s`, name, gain,
		lti.Frac(lti.RenderFactored(lti.FilterOrigin(zeros), "s"), lti.RenderFactored(lti.FilterOrigin(poles), "s")))
	return view
}

type RootView struct {
	lti.Complex
	Magnitude    float64 `json:"magnitude"`
	Multiplicity int     `json:"multiplicity"`
	Label        string  `json:"label"`
}

func ViewRoots(roots []pz.Root) []RootView {
	out := make([]RootView, len(roots))
	for i, r := range roots {
		c := lti.ToComplex(r.Value)
		out[i] = RootView{Complex: c, Magnitude: c.Abs(), Multiplicity: r.Multiplicity, Label: c.String()}
	}
	return out
}

type PoleZeroView struct {
	Zeros     []RootView    `json:"zeros"`
	Poles     []RootView    `json:"poles"`
	PlotPoles []lti.Complex `json:"plot_poles"`
	Den       []float64     `json:"den"`
}

func ViewPoleZero(set *pz.Set) *PoleZeroView {
	return &PoleZeroView{
		Zeros:     ViewRoots(set.Zeros),
		Poles:     ViewRoots(set.Poles),
		PlotPoles: lti.ToComplexes(set.PlotPoles),
		Den:       set.Den,
	}
}

type LocusPoint struct {
	Gain float64 `json:"gain"`
	Re   float64 `json:"re"`
	Im   float64 `json:"im"`
}

type LocusView struct {
	Gains    []float64      `json:"gains"`
	Branches [][]LocusPoint `json:"branches"`
}

func ViewLocus(l *locus.Locus) *LocusView {
	out := &LocusView{Gains: l.Gains, Branches: make([][]LocusPoint, len(l.Branches))}
	for i, b := range l.Branches {
		pts := make([]LocusPoint, len(b))
		for j, p := range b {
			pts[j] = LocusPoint{Gain: p.Gain, Re: real(p.Root), Im: imag(p.Root)}
		}
		out.Branches[i] = pts
	}
	return out
}

type TermView struct {
	Pole    lti.Complex `json:"pole"`
	Residue lti.Complex `json:"residue"`
	Order   int         `json:"order"`
}

// PartialView lists the terms of an expansion alongside its LaTeX form.
type PartialView struct {
	Terms    []TermView `json:"terms"`
	Quotient []float64  `json:"quotient,omitempty"`
	Latex    string     `json:"latex"`
}

func ViewPartial(e *pfe.Expansion, v string) *PartialView {
	out := &PartialView{Terms: make([]TermView, len(e.Terms)), Quotient: e.Quotient, Latex: pfe.Render(e, v)}
	for i, t := range e.Terms {
		out.Terms[i] = TermView{Pole: lti.ToComplex(t.Pole), Residue: lti.ToComplex(t.Residue), Order: t.Order}
	}
	return out
}
