// Package pfe decomposes rational functions into partial fractions.
package pfe

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/tfsim/internal/lti"
)

const (
	// ResidueTol is the magnitude below which a residue is omitted.
	ResidueTol = 1e-8
	// GroupDecimals is the rounding applied to poles before grouping.
	GroupDecimals = 4

	maxCondition = 1e14
)

// Term is Residue/(s - Pole)^Order.
type Term struct {
	Pole    complex128
	Residue complex128
	Order   int
}

// Expansion is the sum of Terms plus a direct polynomial part, present only
// for improper fractions.
type Expansion struct {
	Terms    []Term
	Quotient lti.Poly
}

// Eval sums every term at s.
func (e *Expansion) Eval(s complex128) complex128 {
	var acc complex128
	for _, t := range e.Terms {
		acc += t.Residue / cmplx.Pow(s-t.Pole, complex(float64(t.Order), 0))
	}
	if e.Quotient != nil {
		acc += e.Quotient.EvalComplex(s)
	}
	return acc
}

type poleGroup struct {
	pole complex128
	mult int
}

// Expand computes the partial-fraction expansion of num/den. Poles that agree
// to GroupDecimals decimals are merged into one group whose multiplicity is
// the group size.
func Expand(num, den lti.Poly, rf lti.RootFinder) (*Expansion, error) {
	num, den = num.Trim(), den.Trim()
	if den.IsZero() {
		return nil, &lti.Error{Op: "pfe", Wrapped: lti.ErrInvalidSystem}
	}
	exp := &Expansion{}
	if num.IsZero() {
		return exp, nil
	}

	q, r, err := lti.Div(num, den)
	if err != nil {
		return nil, err
	}
	if !q.IsZero() {
		exp.Quotient = q
	}
	if r.IsZero() || den.Degree() == 0 {
		return exp, nil
	}

	roots, err := rf.Roots(den)
	if err != nil {
		return nil, err
	}
	n := den.Degree()
	if len(roots) != n {
		return nil, &lti.Error{Op: "pfe", Wrapped: lti.ErrNumericalFailure,
			Detail: fmt.Sprintf("found %d roots for degree %d", len(roots), n)}
	}
	groups := groupPoles(roots)

	lead := den.Lead()
	rhs := make([]complex128, n)
	off := n - len(r)
	for i, c := range r {
		rhs[off+i] = complex(c/lead, 0)
	}

	// one column per (group, order) pair
	type unknown struct{ group, order int }
	var cols []unknown
	var basis [][]complex128
	for gi, g := range groups {
		for j := 1; j <= g.mult; j++ {
			b := []complex128{1}
			for hi, h := range groups {
				m := h.mult
				if hi == gi {
					m -= j
				}
				for k := 0; k < m; k++ {
					b = cmul(b, []complex128{1, -h.pole})
				}
			}
			padded := make([]complex128, n)
			copy(padded[n-len(b):], b)
			cols = append(cols, unknown{gi, j})
			basis = append(basis, padded)
		}
	}

	x, err := solveComplex(basis, rhs)
	if err != nil {
		return nil, err
	}
	for i, c := range cols {
		if cmplx.Abs(x[i]) < ResidueTol {
			continue
		}
		exp.Terms = append(exp.Terms, Term{
			Pole:    groups[c.group].pole,
			Residue: x[i],
			Order:   c.order,
		})
	}
	return exp, nil
}

func groupPoles(roots []complex128) []poleGroup {
	scale := math.Pow(10, GroupDecimals)
	round := func(v float64) float64 { return math.Round(v*scale) / scale }

	type key struct{ re, im float64 }
	index := map[key]int{}
	var sums []complex128
	var groups []poleGroup
	for _, p := range roots {
		k := key{round(real(p)), round(imag(p))}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, poleGroup{})
			sums = append(sums, 0)
		}
		groups[i].mult++
		sums[i] += p
	}
	for i := range groups {
		groups[i].pole = sums[i] / complex(float64(groups[i].mult), 0)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].pole, groups[j].pole
		if real(a) != real(b) {
			return real(a) > real(b)
		}
		return imag(a) > imag(b)
	})
	return groups
}

func cmul(a, b []complex128) []complex128 {
	out := make([]complex128, len(a)+len(b)-1)
	for i, x := range a {
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// solveComplex solves sum_j cols[j][i] x_j = rhs[i] through the equivalent
// real system [[Re, -Im], [Im, Re]].
func solveComplex(cols [][]complex128, rhs []complex128) ([]complex128, error) {
	n := len(rhs)
	a := mat.NewDense(2*n, 2*n, nil)
	b := mat.NewVecDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j, col := range cols {
			re, im := real(col[i]), imag(col[i])
			a.Set(i, j, re)
			a.Set(i, j+n, -im)
			a.Set(i+n, j, im)
			a.Set(i+n, j+n, re)
		}
		b.SetVec(i, real(rhs[i]))
		b.SetVec(i+n, imag(rhs[i]))
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || float64(cond) > maxCondition {
			return nil, &lti.Error{Op: "pfe", Wrapped: lti.ErrNumericalFailure, Detail: fmt.Sprintf("residue system: %v", err)}
		}
	}
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(x.AtVec(i), x.AtVec(i+n))
	}
	return out, nil
}
