package lti

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// RootFinder returns the complex roots of a real polynomial, with multiplicity.
type RootFinder interface {
	Roots(p Poly) ([]complex128, error)
}

// Companion finds roots as eigenvalues of the polynomial's companion matrix.
type Companion struct{}

func (Companion) Roots(p Poly) ([]complex128, error) {
	p = p.Trim()
	for _, c := range p {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, opError("roots", ErrNumericalFailure, "non-finite coefficient")
		}
	}
	if len(p) <= 1 {
		return nil, nil
	}

	// trailing zeros are roots at the origin
	zeros := 0
	for len(p) > 1 && p[len(p)-1] == 0 {
		p = p[:len(p)-1]
		zeros++
	}
	roots := make([]complex128, zeros, len(p)-1+zeros)

	n := len(p) - 1
	switch n {
	case 0:
		return roots, nil
	case 1:
		return append(roots, complex(-p[1]/p[0], 0)), nil
	}

	comp := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		comp.Set(0, j, -p[j+1]/p[0])
	}
	for i := 1; i < n; i++ {
		comp.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(comp, mat.EigenNone); !ok {
		return nil, opError("roots", ErrNumericalFailure, "eigen decomposition did not converge")
	}
	for _, v := range eig.Values(nil) {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return nil, opError("roots", ErrNumericalFailure, "non-finite eigenvalue")
		}
		roots = append(roots, v)
	}
	return roots, nil
}

// SortRoots orders roots by descending real part, then descending imaginary part.
func SortRoots(roots []complex128) {
	sort.SliceStable(roots, func(i, j int) bool {
		if real(roots[i]) != real(roots[j]) {
			return real(roots[i]) > real(roots[j])
		}
		return imag(roots[i]) > imag(roots[j])
	})
}

// RealParts extracts the real part of every root.
func RealParts(roots []complex128) []float64 {
	out := make([]float64, len(roots))
	for i, r := range roots {
		out[i] = real(r)
	}
	return out
}
