// Package lti provides the rational transfer-function algebra used by every
// analysis in tfsim.
//
// The package defines the value types shared by the analysis packages:
//
//   - [Poly]: real polynomial, coefficients highest degree first
//   - [System]: immutable numerator/denominator pair in s or z
//   - [RootFinder]: complex roots of a real polynomial
//   - [Companion]: default [RootFinder] backed by a companion-matrix eigensolver
//
// # Example
//
//	plant, _ := lti.FromZPK(nil, []float64{-1}, 1)
//	closed, _ := lti.Feedback(plant, lti.Unity(), lti.Negative)
//	g, _ := closed.Eval(complex(0, 1))
//
// # Thread Safety
//
// Every value in this package is immutable once constructed, so systems and
// polynomials may be shared freely between goroutines.
package lti
