package lti

import (
	"fmt"
	"math"
	"strings"
)

const (
	renderEps = 1e-10
	closeTol  = 1e-8
)

// RenderPolynomial emits p as a LaTeX sum in variable v.
//
// Coefficients below 1e-10 are skipped and unit coefficients are elided except
// on the constant term. A polynomial of the form [1, 0, 0, ...] renders as "1".
// The zero polynomial renders as "0".
func RenderPolynomial(p Poly, v string) string {
	p = p.Trim()
	if math.Abs(p[0]-1) <= closeTol {
		rest := true
		for _, c := range p[1:] {
			if math.Abs(c) > closeTol {
				rest = false
				break
			}
		}
		if rest {
			return "1"
		}
	}

	order := len(p) - 1
	terms := make([]string, 0, len(p))
	for i, c := range p {
		pow := order - i
		if math.Abs(c) < renderEps {
			continue
		}
		coef := fmt.Sprintf("%.3g", c)
		if math.Abs(c) == 1 && pow != 0 {
			coef = ""
			if c < 0 {
				coef = "-"
			}
		}
		switch {
		case pow > 1:
			terms = append(terms, fmt.Sprintf("%s%s^%d", coef, v, pow))
		case pow == 1:
			terms = append(terms, coef+v)
		default:
			terms = append(terms, coef)
		}
	}
	if len(terms) == 0 {
		return "0"
	}
	return strings.ReplaceAll(strings.Join(terms, " + "), "+ -", "- ")
}

// RenderMonic normalizes p by its leading coefficient and renders it.
func RenderMonic(p Poly, v string) string {
	p = p.Trim()
	if math.Abs(p[0]) < renderEps {
		return RenderPolynomial(p, v)
	}
	return RenderPolynomial(p.Monic(), v)
}

// RenderFactored emits the product of (v - r) factors for real roots.
// Roots at the origin render as the bare variable; an empty or all-zero root
// list renders as "1".
func RenderFactored(roots []float64, v string) string {
	allZero := true
	for _, r := range roots {
		if math.Abs(r) > closeTol {
			allZero = false
			break
		}
	}
	if allZero {
		return "1"
	}

	var sb strings.Builder
	for _, r := range roots {
		if math.Abs(r) < renderEps {
			sb.WriteString(v)
			continue
		}
		sign := "-"
		if r < 0 {
			sign = "+"
		}
		fmt.Fprintf(&sb, "(%s %s %.3g)", v, sign, math.Abs(r))
	}
	return sb.String()
}

// Frac wraps numerator and denominator LaTeX in \frac.
func Frac(num, den string) string {
	return `\frac{` + num + `}{` + den + `}`
}
