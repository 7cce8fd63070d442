package pfe

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/tfsim/internal/lti"
)

// Render emits the expansion as LaTeX in variable v. Simple poles render as
// \frac{r}{v - p}, repeated poles as \frac{r}{(v - p)^k}, quotient terms as
// monomials. An empty expansion renders as "0".
func Render(e *Expansion, v string) string {
	var sb strings.Builder
	write := func(neg bool, body string) {
		switch {
		case sb.Len() == 0 && neg:
			sb.WriteString("-" + body)
		case sb.Len() == 0:
			sb.WriteString(body)
		case neg:
			sb.WriteString(" - " + body)
		default:
			sb.WriteString(" + " + body)
		}
	}

	for _, t := range e.Terms {
		den := factor(t.Pole, v)
		if t.Order > 1 {
			den = fmt.Sprintf("(%s)^%d", den, t.Order)
		}
		num, neg := formatResidue(t.Residue)
		write(neg, lti.Frac(num, den))
	}

	if e.Quotient != nil {
		deg := len(e.Quotient) - 1
		for i, c := range e.Quotient {
			if math.Abs(c) <= ResidueTol {
				continue
			}
			pow := deg - i
			mono := fmt.Sprintf("%.4g", math.Abs(c))
			if math.Abs(c) == 1 && pow > 0 {
				mono = ""
			}
			switch {
			case pow > 1:
				mono += fmt.Sprintf("%s^%d", v, pow)
			case pow == 1:
				mono += v
			}
			write(c < 0, mono)
		}
	}

	if sb.Len() == 0 {
		return "0"
	}
	return sb.String()
}

// RenderFraction expands num/den and renders the result. Failures are
// returned as a LaTeX text message instead of an error.
func RenderFraction(num, den lti.Poly, v string, rf lti.RootFinder) string {
	exp, err := Expand(num, den, rf)
	if err != nil {
		return fmt.Sprintf(`\text{partial fractions unavailable: %s}`, err)
	}
	return Render(exp, v)
}

func factor(p complex128, v string) string {
	re, im := real(p), imag(p)
	if math.Abs(im) > ResidueTol {
		sign := "-"
		if im < 0 {
			sign = "+"
		}
		return fmt.Sprintf("%s - (%.4g %s %.4gj)", v, re, sign, math.Abs(im))
	}
	switch {
	case math.Abs(re) < 1e-10:
		return v
	case re < 0:
		return fmt.Sprintf("%s + %.4g", v, -re)
	default:
		return fmt.Sprintf("%s - %.4g", v, re)
	}
}

// formatResidue returns the residue text and whether a real residue is
// negative, in which case the text holds its magnitude.
func formatResidue(r complex128) (string, bool) {
	re, im := round4(real(r)), round4(imag(r))
	if math.Abs(im) > ResidueTol {
		sign := "+"
		if im < 0 {
			sign = "-"
		}
		return fmt.Sprintf("%.4g %s %.4gj", re, sign, math.Abs(im)), false
	}
	return fmt.Sprintf("%.4g", math.Abs(re)), re < 0
}

// round4 rounds to four decimals; adding zero turns -0 into 0.
func round4(v float64) float64 {
	return math.Round(v*1e4)/1e4 + 0
}
