// Package discrete maps continuous transfer functions to discrete time.
package discrete

import (
	"fmt"

	"github.com/san-kum/tfsim/internal/lti"
)

// Tustin applies the bilinear substitution s = (2/ts)(z-1)/(z+1) and clears
// fractions by multiplying through with (z+1)^n, n the larger of the two
// degrees. The result is normalized so the leading denominator coefficient is 1.
func Tustin(sys lti.System, ts float64) (lti.System, error) {
	if !(ts > 0) {
		return lti.System{}, &lti.Error{Op: "tustin", Wrapped: lti.ErrInvalidSampleTime, Detail: fmt.Sprintf("ts=%g", ts)}
	}
	if sys.IsDiscrete() {
		return lti.System{}, &lti.Error{Op: "tustin", Wrapped: lti.ErrInvalidSystem, Detail: "system is already discrete"}
	}

	num, den := sys.Num(), sys.Den()
	n := num.Degree()
	if d := den.Degree(); d > n {
		n = d
	}
	c := 2 / ts
	zNum := substitute(num, c, n)
	zDen := substitute(den, c, n)
	if zDen.IsZero() {
		return lti.System{}, &lti.Error{Op: "tustin", Wrapped: lti.ErrInvalidSystem, Detail: "discrete denominator vanishes"}
	}
	lead := zDen.Lead()
	return lti.NewDiscrete(zNum.Scale(1/lead), zDen.Scale(1/lead), ts)
}

// substitute returns sum_k p_k c^k (z-1)^k (z+1)^(n-k), k the power of each term.
func substitute(p lti.Poly, c float64, n int) lti.Poly {
	minus := lti.Poly{1, -1}
	plus := lti.Poly{1, 1}
	deg := len(p) - 1
	out := lti.Poly{0}
	ck := 1.0
	for k := 0; k <= deg; k++ {
		coef := p[deg-k]
		if coef != 0 {
			term := lti.Mul(lti.Pow(minus, k), lti.Pow(plus, n-k)).Scale(coef * ck)
			out = lti.Add(out, term)
		}
		ck *= c
	}
	return out
}
