package lti

import (
	"fmt"
	"math"
)

// Complex is a serializable complex number.
type Complex struct {
	Re float64 `json:"re" yaml:"re"`
	Im float64 `json:"im" yaml:"im"`
}

func ToComplex(z complex128) Complex {
	return Complex{Re: real(z), Im: imag(z)}
}

func ToComplexes(zs []complex128) []Complex {
	out := make([]Complex, len(zs))
	for i, z := range zs {
		out[i] = ToComplex(z)
	}
	return out
}

func (c Complex) Abs() float64 {
	return math.Hypot(c.Re, c.Im)
}

// String formats c as "a" or "a+bj", dropping imaginary parts below 1e-8.
func (c Complex) String() string {
	if math.Abs(c.Im) < 1e-8 {
		return fmt.Sprintf("%.6g", c.Re)
	}
	sign := "+"
	if c.Im < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%.6g%s%.6gj", c.Re, sign, math.Abs(c.Im))
}
