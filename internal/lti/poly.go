package lti

// Poly is a real polynomial with coefficients ordered highest degree first.
// A trimmed Poly is never empty; the zero polynomial is Poly{0}.
type Poly []float64

// NewPoly copies and trims coeffs.
func NewPoly(coeffs ...float64) Poly {
	p := make(Poly, len(coeffs))
	copy(p, coeffs)
	return p.Trim()
}

// Trim drops leading zero coefficients. An empty or all-zero input yields Poly{0}.
func (p Poly) Trim() Poly {
	for i, c := range p {
		if c != 0 {
			return p[i:]
		}
	}
	return Poly{0}
}

// Degree of the trimmed polynomial. The zero polynomial has degree 0.
func (p Poly) Degree() int {
	return len(p.Trim()) - 1
}

func (p Poly) IsZero() bool {
	for _, c := range p {
		if c != 0 {
			return false
		}
	}
	return true
}

// Lead returns the leading coefficient of the trimmed polynomial.
func (p Poly) Lead() float64 {
	return p.Trim()[0]
}

func (p Poly) Clone() Poly {
	out := make(Poly, len(p))
	copy(out, p)
	return out
}

func (p Poly) Scale(k float64) Poly {
	out := make(Poly, len(p))
	for i, c := range p {
		out[i] = k * c
	}
	return out.Trim()
}

// Monic divides by the leading coefficient. A zero polynomial is returned unchanged.
func (p Poly) Monic() Poly {
	t := p.Trim()
	if t[0] == 0 {
		return t.Clone()
	}
	return t.Scale(1 / t[0])
}

// Eval evaluates p at a real point with Horner's scheme.
func (p Poly) Eval(x float64) float64 {
	var acc float64
	for _, c := range p {
		acc = acc*x + c
	}
	return acc
}

// EvalComplex evaluates p at a complex point with Horner's scheme.
func (p Poly) EvalComplex(s complex128) complex128 {
	var acc complex128
	for _, c := range p {
		acc = acc*s + complex(c, 0)
	}
	return acc
}

// Add returns a+b with degree-aligned, zero-padded coefficients.
func Add(a, b Poly) Poly {
	if len(a) < len(b) {
		a, b = b, a
	}
	out := a.Clone()
	off := len(a) - len(b)
	for i, c := range b {
		out[off+i] += c
	}
	return out.Trim()
}

// Sub returns a-b.
func Sub(a, b Poly) Poly {
	return Add(a, b.Scale(-1))
}

// Mul returns the product (coefficient convolution) of a and b.
func Mul(a, b Poly) Poly {
	if len(a) == 0 || len(b) == 0 {
		return Poly{0}
	}
	out := make(Poly, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out.Trim()
}

// Pow returns p raised to a non-negative integer power.
func Pow(p Poly, n int) Poly {
	out := Poly{1}
	for i := 0; i < n; i++ {
		out = Mul(out, p)
	}
	return out
}

// Div performs polynomial long division, returning quotient and remainder.
// Dividing by the zero polynomial returns ErrInvalidSystem.
func Div(a, b Poly) (q, r Poly, err error) {
	b = b.Trim()
	if b.IsZero() {
		return nil, nil, opError("div", ErrInvalidSystem, "division by zero polynomial")
	}
	a = a.Trim()
	if len(a) < len(b) {
		return Poly{0}, a.Clone(), nil
	}
	rem := a.Clone()
	q = make(Poly, len(a)-len(b)+1)
	for i := range q {
		c := rem[i] / b[0]
		q[i] = c
		for j := range b {
			rem[i+j] -= c * b[j]
		}
	}
	r = rem[len(q):]
	if len(r) == 0 {
		r = Poly{0}
	}
	return q.Trim(), r.Clone().Trim(), nil
}

// FromRoots builds the monic polynomial with the given roots by iterated
// convolution with (x - r) and keeps the real part of each coefficient.
// For conjugate pairs the imaginary part is rounding noise, well under 1e-9.
// The imaginary part is dropped whatever its size, so an unpaired complex
// root yields the real part of its product rather than an error. Callers
// that need a real polynomial must supply conjugate pairs.
func FromRoots(roots []complex128) Poly {
	acc := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(acc)+1)
		for i, c := range acc {
			next[i] += c
			next[i+1] -= c * r
		}
		acc = next
	}
	out := make(Poly, len(acc))
	for i, c := range acc {
		out[i] = real(c)
	}
	return out
}

// FromRealRoots is FromRoots for real roots. An empty list yields Poly{1}.
func FromRealRoots(roots []float64) Poly {
	out := Poly{1}
	for _, r := range roots {
		out = Mul(out, Poly{1, -r})
	}
	return out
}
