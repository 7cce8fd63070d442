package pfe

import (
	"errors"
	"math/cmplx"
	"strings"
	"testing"

	"github.com/san-kum/tfsim/internal/lti"
)

type failingFinder struct{}

func (failingFinder) Roots(p lti.Poly) ([]complex128, error) {
	return nil, &lti.Error{Op: "roots", Wrapped: lti.ErrNumericalFailure}
}

func TestExpandDistinctRealPoles(t *testing.T) {
	exp, err := Expand(lti.Poly{1}, lti.Poly{1, 3, 2}, lti.Companion{})
	if err != nil {
		t.Fatal(err)
	}
	if len(exp.Terms) != 2 || exp.Quotient != nil {
		t.Fatalf("unexpected expansion: %+v", exp)
	}
	got := Render(exp, "s")
	want := `\frac{1}{s + 1} - \frac{1}{s + 2}`
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestExpandRepeatedPole(t *testing.T) {
	// (s+3)/(s+1)^2 = 1/(s+1) + 2/(s+1)^2
	den := lti.Mul(lti.Poly{1, 1}, lti.Poly{1, 1})
	exp, err := Expand(lti.Poly{1, 3}, den, lti.Companion{})
	if err != nil {
		t.Fatal(err)
	}
	if len(exp.Terms) != 2 {
		t.Fatalf("expected 2 terms, got %+v", exp.Terms)
	}
	for _, term := range exp.Terms {
		want := complex(1, 0)
		if term.Order == 2 {
			want = 2
		}
		if cmplx.Abs(term.Residue-want) > 1e-6 {
			t.Errorf("order %d residue = %v, want %v", term.Order, term.Residue, want)
		}
	}
	got := Render(exp, "s")
	if !strings.Contains(got, `\frac{2}{(s + 1)^2}`) {
		t.Errorf("Render = %q, missing squared term", got)
	}
}

func TestExpandImproper(t *testing.T) {
	// (s^2 + 3s + 3)/(s + 1) = s + 2 + 1/(s+1)
	exp, err := Expand(lti.Poly{1, 3, 3}, lti.Poly{1, 1}, lti.Companion{})
	if err != nil {
		t.Fatal(err)
	}
	if exp.Quotient == nil || exp.Quotient.Degree() != 1 {
		t.Fatalf("expected linear quotient, got %v", exp.Quotient)
	}
	got := Render(exp, "s")
	want := `\frac{1}{s + 1} + s + 2`
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestReconstruction(t *testing.T) {
	cases := []struct {
		num, den lti.Poly
	}{
		{lti.Poly{1}, lti.Poly{1, 3, 2}},
		{lti.Poly{2, 1}, lti.FromRealRoots([]float64{-1, -1, -3})},
		{lti.Poly{1, 0, 4}, lti.Poly{1, 2, 5, 0}},
		{lti.Poly{3, 2, 1}, lti.Poly{1, 2, 5}},
		{lti.Poly{1, 0, 0, 1}, lti.FromRealRoots([]float64{-2, -2, -2})},
	}
	points := []complex128{complex(0.5, 0.5), complex(3, -1), complex(-0.3, 2)}
	for _, c := range cases {
		exp, err := Expand(c.num, c.den, lti.Companion{})
		if err != nil {
			t.Fatalf("Expand(%v/%v): %v", c.num, c.den, err)
		}
		for _, s := range points {
			want := c.num.EvalComplex(s) / c.den.EvalComplex(s)
			got := exp.Eval(s)
			if cmplx.Abs(got-want) > 1e-4*cmplx.Abs(want) {
				t.Errorf("%v/%v at %v: got %v, want %v", c.num, c.den, s, got, want)
			}
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	exp, err := Expand(lti.Poly{0}, lti.Poly{1, 1}, lti.Companion{})
	if err != nil {
		t.Fatal(err)
	}
	if got := Render(exp, "s"); got != "0" {
		t.Errorf("Render(empty) = %q, want 0", got)
	}
}

func TestRenderFractionDegrades(t *testing.T) {
	got := RenderFraction(lti.Poly{1}, lti.Poly{1, 3, 2}, "s", failingFinder{})
	if !strings.HasPrefix(got, `\text{`) {
		t.Errorf("expected error text, got %q", got)
	}
	if _, err := Expand(lti.Poly{1}, lti.Poly{0}, lti.Companion{}); !errors.Is(err, lti.ErrInvalidSystem) {
		t.Errorf("expected ErrInvalidSystem, got %v", err)
	}
}

func TestRenderPoleAtOrigin(t *testing.T) {
	// 1/(s(s+1)) = 1/s - 1/(s+1)
	exp, err := Expand(lti.Poly{1}, lti.Poly{1, 1, 0}, lti.Companion{})
	if err != nil {
		t.Fatal(err)
	}
	want := `\frac{1}{s} - \frac{1}{s + 1}`
	if got := Render(exp, "s"); got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestFormatResidueNoNegativeZero(t *testing.T) {
	tests := []struct {
		name    string
		r       complex128
		want    string
		wantNeg bool
	}{
		{"tiny negative real", complex(-1e-9, 0), "0", false},
		{"tiny negative real part", complex(-1e-9, -0.25), "0 - 0.25j", false},
		{"negative real", complex(-2, 0), "2", true},
		{"complex", complex(0.5, 0.125), "0.5 + 0.125j", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, neg := formatResidue(tt.r)
			if got != tt.want || neg != tt.wantNeg {
				t.Errorf("formatResidue(%v) = %q, %v; want %q, %v", tt.r, got, neg, tt.want, tt.wantNeg)
			}
		})
	}
}

func TestRenderRepeatedComplexPair(t *testing.T) {
	// s/(s^2+2s+5)^2 has purely imaginary residues on the squared terms
	den := lti.Mul(lti.Poly{1, 2, 5}, lti.Poly{1, 2, 5})
	exp, err := Expand(lti.Poly{1, 0}, den, lti.Companion{})
	if err != nil {
		t.Fatal(err)
	}
	got := Render(exp, "s")
	for _, bad := range []string{"{-0 ", "{-0}", " -0 "} {
		if strings.Contains(got, bad) {
			t.Errorf("Render = %q contains %q", got, bad)
		}
	}
}
