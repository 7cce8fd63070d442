package lti

import (
	"math"
	"math/cmplx"
	"testing"
)

func polyClose(a, b Poly, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestTrim(t *testing.T) {
	tests := []struct {
		in   Poly
		want Poly
	}{
		{Poly{0, 0, 1, 2}, Poly{1, 2}},
		{Poly{3}, Poly{3}},
		{Poly{0, 0}, Poly{0}},
		{Poly{}, Poly{0}},
		{Poly{1, 0, 0}, Poly{1, 0, 0}},
	}
	for _, tt := range tests {
		got := tt.in.Trim()
		if !polyClose(got, tt.want, 0) {
			t.Errorf("Trim(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAddMul(t *testing.T) {
	a := Poly{1, 1}
	b := Poly{1, 2}

	if got := Mul(a, b); !polyClose(got, Poly{1, 3, 2}, 0) {
		t.Errorf("Mul = %v, want [1 3 2]", got)
	}
	if got := Add(Poly{1, 0, 0}, Poly{2, 3}); !polyClose(got, Poly{1, 2, 3}, 0) {
		t.Errorf("Add = %v, want [1 2 3]", got)
	}
	if got := Add(a, a.Scale(-1)); !polyClose(got, Poly{0}, 0) {
		t.Errorf("a - a = %v, want [0]", got)
	}
}

func TestDiv(t *testing.T) {
	q, r, err := Div(Poly{1, 3, 3}, Poly{1, 1})
	if err != nil {
		t.Fatalf("Div: %v", err)
	}
	if !polyClose(q, Poly{1, 2}, 1e-12) || !polyClose(r, Poly{1}, 1e-12) {
		t.Errorf("Div = %v rem %v, want [1 2] rem [1]", q, r)
	}

	if _, _, err := Div(Poly{1}, Poly{0}); err == nil {
		t.Error("expected error dividing by zero polynomial")
	}
}

func TestFromRealRoots(t *testing.T) {
	got := FromRealRoots([]float64{-1, -2})
	if !polyClose(got, Poly{1, 3, 2}, 1e-12) {
		t.Errorf("FromRealRoots = %v, want [1 3 2]", got)
	}
	if got := FromRealRoots(nil); !polyClose(got, Poly{1}, 0) {
		t.Errorf("empty roots = %v, want [1]", got)
	}
}

func TestFromRootsConjugatePair(t *testing.T) {
	got := FromRoots([]complex128{complex(-1, 2), complex(-1, -2)})
	if !polyClose(got, Poly{1, 2, 5}, 1e-12) {
		t.Errorf("FromRoots = %v, want [1 2 5]", got)
	}
}

func TestFromRootsUnpairedKeepsRealPart(t *testing.T) {
	// (x - (1+2j)) = x - 1 - 2j; the -2j is dropped
	got := FromRoots([]complex128{complex(1, 2)})
	if !polyClose(got, Poly{1, -1}, 0) {
		t.Errorf("FromRoots(1+2j) = %v, want [1 -1]", got)
	}
	// (x - j)(x - j) = x^2 - 2j x - 1
	got = FromRoots([]complex128{complex(0, 1), complex(0, 1)})
	if !polyClose(got, Poly{1, 0, -1}, 0) {
		t.Errorf("FromRoots(j, j) = %v, want [1 0 -1]", got)
	}
}

func TestRootsRoundTrip(t *testing.T) {
	sets := [][]complex128{
		{-1, -2, -3},
		{complex(-1, 2), complex(-1, -2), -4},
		{0, -0.5, complex(-0.2, 1), complex(-0.2, -1)},
		{-2, -2, -5},
	}
	rf := Companion{}
	for _, want := range sets {
		got, err := rf.Roots(FromRoots(want))
		if err != nil {
			t.Fatalf("Roots: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("got %d roots, want %d", len(got), len(want))
		}
		w := append([]complex128(nil), want...)
		SortRoots(got)
		SortRoots(w)
		for i := range w {
			if cmplx.Abs(got[i]-w[i]) > 1e-6 {
				t.Errorf("root %d = %v, want %v", i, got[i], w[i])
			}
		}
	}
}

func TestRootsDegenerate(t *testing.T) {
	rf := Companion{}
	roots, err := rf.Roots(Poly{5})
	if err != nil || len(roots) != 0 {
		t.Errorf("constant poly: roots=%v err=%v", roots, err)
	}
	roots, err = rf.Roots(Poly{2, 4})
	if err != nil || len(roots) != 1 || roots[0] != -2 {
		t.Errorf("linear poly: roots=%v err=%v", roots, err)
	}
	if _, err := rf.Roots(Poly{1, math.NaN()}); err == nil {
		t.Error("expected numerical failure for NaN coefficient")
	}
}

func TestEvalComplex(t *testing.T) {
	p := Poly{1, 0, 1}
	if got := p.EvalComplex(complex(0, 1)); cmplx.Abs(got) > 1e-15 {
		t.Errorf("p(j) = %v, want 0", got)
	}
	if got := p.Eval(2); got != 5 {
		t.Errorf("p(2) = %v, want 5", got)
	}
}
