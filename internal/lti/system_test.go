package lti

import (
	"errors"
	"math/cmplx"
	"testing"
)

func mustZPK(t *testing.T, zeros, poles []float64, k float64) System {
	t.Helper()
	sys, err := FromZPK(zeros, poles, k)
	if err != nil {
		t.Fatalf("FromZPK: %v", err)
	}
	return sys
}

func TestNewRejectsZeroDenominator(t *testing.T) {
	_, err := New(Poly{1}, Poly{0, 0})
	if !errors.Is(err, ErrInvalidSystem) {
		t.Errorf("expected ErrInvalidSystem, got %v", err)
	}
	_, err = New(Poly{1}, Poly{})
	if !errors.Is(err, ErrInvalidSystem) {
		t.Errorf("expected ErrInvalidSystem for empty den, got %v", err)
	}
}

func TestNewDiscreteSampleTime(t *testing.T) {
	for _, ts := range []float64{0, -0.1} {
		if _, err := NewDiscrete(Poly{1}, Poly{1, -0.5}, ts); !errors.Is(err, ErrInvalidSampleTime) {
			t.Errorf("ts=%v: expected ErrInvalidSampleTime, got %v", ts, err)
		}
	}
	sys, err := NewDiscrete(Poly{1}, Poly{1, -0.5}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if sys.Var() != "z" || !sys.IsDiscrete() {
		t.Errorf("expected discrete system in z")
	}
}

func TestFromZPKDropsOrigin(t *testing.T) {
	sys := mustZPK(t, []float64{1e-9, -3}, []float64{0, -1}, 2)
	if !polyClose(sys.Num(), Poly{2, 6}, 1e-12) {
		t.Errorf("num = %v, want [2 6]", sys.Num())
	}
	if !polyClose(sys.Den(), Poly{1, 1}, 1e-12) {
		t.Errorf("den = %v, want [1 1]", sys.Den())
	}

	empty := mustZPK(t, nil, nil, 1)
	if !polyClose(empty.Den(), Poly{1}, 0) || !polyClose(empty.Num(), Poly{1}, 0) {
		t.Errorf("empty zpk = %v", empty)
	}
}

func TestUnityFeedback(t *testing.T) {
	g := mustZPK(t, nil, []float64{-1}, 1)
	cl, err := Feedback(g, Unity(), Negative)
	if err != nil {
		t.Fatal(err)
	}
	if !polyClose(cl.Num(), Poly{1}, 0) || !polyClose(cl.Den(), Poly{1, 2}, 0) {
		t.Errorf("feedback = %v, want [1]/[1 2]", cl)
	}

	pos, err := Feedback(g, Unity(), Positive)
	if err != nil {
		t.Fatal(err)
	}
	if !polyClose(pos.Den(), Poly{1, 0}, 0) {
		t.Errorf("positive feedback den = %v, want [1 0]", pos.Den())
	}
}

func TestFeedbackErrorAndDisturbanceLoops(t *testing.T) {
	g := mustZPK(t, nil, []float64{-1}, 1)
	c := mustZPK(t, []float64{-2}, []float64{-3}, 4)
	l := Series(c, g)

	er, err := Feedback(Unity(), l, Negative)
	if err != nil {
		t.Fatal(err)
	}
	yq, err := Feedback(g, c, Negative)
	if err != nil {
		t.Fatal(err)
	}

	s := complex(0.3, 1.7)
	lv, _ := l.Eval(s)
	gv, _ := g.Eval(s)
	erv, _ := er.Eval(s)
	yqv, _ := yq.Eval(s)
	if cmplx.Abs(erv-1/(1+lv)) > 1e-12 {
		t.Errorf("E/R mismatch: %v vs %v", erv, 1/(1+lv))
	}
	if cmplx.Abs(yqv-gv/(1+lv)) > 1e-12 {
		t.Errorf("Y/Q mismatch: %v vs %v", yqv, gv/(1+lv))
	}
}

func TestFeedbackVanishingDenominator(t *testing.T) {
	minus := Unity().Gain(-1)
	if _, err := Feedback(minus, Unity(), Negative); !errors.Is(err, ErrInvalidSystem) {
		t.Errorf("expected ErrInvalidSystem, got %v", err)
	}
}

func TestSeriesCommutes(t *testing.T) {
	a := mustZPK(t, []float64{-1}, []float64{-2, -3}, 2)
	b := mustZPK(t, []float64{-4}, []float64{-5}, 0.5)
	c := mustZPK(t, nil, []float64{-0.5}, 3)
	for _, s := range []complex128{1, complex(0, 1), complex(-0.7, 2), complex(3, -1)} {
		ab, _ := Series(a, b).Eval(s)
		ba, _ := Series(b, a).Eval(s)
		if cmplx.Abs(ab-ba) > 1e-12*cmplx.Abs(ab) {
			t.Errorf("A*B != B*A at %v", s)
		}
		l, _ := Series(Series(a, b), c).Eval(s)
		r, _ := Series(a, Series(b, c)).Eval(s)
		if cmplx.Abs(l-r) > 1e-12*cmplx.Abs(l) {
			t.Errorf("(AB)C != A(BC) at %v", s)
		}
	}
}

func TestEvalSingular(t *testing.T) {
	g := mustZPK(t, nil, []float64{-1}, 1)
	if _, err := g.Eval(-1); !errors.Is(err, ErrSingularEvaluation) {
		t.Errorf("expected ErrSingularEvaluation, got %v", err)
	}
	v, err := g.Eval(complex(0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if cmplx.Abs(v-complex(0.5, -0.5)) > 1e-12 {
		t.Errorf("G(j) = %v, want 0.5-0.5j", v)
	}
}

func TestGainAndProper(t *testing.T) {
	g := mustZPK(t, []float64{-1, -2}, []float64{-3}, 1)
	if g.IsProper() {
		t.Error("expected improper system")
	}
	k := g.Gain(3)
	if !polyClose(k.Num(), g.Num().Scale(3), 0) || !polyClose(k.Den(), g.Den(), 0) {
		t.Errorf("Gain changed denominator or scaled wrongly: %v", k)
	}
	dc, err := mustZPK(t, nil, []float64{-2}, 4).DCGain()
	if err != nil || dc != 2 {
		t.Errorf("DCGain = %v, %v; want 2", dc, err)
	}
}

func TestCharacteristic(t *testing.T) {
	g := mustZPK(t, nil, []float64{-1}, 1)
	c := mustZPK(t, nil, nil, 3)
	got := Characteristic(g, c)
	if !polyClose(got, Poly{1, 4}, 0) {
		t.Errorf("Characteristic = %v, want [1 4]", got)
	}
	cl, _ := Feedback(Series(c, g), Unity(), Negative)
	if !polyClose(cl.Den(), got, 0) {
		t.Errorf("closed-loop den %v differs from characteristic %v", cl.Den(), got)
	}
}

func TestComplexString(t *testing.T) {
	if got := ToComplex(complex(-1, 2)).String(); got != "-1+2j" {
		t.Errorf("String = %q", got)
	}
	if got := ToComplex(complex(3, 1e-12)).String(); got != "3" {
		t.Errorf("String = %q", got)
	}
}
